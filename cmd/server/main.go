/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the partner honor engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and load configuration
  2. Initialize logger and SQLite store
  3. Create assignment and contract services
  4. Configure HTTP router and start the status scheduler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML configuration file (optional, defaults apply when missing)
  -port    HTTP server port, overrides the config file
  -db      SQLite database path, overrides the config file
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the status scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (server.shutdown_timeout)
  4. Close database connection and flush logs

EXAMPLES:
  ./server -config=config.yaml
  ./server -db=":memory:" -port=3000
  MITRA_CEILING_POLICY=confirm ./server

SEE ALSO:
  - config/config.go: Settings and environment overrides
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/mitrastat/honor-engine/api"
	"github.com/mitrastat/honor-engine/assignment"
	"github.com/mitrastat/honor-engine/config"
	"github.com/mitrastat/honor-engine/contract"
	"github.com/mitrastat/honor-engine/logger"
	"github.com/mitrastat/honor-engine/store/sqlite"
)

func main() {
	configPath := flag.String("config", "config.yaml", "YAML configuration file")
	port := flag.Int("port", 0, "HTTP server port")
	dbPath := flag.String("db", "", "SQLite database path")
	flag.Parse()

	if err := run(*configPath, *port, *dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, port int, dbPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	policy, err := assignment.ParseCeilingPolicy(cfg.Assignment.CeilingPolicy)
	if err != nil {
		return err
	}
	assignments := assignment.NewService(store, log,
		assignment.WithGranularity(cfg.Granularity()),
		assignment.WithCeilingPolicy(policy),
	)
	contracts := contract.NewService(store, log,
		contract.WithHonorClause(cfg.Contract.HonorClause),
		contract.WithLetterNumberFormat(cfg.Contract.LetterNumberFormat),
	)

	handler := api.NewHandler(store, assignments, contracts, log)
	handler.MaxUploadBytes = cfg.Import.MaxUploadBytes
	handler.DefaultVolume = decimal.NewFromInt(cfg.Import.DefaultVolume)

	scheduler := api.NewStatusScheduler(store, log)
	scheduler.Enabled = cfg.Scheduler.Enabled
	scheduler.CheckInterval = cfg.Scheduler.Interval
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(handler, cfg.Server.AllowedOrigins...),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting",
			"addr", cfg.Addr(),
			"db", cfg.Database.Path,
			"granularity", string(cfg.Granularity()),
			"ceiling_policy", cfg.Assignment.CeilingPolicy,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-quit:
		log.Info("shutting down server", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
