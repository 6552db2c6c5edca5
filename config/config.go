// Package config loads server configuration from a YAML file, then applies
// MITRA_* environment overrides. Command-line flags are applied last by
// cmd/server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mitrastat/honor-engine/core"
)

// Ceiling policies.
const (
	// CeilingBlock rejects any allocation that would exceed the period ceiling.
	CeilingBlock = "block"
	// CeilingConfirm allows it once the caller confirms the excess.
	CeilingConfirm = "confirm"
)

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	// Path of the SQLite file. ":memory:" keeps everything in memory.
	Path string `yaml:"path"`
}

type LogConfig struct {
	Mode string `yaml:"mode"`
}

type AssignmentConfig struct {
	PeriodGranularity string `yaml:"period_granularity"`
	CeilingPolicy     string `yaml:"ceiling_policy"`
}

type ImportConfig struct {
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	DefaultVolume  int64 `yaml:"default_volume"`
}

type ContractConfig struct {
	// HonorClause is used when a period's contract setting has none.
	HonorClause string `yaml:"honor_clause"`
	// LetterNumberFormat is used when a period's contract setting has none.
	LetterNumberFormat string `yaml:"letter_number_format"`
}

type SchedulerConfig struct {
	// Enabled starts the task status scheduler with the server.
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// Config is the full server configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Log        LogConfig        `yaml:"log"`
	Assignment AssignmentConfig `yaml:"assignment"`
	Import     ImportConfig     `yaml:"import"`
	Contract   ContractConfig   `yaml:"contract"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"http://localhost:5173", "http://localhost:3000"},
		},
		Database:   DatabaseConfig{Path: "honor.db"},
		Log:        LogConfig{Mode: "development"},
		Assignment: AssignmentConfig{PeriodGranularity: string(core.GranularityYear), CeilingPolicy: CeilingBlock},
		Import:     ImportConfig{MaxUploadBytes: 10 << 20, DefaultVolume: 1},
		Contract: ContractConfig{
			HonorClause:        "biaya pajak, bea meterai, dan jasa pelayanan keuangan",
			LetterNumberFormat: "{urut}/SPK/{bulan}/{tahun}",
		},
		Scheduler: SchedulerConfig{Enabled: true, Interval: time.Hour},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path or a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("MITRA_PORT"); ok {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &core.InvalidArgumentError{Field: "MITRA_PORT", Value: v, Reason: "must be a number"}
		}
		c.Server.Port = port
	}
	if v, ok := lookup("MITRA_DB"); ok && v != "" {
		c.Database.Path = v
	}
	if v, ok := lookup("MITRA_LOG_MODE"); ok && v != "" {
		c.Log.Mode = v
	}
	if v, ok := lookup("MITRA_PERIOD_GRANULARITY"); ok && v != "" {
		c.Assignment.PeriodGranularity = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup("MITRA_CEILING_POLICY"); ok && v != "" {
		c.Assignment.CeilingPolicy = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup("MITRA_ALLOWED_ORIGINS"); ok && v != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
	return nil
}

// Validate checks the values that have a closed set of choices.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return &core.InvalidArgumentError{Field: "server.port", Value: strconv.Itoa(c.Server.Port), Reason: "must be between 1 and 65535"}
	}
	if _, err := core.ParseGranularity(c.Assignment.PeriodGranularity); err != nil {
		return err
	}
	switch c.Assignment.CeilingPolicy {
	case CeilingBlock, CeilingConfirm:
	default:
		return &core.InvalidArgumentError{Field: "assignment.ceiling_policy", Value: c.Assignment.CeilingPolicy, Reason: "must be block or confirm"}
	}
	if c.Scheduler.Enabled && c.Scheduler.Interval <= 0 {
		return &core.InvalidArgumentError{Field: "scheduler.interval", Value: c.Scheduler.Interval.String(), Reason: "must be positive"}
	}
	if c.Import.DefaultVolume <= 0 {
		return &core.InvalidArgumentError{Field: "import.default_volume", Value: strconv.FormatInt(c.Import.DefaultVolume, 10), Reason: "must be greater than zero"}
	}
	return nil
}

// Granularity returns the parsed period granularity.
func (c Config) Granularity() core.Granularity {
	g, _ := core.ParseGranularity(c.Assignment.PeriodGranularity)
	return g
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
