/*
scheduler.go - Automated task status scheduler

PURPOSE:
  Periodically moves tasks through their lifecycle from their dates so the
  task list shows what is running without anyone editing statuses by hand.

STATUS RULES:
  today < start          planned
  start <= today <= end  ongoing
  today > end            done

  Tasks without a start or end date are left alone. Only tasks whose status
  changes are written.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs once immediately on Start
  - RunNow triggers an out-of-band pass (used by tests and admin tools)

USAGE:
  scheduler := NewStatusScheduler(store, log)
  scheduler.CheckInterval = cfg.Scheduler.Interval
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - core/types.go: TaskStatus values
  - cmd/server/main.go: Startup and shutdown
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/mitrastat/honor-engine/core"
	"github.com/mitrastat/honor-engine/logger"
)

// StatusScheduler keeps task statuses in line with task dates.
type StatusScheduler struct {
	Store         core.Store
	Log           *logger.Logger
	CheckInterval time.Duration
	Enabled       bool

	// Today returns the current date. Tests replace it.
	Today func() core.Date

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewStatusScheduler creates a new scheduler. A nil log discards output.
func NewStatusScheduler(store core.Store, log *logger.Logger) *StatusScheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &StatusScheduler{
		Store:         store,
		Log:           log,
		CheckInterval: time.Hour,
		Enabled:       true,
		Today:         core.Today,
	}
}

// Start begins the scheduler.
func (s *StatusScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.Log.Info("status scheduler disabled")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.run(s.ticker, s.stop)

	s.Log.Info("status scheduler started", "interval", s.CheckInterval.String())
}

// Stop stops the scheduler and waits for a running pass to finish.
func (s *StatusScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.ticker = nil
	s.Log.Info("status scheduler stopped")
}

func (s *StatusScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer s.wg.Done()

	s.pass()
	for {
		select {
		case <-ticker.C:
			s.pass()
		case <-stop:
			return
		}
	}
}

func (s *StatusScheduler) pass() {
	if _, err := s.RunNow(context.Background()); err != nil {
		s.Log.Error("status update failed", "error", err)
	}
}

// RunNow updates every task whose status no longer matches its dates and
// returns the number of tasks changed.
func (s *StatusScheduler) RunNow(ctx context.Context) (int, error) {
	tasks, err := s.Store.ListTasks(ctx)
	if err != nil {
		return 0, err
	}

	today := s.Today()
	changed := 0
	for _, t := range tasks {
		status, ok := StatusOn(t, today)
		if !ok || status == t.Status {
			continue
		}
		prev := t.Status
		t.Status = status
		if err := s.Store.SaveTask(ctx, t); err != nil {
			return changed, err
		}
		changed++
		s.Log.Debug("task status changed", "task_id", t.ID, "from", string(prev), "to", string(status))
	}
	if changed > 0 {
		s.Log.Info("task statuses updated", "changed", changed, "date", today.String())
	}
	return changed, nil
}

// StatusOn returns the status a task should have on the given day. ok is
// false when the task has no complete date range.
func StatusOn(t core.Task, today core.Date) (core.TaskStatus, bool) {
	if t.Start.IsZero() || t.End.IsZero() {
		return "", false
	}
	switch {
	case today.Before(t.Start):
		return core.TaskPlanned, true
	case today.After(t.End):
		return core.TaskDone, true
	default:
		return core.TaskOngoing, true
	}
}
