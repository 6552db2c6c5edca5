/*
errors.go - Centralized error types for the engine

PURPOSE:
  All error kinds in one place for consistency and discoverability.
  Components return these (or wrap them); the API maps them to status codes.

ERROR CATEGORIES:
  1. Input errors - malformed numbers, dates, keys (InvalidArgument)
  2. Admission errors - quota and ceiling violations
  3. Rendering errors - contract settings missing for a period
  4. Import errors - per-row diagnostics and batch commit failures
  5. Store errors - missing or duplicated records

USAGE:
  if errors.Is(err, core.ErrQuotaExceeded) {
      var qe *core.QuotaExceededError
      errors.As(err, &qe)
      fmt.Println(qe.Remaining)
  }

SEE ALSO:
  - quota/ledger.go, income/accumulator.go: Admission errors
  - importer/commit.go: CommitError
*/
package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidArgument is returned for malformed numeric/date input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrQuotaExceeded is returned when an allocation would exceed a position's cap.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrCeilingExceeded is returned when a partner's period total would pass the ceiling.
	ErrCeilingExceeded = errors.New("honorarium ceiling exceeded")

	// ErrTemplateNotReady is returned when no contract settings exist for a period.
	ErrTemplateNotReady = errors.New("contract settings not configured for period")

	// ErrRowRejected marks a per-row import diagnostic. It never aborts a batch.
	ErrRowRejected = errors.New("row rejected")

	// ErrCommitFailed is returned when persisting an import batch fails.
	ErrCommitFailed = errors.New("import commit failed")

	// ErrNotFound is the parent of every missing-record error.
	ErrNotFound = errors.New("not found")

	ErrTaskNotFound       = fmt.Errorf("task %w", ErrNotFound)
	ErrPartnerNotFound    = fmt.Errorf("partner %w", ErrNotFound)
	ErrAllocationNotFound = fmt.Errorf("allocation %w", ErrNotFound)
	ErrTemplateNotFound   = fmt.Errorf("template %w", ErrNotFound)

	// ErrDuplicateAllocation is returned when a partner is assigned twice to one task.
	ErrDuplicateAllocation = errors.New("partner already allocated to task")

	// ErrDuplicateRate is returned when a (task, position) pair already has a rate.
	ErrDuplicateRate = errors.New("position rate already defined for task")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidArgumentError describes rejected input.
type InvalidArgumentError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidArgumentError) Unwrap() error { return ErrInvalidArgument }

// QuotaExceededError reports how much of a position's quota is left.
type QuotaExceededError struct {
	TaskID    TaskID
	Position  PositionCode
	Cap       decimal.Decimal
	Used      decimal.Decimal
	Requested decimal.Decimal
	Remaining decimal.Decimal
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s/%s: requested %s, remaining %s of %s",
		e.TaskID, e.Position, e.Requested, e.Remaining, e.Cap)
}

func (e *QuotaExceededError) Unwrap() error { return ErrQuotaExceeded }

// CeilingExceededError reports by how much a partner's projected total passes
// the ceiling. NeedsConfirmation is set when the caller may proceed after an
// explicit confirmation instead of being blocked.
type CeilingExceededError struct {
	PartnerID         PartnerID
	Period            PeriodKey
	Ceiling           Amount
	Projected         Amount
	Excess            Amount
	NeedsConfirmation bool
}

func (e *CeilingExceededError) Error() string {
	return fmt.Sprintf("honorarium ceiling exceeded for partner %s in %s: projected %s, ceiling %s, excess %s",
		e.PartnerID, e.Period, e.Projected, e.Ceiling, e.Excess)
}

func (e *CeilingExceededError) Unwrap() error { return ErrCeilingExceeded }

// TemplateNotReadyError names the period lacking contract settings.
type TemplateNotReadyError struct {
	Period PeriodKey
}

func (e *TemplateNotReadyError) Error() string {
	return fmt.Sprintf("contract settings not configured for period %s", e.Period)
}

func (e *TemplateNotReadyError) Unwrap() error { return ErrTemplateNotReady }

// RowError is a soft import diagnostic for one sheet row.
type RowError struct {
	Row    int
	Field  string
	Value  string
	Reason string
}

func (e *RowError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("Row %d: %s '%s' not found", e.Row, e.Field, e.Value)
	}
	return fmt.Sprintf("Row %d: %s '%s' %s", e.Row, e.Field, e.Value, e.Reason)
}

func (e *RowError) Unwrap() error { return ErrRowRejected }

// CommitError aggregates a failed import commit. The batch was rolled back.
type CommitError struct {
	BatchID string
	Row     int
	Err     error
}

func (e *CommitError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("import batch %s rolled back at row %d: %v", e.BatchID, e.Row, e.Err)
	}
	return fmt.Sprintf("import batch %s rolled back: %v", e.BatchID, e.Err)
}

func (e *CommitError) Unwrap() []error { return []error{ErrCommitFailed, e.Err} }

// DuplicateAllocationError names the existing allocation for a partner on a task.
type DuplicateAllocationError struct {
	TaskID     TaskID
	PartnerID  PartnerID
	ExistingID AllocationID
}

func (e *DuplicateAllocationError) Error() string {
	return fmt.Sprintf("partner %s already allocated to task %s (allocation %s)",
		e.PartnerID, e.TaskID, e.ExistingID)
}

func (e *DuplicateAllocationError) Unwrap() error { return ErrDuplicateAllocation }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input or a
// rejected admission check.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrQuotaExceeded) ||
		errors.Is(err, ErrCeilingExceeded) ||
		errors.Is(err, ErrDuplicateAllocation) ||
		errors.Is(err, ErrDuplicateRate)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
