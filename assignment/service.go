/*
Package assignment admits, saves and removes partner allocations.

PURPOSE:
  An allocation is only saved when both compliance checks pass:
  1. Quota:   the position's remaining volume on the task covers the request
  2. Ceiling: the partner's projected honorarium for the period stays within
              the period rule

  The quota ledger and income accumulator are pure; this service loads their
  inputs from the store, applies the ceiling policy and persists the result.

ADMISSION FLOW:
  ┌──────────────────────────────────────────────────────────────────────┐
  │                                                                      │
  │  Input ──▶ load task, rate, allocations, period rule ──▶ Decision    │
  │                                                                      │
  │  Decision.Err:                                                       │
  │    partner already on task  -> *DuplicateAllocationError (always)    │
  │    quota exceeded           -> *QuotaExceededError (always)          │
  │    ceiling exceeded, block  -> *CeilingExceededError                 │
  │    ceiling exceeded, confirm, not confirmed                          │
  │                             -> *CeilingExceededError, flagged        │
  │                                NeedsConfirmation                     │
  │                                                                      │
  └──────────────────────────────────────────────────────────────────────┘

PERIODS:
  The period of an allocation is the period containing its task's start
  date, at the configured granularity (year or month).

CONCURRENCY:
  Writes for one task are serialized with a per-task mutex so two requests
  can never both take the last unit of quota. The store's unique
  (task, partner) constraint is the backstop for duplicates.

EXAMPLE:
  svc := assignment.NewService(store, log, assignment.WithCeilingPolicy(assignment.PolicyConfirm))
  d, err := svc.Assign(ctx, assignment.Input{TaskID: "t1", PartnerID: "p1", Position: "PPL", Volume: v})

SEE ALSO:
  - quota/ledger.go: Volume caps
  - income/accumulator.go: Period totals and ceilings
  - import.go: Spreadsheet imports through the same checks
*/
package assignment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mitrastat/honor-engine/core"
	"github.com/mitrastat/honor-engine/income"
	"github.com/mitrastat/honor-engine/logger"
	"github.com/mitrastat/honor-engine/quota"
)

// CeilingPolicy decides what happens when an allocation would exceed the
// period ceiling.
type CeilingPolicy string

const (
	PolicyBlock   CeilingPolicy = "block"
	PolicyConfirm CeilingPolicy = "confirm"
)

// ParseCeilingPolicy accepts "block" (default for "") or "confirm".
func ParseCeilingPolicy(s string) (CeilingPolicy, error) {
	switch CeilingPolicy(s) {
	case PolicyBlock, "":
		return PolicyBlock, nil
	case PolicyConfirm:
		return PolicyConfirm, nil
	}
	return "", &core.InvalidArgumentError{Field: "ceiling_policy", Value: s, Reason: "must be block or confirm"}
}

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	store       core.TxStore
	log         *logger.Logger
	granularity core.Granularity
	policy      CeilingPolicy

	mu    sync.Mutex
	locks map[core.TaskID]*sync.Mutex
}

type Option func(*Service)

func WithGranularity(g core.Granularity) Option {
	return func(s *Service) { s.granularity = g }
}

func WithCeilingPolicy(p CeilingPolicy) Option {
	return func(s *Service) { s.policy = p }
}

func NewService(store core.TxStore, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		store:       store,
		log:         log,
		granularity: core.GranularityYear,
		policy:      PolicyBlock,
		locks:       make(map[core.TaskID]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Granularity() core.Granularity { return s.granularity }
func (s *Service) Policy() CeilingPolicy         { return s.policy }

// lockTask blocks until the task's write lock is held and returns its release.
func (s *Service) lockTask(id core.TaskID) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// =============================================================================
// INPUT / DECISION
// =============================================================================

// Input is a proposed allocation. A non-empty AllocationID edits that
// allocation instead of creating a new one.
type Input struct {
	AllocationID   core.AllocationID
	TaskID         core.TaskID
	PartnerID      core.PartnerID
	Position       core.PositionCode
	Volume         decimal.Decimal
	ConfirmCeiling bool
}

func (in Input) validate() error {
	switch {
	case in.TaskID == "":
		return &core.InvalidArgumentError{Field: "task_id", Reason: "is required"}
	case in.PartnerID == "":
		return &core.InvalidArgumentError{Field: "partner_id", Reason: "is required"}
	case in.Position == "":
		return &core.InvalidArgumentError{Field: "position", Reason: "is required"}
	case !in.Volume.IsPositive():
		return &core.InvalidArgumentError{Field: "volume", Value: in.Volume.String(), Reason: "must be greater than zero"}
	}
	return nil
}

// Decision is the outcome of evaluating an Input. Err is nil when the
// allocation may be saved.
type Decision struct {
	Candidate  core.Allocation
	Task       core.Task
	Rate       core.PositionRate
	Period     core.PeriodKey
	Quota      quota.Quota
	Projection income.Projection
	// CeilingConfirmed is set when the ceiling is exceeded and the caller
	// confirmed it under the confirm policy.
	CeilingConfirmed bool
	Err              error
}

func (d Decision) Allowed() bool { return d.Err == nil }

// =============================================================================
// EVALUATE
// =============================================================================

// inputs is everything one evaluation reads from the store.
type inputs struct {
	task     core.Task
	partner  core.Partner
	rates    []core.PositionRate
	tasks    []core.Task
	existing []core.Allocation
	rules    []core.PeriodRule
}

func (s *Service) load(ctx context.Context, r core.Reader, taskID core.TaskID, partnerID core.PartnerID) (*inputs, error) {
	in := &inputs{}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		in.task, err = r.GetTask(ctx, taskID)
		return err
	})
	g.Go(func() (err error) {
		in.partner, err = r.GetPartner(ctx, partnerID)
		return err
	})
	g.Go(func() (err error) {
		in.rates, err = r.ListRates(ctx)
		return err
	})
	g.Go(func() (err error) {
		in.tasks, err = r.ListTasks(ctx)
		return err
	})
	g.Go(func() (err error) {
		in.existing, err = r.ListAllocations(ctx)
		return err
	})
	g.Go(func() (err error) {
		in.rules, err = r.ListPeriodRules(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return in, nil
}

// Evaluate runs every admission check for in without saving. The returned
// error covers invalid input and missing records; compliance rejections are
// reported in Decision.Err.
func (s *Service) Evaluate(ctx context.Context, in Input) (Decision, error) {
	if err := in.validate(); err != nil {
		return Decision{}, err
	}
	data, err := s.load(ctx, s.store, in.TaskID, in.PartnerID)
	if err != nil {
		return Decision{}, err
	}
	return s.decide(in, data)
}

func (s *Service) decide(in Input, data *inputs) (Decision, error) {
	rates := core.NewRateTable(data.rates)
	rate := rates.Find(in.TaskID, in.Position)
	if rate == nil {
		return Decision{}, &core.InvalidArgumentError{Field: "position", Value: string(in.Position), Reason: "has no rate for this task"}
	}

	candidate := core.Allocation{
		ID:        in.AllocationID,
		TaskID:    in.TaskID,
		PartnerID: in.PartnerID,
		Position:  in.Position,
		Volume:    in.Volume,
	}
	d := Decision{
		Candidate: candidate,
		Task:      data.task,
		Rate:      *rate,
		Period:    core.KeyFor(data.task.Start, s.granularity),
	}

	var onTask, ofPartner []core.Allocation
	for _, a := range data.existing {
		if a.TaskID == in.TaskID {
			onTask = append(onTask, a)
		}
		if a.PartnerID == in.PartnerID {
			ofPartner = append(ofPartner, a)
		}
	}

	for _, a := range onTask {
		if a.PartnerID == in.PartnerID && a.ID != in.AllocationID {
			d.Err = &core.DuplicateAllocationError{TaskID: in.TaskID, PartnerID: in.PartnerID, ExistingID: a.ID}
			return d, nil
		}
	}

	q, err := quota.Check(rate, quota.Request{Task: in.TaskID, Position: in.Position, Volume: in.Volume, ExcludeID: in.AllocationID}, onTask)
	d.Quota = q
	if err != nil {
		if errors.Is(err, core.ErrQuotaExceeded) {
			d.Err = err
			return d, nil
		}
		return Decision{}, err
	}

	acc := income.Accumulator{Tasks: core.NewTaskIndex(data.tasks), Rates: rates}
	ceiling := income.CeilingFor(d.Period, data.rules)
	d.Projection = acc.Project(in.PartnerID, d.Period, candidate, ofPartner, in.AllocationID, ceiling)

	var ce *core.CeilingExceededError
	if errors.As(d.Projection.Err(), &ce) {
		switch {
		case s.policy == PolicyConfirm && in.ConfirmCeiling:
			d.CeilingConfirmed = true
		case s.policy == PolicyConfirm:
			ce.NeedsConfirmation = true
			d.Err = ce
		default:
			d.Err = ce
		}
	}
	return d, nil
}

// =============================================================================
// WRITE
// =============================================================================

// Assign evaluates in and saves the allocation when it is admitted. New
// allocations get a generated ID. The decision is returned in both cases.
func (s *Service) Assign(ctx context.Context, in Input) (Decision, error) {
	if err := in.validate(); err != nil {
		return Decision{}, err
	}
	unlock := s.lockTask(in.TaskID)
	defer unlock()

	if in.AllocationID != "" {
		prev, err := s.store.GetAllocation(ctx, in.AllocationID)
		if err != nil {
			return Decision{}, err
		}
		if prev.TaskID != in.TaskID {
			return Decision{}, &core.InvalidArgumentError{Field: "task_id", Value: string(in.TaskID), Reason: "an allocation cannot move to another task"}
		}
	}

	d, err := s.Evaluate(ctx, in)
	if err != nil {
		return Decision{}, err
	}
	if d.Err != nil {
		s.log.Warn("allocation rejected",
			"task_id", in.TaskID,
			"partner_id", in.PartnerID,
			"position", in.Position,
			"volume", in.Volume.String(),
			"reason", d.Err.Error(),
		)
		return d, d.Err
	}

	if d.Candidate.ID == "" {
		d.Candidate.ID = core.AllocationID(uuid.NewString())
	}
	if err := s.store.SaveAllocation(ctx, d.Candidate); err != nil {
		return d, fmt.Errorf("failed to save allocation: %w", err)
	}
	s.log.Info("allocation saved",
		"allocation_id", d.Candidate.ID,
		"task_id", in.TaskID,
		"partner_id", in.PartnerID,
		"position", in.Position,
		"volume", in.Volume.String(),
		"period", d.Period.String(),
		"projected", d.Projection.Projected.String(),
		"ceiling_confirmed", d.CeilingConfirmed,
	)
	return d, nil
}

// Remove deletes an allocation.
func (s *Service) Remove(ctx context.Context, id core.AllocationID) error {
	a, err := s.store.GetAllocation(ctx, id)
	if err != nil {
		return err
	}
	unlock := s.lockTask(a.TaskID)
	defer unlock()

	if err := s.store.DeleteAllocation(ctx, id); err != nil {
		return fmt.Errorf("failed to delete allocation: %w", err)
	}
	s.log.Info("allocation removed", "allocation_id", id, "task_id", a.TaskID, "partner_id", a.PartnerID)
	return nil
}
