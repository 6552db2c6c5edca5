package assignment

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/mitrastat/honor-engine/core"
	"github.com/mitrastat/honor-engine/income"
	"github.com/mitrastat/honor-engine/quota"
)

// TaskQuota returns the quota of every position of a task.
func (s *Service) TaskQuota(ctx context.Context, taskID core.TaskID) (core.Task, []quota.Quota, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return core.Task{}, nil, err
	}
	rates, err := s.store.RatesForTask(ctx, taskID)
	if err != nil {
		return core.Task{}, nil, err
	}
	allocations, err := s.store.AllocationsByTask(ctx, taskID)
	if err != nil {
		return core.Task{}, nil, err
	}
	return task, quota.Summary(taskID, rates, allocations), nil
}

// IncomeReport is a partner's honorarium in one period.
type IncomeReport struct {
	Partner core.Partner
	Period  core.PeriodKey
	Lines   []income.Line
	Total   core.Amount
	Ceiling core.Amount
	// Remaining is the room left under the ceiling, zero when there is no
	// ceiling or it is already exceeded.
	Remaining core.Amount
	Check     income.Result
}

// Income reports the partner's allocations and total in the period.
func (s *Service) Income(ctx context.Context, partnerID core.PartnerID, key core.PeriodKey) (IncomeReport, error) {
	var (
		partner     core.Partner
		allocations []core.Allocation
		tasks       []core.Task
		rates       []core.PositionRate
		rules       []core.PeriodRule
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		partner, err = s.store.GetPartner(gctx, partnerID)
		return err
	})
	g.Go(func() (err error) {
		allocations, err = s.store.AllocationsByPartner(gctx, partnerID)
		return err
	})
	g.Go(func() (err error) {
		tasks, err = s.store.ListTasks(gctx)
		return err
	})
	g.Go(func() (err error) {
		rates, err = s.store.ListRates(gctx)
		return err
	})
	g.Go(func() (err error) {
		rules, err = s.store.ListPeriodRules(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return IncomeReport{}, err
	}

	acc := income.Accumulator{Tasks: core.NewTaskIndex(tasks), Rates: core.NewRateTable(rates)}
	total := acc.PeriodTotal(partnerID, key, allocations)
	ceiling := income.CeilingFor(key, rules)
	remaining := core.ZeroRupiah()
	if ceiling.IsPositive() && ceiling.GreaterThan(total) {
		remaining = ceiling.Sub(total)
	}
	return IncomeReport{
		Partner:   partner,
		Period:    key,
		Lines:     acc.Breakdown(partnerID, key, allocations),
		Total:     total,
		Ceiling:   ceiling,
		Remaining: remaining,
		Check:     income.CheckCeiling(total, ceiling),
	}, nil
}
