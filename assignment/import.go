package assignment

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mitrastat/honor-engine/core"
	"github.com/mitrastat/honor-engine/importer"
	"github.com/mitrastat/honor-engine/income"
)

// ImportRates validates and commits a rate sheet.
func (s *Service) ImportRates(ctx context.Context, rows [][]string) (importer.Result, error) {
	var refs importer.RateRefs
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		refs.Activities, err = s.store.ListActivities(gctx)
		return err
	})
	g.Go(func() (err error) {
		refs.Tasks, err = s.store.ListTasks(gctx)
		return err
	})
	g.Go(func() (err error) {
		refs.Positions, err = s.store.ListPositions(gctx)
		return err
	})
	g.Go(func() (err error) {
		refs.Units, err = s.store.ListUnits(gctx)
		return err
	})
	g.Go(func() (err error) {
		refs.Rates, err = s.store.ListRates(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return importer.Result{}, err
	}

	batch, err := importer.ValidateRates(rows, refs)
	if err != nil {
		return importer.Result{}, err
	}
	return s.commit(ctx, batch)
}

// ImportAllocations validates and commits an allocation sheet for one task.
// Every row passes the quota check and the ceiling check; rows over the
// ceiling are rejected under both policies since an import cannot confirm.
// A zero defaultVolume means 1.
func (s *Service) ImportAllocations(ctx context.Context, taskID core.TaskID, rows [][]string, defaultVolume decimal.Decimal) (importer.Result, error) {
	unlock := s.lockTask(taskID)
	defer unlock()

	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return importer.Result{}, err
	}

	var (
		refs  = importer.AllocationRefs{Task: task, DefaultVolume: defaultVolume}
		all   []core.Allocation
		tasks []core.Task
		rules []core.PeriodRule
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		refs.Rates, err = s.store.ListRates(gctx)
		return err
	})
	g.Go(func() (err error) {
		refs.Positions, err = s.store.ListPositions(gctx)
		return err
	})
	g.Go(func() (err error) {
		refs.Partners, err = s.store.ListPartners(gctx)
		return err
	})
	g.Go(func() (err error) {
		all, err = s.store.ListAllocations(gctx)
		return err
	})
	g.Go(func() (err error) {
		tasks, err = s.store.ListTasks(gctx)
		return err
	})
	g.Go(func() (err error) {
		rules, err = s.store.ListPeriodRules(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return importer.Result{}, err
	}

	for _, a := range all {
		if a.TaskID == taskID {
			refs.Existing = append(refs.Existing, a)
		}
	}
	acc := income.Accumulator{Tasks: core.NewTaskIndex(tasks), Rates: core.NewRateTable(refs.Rates)}
	refs.Admit = s.admit(acc, task, all, rules)

	batch, err := importer.ValidateAllocations(rows, refs)
	if err != nil {
		return importer.Result{}, err
	}
	return s.commit(ctx, batch)
}

// admit returns the ceiling check run for each allocation row after its
// quota check.
func (s *Service) admit(acc income.Accumulator, task core.Task, stored []core.Allocation, rules []core.PeriodRule) func(core.Allocation, []core.Allocation) error {
	key := core.KeyFor(task.Start, s.granularity)
	ceiling := income.CeilingFor(key, rules)
	return func(candidate core.Allocation, accepted []core.Allocation) error {
		existing := make([]core.Allocation, 0, len(stored)+len(accepted))
		existing = append(existing, stored...)
		existing = append(existing, accepted...)
		return acc.Project(candidate.PartnerID, key, candidate, existing, "", ceiling).Err()
	}
}

func (s *Service) commit(ctx context.Context, batch importer.Batch) (importer.Result, error) {
	log := s.log.With("batch_id", batch.ID, "kind", string(batch.Kind))
	for _, w := range batch.Warnings {
		log.Debug("row rejected", "row", w.Row, "field", w.Field, "reason", w.Error())
	}

	res, err := importer.Commit(ctx, s.store, batch)
	if err != nil {
		log.Error("import commit failed", "error", err)
		return importer.Result{}, err
	}
	log.Info("import committed",
		"total_rows", res.TotalRows,
		"accepted", batch.Accepted(),
		"skipped", res.Skipped,
		"warnings", len(res.Warnings),
	)
	return res, nil
}
