package importer

import (
	"context"
	"errors"

	"github.com/mitrastat/honor-engine/core"
)

// Result summarizes a committed batch.
type Result struct {
	BatchID     string   `json:"batch_id"`
	Kind        Kind     `json:"kind"`
	TotalRows   int      `json:"total_rows"`
	Activities  int      `json:"activities"`
	Tasks       int      `json:"tasks"`
	Rates       int      `json:"rates"`
	Allocations int      `json:"allocations"`
	Skipped     int      `json:"skipped"`
	Warnings    []string `json:"warnings"`
}

// Commit persists every accepted record of the batch in one transaction.
// On any failure nothing from the batch remains and the error is a
// *core.CommitError naming the row that failed.
func Commit(ctx context.Context, store core.TxStore, batch Batch) (Result, error) {
	err := store.WithTx(ctx, func(s core.Store) error {
		fail := func(row int, err error) error {
			return &core.CommitError{BatchID: batch.ID, Row: row, Err: err}
		}
		for _, a := range batch.Activities {
			if err := s.SaveActivity(ctx, a); err != nil {
				return fail(0, err)
			}
		}
		for _, t := range batch.Tasks {
			if err := s.SaveTask(ctx, t.Task); err != nil {
				return fail(t.Row, err)
			}
		}
		for _, r := range batch.Rates {
			if err := s.SaveRate(ctx, r.Rate); err != nil {
				return fail(r.Row, err)
			}
		}
		for _, a := range batch.Allocations {
			if err := s.SaveAllocation(ctx, a.Allocation); err != nil {
				return fail(a.Row, err)
			}
		}
		return nil
	})
	if err != nil {
		var ce *core.CommitError
		if !errors.As(err, &ce) {
			err = &core.CommitError{BatchID: batch.ID, Err: err}
		}
		return Result{}, err
	}

	return Result{
		BatchID:     batch.ID,
		Kind:        batch.Kind,
		TotalRows:   batch.TotalRows,
		Activities:  len(batch.Activities),
		Tasks:       len(batch.Tasks),
		Rates:       len(batch.Rates),
		Allocations: len(batch.Allocations),
		Skipped:     batch.Skipped,
		Warnings:    batch.WarningMessages(),
	}, nil
}
