package importer

import (
	"fmt"

	"github.com/mitrastat/honor-engine/core"
)

type Kind string

const (
	KindRates       Kind = "rates"
	KindAllocations Kind = "allocations"
)

// TaskRow is a task created by the row that first named it.
type TaskRow struct {
	Row  int
	Task core.Task
}

type RateRow struct {
	Row  int
	Rate core.PositionRate
}

type AllocationRow struct {
	Row        int
	Allocation core.Allocation
}

// Batch is the validated content of one uploaded file.
type Batch struct {
	ID          string
	Kind        Kind
	Activities  []core.Activity
	Tasks       []TaskRow
	Rates       []RateRow
	Allocations []AllocationRow
	Warnings    []*core.RowError
	// Skipped counts blank rows and rows lacking an identifying field.
	Skipped   int
	TotalRows int
}

// Accepted returns the number of rows that will be committed.
func (b *Batch) Accepted() int {
	if b.Kind == KindAllocations {
		return len(b.Allocations)
	}
	return len(b.Rates)
}

// WarningMessages returns the warnings as display text.
func (b *Batch) WarningMessages() []string {
	out := make([]string, 0, len(b.Warnings))
	for _, w := range b.Warnings {
		out = append(out, w.Error())
	}
	return out
}

func (b *Batch) warn(row int, field, value, reason string) {
	b.Warnings = append(b.Warnings, &core.RowError{Row: row, Field: field, Value: value, Reason: reason})
}

func (b *Batch) notFound(row int, field, value string) {
	b.warn(row, field, value, "")
}

func missingColumnsError(missing []string) error {
	return &core.InvalidArgumentError{Field: "header", Reason: fmt.Sprintf("missing required columns: %v", missing)}
}
