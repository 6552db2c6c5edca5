/*
Package quota tracks how much of a position's work volume is already allocated.

PURPOSE:
  Every (task, position) pair may carry a cap on total volume (the rate's
  basis volume). Before a partner is assigned, the caller asks whether the
  requested volume still fits under the cap.

KEY INSIGHT:
  The ledger holds no state. Callers pass the rate and the existing
  allocations of the task, so the same functions serve the live API, bulk
  import validation and tests.

QUOTA COMPONENTS:
  Cap:       rate.BasisVolume
  Used:      sum of allocation volumes for (task, position)
  Remaining: max(0, Cap - Used)
  Managed:   false when no rate exists or the cap is zero

EDITING:
  When an existing allocation is being edited, its id is passed as ExcludeID
  and its volume is left out of Used. Editing therefore behaves exactly as if
  the record did not exist yet.

UNMANAGED QUOTA:
  A task/position without a rate, or with a zero cap, has no limit.
  CanAllocate always admits such requests and the caller surfaces a warning.

SEE ALSO:
  - income/accumulator.go: The other admission check
  - assignment/service.go: Caller
*/
package quota

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mitrastat/honor-engine/core"
)

// Quota is the allocation state of one (task, position).
type Quota struct {
	Task      core.TaskID
	Position  core.PositionCode
	Cap       decimal.Decimal
	Used      decimal.Decimal
	Remaining decimal.Decimal
	Managed   bool
}

// Overallocated reports whether Used already exceeds Cap, which happens when
// a cap is lowered after allocations were made.
func (q Quota) Overallocated() bool {
	return q.Managed && q.Used.GreaterThan(q.Cap)
}

// Request is a proposed allocation volume. ExcludeID names the allocation
// being edited, if any.
type Request struct {
	Task      core.TaskID
	Position  core.PositionCode
	Volume    decimal.Decimal
	ExcludeID core.AllocationID
}

// Remaining computes the quota of (task, position) from the existing allocations.
func Remaining(rate *core.PositionRate, task core.TaskID, position core.PositionCode, existing []core.Allocation) Quota {
	return remaining(rate, task, position, existing, "")
}

func remaining(rate *core.PositionRate, task core.TaskID, position core.PositionCode, existing []core.Allocation, exclude core.AllocationID) Quota {
	q := Quota{Task: task, Position: position, Cap: decimal.Zero, Used: decimal.Zero, Remaining: decimal.Zero}
	for _, a := range existing {
		if a.TaskID != task || a.Position != position {
			continue
		}
		if exclude != "" && a.ID == exclude {
			continue
		}
		q.Used = q.Used.Add(a.Volume)
	}

	if rate == nil || !rate.BasisVolume.IsPositive() {
		return q
	}
	q.Managed = true
	q.Cap = rate.BasisVolume
	if left := q.Cap.Sub(q.Used); left.IsPositive() {
		q.Remaining = left
	}
	return q
}

// CanAllocate reports whether req.Volume fits under the remaining quota.
// The returned Quota excludes req.ExcludeID from Used.
func CanAllocate(rate *core.PositionRate, req Request, existing []core.Allocation) (bool, Quota, error) {
	if !req.Volume.IsPositive() {
		return false, Quota{}, &core.InvalidArgumentError{Field: "volume", Value: req.Volume.String(), Reason: "must be greater than zero"}
	}
	q := remaining(rate, req.Task, req.Position, existing, req.ExcludeID)
	if !q.Managed {
		return true, q, nil
	}
	return req.Volume.LessThanOrEqual(q.Remaining), q, nil
}

// Check is CanAllocate returning *core.QuotaExceededError when the request
// does not fit.
func Check(rate *core.PositionRate, req Request, existing []core.Allocation) (Quota, error) {
	ok, q, err := CanAllocate(rate, req, existing)
	if err != nil {
		return q, err
	}
	if !ok {
		return q, &core.QuotaExceededError{
			TaskID:    req.Task,
			Position:  req.Position,
			Cap:       q.Cap,
			Used:      q.Used,
			Requested: req.Volume,
			Remaining: q.Remaining,
		}
	}
	return q, nil
}

// Summary returns the quota of every rated position of a task, plus any
// position that has allocations but no rate. Ordered by position code.
func Summary(task core.TaskID, rates []core.PositionRate, allocations []core.Allocation) []Quota {
	table := core.NewRateTable(rates)
	seen := make(map[core.PositionCode]bool)
	var positions []core.PositionCode
	add := func(p core.PositionCode) {
		if !seen[p] {
			seen[p] = true
			positions = append(positions, p)
		}
	}
	for _, r := range rates {
		if r.TaskID == task {
			add(r.Position)
		}
	}
	for _, a := range allocations {
		if a.TaskID == task {
			add(a.Position)
		}
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })

	out := make([]Quota, 0, len(positions))
	for _, p := range positions {
		out = append(out, Remaining(table.Find(task, p), task, p, allocations))
	}
	return out
}
