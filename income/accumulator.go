/*
Package income accumulates a partner's earned honorarium per period and checks
it against the period ceiling.

PURPOSE:
  Regulations cap how much honorarium one partner may receive in a period
  (a year, or a month when configured). Before an allocation is saved the
  caller projects the partner's total with the new allocation included and
  compares it to the ceiling.

KEY INSIGHT:
  An allocation belongs to the period containing its TASK START DATE, not
  the date it was recorded. Earned = rate x volume, looked up through the
  explicit rate table and task index held by the Accumulator.

EDITING:
  ProjectedTotal drops the allocation named by excludeID (and any stored
  copy of the candidate itself) before adding the candidate, so an edit is
  never counted twice.

CEILING:
  ceiling <= 0            -> no ceiling, always OK
  projected <= ceiling    -> OK (exactly at the ceiling is allowed)
  projected >  ceiling    -> Exceeded, Excess = projected - ceiling

EXAMPLE:
  acc := income.Accumulator{Tasks: tasks, Rates: rates}
  p := acc.Project("p1", core.YearKey(2025), candidate, existing, "", ceiling)
  if err := p.Err(); err != nil {
      // *core.CeilingExceededError
  }

SEE ALSO:
  - quota/ledger.go: Volume caps per position
  - assignment/service.go: Caller
*/
package income

import (
	"sort"

	"github.com/mitrastat/honor-engine/core"
)

// Accumulator computes earnings over caller-supplied lookup tables.
type Accumulator struct {
	Tasks core.TaskIndex
	Rates core.RateTable
}

// Earned returns rate x volume. An allocation without a rate earns nothing.
func (a Accumulator) Earned(al core.Allocation) core.Amount {
	r, ok := a.Rates.Lookup(al.TaskID, al.Position)
	if !ok {
		return core.ZeroRupiah()
	}
	return al.Earned(r)
}

// InPeriod reports whether the allocation's task starts within the period.
// Allocations of unknown tasks are in no period.
func (a Accumulator) InPeriod(al core.Allocation, key core.PeriodKey) bool {
	t, ok := a.Tasks[al.TaskID]
	if !ok {
		return false
	}
	return key.Contains(t.Start)
}

// PeriodTotal sums the partner's earnings over allocations in the period.
func (a Accumulator) PeriodTotal(partner core.PartnerID, key core.PeriodKey, allocations []core.Allocation) core.Amount {
	total := core.ZeroRupiah()
	for _, al := range allocations {
		if al.PartnerID != partner || !a.InPeriod(al, key) {
			continue
		}
		total = total.Add(a.Earned(al))
	}
	return total
}

// ProjectedTotal returns the period total after saving candidate. The
// allocation named excludeID and any stored allocation sharing the
// candidate's ID are left out.
func (a Accumulator) ProjectedTotal(partner core.PartnerID, key core.PeriodKey, candidate core.Allocation, existing []core.Allocation, excludeID core.AllocationID) core.Amount {
	total := a.PeriodTotal(partner, key, without(existing, excludeID, candidate.ID))
	if candidate.PartnerID == partner && a.InPeriod(candidate, key) {
		total = total.Add(a.Earned(candidate))
	}
	return total
}

func without(allocations []core.Allocation, ids ...core.AllocationID) []core.Allocation {
	skip := make(map[core.AllocationID]bool, len(ids))
	for _, id := range ids {
		if id != "" {
			skip[id] = true
		}
	}
	if len(skip) == 0 {
		return allocations
	}
	out := make([]core.Allocation, 0, len(allocations))
	for _, al := range allocations {
		if !skip[al.ID] {
			out = append(out, al)
		}
	}
	return out
}

// =============================================================================
// CEILING
// =============================================================================

// Result is the outcome of a ceiling check.
type Result struct {
	OK     bool
	Excess core.Amount
}

// CheckCeiling compares a projected total with the ceiling. A ceiling of zero
// or below means no ceiling.
func CheckCeiling(projected, ceiling core.Amount) Result {
	if !ceiling.IsPositive() || !projected.GreaterThan(ceiling) {
		return Result{OK: true, Excess: core.ZeroRupiah()}
	}
	return Result{OK: false, Excess: projected.Sub(ceiling)}
}

// CeilingFor returns the ceiling configured for exactly this key, or zero
// when no rule matches. A yearly rule does not apply to a monthly key.
func CeilingFor(key core.PeriodKey, rules []core.PeriodRule) core.Amount {
	for _, r := range rules {
		if r.Key == key {
			return core.Rupiah(r.Ceiling)
		}
	}
	return core.ZeroRupiah()
}

// =============================================================================
// PROJECTION
// =============================================================================

// Projection bundles a full ceiling evaluation for one candidate allocation.
type Projection struct {
	Partner   core.PartnerID
	Period    core.PeriodKey
	Previous  core.Amount // period total without the candidate or excluded record
	Candidate core.Amount // zero when the candidate's task is outside the period
	Projected core.Amount
	Ceiling   core.Amount
	Result    Result
}

// Project evaluates candidate against the ceiling.
func (a Accumulator) Project(partner core.PartnerID, key core.PeriodKey, candidate core.Allocation, existing []core.Allocation, excludeID core.AllocationID, ceiling core.Amount) Projection {
	previous := a.PeriodTotal(partner, key, without(existing, excludeID, candidate.ID))
	projected := a.ProjectedTotal(partner, key, candidate, existing, excludeID)
	return Projection{
		Partner:   partner,
		Period:    key,
		Previous:  previous,
		Candidate: projected.Sub(previous),
		Projected: projected,
		Ceiling:   ceiling,
		Result:    CheckCeiling(projected, ceiling),
	}
}

// Err returns *core.CeilingExceededError when the projection exceeds the ceiling.
func (p Projection) Err() error {
	if p.Result.OK {
		return nil
	}
	return &core.CeilingExceededError{
		PartnerID: p.Partner,
		Period:    p.Period,
		Ceiling:   p.Ceiling,
		Projected: p.Projected,
		Excess:    p.Result.Excess,
	}
}

// =============================================================================
// BREAKDOWN
// =============================================================================

// Line is one allocation's contribution to a period total.
type Line struct {
	Allocation core.Allocation
	Task       core.Task
	Rate       core.PositionRate
	Earned     core.Amount
}

// Breakdown lists the partner's allocations in the period, ordered by task
// start date, then task ID, then position.
func (a Accumulator) Breakdown(partner core.PartnerID, key core.PeriodKey, allocations []core.Allocation) []Line {
	var lines []Line
	for _, al := range allocations {
		if al.PartnerID != partner || !a.InPeriod(al, key) {
			continue
		}
		r, _ := a.Rates.Lookup(al.TaskID, al.Position)
		lines = append(lines, Line{
			Allocation: al,
			Task:       a.Tasks[al.TaskID],
			Rate:       r,
			Earned:     a.Earned(al),
		})
	}
	sort.SliceStable(lines, func(i, j int) bool {
		ti, tj := lines[i].Task, lines[j].Task
		if !ti.Start.Equal(tj.Start) {
			return ti.Start.Before(tj.Start)
		}
		if ti.ID != tj.ID {
			return ti.ID < tj.ID
		}
		return lines[i].Allocation.Position < lines[j].Allocation.Position
	})
	return lines
}
