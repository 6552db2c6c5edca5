package income_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitrastat/honor-engine/core"
	"github.com/mitrastat/honor-engine/income"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func fixture() income.Accumulator {
	tasks := core.NewTaskIndex([]core.Task{
		{ID: "t-jan", Start: core.NewDate(2025, time.January, 10)},
		{ID: "t-jul", Start: core.NewDate(2025, time.July, 1)},
		{ID: "t-next", Start: core.NewDate(2026, time.January, 5)},
	})
	rates := core.NewRateTable([]core.PositionRate{
		{TaskID: "t-jan", Position: "PPL", Rate: core.MustParseDecimal("100000")},
		{TaskID: "t-jul", Position: "PPL", Rate: core.MustParseDecimal("250000")},
		{TaskID: "t-next", Position: "PPL", Rate: core.MustParseDecimal("1000000")},
	})
	return income.Accumulator{Tasks: tasks, Rates: rates}
}

func alloc(id, task, partner string, volume int64) core.Allocation {
	return core.Allocation{
		ID:        core.AllocationID(id),
		TaskID:    core.TaskID(task),
		PartnerID: core.PartnerID(partner),
		Position:  "PPL",
		Volume:    decimal.NewFromInt(volume),
	}
}

func rp(v int64) core.Amount { return core.RupiahInt(v) }

// =============================================================================
// TOTALS
// =============================================================================

func TestPeriodTotal(t *testing.T) {
	acc := fixture()
	existing := []core.Allocation{
		alloc("a1", "t-jan", "p1", 5),  // 500.000
		alloc("a2", "t-jul", "p1", 2),  // 500.000
		alloc("a3", "t-next", "p1", 1), // other year
		alloc("a4", "t-jan", "p2", 9),  // other partner
	}

	assert.True(t, acc.PeriodTotal("p1", core.YearKey(2025), existing).Equal(rp(1000000)))
	assert.True(t, acc.PeriodTotal("p1", core.MonthKey(2025, time.July), existing).Equal(rp(500000)))
	assert.True(t, acc.PeriodTotal("p1", core.YearKey(2026), existing).Equal(rp(1000000)))
}

func TestProjectedTotal_ExcludesEditedRecord(t *testing.T) {
	acc := fixture()
	existing := []core.Allocation{
		alloc("a1", "t-jan", "p1", 5),
		alloc("a2", "t-jul", "p1", 2),
	}

	// Editing a2 from 2 to 4 units
	edited := alloc("a2", "t-jul", "p1", 4)
	got := acc.ProjectedTotal("p1", core.YearKey(2025), edited, existing, "a2")
	assert.True(t, got.Equal(rp(1500000)), "got %s", got)

	// The candidate's own id is dropped even without excludeID
	got = acc.ProjectedTotal("p1", core.YearKey(2025), edited, existing, "")
	assert.True(t, got.Equal(rp(1500000)), "got %s", got)

	// New allocation
	fresh := alloc("a9", "t-jul", "p1", 1)
	got = acc.ProjectedTotal("p1", core.YearKey(2025), fresh, existing, "")
	assert.True(t, got.Equal(rp(1250000)), "got %s", got)
}

func TestProjectedTotal_CandidateOutsidePeriod(t *testing.T) {
	acc := fixture()
	existing := []core.Allocation{alloc("a1", "t-jan", "p1", 5)}

	got := acc.ProjectedTotal("p1", core.YearKey(2025), alloc("a9", "t-next", "p1", 3), existing, "")
	assert.True(t, got.Equal(rp(500000)))
}

// =============================================================================
// CEILING
// =============================================================================

func TestCheckCeiling_Boundary(t *testing.T) {
	limit := rp(3000000)

	res := income.CheckCeiling(rp(3000000), limit)
	assert.True(t, res.OK)

	res = income.CheckCeiling(rp(3000001), limit)
	assert.False(t, res.OK)
	assert.True(t, res.Excess.Equal(rp(1)))
}

func TestCheckCeiling_NoCeiling(t *testing.T) {
	assert.True(t, income.CheckCeiling(rp(999999999), core.ZeroRupiah()).OK)
	assert.True(t, income.CheckCeiling(rp(999999999), rp(-1)).OK)
}

func TestCeilingFor_ExactKey(t *testing.T) {
	rules := []core.PeriodRule{
		{Key: core.YearKey(2025), Ceiling: core.MustParseDecimal("3000000")},
		{Key: core.MonthKey(2025, time.July), Ceiling: core.MustParseDecimal("1000000")},
	}
	assert.True(t, income.CeilingFor(core.YearKey(2025), rules).Equal(rp(3000000)))
	assert.True(t, income.CeilingFor(core.MonthKey(2025, time.July), rules).Equal(rp(1000000)))
	assert.True(t, income.CeilingFor(core.MonthKey(2025, time.August), rules).IsZero())
}

func TestProject_Err(t *testing.T) {
	acc := fixture()
	existing := []core.Allocation{alloc("a1", "t-jan", "p1", 5)}

	p := acc.Project("p1", core.YearKey(2025), alloc("a2", "t-jul", "p1", 4), existing, "", rp(1400000))

	assert.True(t, p.Previous.Equal(rp(500000)))
	assert.True(t, p.Candidate.Equal(rp(1000000)))
	assert.True(t, p.Projected.Equal(rp(1500000)))

	err := p.Err()
	require.ErrorIs(t, err, core.ErrCeilingExceeded)
	var ce *core.CeilingExceededError
	require.True(t, errors.As(err, &ce))
	assert.True(t, ce.Excess.Equal(rp(100000)))
	assert.Equal(t, core.PartnerID("p1"), ce.PartnerID)

	ok := acc.Project("p1", core.YearKey(2025), alloc("a2", "t-jul", "p1", 4), existing, "", rp(1500000))
	assert.NoError(t, ok.Err())
}

func TestBreakdown_Ordered(t *testing.T) {
	acc := fixture()
	existing := []core.Allocation{
		alloc("a2", "t-jul", "p1", 2),
		alloc("a1", "t-jan", "p1", 5),
	}

	lines := acc.Breakdown("p1", core.YearKey(2025), existing)
	require.Len(t, lines, 2)
	assert.Equal(t, core.TaskID("t-jan"), lines[0].Task.ID)
	assert.True(t, lines[1].Earned.Equal(rp(500000)))
}
