package core_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitrastat/honor-engine/core"
)

func TestParsePeriodKey(t *testing.T) {
	tests := []struct {
		in      string
		want    core.PeriodKey
		wantErr bool
	}{
		{in: "2025", want: core.YearKey(2025)},
		{in: " 2025-07 ", want: core.MonthKey(2025, time.July)},
		{in: "2025-13", wantErr: true},
		{in: "25x", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := core.ParsePeriodKey(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPeriodKey_ContainsAndString(t *testing.T) {
	july := core.MonthKey(2025, time.July)
	assert.Equal(t, "2025-07", july.String())
	assert.True(t, july.Contains(core.NewDate(2025, time.July, 31)))
	assert.False(t, july.Contains(core.NewDate(2025, time.August, 1)))

	year := core.YearKey(2025)
	assert.Equal(t, "2025", year.String())
	assert.True(t, year.Contains(core.NewDate(2025, time.December, 31)))
	assert.False(t, year.Contains(core.NewDate(2026, time.January, 1)))
}

func TestKeyFor(t *testing.T) {
	d := core.NewDate(2025, time.February, 14)
	assert.Equal(t, core.YearKey(2025), core.KeyFor(d, core.GranularityYear))
	assert.Equal(t, core.MonthKey(2025, time.February), core.KeyFor(d, core.GranularityMonth))
}

func TestEndOfMonth_LeapYear(t *testing.T) {
	assert.Equal(t, 29, core.EndOfMonth(2024, time.February).Day())
	assert.Equal(t, 28, core.EndOfMonth(2025, time.February).Day())
	assert.Equal(t, 31, core.EndOfMonth(2025, time.December).Day())
}

func TestParseDate(t *testing.T) {
	d, err := core.ParseDate("2025-07-01")
	require.NoError(t, err)
	assert.Equal(t, time.Tuesday, d.Weekday())

	_, err = core.ParseDate("01/07/2025")
	var invalid *core.InvalidArgumentError
	assert.True(t, errors.As(err, &invalid))
}

func TestErrorKinds(t *testing.T) {
	var err error = &core.CommitError{BatchID: "b1", Row: 3, Err: core.ErrDuplicateRate}
	assert.ErrorIs(t, err, core.ErrCommitFailed)
	assert.ErrorIs(t, err, core.ErrDuplicateRate)
	assert.Contains(t, err.Error(), "row 3")

	assert.True(t, core.IsNotFound(core.ErrTaskNotFound))
	assert.True(t, core.IsClientError(&core.QuotaExceededError{}))
	assert.False(t, core.IsClientError(core.ErrCommitFailed))

	rowErr := &core.RowError{Row: 4, Field: "position", Value: "XYZ"}
	assert.Equal(t, "Row 4: position 'XYZ' not found", rowErr.Error())
	assert.ErrorIs(t, rowErr, core.ErrRowRejected)
}

func TestRateTable(t *testing.T) {
	rates := core.NewRateTable([]core.PositionRate{
		{TaskID: "t1", Position: "PML", Rate: core.MustParseDecimal("500000")},
		{TaskID: "t1", Position: "PPL", Rate: core.MustParseDecimal("250000")},
		{TaskID: "t2", Position: "PPL", Rate: core.MustParseDecimal("100000")},
	})

	r, ok := rates.Lookup("t1", "PPL")
	require.True(t, ok)
	assert.Equal(t, "250000", r.Rate.String())
	assert.Nil(t, rates.Find("t2", "PML"))

	forT1 := rates.ForTask("t1")
	require.Len(t, forT1, 2)
	assert.Equal(t, core.PositionCode("PML"), forT1[0].Position)

	a := core.Allocation{Volume: core.MustParseDecimal("5.5")}
	assert.Equal(t, "1375000", a.Earned(r).String())
}
