package quota_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitrastat/honor-engine/core"
	"github.com/mitrastat/honor-engine/quota"
)

func dec(s string) decimal.Decimal { return core.MustParseDecimal(s) }

func rate(cap string) *core.PositionRate {
	return &core.PositionRate{TaskID: "t1", Position: "PPL", Rate: dec("100000"), BasisVolume: dec(cap)}
}

func alloc(id, partner, volume string) core.Allocation {
	return core.Allocation{
		ID:        core.AllocationID(id),
		TaskID:    "t1",
		PartnerID: core.PartnerID(partner),
		Position:  "PPL",
		Volume:    dec(volume),
	}
}

func TestRemaining(t *testing.T) {
	existing := []core.Allocation{
		alloc("a1", "p1", "30"),
		alloc("a2", "p2", "20"),
		{ID: "a3", TaskID: "t1", PartnerID: "p3", Position: "PML", Volume: dec("99")},
		{ID: "a4", TaskID: "t2", PartnerID: "p1", Position: "PPL", Volume: dec("99")},
	}

	q := quota.Remaining(rate("100"), "t1", "PPL", existing)

	assert.True(t, q.Managed)
	assert.True(t, q.Cap.Equal(dec("100")))
	assert.True(t, q.Used.Equal(dec("50")))
	assert.True(t, q.Remaining.Equal(dec("50")))
}

func TestRemaining_NeverNegative(t *testing.T) {
	q := quota.Remaining(rate("10"), "t1", "PPL", []core.Allocation{alloc("a1", "p1", "15")})
	assert.True(t, q.Remaining.IsZero())
	assert.True(t, q.Overallocated())
}

func TestCanAllocate_Boundary(t *testing.T) {
	existing := []core.Allocation{alloc("a1", "p1", "60")}

	tests := []struct {
		name   string
		volume string
		want   bool
	}{
		{"below remaining", "39", true},
		{"exactly remaining", "40", true},
		{"one over", "41", false},
		{"fraction over", "40.01", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, q, err := quota.CanAllocate(rate("100"), quota.Request{Task: "t1", Position: "PPL", Volume: dec(tt.volume)}, existing)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.True(t, q.Remaining.Equal(dec("40")))
		})
	}
}

func TestCanAllocate_ExcludeEqualsAbsent(t *testing.T) {
	// GIVEN: a1 is being edited
	withRecord := []core.Allocation{alloc("a1", "p1", "60"), alloc("a2", "p2", "30")}
	withoutRecord := []core.Allocation{alloc("a2", "p2", "30")}

	for _, v := range []string{"10", "70", "71"} {
		req := quota.Request{Task: "t1", Position: "PPL", Volume: dec(v)}
		okAbsent, qAbsent, err := quota.CanAllocate(rate("100"), req, withoutRecord)
		require.NoError(t, err)

		req.ExcludeID = "a1"
		okExcluded, qExcluded, err := quota.CanAllocate(rate("100"), req, withRecord)
		require.NoError(t, err)

		// THEN: the outcome is identical to evaluating without the record
		assert.Equal(t, okAbsent, okExcluded, "volume %s", v)
		assert.True(t, qAbsent.Remaining.Equal(qExcluded.Remaining))
	}
}

func TestCanAllocate_InvalidVolume(t *testing.T) {
	for _, v := range []string{"0", "-1"} {
		_, _, err := quota.CanAllocate(rate("100"), quota.Request{Task: "t1", Position: "PPL", Volume: dec(v)}, nil)
		assert.ErrorIs(t, err, core.ErrInvalidArgument)
	}
}

func TestCanAllocate_Unmanaged(t *testing.T) {
	big := quota.Request{Task: "t1", Position: "PPL", Volume: dec("1000000")}

	ok, q, err := quota.CanAllocate(nil, big, []core.Allocation{alloc("a1", "p1", "5")})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, q.Managed)
	assert.True(t, q.Used.Equal(dec("5")))

	ok, q, err = quota.CanAllocate(rate("0"), big, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, q.Managed)
}

func TestCheck_ReturnsRemaining(t *testing.T) {
	_, err := quota.Check(rate("100"), quota.Request{Task: "t1", Position: "PPL", Volume: dec("80")}, []core.Allocation{alloc("a1", "p1", "30")})

	require.ErrorIs(t, err, core.ErrQuotaExceeded)
	var qe *core.QuotaExceededError
	require.True(t, errors.As(err, &qe))
	assert.True(t, qe.Remaining.Equal(dec("70")))
	assert.True(t, qe.Requested.Equal(dec("80")))
}

func TestSummary(t *testing.T) {
	rates := []core.PositionRate{
		{TaskID: "t1", Position: "PPL", BasisVolume: dec("100")},
		{TaskID: "t1", Position: "PML", BasisVolume: dec("10")},
		{TaskID: "t2", Position: "PPL", BasisVolume: dec("5")},
	}
	allocs := []core.Allocation{
		alloc("a1", "p1", "40"),
		{ID: "a2", TaskID: "t1", PartnerID: "p2", Position: "KOSEKA", Volume: dec("1")},
	}

	got := quota.Summary("t1", rates, allocs)

	require.Len(t, got, 3)
	assert.Equal(t, core.PositionCode("KOSEKA"), got[0].Position)
	assert.False(t, got[0].Managed)
	assert.Equal(t, core.PositionCode("PML"), got[1].Position)
	assert.True(t, got[1].Remaining.Equal(dec("10")))
	assert.Equal(t, core.PositionCode("PPL"), got[2].Position)
	assert.True(t, got[2].Remaining.Equal(dec("60")))
}
