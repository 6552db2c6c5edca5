package importer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mitrastat/honor-engine/core"
	"github.com/mitrastat/honor-engine/quota"
	"github.com/mitrastat/honor-engine/terbilang"
)

// Allocation import column keys.
const (
	ColPartner = "partner"
	ColVolume  = "volume"
)

// AllocationColumns are the columns of the allocation import.
var AllocationColumns = []Column{
	{Key: ColPartner, Synonyms: []string{"Mitra", "Nama Mitra", "NIK", "NIK Mitra", "Partner"}},
	{Key: ColPosition, Synonyms: []string{"Jabatan", "Posisi", "Kode Jabatan", "Position"}},
	{Key: ColVolume, Synonyms: []string{"Volume", "Target", "Jumlah", "Beban Kerja"}},
}

var requiredAllocationColumns = []Column{AllocationColumns[0], AllocationColumns[1]}

// AllocationRefs are the inputs of an allocation import for one task.
type AllocationRefs struct {
	Task      core.Task
	Rates     []core.PositionRate
	Positions []core.Position
	Partners  []core.Partner
	// Existing allocations of the task.
	Existing []core.Allocation
	// DefaultVolume replaces a blank volume cell. Zero means 1.
	DefaultVolume decimal.Decimal
	// Admit, when set, runs after the quota check with the candidate and the
	// rows accepted so far. A non-nil error rejects the row with its message.
	Admit func(candidate core.Allocation, accepted []core.Allocation) error
}

type partnerIndex struct {
	byNIK  map[string]core.PartnerID
	byName map[string][]core.PartnerID
}

func newPartnerIndex(partners []core.Partner) partnerIndex {
	idx := partnerIndex{byNIK: make(map[string]core.PartnerID), byName: make(map[string][]core.PartnerID)}
	for _, p := range partners {
		if nik := nonDigits.ReplaceAllString(p.NationalID, ""); nik != "" {
			idx.byNIK[nik] = p.ID
		}
		if name := strings.TrimSpace(p.Name); name != "" {
			idx.byName[name] = append(idx.byName[name], p.ID)
		}
	}
	return idx
}

// resolve matches a NIK first, then an unambiguous name.
func (idx partnerIndex) resolve(s string) (core.PartnerID, string) {
	if nik := nonDigits.ReplaceAllString(s, ""); len(nik) >= 8 {
		if id, ok := idx.byNIK[nik]; ok {
			return id, ""
		}
	}
	ids := idx.byName[strings.TrimSpace(s)]
	switch len(ids) {
	case 0:
		return "", "not found"
	case 1:
		return ids[0], ""
	default:
		return "", "matches more than one partner, use the NIK"
	}
}

// ValidateAllocations builds a batch of allocations for refs.Task. Each row is
// checked against the task's rate table and the remaining quota, counting the
// rows accepted earlier in the same file.
func ValidateAllocations(rows [][]string, refs AllocationRefs) (Batch, error) {
	if len(rows) == 0 {
		return Batch{}, &core.InvalidArgumentError{Field: "file", Reason: "no header row"}
	}
	headers := ResolveHeaders(rows[0], AllocationColumns)
	if missing := headers.Missing(requiredAllocationColumns); len(missing) > 0 {
		return Batch{}, missingColumnsError(missing)
	}

	def := refs.DefaultVolume
	if !def.IsPositive() {
		def = decimal.NewFromInt(1)
	}

	b := Batch{ID: uuid.NewString(), Kind: KindAllocations}
	partners := newPartnerIndex(refs.Partners)
	rates := core.NewRateTable(refs.Rates)
	positions := make(map[string]core.PositionCode)
	for _, p := range refs.Positions {
		putExact(positions, p.Name, p.Code)
	}
	for _, r := range refs.Rates {
		putExact(positions, string(r.Position), r.Position)
	}

	allocated := make(map[core.PartnerID]bool, len(refs.Existing))
	for _, a := range refs.Existing {
		allocated[a.PartnerID] = true
	}
	seen := make(map[core.PartnerID]int)
	var accepted []core.Allocation

	for i, row := range rows[1:] {
		n := i + 2
		b.TotalRows++
		if isBlankRow(row) {
			b.Skipped++
			continue
		}

		partnerText := headers.Get(row, ColPartner)
		positionText := headers.Get(row, ColPosition)
		if partnerText == "" || positionText == "" {
			b.Skipped++
			continue
		}

		partnerID, reason := partners.resolve(partnerText)
		if partnerID == "" {
			if reason == "not found" {
				reason = ""
			}
			b.warn(n, "partner", partnerText, reason)
			continue
		}

		position, ok := positions[strings.TrimSpace(positionText)]
		rate := rates.Find(refs.Task.ID, position)
		if !ok || rate == nil {
			b.notFound(n, "position", positionText)
			continue
		}

		volumeText := headers.Get(row, ColVolume)
		volume, ok := ParseVolume(volumeText, def)
		if !ok || !volume.IsPositive() {
			b.warn(n, "volume", volumeText, "must be a number greater than zero")
			continue
		}

		if first, dup := seen[partnerID]; dup {
			b.warn(n, "partner", partnerText, fmt.Sprintf("is already listed in row %d", first))
			continue
		}
		if allocated[partnerID] {
			b.warn(n, "partner", partnerText, "is already allocated to this task")
			continue
		}

		candidate := core.Allocation{
			ID:        core.AllocationID(uuid.NewString()),
			TaskID:    refs.Task.ID,
			PartnerID: partnerID,
			Position:  position,
			Volume:    volume,
		}

		existing := append(append([]core.Allocation(nil), refs.Existing...), accepted...)
		_, err := quota.Check(rate, quota.Request{Task: refs.Task.ID, Position: position, Volume: volume}, existing)
		var qe *core.QuotaExceededError
		if errors.As(err, &qe) {
			b.warn(n, "volume", volumeText, "exceeds the remaining quota of "+terbilang.FormatDecimal(qe.Remaining))
			continue
		}
		if err != nil {
			b.warn(n, "volume", volumeText, err.Error())
			continue
		}

		if refs.Admit != nil {
			if err := refs.Admit(candidate, accepted); err != nil {
				b.warn(n, "partner", partnerText, "rejected: "+err.Error())
				continue
			}
		}

		seen[partnerID] = n
		accepted = append(accepted, candidate)
		b.Allocations = append(b.Allocations, AllocationRow{Row: n, Allocation: candidate})
	}
	return b, nil
}
