package importer_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitrastat/honor-engine/core"
	"github.com/mitrastat/honor-engine/core/store"
	"github.com/mitrastat/honor-engine/importer"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func refs() importer.RateRefs {
	return importer.RateRefs{
		Positions: []core.Position{
			{Code: "PPL", Name: "Petugas Pencacah Lapangan"},
			{Code: "PML", Name: "Petugas Pemeriksa Lapangan"},
		},
		Units: []core.MeasureUnit{{Code: "DOK", Name: "Dokumen"}, {Code: "RT", Name: "Rumah Tangga"}},
	}
}

var rateHeader = []string{"Nama Kegiatan", "Nama Sub Kegiatan", "Tanggal Mulai", "Tanggal Selesai", "Jabatan", "Harga Satuan", "Satuan", "Volume"}

func rateRows(extra ...[]string) [][]string {
	rows := [][]string{
		rateHeader,
		{"Susenas", "Pencacahan", "2025-03-01", "31/03/2025", "PPL", "Rp 175.000", "Dokumen", "40"},
		{"Susenas", "Pencacahan", "2025-03-01", "31/03/2025", "PML", "250000", "DOK", "10"},
		{"Sakernas", "Pencacahan Agustus", "45870", "20-08-2025", "Petugas Pencacah Lapangan", "150.000", "", ""},
	}
	return append(rows, extra...)
}

// failingStore fails the n-th SaveRate inside a transaction.
type failingStore struct {
	*store.Memory
	failAt int
}

func (f *failingStore) WithTx(ctx context.Context, fn func(core.Store) error) error {
	return f.Memory.WithTx(ctx, func(s core.Store) error {
		return fn(&failingWriter{Store: s, failAt: f.failAt})
	})
}

type failingWriter struct {
	core.Store
	failAt int
	saved  int
}

func (w *failingWriter) SaveRate(ctx context.Context, r core.PositionRate) error {
	w.saved++
	if w.saved == w.failAt {
		return errors.New("disk full")
	}
	return w.Store.SaveRate(ctx, r)
}

// =============================================================================
// READING
// =============================================================================

func TestReadTable_CSVDelimiters(t *testing.T) {
	rows, err := importer.ReadTable("data.csv", strings.NewReader("a;b;c\n1;2;3\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"1", "2", "3"}}, rows)

	rows, err = importer.ReadTable("DATA.TXT", strings.NewReader("\xef\xbb\xbfa,b\n1,\"2,5\"\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"1", "2,5"}}, rows)
}

func TestReadTable_Unsupported(t *testing.T) {
	_, err := importer.ReadTable("data.pdf", strings.NewReader(""))
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestWriteTemplate_ReadBack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, importer.WriteTemplate(&buf))

	rows, err := importer.ReadTable("template.xlsx", &buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, importer.TemplateHeaders(), rows[0])

	batch, err := importer.ValidateRates(rows, refs())
	require.NoError(t, err)
	assert.Empty(t, batch.Warnings)
	require.Len(t, batch.Rates, 1)
	assert.True(t, batch.Rates[0].Rate.Rate.Equal(decimal.NewFromInt(175000)))
	assert.Equal(t, "2905.BMA.004.005.521213", batch.Rates[0].Rate.BudgetLine)
}

// =============================================================================
// HEADERS AND VALUES
// =============================================================================

func TestResolveHeaders(t *testing.T) {
	columns := []importer.Column{
		{Key: "name", Synonyms: []string{"Nama", "Name"}},
		{Key: "nik", Synonyms: []string{"NIK"}},
		{Key: "phone", Synonyms: []string{"Telepon"}},
	}

	h := importer.ResolveHeaders([]string{" name ", "NIK", "nama"}, columns)

	assert.Equal(t, 2, h["name"], "first synonym wins over column order")
	assert.Equal(t, 1, h["nik"])
	assert.Equal(t, -1, h["phone"])
	assert.Equal(t, []string{"phone"}, h.Missing(columns))
	assert.Equal(t, "", h.Get([]string{"x"}, "nik"), "short rows read as blank")
}

func TestParseAmount(t *testing.T) {
	d, ok := importer.ParseAmount("Rp 150.000,-")
	require.True(t, ok)
	assert.True(t, d.Equal(decimal.NewFromInt(150000)))

	_, ok = importer.ParseAmount("gratis")
	assert.False(t, ok)
}

func TestParseVolume(t *testing.T) {
	def := decimal.NewFromInt(1)

	tests := []struct {
		in   string
		want string
	}{
		{"", "1"},
		{"2,5", "2.5"},
		{"12 dok", "12"},
		{"1.000", "1000"},
		{"12.000", "12000"},
		{"2.500", "2500"},
		{"1,000", "1000"},
		{"1.250,5", "1250.5"},
		{"1.250,75", "1250.75"},
	}
	for _, tt := range tests {
		v, ok := importer.ParseVolume(tt.in, def)
		require.True(t, ok, tt.in)
		assert.True(t, v.Equal(decimal.RequireFromString(tt.want)), "%q parsed as %s", tt.in, v)
	}

	_, ok := importer.ParseVolume("banyak", def)
	assert.False(t, ok)
}

func TestParseDate(t *testing.T) {
	want := core.NewDate(2025, time.January, 1)
	for _, s := range []string{"2025-01-01", "01/01/2025", "1/1/2025", "01-01-2025", "45658"} {
		got, ok := importer.ParseDate(s)
		require.True(t, ok, s)
		assert.True(t, got.Equal(want), "%s parsed as %s", s, got)
	}
	_, ok := importer.ParseDate("kemarin")
	assert.False(t, ok)
}

// =============================================================================
// RATE IMPORT
// =============================================================================

func TestValidateRates_UnknownPositionIsWarning(t *testing.T) {
	rows := rateRows([]string{"Susenas", "Pencacahan", "2025-03-01", "2025-03-31", "XYZ", "1000", "", ""})

	batch, err := importer.ValidateRates(rows, refs())
	require.NoError(t, err)

	assert.Len(t, batch.Rates, 3)
	require.Len(t, batch.Warnings, 1)
	assert.Equal(t, "Row 5: position 'XYZ' not found", batch.Warnings[0].Error())
	assert.ErrorIs(t, batch.Warnings[0], core.ErrRowRejected)

	assert.Len(t, batch.Activities, 2)
	assert.Len(t, batch.Tasks, 2)
	assert.Equal(t, core.PositionCode("PML"), batch.Rates[1].Rate.Position)
	assert.Equal(t, "DOK", batch.Rates[1].Rate.Unit)
	assert.True(t, batch.Rates[2].Rate.BasisVolume.IsZero(), "blank basis volume is unmanaged")
	assert.True(t, batch.Tasks[1].Task.Start.Equal(core.NewDate(2025, time.August, 1)), "serial date")
}

func TestValidateRates_ExactReferenceMatch(t *testing.T) {
	rows := [][]string{
		rateHeader,
		{"Susenas", "Pencacahan", "2025-03-01", "2025-03-31", "ppl", "175000", "DOK", "40"},
		{"Susenas", "Pencacahan", "2025-03-01", "2025-03-31", "PML", "175000", "dokumen", "40"},
		{"Susenas", "Pencacahan", "2025-03-01", "2025-03-31", " PPL ", "175000", "Dokumen", "1.000"},
	}

	batch, err := importer.ValidateRates(rows, refs())
	require.NoError(t, err)

	// THEN: case differences are reported, surrounding spaces are not
	assert.Equal(t, []string{
		"Row 2: position 'ppl' not found",
		"Row 3: unit 'dokumen' not found",
	}, batch.WarningMessages())
	require.Len(t, batch.Rates, 1)
	assert.Equal(t, core.PositionCode("PPL"), batch.Rates[0].Rate.Position)
	assert.Equal(t, "DOK", batch.Rates[0].Rate.Unit)
	assert.True(t, batch.Rates[0].Rate.BasisVolume.Equal(decimal.NewFromInt(1000)), "thousands separator")
}

func TestValidateAllocations_ExactPosition(t *testing.T) {
	rows := [][]string{
		{"Mitra", "Jabatan", "Volume"},
		{"Ani", "ppl", "1"},
		{"Budi", "PPL", "1"},
	}

	batch, err := importer.ValidateAllocations(rows, allocationRefs())
	require.NoError(t, err)

	assert.Equal(t, []string{"Row 2: position 'ppl' not found"}, batch.WarningMessages())
	require.Len(t, batch.Allocations, 1)
	assert.Equal(t, core.PartnerID("p2"), batch.Allocations[0].Allocation.PartnerID)
}

func TestValidateRates_RowTolerance(t *testing.T) {
	rows := rateRows(
		[]string{"", "", "", "", "", "", "", ""},                                            // blank: skipped
		[]string{"Susenas", "", "2025-03-01", "2025-03-31", "PPL", "1", "", ""},             // no task: skipped
		[]string{"Susenas", "Pencacahan", "", "", "PPL", "1", "", ""},                       // duplicate rate
		[]string{"Susenas", "Baru", "2025-04-10", "2025-04-01", "PPL", "1", "", ""},         // end before start
		[]string{"Susenas", "Baru", "2025-04-01", "2025-04-10", "PPL", "1", "Kilogram", ""}, // unknown unit
		[]string{"Susenas", "Baru", "2025-04-01", "2025-04-10", "PPL", "tidak ada", "", ""}, // bad rate
	)

	batch, err := importer.ValidateRates(rows, refs())
	require.NoError(t, err)

	assert.Equal(t, 9, batch.TotalRows)
	assert.Equal(t, 2, batch.Skipped)
	assert.Len(t, batch.Rates, 3)
	assert.Equal(t, []string{
		"Row 7: position 'PPL' already has a rate for this task",
		"Row 8: end date '2025-04-01' is before the start date",
		"Row 9: unit 'Kilogram' not found",
		"Row 10: rate 'tidak ada' is not a valid number",
	}, batch.WarningMessages())
}

func TestValidateRates_ExistingTask(t *testing.T) {
	r := refs()
	r.Activities = []core.Activity{{ID: "act-1", Name: "Susenas"}}
	r.Tasks = []core.Task{{ID: "task-1", ActivityID: "act-1", Name: "Pencacahan"}}
	r.Rates = []core.PositionRate{{TaskID: "task-1", Position: "PPL"}}

	batch, err := importer.ValidateRates(rateRows(), r)
	require.NoError(t, err)

	assert.Len(t, batch.Activities, 1, "only Sakernas is new")
	require.Len(t, batch.Warnings, 1)
	assert.Contains(t, batch.Warnings[0].Error(), "already has a rate")
	assert.Equal(t, core.TaskID("task-1"), batch.Rates[0].Rate.TaskID)
}

func TestValidateRates_MissingColumns(t *testing.T) {
	_, err := importer.ValidateRates([][]string{{"Nama Kegiatan", "Jabatan"}}, refs())
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "task")
}

// =============================================================================
// ALLOCATION IMPORT
// =============================================================================

func allocationRefs() importer.AllocationRefs {
	return importer.AllocationRefs{
		Task: core.Task{ID: "t1"},
		Rates: []core.PositionRate{
			{TaskID: "t1", Position: "PPL", BasisVolume: decimal.NewFromInt(10)},
			{TaskID: "t1", Position: "PML"},
		},
		Positions: []core.Position{{Code: "PPL", Name: "Petugas Pencacah Lapangan"}, {Code: "PML", Name: "Pemeriksa"}},
		Partners: []core.Partner{
			{ID: "p1", Name: "Ani", NationalID: "3201010101900001"},
			{ID: "p2", Name: "Budi", NationalID: "3201010101900002"},
			{ID: "p3", Name: "Citra"},
			{ID: "p4", Name: "Dewi"},
			{ID: "p5", Name: "Dewi"},
		},
		Existing: []core.Allocation{{ID: "a0", TaskID: "t1", PartnerID: "p3", Position: "PPL", Volume: decimal.NewFromInt(4)}},
	}
}

func TestValidateAllocations(t *testing.T) {
	rows := [][]string{
		{"NIK", "Jabatan", "Volume"},
		{"3201010101900001", "PPL", "5"},         // ok, 1 left
		{"Budi", "Petugas Pencacah Lapangan", ""}, // default volume 1, 0 left
		{"Ani", "PML", "2"},                       // listed twice
		{"Citra", "PML", "1"},                     // already allocated
		{"Dewi", "PML", "1"},                      // ambiguous
		{"Eka", "PML", "1"},                       // unknown
		{"3201010101900002", "KSK", "1"},          // no rate for position
		{"", "PPL", "1"},                          // skipped
	}

	batch, err := importer.ValidateAllocations(rows, allocationRefs())
	require.NoError(t, err)

	require.Len(t, batch.Allocations, 2)
	assert.Equal(t, core.PartnerID("p1"), batch.Allocations[0].Allocation.PartnerID)
	assert.True(t, batch.Allocations[1].Allocation.Volume.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, 1, batch.Skipped)
	assert.Equal(t, []string{
		"Row 4: partner 'Ani' is already listed in row 2",
		"Row 5: partner 'Citra' is already allocated to this task",
		"Row 6: partner 'Dewi' matches more than one partner, use the NIK",
		"Row 7: partner 'Eka' not found",
		"Row 8: position 'KSK' not found",
	}, batch.WarningMessages())
}

func TestValidateAllocations_QuotaAcrossRows(t *testing.T) {
	rows := [][]string{
		{"Mitra", "Jabatan", "Volume"},
		{"Ani", "PPL", "4"},
		{"Budi", "PPL", "3"},
	}

	batch, err := importer.ValidateAllocations(rows, allocationRefs())
	require.NoError(t, err)

	assert.Len(t, batch.Allocations, 1)
	assert.Equal(t, []string{"Row 3: volume '3' exceeds the remaining quota of 2"}, batch.WarningMessages())
}

func TestValidateAllocations_AdmitHook(t *testing.T) {
	r := allocationRefs()
	r.Admit = func(c core.Allocation, accepted []core.Allocation) error {
		if c.PartnerID == "p2" {
			return errors.New("ceiling exceeded")
		}
		return nil
	}
	rows := [][]string{{"Mitra", "Jabatan"}, {"Ani", "PML"}, {"Budi", "PML"}}

	batch, err := importer.ValidateAllocations(rows, r)
	require.NoError(t, err)
	assert.Len(t, batch.Allocations, 1)
	assert.Equal(t, []string{"Row 3: partner 'Budi' rejected: ceiling exceeded"}, batch.WarningMessages())
}

// =============================================================================
// COMMIT
// =============================================================================

func TestCommit(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	batch, err := importer.ValidateRates(rateRows(), refs())
	require.NoError(t, err)

	res, err := importer.Commit(ctx, mem, batch)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Rates)
	assert.Equal(t, 2, res.Tasks)

	rates, _ := mem.ListRates(ctx)
	assert.Len(t, rates, 3)
}

func TestCommit_AtomicOnFailure(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	fs := &failingStore{Memory: mem, failAt: 3}

	batch, err := importer.ValidateRates(rateRows(), refs())
	require.NoError(t, err)
	require.Len(t, batch.Rates, 3)

	_, err = importer.Commit(ctx, fs, batch)

	require.ErrorIs(t, err, core.ErrCommitFailed)
	var ce *core.CommitError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, batch.ID, ce.BatchID)
	assert.Equal(t, 4, ce.Row)

	rates, _ := mem.ListRates(ctx)
	tasks, _ := mem.ListTasks(ctx)
	activities, _ := mem.ListActivities(ctx)
	assert.Empty(t, rates)
	assert.Empty(t, tasks)
	assert.Empty(t, activities)
}
