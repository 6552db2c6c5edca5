package contract_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mitrastat/honor-engine/contract"
	"github.com/mitrastat/honor-engine/core"
	"github.com/mitrastat/honor-engine/core/store"
	"github.com/mitrastat/honor-engine/document"
)

var y2025 = core.YearKey(2025)

func seed(t *testing.T) *store.Memory {
	t.Helper()
	ctx := context.Background()
	m := store.NewMemory()

	require.NoError(t, m.SaveTask(ctx, core.Task{ID: "t1", Name: "Pencacahan Susenas", Start: core.NewDate(2025, time.March, 1), End: core.NewDate(2025, time.March, 31)}))
	require.NoError(t, m.SaveTask(ctx, core.Task{ID: "t2", Name: "Pemeriksaan Sakernas", Start: core.NewDate(2025, time.February, 3), End: core.NewDate(2025, time.February, 20)}))
	require.NoError(t, m.SaveTask(ctx, core.Task{ID: "t3", Name: "Sensus 2026", Start: core.NewDate(2026, time.May, 1), End: core.NewDate(2026, time.May, 31)}))
	require.NoError(t, m.SavePosition(ctx, core.Position{Code: "PPL", Name: "Petugas Pencacah Lapangan"}))
	for _, r := range []core.PositionRate{
		{TaskID: "t1", Position: "PPL", Rate: decimal.NewFromInt(100000), Unit: "Dokumen", BudgetLine: "521213"},
		{TaskID: "t2", Position: "PML", Rate: decimal.NewFromInt(250000), Unit: "Dokumen"},
		{TaskID: "t3", Position: "PPL", Rate: decimal.NewFromInt(90000)},
	} {
		require.NoError(t, m.SaveRate(ctx, r))
	}
	for _, p := range []core.Partner{
		{ID: "p1", Name: "Ani Lestari", NationalID: "3201010101900001", Address: "Jl. Merdeka 1"},
		{ID: "p2", Name: "Budi <Santoso>"},
		{ID: "p3", Name: "Citra"},
	} {
		require.NoError(t, m.SavePartner(ctx, p))
	}
	for _, a := range []core.Allocation{
		{ID: "a1", TaskID: "t1", PartnerID: "p2", Position: "PPL", Volume: decimal.NewFromInt(10)},
		{ID: "a2", TaskID: "t2", PartnerID: "p2", Position: "PML", Volume: decimal.NewFromInt(2)},
		{ID: "a3", TaskID: "t1", PartnerID: "p1", Position: "PPL", Volume: decimal.NewFromInt(1)},
		{ID: "a4", TaskID: "t3", PartnerID: "p3", Position: "PPL", Volume: decimal.NewFromInt(1)},
	} {
		require.NoError(t, m.SaveAllocation(ctx, a))
	}
	require.NoError(t, m.SaveContractSetting(ctx, core.ContractSetting{
		Key:                y2025,
		OfficialName:       "Drs. Hendra",
		OfficialTitle:      "Kepala BPS Kabupaten",
		OfficialNIP:        "197001011990031001",
		LetterNumberFormat: "{urut}/SPK-MITRA/{bulan}/{tahun}",
		IssueDate:          core.NewDate(2025, time.January, 2),
	}))
	return m
}

func TestRender(t *testing.T) {
	svc := contract.NewService(seed(t), nil)

	res, err := svc.Render(context.Background(), "p2", y2025)
	require.NoError(t, err)

	// p1 and p2 have allocations in 2025, p3 only in 2026
	assert.Equal(t, 2, res.Sequence)
	assert.Equal(t, "002/SPK-MITRA/I/2025", res.LetterNumber)
	assert.Equal(t, core.TemplateID(document.DefaultTemplateID), res.TemplateID)

	require.Len(t, res.Lines, 2)
	assert.Equal(t, core.TaskID("t2"), res.Lines[0].TaskID, "ordered by task start")
	assert.Equal(t, "Petugas Pencacah Lapangan", res.Lines[1].PositionName)
	assert.True(t, res.Total.Equal(core.RupiahInt(1500000)))

	html := res.Document.HTML
	assert.True(t, res.Document.HasAttachment)
	assert.Contains(t, html, "Budi &lt;Santoso&gt;")
	assert.Contains(t, html, "Rp 1.500.000")
	assert.Contains(t, html, "satu juta lima ratus ribu")
	assert.Contains(t, html, "Drs. Hendra")
	assert.Contains(t, html, "<p>Nomor: 002/SPK-MITRA/I/2025</p>")
	assert.Contains(t, html, document.DefaultHonorClause)
}

func TestRender_Deterministic(t *testing.T) {
	svc := contract.NewService(seed(t), nil)

	a, err := svc.Render(context.Background(), "p2", y2025)
	require.NoError(t, err)
	b, err := svc.Render(context.Background(), "p2", y2025)
	require.NoError(t, err)
	assert.Equal(t, a.Document.HTML, b.Document.HTML)
}

func TestRender_TemplateNotReady(t *testing.T) {
	svc := contract.NewService(seed(t), nil)

	_, err := svc.Render(context.Background(), "p3", core.YearKey(2026))
	require.ErrorIs(t, err, core.ErrTemplateNotReady)
}

func TestRender_NoAllocations(t *testing.T) {
	ctx := context.Background()
	m := seed(t)
	require.NoError(t, m.SavePartner(ctx, core.Partner{ID: "p9", Name: "Dewi"}))

	_, err := contract.NewService(m, nil).Render(ctx, "p9", y2025)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = contract.NewService(m, nil).Render(ctx, "nobody", y2025)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRender_StoredTemplate(t *testing.T) {
	ctx := context.Background()
	m := seed(t)
	require.NoError(t, m.SaveTemplate(ctx, core.TemplateRecord{ID: "spk-short", Name: "Singkat", Body: []byte(`{
		"id": "ignored",
		"name": "Singkat",
		"opening": "Nomor {{nomor_surat}}",
		"articles": [{"number": 1, "title": "Honor", "body": "{{nama_mitra}} menerima {{total_honor}}.{{page_break}}"}],
		"closing": "{{lampiran}}"
	}`)}))
	setting, err := m.GetContractSetting(ctx, y2025)
	require.NoError(t, err)
	setting.TemplateID = "spk-short"
	setting.LetterNumberFormat = ""
	require.NoError(t, m.SaveContractSetting(ctx, setting))

	svc := contract.NewService(m, nil, contract.WithLetterNumberFormat("B-{urut}/{tahun}"))
	res, err := svc.Render(ctx, "p1", y2025)
	require.NoError(t, err)

	assert.Equal(t, core.TemplateID("spk-short"), res.TemplateID)
	assert.Equal(t, "B-001/2025", res.LetterNumber)
	assert.Equal(t, 2, res.Document.PageBreaks, "explicit break plus the one before the attachment")
	assert.Contains(t, res.Document.HTML, "Ani Lestari menerima Rp 100.000.")
}

func TestLetterNumber(t *testing.T) {
	date := core.NewDate(2025, time.July, 14)
	tests := []struct {
		format string
		seq    int
		want   string
	}{
		{contract.DefaultLetterNumberFormat, 7, "007/SPK/VII/2025"},
		{"{urut}", 1234, "1234"},
		{"B-{urut}/3205/{bulan}/{tahun}", 12, "B-012/3205/VII/2025"},
		{"tanpa pola", 1, "tanpa pola"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, contract.LetterNumber(tt.format, tt.seq, date))
	}
}

func TestExportAttachment(t *testing.T) {
	svc := contract.NewService(seed(t), nil)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportAttachment(context.Background(), "p2", y2025, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Lampiran", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, document.AttachmentColumns, rows[0])
	assert.Equal(t, "Pemeriksaan Sakernas", rows[1][1])
	assert.Equal(t, "Jumlah", rows[3][0])
	assert.Equal(t, "1500000", rows[3][7])
	assert.Equal(t, "Terbilang: Satu juta lima ratus ribu rupiah", rows[4][0])
}
