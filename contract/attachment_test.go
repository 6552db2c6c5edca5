package contract

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mitrastat/honor-engine/core"
	"github.com/mitrastat/honor-engine/document"
	"github.com/mitrastat/honor-engine/terbilang"
)

func TestWriteAttachment_RoundsLikeHTML(t *testing.T) {
	// GIVEN: a rate with half a rupiah
	lines := []document.AttachmentLine{{
		TaskID: "t1", TaskName: "Pencacahan", PositionCode: "PPL",
		Start: core.NewDate(2025, time.March, 1), End: core.NewDate(2025, time.March, 31),
		Volume: decimal.NewFromInt(3), Unit: "Dokumen",
		Rate:  core.Rupiah(decimal.RequireFromString("12500.5")),
		Total: core.Rupiah(decimal.RequireFromString("37501.5")),
	}}

	var buf bytes.Buffer
	require.NoError(t, writeAttachment(&buf, lines))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(attachmentSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 4)

	// THEN: the sheet and the HTML table show the same whole rupiah
	assert.Equal(t, "12501", rows[1][6])
	assert.Equal(t, "37502", rows[1][7])
	assert.Equal(t, "37502", rows[2][7])
	assert.Equal(t, "Rp 37.502", terbilang.FormatRupiah(lines[0].Total))
	assert.Equal(t, "Terbilang: Tiga puluh tujuh ribu lima ratus dua rupiah", rows[3][0])
}
