/*
Package importer turns uploaded spreadsheets into validated batches of
records and commits them atomically.

PURPOSE:
  Administrators prepare task rates and partner allocations in Excel or CSV.
  A single bad row must not block the rest of the file: every row is
  validated on its own, rejected rows become warnings, and the valid rows are
  committed in one store transaction.

PIPELINE:
  1. ReadTable:      .xlsx (first sheet) or .csv/.txt into [][]string
  2. ResolveHeaders: map header synonyms to column indexes
  3. Validate*:      per-row coercion and reference checks -> Batch
  4. Commit:         one transaction; any failure rolls back the batch

ROW NUMBERS:
  Warnings use the 1-based sheet row number. The header is row 1, so the
  first data row is row 2.

SEE ALSO:
  - rates.go: Task and position rate import
  - allocations.go: Partner allocation import for one task
  - commit.go: Atomic persistence
*/
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mitrastat/honor-engine/core"
)

// SupportedExtensions lists the accepted upload types.
var SupportedExtensions = []string{".xlsx", ".csv", ".txt"}

// ReadTable reads every row of an uploaded file. The format is chosen from
// the file name's extension.
func ReadTable(name string, r io.Reader) ([][]string, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx":
		return readWorkbook(r)
	case ".csv", ".txt":
		return readDelimited(r)
	default:
		return nil, &core.InvalidArgumentError{
			Field:  "file",
			Value:  name,
			Reason: fmt.Sprintf("unsupported file type, expected one of %s", strings.Join(SupportedExtensions, ", ")),
		}
	}
}

func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &core.InvalidArgumentError{Field: "file", Reason: fmt.Sprintf("cannot open workbook: %v", err)}
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, &core.InvalidArgumentError{Field: "file", Reason: "workbook has no sheets"}
	}
	// Raw values keep dates as serial numbers instead of locale-formatted text.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readDelimited(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = detectDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, &core.InvalidArgumentError{Field: "file", Reason: fmt.Sprintf("malformed CSV: %v", err)}
	}
	return rows, nil
}

// detectDelimiter picks ';' when the first line has more semicolons than
// commas. Spreadsheets saved with an Indonesian locale use ';'.
func detectDelimiter(data []byte) rune {
	first := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		first = data[:i]
	}
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		return ';'
	}
	return ','
}
