package importer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const templateSheet = "Template"

// TemplateHeaders returns the header row of the rate import template.
func TemplateHeaders() []string {
	return headerRow(RateColumns)
}

// AllocationTemplateHeaders returns the header row of the allocation template.
func AllocationTemplateHeaders() []string {
	return headerRow(AllocationColumns)
}

func headerRow(columns []Column) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.Synonyms[0]
	}
	return out
}

var rateExample = []any{
	"Survei Sosial Ekonomi Nasional", "Pencacahan Susenas Maret", "Pendataan rumah tangga sampel",
	"2025-03-01", "2025-03-31", "PPL", 175000, "Dokumen", 40, "2905.BMA.004.005.521213",
}

var allocationExample = []any{"3201010101900001", "PPL", 10}

// WriteTemplate writes the rate import workbook: the header row and one
// example row.
func WriteTemplate(w io.Writer) error {
	return writeWorkbook(w, TemplateHeaders(), rateExample)
}

// WriteAllocationTemplate writes the allocation import workbook.
func WriteAllocationTemplate(w io.Writer) error {
	return writeWorkbook(w, AllocationTemplateHeaders(), allocationExample)
}

func writeWorkbook(w io.Writer, header []string, example []any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), templateSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(templateSheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for i, v := range example {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellValue(templateSheet, cell, v); err != nil {
			return fmt.Errorf("failed to write example: %w", err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
