package importer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/mitrastat/honor-engine/core"
)

var nonDigits = regexp.MustCompile(`[^0-9]`)

var decimalComma = regexp.MustCompile(`^([0-9]+),([0-9]{1,2})$`)

var nonDigitsOrComma = regexp.MustCompile(`[^0-9,]`)

// ParseAmount coerces a money cell by dropping everything but digits, so
// "Rp 150.000" and "150,000" both read as 150000.
func ParseAmount(s string) (decimal.Decimal, bool) {
	digits := nonDigits.ReplaceAllString(s, "")
	if digits == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseVolume coerces a volume cell using Indonesian separators. A blank
// cell yields def. '.' groups thousands; a single ',' followed by one or two
// digits is the decimal mark ("1.250,5" is 1250.5). Any other ',' groups
// thousands too, so "1,000" reads as 1000.
func ParseVolume(s string, def decimal.Decimal) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, true
	}
	kept := nonDigitsOrComma.ReplaceAllString(s, "")
	if m := decimalComma.FindStringSubmatch(kept); m != nil {
		d, err := decimal.NewFromString(m[1] + "." + m[2])
		if err == nil {
			return d, true
		}
	}
	return ParseAmount(s)
}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDate accepts ISO dates, dd/mm/yyyy, dd-mm-yyyy and spreadsheet serial
// day numbers.
func ParseDate(s string) (core.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), true
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return core.DateOf(t), true
		}
	}
	return core.Date{}, false
}
