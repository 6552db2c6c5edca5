package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// PERIOD KEY - Identifies the window an honorarium ceiling applies to
// =============================================================================

// Granularity selects how task start dates map to period keys.
type Granularity string

const (
	GranularityYear  Granularity = "year"
	GranularityMonth Granularity = "month"
)

// ParseGranularity accepts "year" or "month" (case-insensitive).
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(strings.ToLower(strings.TrimSpace(s))) {
	case GranularityYear, "":
		return GranularityYear, nil
	case GranularityMonth:
		return GranularityMonth, nil
	}
	return "", &InvalidArgumentError{Field: "granularity", Value: s, Reason: "expected year or month"}
}

// PeriodKey is a year, or a year and month. Month zero means the whole year.
type PeriodKey struct {
	Year  int
	Month time.Month
}

func YearKey(year int) PeriodKey { return PeriodKey{Year: year} }

func MonthKey(year int, month time.Month) PeriodKey {
	return PeriodKey{Year: year, Month: month}
}

// KeyFor returns the period key containing the date at the given granularity.
func KeyFor(d Date, g Granularity) PeriodKey {
	if g == GranularityMonth {
		return MonthKey(d.Year(), d.Month())
	}
	return YearKey(d.Year())
}

// ParsePeriodKey parses "2025" or "2025-07".
func ParsePeriodKey(s string) (PeriodKey, error) {
	s = strings.TrimSpace(s)
	yearPart, monthPart, hasMonth := strings.Cut(s, "-")
	year, err := strconv.Atoi(yearPart)
	if err != nil || year < 1 || year > 9999 {
		return PeriodKey{}, &InvalidArgumentError{Field: "period", Value: s, Reason: "expected YYYY or YYYY-MM"}
	}
	if !hasMonth {
		return YearKey(year), nil
	}
	month, err := strconv.Atoi(monthPart)
	if err != nil || month < 1 || month > 12 {
		return PeriodKey{}, &InvalidArgumentError{Field: "period", Value: s, Reason: "month must be 01-12"}
	}
	return MonthKey(year, time.Month(month)), nil
}

func (k PeriodKey) IsMonthly() bool { return k.Month != 0 }

func (k PeriodKey) IsZero() bool { return k.Year == 0 }

func (k PeriodKey) Granularity() Granularity {
	if k.IsMonthly() {
		return GranularityMonth
	}
	return GranularityYear
}

// Period returns the inclusive date range of the key.
func (k PeriodKey) Period() Period {
	if k.IsMonthly() {
		return Period{Start: StartOfMonth(k.Year, k.Month), End: EndOfMonth(k.Year, k.Month)}
	}
	return Period{Start: StartOfYear(k.Year), End: EndOfYear(k.Year)}
}

func (k PeriodKey) Contains(d Date) bool { return k.Period().Contains(d) }

func (k PeriodKey) String() string {
	if k.IsMonthly() {
		return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
	}
	return fmt.Sprintf("%04d", k.Year)
}
