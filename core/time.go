package core

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// DATE - Day-granular calendar date (tasks, letters and periods are all dates)
// =============================================================================

type Date struct {
	Time time.Time
}

const DateLayout = "2006-01-02"

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date { return DateOf(time.Now()) }

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, &InvalidArgumentError{Field: "date", Value: s, Reason: "expected YYYY-MM-DD"}
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{Time: d.Time.AddDate(0, n, 0)} }

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Date) IsZero() bool          { return d.Time.IsZero() }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format(DateLayout)
}

// =============================================================================
// PERIOD - Inclusive date range
// =============================================================================

type Period struct {
	Start Date
	End   Date
}

// Contains returns true if the date is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

func (p Period) String() string {
	return fmt.Sprintf("[%s, %s]", p.Start, p.End)
}

func StartOfYear(year int) Date { return NewDate(year, time.January, 1) }
func EndOfYear(year int) Date   { return NewDate(year, time.December, 31) }
func StartOfMonth(year int, month time.Month) Date {
	return NewDate(year, month, 1)
}
func EndOfMonth(year int, month time.Month) Date {
	return NewDate(year, month+1, 1).AddDays(-1)
}
