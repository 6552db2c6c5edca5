/*
Package terbilang spells numbers, amounts and dates in Indonesian words.

PURPOSE:
  Contracts state the honorarium and the signing date both in figures and in
  words ("terbilang"). This package produces the word form and the matching
  figure form ("Rp 1.375.000", "1 Juli 2025").

RULES:
  0            nol
  1-9          satu .. sembilan
  10, 11       sepuluh, sebelas
  12-19        <x> belas
  20-99        <x> puluh <y>
  100-199      seratus <rest>
  200-999      <x> ratus <rest>
  1000-1999    seribu <rest>
  >= 2000      <words> ribu / juta / miliar / triliun <rest>

  Values of a trillion and above recurse on the triliun group, so every
  non-negative int64 has a spelling.

USAGE:
  w, _ := terbilang.ToWords(1375000)
  // "satu juta tiga ratus tujuh puluh lima ribu"
*/
package terbilang

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mitrastat/honor-engine/core"
)

// CurrencyWord is appended by ToCurrencyWords.
const CurrencyWord = "rupiah"

var smallNumbers = [...]string{
	"", "satu", "dua", "tiga", "empat", "lima",
	"enam", "tujuh", "delapan", "sembilan", "sepuluh", "sebelas",
}

type scale struct {
	size int64
	word string
}

// Largest first.
var scales = []scale{
	{size: 1_000_000_000_000, word: "triliun"},
	{size: 1_000_000_000, word: "miliar"},
	{size: 1_000_000, word: "juta"},
}

// ToWords returns the Indonesian cardinal words for n.
func ToWords(n int64) (string, error) {
	if n < 0 {
		return "", &core.InvalidArgumentError{Field: "number", Value: decimal.NewFromInt(n).String(), Reason: "must not be negative"}
	}
	if n == 0 {
		return "nol", nil
	}
	return spell(n), nil
}

// ToCurrencyWords returns ToWords(n) followed by " rupiah".
func ToCurrencyWords(n int64) (string, error) {
	w, err := ToWords(n)
	if err != nil {
		return "", err
	}
	return w + " " + CurrencyWord, nil
}

// AmountToWords rounds the amount to whole rupiah (half up) and spells it.
func AmountToWords(a core.Amount) (string, error) {
	if a.IsNegative() {
		return "", &core.InvalidArgumentError{Field: "amount", Value: a.String(), Reason: "must not be negative"}
	}
	rounded := a.Value.Round(0)
	if rounded.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return "", &core.InvalidArgumentError{Field: "amount", Value: a.String(), Reason: "out of range"}
	}
	return ToCurrencyWords(rounded.IntPart())
}

func spell(n int64) string {
	switch {
	case n < 12:
		return smallNumbers[n]
	case n < 20:
		return smallNumbers[n-10] + " belas"
	case n < 100:
		return join(smallNumbers[n/10]+" puluh", n%10)
	case n < 200:
		return join("seratus", n-100)
	case n < 1000:
		return join(smallNumbers[n/100]+" ratus", n%100)
	case n < 2000:
		return join("seribu", n-1000)
	case n < 1_000_000:
		return join(spell(n/1000)+" ribu", n%1000)
	}
	for _, s := range scales {
		if n >= s.size {
			return join(spell(n/s.size)+" "+s.word, n%s.size)
		}
	}
	return ""
}

func join(head string, rest int64) string {
	if rest == 0 {
		return head
	}
	return head + " " + spell(rest)
}

// =============================================================================
// DATES
// =============================================================================

var weekdays = [...]string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}

var months = [...]string{
	"", "Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

var romanMonths = [...]string{"", "I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X", "XI", "XII"}

func WeekdayName(d time.Weekday) string { return weekdays[d] }

func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return months[m]
}

// RomanMonth returns the month in Roman numerals, as used in letter numbers.
func RomanMonth(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return romanMonths[m]
}

// DateToWords spells a date the way it is written in a contract preamble:
// "Selasa, tanggal satu, bulan Juli tahun dua ribu dua puluh lima".
func DateToWords(d core.Date) (string, error) {
	if d.IsZero() {
		return "", &core.InvalidArgumentError{Field: "date", Reason: "must be set"}
	}
	day, err := ToWords(int64(d.Day()))
	if err != nil {
		return "", err
	}
	year, err := ToWords(int64(d.Year()))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(WeekdayName(d.Weekday()))
	b.WriteString(", tanggal ")
	b.WriteString(day)
	b.WriteString(", bulan ")
	b.WriteString(MonthName(d.Month()))
	b.WriteString(" tahun ")
	b.WriteString(year)
	return b.String(), nil
}

// FormatDate returns "1 Juli 2025".
func FormatDate(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d %s %d", d.Day(), MonthName(d.Month()), d.Year())
}

// =============================================================================
// FIGURES
// =============================================================================

var printer = message.NewPrinter(language.Indonesian)

// FormatRupiah returns the amount rounded to whole rupiah with Indonesian
// digit grouping: "Rp 1.375.000".
func FormatRupiah(a core.Amount) string {
	return "Rp " + FormatNumber(a.Value.Round(0).IntPart())
}

// FormatNumber groups digits with dots: 1375000 -> "1.375.000".
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatDecimal formats a volume with grouping and up to two decimals,
// using a comma as decimal separator: "1.250,5".
func FormatDecimal(d decimal.Decimal) string {
	d = d.Round(2)
	if d.IsInteger() {
		return FormatNumber(d.IntPart())
	}
	whole := d.Truncate(0)
	frac := strings.TrimRight(d.Sub(whole).Abs().StringFixed(2)[2:], "0")
	sign := ""
	if d.IsNegative() && whole.IsZero() {
		sign = "-"
	}
	return sign + FormatNumber(whole.IntPart()) + "," + frac
}
