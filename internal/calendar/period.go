package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Period is a calendar month, keyed as "YYYY-MM".
type Period struct {
	year  int
	month time.Month
}

// NewPeriod returns the period for year and month.
func NewPeriod(year int, month time.Month) Period {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{year: t.Year(), month: t.Month()}
}

// ParsePeriod reads a strict "YYYY-MM" period key.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse(PeriodLayout, strings.TrimSpace(s))
	if err != nil {
		return Period{}, fmt.Errorf("parse period %q: %w", s, err)
	}
	return Period{year: t.Year(), month: t.Month()}, nil
}

func (p Period) Year() int         { return p.year }
func (p Period) Month() time.Month { return p.month }
func (p Period) IsZero() bool      { return p.year == 0 && p.month == 0 }

// String formats the period as "YYYY-MM".
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.year, int(p.month))
}

// Next returns the following month.
func (p Period) Next() Period {
	return NewPeriod(p.year, p.month+1)
}

// Days returns the number of days in the period.
func (p Period) Days() int {
	return DaysIn(p.year, p.month)
}

// At returns the given day of the period, clamped to the last day of the
// month.
func (p Period) At(day int) Date {
	if last := p.Days(); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return New(p.year, p.month, day)
}

// Bounds returns the first and last day of the period.
func (p Period) Bounds() (Date, Date) {
	return p.At(1), p.At(p.Days())
}

// Contains reports whether a stored ISO date string belongs to the period.
// Matching is by string prefix, as the stored dates are canonical.
func (p Period) Contains(isoDate string) bool {
	return strings.HasPrefix(isoDate, p.String())
}
