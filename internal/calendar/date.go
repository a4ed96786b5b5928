// Package calendar provides civil dates and month period keys as stored by
// the expense tracker: "YYYY-MM-DD" dates and "YYYY-MM" periods.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Layouts used for persisted dates and period keys.
const (
	DateLayout   = "2006-01-02"
	PeriodLayout = "2006-01"
)

// Date is a calendar day without a time-of-day or zone.
type Date struct {
	t time.Time
}

// New returns the date for year, month and day. Out-of-range values are
// normalized the way time.Date normalizes them.
func New(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime returns the calendar day of t in t's own location.
func FromTime(t time.Time) Date {
	return New(t.Year(), t.Month(), t.Day())
}

// Parse reads a strict "YYYY-MM-DD" date.
func Parse(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// MustParse is like Parse but panics on malformed input. Intended for tests
// and constants.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }
func (d Date) IsZero() bool      { return d.t.IsZero() }

// String formats the date as "YYYY-MM-DD".
func (d Date) String() string {
	return d.t.Format(DateLayout)
}

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }

// Period returns the month the date falls in.
func (d Date) Period() Period {
	return Period{year: d.Year(), month: d.Month()}
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
