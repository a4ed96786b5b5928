package calendar

import "time"

// Clock supplies "today". Services take a Clock so tests can pin the day.
type Clock interface {
	Today() Date
}

// SystemClock reads the wall clock in Location (time.Local when nil).
type SystemClock struct {
	Location *time.Location
}

// Today returns the current civil date.
func (c SystemClock) Today() Date {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return FromTime(time.Now().In(loc))
}

// FixedClock always reports the same day.
type FixedClock Date

func (c FixedClock) Today() Date { return Date(c) }
