package recurrence

import "gastos/internal/calendar"

// monthlyRule fires on the same day each month, clamped to the month's
// last day when the month is shorter.
type monthlyRule struct{}

func (monthlyRule) ValidateDay(day int) error {
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	return nil
}

func (monthlyRule) Next(ref calendar.Date, day int) calendar.Date {
	return NextMonthly(ref, day)
}

// NextMonthly returns the first date strictly after ref that falls on day,
// or on the last day of the month when the month has fewer days.
func NextMonthly(ref calendar.Date, day int) calendar.Date {
	period := ref.Period()
	candidate := period.At(day)
	if !candidate.After(ref) {
		candidate = period.Next().At(day)
	}
	return candidate
}
