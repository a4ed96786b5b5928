// Package recurrence computes due dates for recurring definitions.
//
// Each RecurrenceKind maps to a Rule. A Rule's Next returns the first due
// date strictly after a reference date; InitialDue and Advance build the
// scheduling decisions on top of that.
package recurrence

import (
	"errors"
	"fmt"

	"gastos/internal/calendar"
	"gastos/internal/models"
)

// MaxCatchUp bounds how many periods InitialDue walks forward.
const MaxCatchUp = 120

var (
	ErrUnknownKind = errors.New("unknown recurrence kind")
	ErrInvalidDay  = errors.New("day of month must be between 1 and 31")
	ErrCatchUp     = errors.New("catch-up limit exceeded")
)

// Rule computes due dates for one recurrence kind.
type Rule interface {
	// ValidateDay checks the anchor day for this kind.
	ValidateDay(day int) error
	// Next returns the first due date strictly after ref.
	Next(ref calendar.Date, day int) calendar.Date
}

var rules = map[models.RecurrenceKind]Rule{
	models.RecurrenceMonthly: monthlyRule{},
}

// RuleFor returns the rule registered for kind.
func RuleFor(kind models.RecurrenceKind) (Rule, error) {
	rule, ok := rules[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return rule, nil
}

// Kinds lists the supported recurrence kinds.
func Kinds() []models.RecurrenceKind {
	kinds := make([]models.RecurrenceKind, 0, len(rules))
	for k := range rules {
		kinds = append(kinds, k)
	}
	return kinds
}

// InitialDue returns the first due date on or after both start and today.
// A date equal to today is kept, so a definition created on its due day
// fires on the next processing run.
func InitialDue(kind models.RecurrenceKind, day int, start, today calendar.Date) (calendar.Date, error) {
	rule, err := RuleFor(kind)
	if err != nil {
		return calendar.Date{}, err
	}
	if err := rule.ValidateDay(day); err != nil {
		return calendar.Date{}, err
	}

	candidate := rule.Next(start, day)
	for i := 0; candidate.Before(start) || candidate.Before(today); i++ {
		if i >= MaxCatchUp {
			return calendar.Date{}, fmt.Errorf("%w: no due date within %d periods of %s", ErrCatchUp, MaxCatchUp, start)
		}
		candidate = rule.Next(candidate, day)
	}
	return candidate, nil
}

// Advance returns the due date that follows a consumed one.
func Advance(kind models.RecurrenceKind, day int, consumed calendar.Date) (calendar.Date, error) {
	rule, err := RuleFor(kind)
	if err != nil {
		return calendar.Date{}, err
	}
	if err := rule.ValidateDay(day); err != nil {
		return calendar.Date{}, err
	}
	return rule.Next(consumed.AddDays(1), day), nil
}
