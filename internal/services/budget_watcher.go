package services

import (
	"context"

	"gastos/internal/aggregate"
	"gastos/internal/events"
)

// BudgetSnapshot is one emission of a budget watch.
type BudgetSnapshot struct {
	Period string                `json:"period"`
	Rows   []aggregate.BudgetRow `json:"rows"`
	Err    error                 `json:"-"`
}

// BudgetStreamer produces budget snapshots as data changes.
type BudgetStreamer interface {
	Watch(ctx context.Context, periods <-chan string) <-chan BudgetSnapshot
}

// BudgetWatcher recomputes budget rows whenever categories, budgets or
// transactions change, or when the watched period changes.
type BudgetWatcher struct {
	budgets BudgetServicer
	bus     *events.Bus
}

// NewBudgetWatcher creates a BudgetWatcher.
func NewBudgetWatcher(budgets BudgetServicer, bus *events.Bus) *BudgetWatcher {
	return &BudgetWatcher{budgets: budgets, bus: bus}
}

func affectsBudgets(c events.Change) bool {
	switch c.Entity {
	case events.EntityCategory, events.EntityBudget, events.EntityTransaction:
		return true
	}
	return false
}

// Watch waits for the first period on periods and then emits a snapshot for
// it, again after every relevant change, and again whenever a new period
// arrives. The output is closed when ctx is done or periods is closed.
func (w *BudgetWatcher) Watch(ctx context.Context, periods <-chan string) <-chan BudgetSnapshot {
	out := make(chan BudgetSnapshot)
	changes, cancel := w.bus.Subscribe()

	go func() {
		defer close(out)
		defer cancel()

		var period string
		select {
		case <-ctx.Done():
			return
		case p, ok := <-periods:
			if !ok {
				return
			}
			period = p
		}

		emit := func() bool {
			rows, err := w.budgets.GetBudgetsForPeriod(ctx, period)
			select {
			case out <- BudgetSnapshot{Period: period, Rows: rows, Err: err}:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case p, ok := <-periods:
				if !ok {
					return
				}
				period = p
			case c, ok := <-changes:
				if !ok {
					// Bus closed; keep serving period switches only.
					changes = nil
					continue
				}
				if !affectsBudgets(c) {
					continue
				}
			}
			if !emit() {
				return
			}
		}
	}()

	return out
}
