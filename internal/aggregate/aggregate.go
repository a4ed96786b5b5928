// Package aggregate computes per-category budget views and spending
// breakdowns from a snapshot of categories, budgets and transactions.
// Everything here is pure; callers load the snapshot.
package aggregate

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"gastos/internal/calendar"
	"gastos/internal/models"
)

// Progress thresholds.
const (
	NearLimitThreshold = 0.85
	ExceededThreshold  = 1.0
)

// Status classifies spending against a budget.
type Status string

const (
	StatusNormal    Status = "normal"
	StatusNearLimit Status = "near_limit"
	StatusExceeded  Status = "exceeded"
)

// StatusFor returns the status for a spent/amount ratio.
func StatusFor(progress float64) Status {
	switch {
	case progress > ExceededThreshold:
		return StatusExceeded
	case progress > NearLimitThreshold:
		return StatusNearLimit
	default:
		return StatusNormal
	}
}

// BudgetRow is the budget view of one category for one period.
type BudgetRow struct {
	CategoryID   uint            `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Period       string          `json:"period"`
	BudgetID     *uint           `json:"budget_id,omitempty"`
	Amount       decimal.Decimal `json:"budget_amount"`
	Spent        decimal.Decimal `json:"spent_amount"`
	Remaining    decimal.Decimal `json:"remaining"`
	Progress     float64         `json:"progress"`
	Status       Status          `json:"status"`
}

// HasBudget reports whether a budget exists for the row's category.
func (r BudgetRow) HasBudget() bool {
	return r.BudgetID != nil
}

// Budgets returns one row per category, ordered by name. Spending counts
// negative transactions in the period by absolute value. Categories with
// no budget report an amount of zero and a progress of zero.
func Budgets(period calendar.Period, categories []models.Category, budgets []models.Budget, txs []models.Transaction) []BudgetRow {
	key := period.String()

	byCategory := make(map[uint]models.Budget, len(budgets))
	for _, b := range budgets {
		if b.MonthYear == key {
			byCategory[b.CategoryID] = b
		}
	}

	spent := spendingByCategory(period, txs)

	rows := make([]BudgetRow, 0, len(categories))
	for _, c := range categories {
		row := BudgetRow{
			CategoryID:   c.ID,
			CategoryName: c.Name,
			Period:       key,
			Amount:       decimal.Zero,
			Spent:        decimal.Zero,
		}
		if b, ok := byCategory[c.ID]; ok {
			id := b.ID
			row.BudgetID = &id
			row.Amount = b.Amount
		}
		if s, ok := spent[c.ID]; ok {
			row.Spent = s
		}
		row.Remaining = row.Amount.Sub(row.Spent)
		row.Progress = Progress(row.Spent, row.Amount)
		row.Status = StatusFor(row.Progress)
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].CategoryName) < strings.ToLower(rows[j].CategoryName)
	})
	return rows
}

// Progress returns spent/amount, or zero when amount is zero.
func Progress(spent, amount decimal.Decimal) float64 {
	if amount.IsZero() {
		return 0
	}
	p, _ := spent.Div(amount).Float64()
	return p
}

// spendingByCategory sums expense magnitudes per category for the period.
// Uncategorized spending is keyed under zero.
func spendingByCategory(period calendar.Period, txs []models.Transaction) map[uint]decimal.Decimal {
	totals := make(map[uint]decimal.Decimal)
	for i := range txs {
		t := &txs[i]
		if !t.IsExpense() || !period.Contains(t.Date) {
			continue
		}
		var key uint
		if t.CategoryID != nil {
			key = *t.CategoryID
		}
		totals[key] = totals[key].Add(t.Amount.Abs())
	}
	return totals
}
