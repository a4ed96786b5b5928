package models

import "github.com/shopspring/decimal"

// Transaction is a single expense or income entry. Negative amounts are
// expenses. Date is a canonical "YYYY-MM-DD" string.
type Transaction struct {
	Base
	Title       string          `gorm:"not null" json:"title"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Date        string          `gorm:"type:varchar(10);not null;index;uniqueIndex:uq_transactions_recurring_date" json:"date"`
	CategoryID  *uint           `gorm:"index" json:"category_id,omitempty"`
	RecurringID *uint           `gorm:"uniqueIndex:uq_transactions_recurring_date" json:"recurring_id,omitempty"`
}

// IsExpense reports whether the transaction counts as spending.
func (t *Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}
