package models

import "github.com/shopspring/decimal"

// Budget is a spending limit for one category in one month. There is at
// most one budget per (CategoryID, MonthYear).
type Budget struct {
	Base
	CategoryID uint            `gorm:"not null;uniqueIndex:uq_budgets_category_month" json:"category_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	MonthYear  string          `gorm:"type:varchar(7);not null;index;uniqueIndex:uq_budgets_category_month" json:"month_year"`
}
