package models

import "github.com/shopspring/decimal"

// RecurrenceKind identifies how a recurring definition repeats.
type RecurrenceKind string

const (
	RecurrenceMonthly RecurrenceKind = "MONTHLY"
)

// RecurringDefinition materializes a negative transaction of Amount every
// time NextDueDate is reached. Dates are "YYYY-MM-DD" strings; Amount is
// stored positive.
type RecurringDefinition struct {
	Base
	Title       string          `gorm:"not null" json:"title"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	CategoryID  *uint           `gorm:"index" json:"category_id,omitempty"`
	Kind        RecurrenceKind  `gorm:"column:recurrence_kind;type:varchar(16);not null" json:"recurrence_kind"`
	DayOfMonth  int             `gorm:"not null" json:"day_of_month"`
	StartDate   string          `gorm:"type:varchar(10);not null" json:"start_date"`
	EndDate     *string         `gorm:"type:varchar(10)" json:"end_date,omitempty"`
	NextDueDate string          `gorm:"type:varchar(10);not null;index" json:"next_due_date"`
	IsActive    bool            `gorm:"not null" json:"is_active"`
}
