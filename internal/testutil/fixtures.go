package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"gastos/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Dec parses a decimal literal, failing loudly on typos.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// UintPtr returns a pointer to v.
func UintPtr(v uint) *uint {
	return &v
}

// StringPtr returns a pointer to v.
func StringPtr(v string) *string {
	return &v
}

// CreateTestCategory creates a category. An empty name gets a unique one.
func CreateTestCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()
	if name == "" {
		name = fmt.Sprintf("Category %d", nextID())
	}
	category := &models.Category{Name: name}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction creates a transaction on date with the given amount.
func CreateTestTransaction(t *testing.T, db *gorm.DB, categoryID *uint, date, amount string) *models.Transaction {
	t.Helper()
	tx := &models.Transaction{
		Title:      fmt.Sprintf("Transaction %d", nextID()),
		Amount:     Dec(amount),
		Date:       date,
		CategoryID: categoryID,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestBudget creates a budget for a category and period.
func CreateTestBudget(t *testing.T, db *gorm.DB, categoryID uint, period, amount string) *models.Budget {
	t.Helper()
	budget := &models.Budget{
		CategoryID: categoryID,
		MonthYear:  period,
		Amount:     Dec(amount),
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestRecurring stores def as-is after filling in a title, amount and
// kind when they are missing. NextDueDate is not computed.
func CreateTestRecurring(t *testing.T, db *gorm.DB, def models.RecurringDefinition) *models.RecurringDefinition {
	t.Helper()
	if def.Title == "" {
		def.Title = fmt.Sprintf("Recurring %d", nextID())
	}
	if def.Amount.IsZero() {
		def.Amount = Dec("100")
	}
	if def.Kind == "" {
		def.Kind = models.RecurrenceMonthly
	}
	if err := db.Create(&def).Error; err != nil {
		t.Fatalf("failed to create test recurring definition: %v", err)
	}
	return &def
}
