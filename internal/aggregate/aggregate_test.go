package aggregate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gastos/internal/calendar"
	"gastos/internal/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func uintPtr(v uint) *uint { return &v }

func category(id uint, name string) models.Category {
	c := models.Category{Name: name}
	c.ID = id
	return c
}

func budget(id, categoryID uint, period, amount string) models.Budget {
	b := models.Budget{CategoryID: categoryID, MonthYear: period, Amount: dec(amount)}
	b.ID = id
	return b
}

func txn(categoryID *uint, date, amount string) models.Transaction {
	return models.Transaction{Title: "t", CategoryID: categoryID, Date: date, Amount: dec(amount)}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		progress float64
		want     Status
	}{
		{0, StatusNormal},
		{0.5, StatusNormal},
		{0.85, StatusNormal},
		{0.86, StatusNearLimit},
		{1.0, StatusNearLimit},
		{1.01, StatusExceeded},
		{2, StatusExceeded},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.progress), "progress %v", tt.progress)
	}
}

func TestBudgets(t *testing.T) {
	period, err := calendar.ParsePeriod("2025-05")
	require.NoError(t, err)

	food := uintPtr(1)
	categories := []models.Category{category(2, "Transport"), category(1, "Food"), category(3, "Rent")}
	budgets := []models.Budget{
		budget(10, 1, "2025-05", "2000"),
		budget(11, 2, "2025-05", "100"),
		budget(12, 2, "2025-04", "999"),
	}
	txs := []models.Transaction{
		txn(food, "2025-05-03", "-500"),
		txn(food, "2025-05-20", "-1000"),
		txn(food, "2025-05-21", "300"),
		txn(food, "2025-04-30", "-700"),
		txn(uintPtr(2), "2025-05-02", "-120"),
		txn(nil, "2025-05-02", "-50"),
	}

	rows := Budgets(period, categories, budgets, txs)
	require.Len(t, rows, 3)

	assert.Equal(t, "Food", rows[0].CategoryName)
	assert.Equal(t, "Rent", rows[1].CategoryName)
	assert.Equal(t, "Transport", rows[2].CategoryName)

	food0 := rows[0]
	assert.True(t, food0.HasBudget())
	assert.Equal(t, uint(10), *food0.BudgetID)
	assert.True(t, food0.Spent.Equal(dec("1500")), food0.Spent.String())
	assert.True(t, food0.Remaining.Equal(dec("500")))
	assert.InDelta(t, 0.75, food0.Progress, 1e-9)
	assert.Equal(t, StatusNormal, food0.Status)

	rent := rows[1]
	assert.False(t, rent.HasBudget())
	assert.True(t, rent.Amount.IsZero())
	assert.Zero(t, rent.Progress)
	assert.Equal(t, StatusNormal, rent.Status)

	transport := rows[2]
	assert.InDelta(t, 1.2, transport.Progress, 1e-9)
	assert.Equal(t, StatusExceeded, transport.Status)
	assert.True(t, transport.Remaining.Equal(dec("-20")))
}

func TestBudgets_ZeroBudgetWithSpending(t *testing.T) {
	period, _ := calendar.ParsePeriod("2025-05")
	rows := Budgets(period,
		[]models.Category{category(1, "Fun")},
		[]models.Budget{budget(1, 1, "2025-05", "0")},
		[]models.Transaction{txn(uintPtr(1), "2025-05-09", "-80")},
	)
	require.Len(t, rows, 1)
	assert.Zero(t, rows[0].Progress)
	assert.Equal(t, StatusNormal, rows[0].Status)
	assert.True(t, rows[0].Spent.Equal(dec("80")))
}

func TestBudgets_NearLimit(t *testing.T) {
	period, _ := calendar.ParsePeriod("2025-05")
	rows := Budgets(period,
		[]models.Category{category(1, "Food")},
		[]models.Budget{budget(1, 1, "2025-05", "1000")},
		[]models.Transaction{txn(uintPtr(1), "2025-05-09", "-900")},
	)
	require.Len(t, rows, 1)
	assert.Equal(t, StatusNearLimit, rows[0].Status)
}

func TestBudgets_NoCategories(t *testing.T) {
	period, _ := calendar.ParsePeriod("2025-05")
	rows := Budgets(period, nil, nil, []models.Transaction{txn(nil, "2025-05-01", "-1")})
	assert.Empty(t, rows)
}

func TestBreakdown(t *testing.T) {
	period, _ := calendar.ParsePeriod("2025-05")
	categories := []models.Category{category(1, "Food"), category(2, "Transport")}
	txs := []models.Transaction{
		txn(uintPtr(1), "2025-05-03", "-300"),
		txn(uintPtr(2), "2025-05-04", "-500"),
		txn(nil, "2025-05-05", "-150"),
		txn(uintPtr(99), "2025-05-05", "-50"),
		txn(uintPtr(1), "2025-05-06", "1000"),
		txn(uintPtr(1), "2025-06-01", "-1000"),
	}

	slices := Breakdown(period, categories, txs)
	require.Len(t, slices, 3)

	assert.Equal(t, "Transport", slices[0].CategoryName)
	assert.True(t, slices[0].Total.Equal(dec("500")))
	assert.InDelta(t, 0.5, slices[0].Share, 1e-9)

	assert.Equal(t, "Food", slices[1].CategoryName)
	assert.Equal(t, models.UncategorizedName, slices[2].CategoryName)
	assert.Nil(t, slices[2].CategoryID)
	assert.True(t, slices[2].Total.Equal(dec("200")))
}
