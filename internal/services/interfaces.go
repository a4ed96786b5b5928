package services

import (
	"context"

	"github.com/shopspring/decimal"

	"gastos/internal/aggregate"
	"gastos/internal/calendar"
	"gastos/internal/models"
	"gastos/internal/pagination"
)

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	GetCategories(ctx context.Context) ([]models.Category, error)
	GetCategoryByID(ctx context.Context, id uint) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uint) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	Period     *calendar.Period
	CategoryID *uint
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(ctx context.Context, title string, amount decimal.Decimal, date string, categoryID *uint) (*models.Transaction, error)
	GetTransactions(ctx context.Context, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(ctx context.Context, id uint) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, id uint) error
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	SetBudget(ctx context.Context, categoryID uint, amount decimal.Decimal, period string) (*models.Budget, error)
	GetBudgetsForPeriod(ctx context.Context, period string) ([]aggregate.BudgetRow, error)
	GetBudget(ctx context.Context, categoryID uint, period string) (*models.Budget, error)
	DeleteBudget(ctx context.Context, id uint) error
	GetSpendingBreakdown(ctx context.Context, period string) ([]aggregate.Slice, error)
}

// RecurringInput carries the user-editable fields of a recurring definition.
type RecurringInput struct {
	Title      string
	Amount     decimal.Decimal
	CategoryID *uint
	Kind       models.RecurrenceKind
	DayOfMonth int
	StartDate  string
	EndDate    *string
	IsActive   bool
}

// RecurringView is a recurring definition joined with its category name.
type RecurringView struct {
	models.RecurringDefinition
	CategoryName *string `json:"category_name,omitempty"`
}

// RecurringServicer defines the contract for recurring definition CRUD.
type RecurringServicer interface {
	CreateRecurring(ctx context.Context, in RecurringInput) (*models.RecurringDefinition, error)
	UpdateRecurring(ctx context.Context, id uint, in RecurringInput) (*models.RecurringDefinition, error)
	GetRecurringByID(ctx context.Context, id uint) (*models.RecurringDefinition, error)
	GetRecurring(ctx context.Context) ([]RecurringView, error)
	DeleteRecurring(ctx context.Context, id uint) error
}

// ProcessResult summarizes one processing run.
type ProcessResult struct {
	Today        string `json:"today"`
	Checked      int    `json:"checked"`
	Materialized int    `json:"materialized"`
	Deactivated  int    `json:"deactivated"`
	Skipped      int    `json:"skipped"`
	Failed       int    `json:"failed"`
}

// SchedulerServicer materializes due recurring definitions.
type SchedulerServicer interface {
	ProcessDue(ctx context.Context, today calendar.Date) (*ProcessResult, error)
	// Close stops an in-flight run after its current item and waits for it.
	Close()
}

// ActivityServicer records mutations for later inspection.
type ActivityServicer interface {
	Log(ctx context.Context, action, resourceType string, resourceID uint, changes map[string]any)
	GetActivity(ctx context.Context, resourceType string, page pagination.PageRequest) (*pagination.PageResponse[models.ActivityLog], error)
}
