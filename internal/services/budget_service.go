package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gastos/internal/aggregate"
	"gastos/internal/calendar"
	apperrors "gastos/internal/errors"
	"gastos/internal/events"
	"gastos/internal/models"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db       *gorm.DB
	bus      *events.Bus
	activity ActivityServicer
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, bus *events.Bus, activity ActivityServicer) BudgetServicer {
	return &budgetService{db: db, bus: bus, activity: orNop(activity)}
}

func parsePeriod(period string) (calendar.Period, error) {
	p, err := calendar.ParsePeriod(period)
	if err != nil {
		return calendar.Period{}, apperrors.WithMessage(apperrors.ErrValidation, "period must be YYYY-MM")
	}
	return p, nil
}

// SetBudget creates or replaces the budget for a category and period.
func (s *budgetService) SetBudget(ctx context.Context, categoryID uint, amount decimal.Decimal, period string) (*models.Budget, error) {
	p, err := parsePeriod(period)
	if err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "budget amount must not be negative")
	}
	if tooPrecise(amount) {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "budget amount must have at most 2 decimal places")
	}
	if err := ensureCategory(ctx, s.db, &categoryID); err != nil {
		return nil, err
	}

	budget := &models.Budget{CategoryID: categoryID, MonthYear: p.String(), Amount: amount}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "category_id"}, {Name: "month_year"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(budget).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}

	// The upsert may have updated an existing row; reload to get its ID.
	stored, err := s.GetBudget(ctx, categoryID, p.String())
	if err != nil {
		return nil, err
	}

	s.bus.Publish(events.Change{Entity: events.EntityBudget, Op: events.OpUpdated, ID: stored.ID})
	s.activity.Log(ctx, "SET_BUDGET", "budget", stored.ID,
		map[string]any{"category_id": categoryID, "period": stored.MonthYear, "amount": amount.String()})
	return stored, nil
}

// snapshot loads the categories, budgets and transactions of a period in a
// single database transaction.
func (s *budgetService) snapshot(ctx context.Context, p calendar.Period) ([]models.Category, []models.Budget, []models.Transaction, error) {
	var (
		categories []models.Category
		budgets    []models.Budget
		txs        []models.Transaction
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("name_key ASC").Find(&categories).Error; err != nil {
			return err
		}
		if err := tx.Where("month_year = ?", p.String()).Find(&budgets).Error; err != nil {
			return err
		}
		return tx.Where("date LIKE ? AND amount < 0", p.String()+"%").Find(&txs).Error
	})
	if err != nil {
		return nil, nil, nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	return categories, budgets, txs, nil
}

// GetBudgetsForPeriod returns one row per category for the period.
func (s *budgetService) GetBudgetsForPeriod(ctx context.Context, period string) ([]aggregate.BudgetRow, error) {
	p, err := parsePeriod(period)
	if err != nil {
		return nil, err
	}
	categories, budgets, txs, err := s.snapshot(ctx, p)
	if err != nil {
		return nil, err
	}
	return aggregate.Budgets(p, categories, budgets, txs), nil
}

// GetSpendingBreakdown groups the period's expenses by category.
func (s *budgetService) GetSpendingBreakdown(ctx context.Context, period string) ([]aggregate.Slice, error) {
	p, err := parsePeriod(period)
	if err != nil {
		return nil, err
	}
	categories, _, txs, err := s.snapshot(ctx, p)
	if err != nil {
		return nil, err
	}
	return aggregate.Breakdown(p, categories, txs), nil
}

// GetBudget retrieves the budget of a category for a period.
func (s *budgetService) GetBudget(ctx context.Context, categoryID uint, period string) (*models.Budget, error) {
	p, err := parsePeriod(period)
	if err != nil {
		return nil, err
	}
	var budget models.Budget
	if err := s.db.WithContext(ctx).
		Where("category_id = ? AND month_year = ?", categoryID, p.String()).
		First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	return &budget, nil
}

// DeleteBudget removes a budget.
func (s *budgetService) DeleteBudget(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Budget{}, id)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrStore, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrBudgetNotFound
	}

	s.bus.Publish(events.Change{Entity: events.EntityBudget, Op: events.OpDeleted, ID: id})
	s.activity.Log(ctx, "DELETE_BUDGET", "budget", id, nil)
	return nil
}
