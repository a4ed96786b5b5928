package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"gastos/internal/calendar"
	apperrors "gastos/internal/errors"
	"gastos/internal/events"
	"gastos/internal/models"
	"gastos/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db       *gorm.DB
	bus      *events.Bus
	activity ActivityServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, bus *events.Bus, activity ActivityServicer) TransactionServicer {
	return &transactionService{db: db, bus: bus, activity: orNop(activity)}
}

// CreateTransaction records a transaction. Negative amounts are expenses.
func (s *transactionService) CreateTransaction(ctx context.Context, title string, amount decimal.Decimal, date string, categoryID *uint) (*models.Transaction, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "title is required")
	}
	if amount.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "amount must not be zero")
	}
	if tooPrecise(amount) {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "amount must have at most 2 decimal places")
	}
	day, err := calendar.Parse(date)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	if err := ensureCategory(ctx, s.db, categoryID); err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		Title:      title,
		Amount:     amount,
		Date:       day.String(),
		CategoryID: categoryID,
	}
	if err := s.db.WithContext(ctx).Create(tx).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}

	s.bus.Publish(events.Change{Entity: events.EntityTransaction, Op: events.OpCreated, ID: tx.ID})
	s.activity.Log(ctx, "CREATE_TRANSACTION", "transaction", tx.ID,
		map[string]any{"title": title, "amount": amount.String(), "date": tx.Date})
	return tx, nil
}

// GetTransactions lists transactions, newest first.
func (s *transactionService) GetTransactions(ctx context.Context, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	query := s.db.WithContext(ctx).Model(&models.Transaction{})
	if filter.Period != nil {
		query = query.Where("date LIKE ?", filter.Period.String()+"%")
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}

	resp, err := pagination.Find[models.Transaction](query.Order("date DESC, id DESC"), page)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	return resp, nil
}

// GetTransactionByID retrieves a transaction by ID.
func (s *transactionService) GetTransactionByID(ctx context.Context, id uint) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.db.WithContext(ctx).First(&tx, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	return &tx, nil
}

// DeleteTransaction removes a transaction.
func (s *transactionService) DeleteTransaction(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Transaction{}, id)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrStore, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}

	s.bus.Publish(events.Change{Entity: events.EntityTransaction, Op: events.OpDeleted, ID: id})
	s.activity.Log(ctx, "DELETE_TRANSACTION", "transaction", id, nil)
	return nil
}

// amountScale is the number of fractional digits the decimal(14,2) amount
// columns keep.
const amountScale = 2

// tooPrecise reports whether d would be rounded when stored.
func tooPrecise(d decimal.Decimal) bool {
	return !d.Equal(d.Round(amountScale))
}

// ensureCategory checks that an optional category reference exists.
func ensureCategory(ctx context.Context, db *gorm.DB, categoryID *uint) error {
	if categoryID == nil {
		return nil
	}
	var count int64
	if err := db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", *categoryID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrStore, err)
	}
	if count == 0 {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}
