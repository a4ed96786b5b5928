package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "gastos/internal/errors"
	"gastos/internal/events"
	"gastos/internal/models"
)

const maxCategoryNameLength = 100

// categoryService handles category-related business logic.
type categoryService struct {
	db       *gorm.DB
	bus      *events.Bus
	activity ActivityServicer
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB, bus *events.Bus, activity ActivityServicer) CategoryServicer {
	return &categoryService{db: db, bus: bus, activity: orNop(activity)}
}

// CreateCategory creates a category. Names are unique ignoring case and
// surrounding whitespace.
func (s *categoryService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "category name is required")
	}
	if len(name) > maxCategoryNameLength {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "category name is too long")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).
		Where("name_key = ?", models.CategoryNameKey(name)).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateCategory
	}

	category := &models.Category{Name: name}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateCategory
		}
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}

	s.bus.Publish(events.Change{Entity: events.EntityCategory, Op: events.OpCreated, ID: category.ID})
	s.activity.Log(ctx, "CREATE_CATEGORY", "category", category.ID, map[string]any{"name": name})
	return category, nil
}

// GetCategories returns every category ordered by name.
func (s *categoryService) GetCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("name_key ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	return categories, nil
}

// GetCategoryByID retrieves a category by ID.
func (s *categoryService) GetCategoryByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	return &category, nil
}

// DeleteCategory removes a category and its budgets. Transactions and
// recurring definitions that referenced it become uncategorized.
func (s *categoryService) DeleteCategory(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.First(&category, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrCategoryNotFound
			}
			return apperrors.Wrap(apperrors.ErrStore, err)
		}

		if err := tx.Where("category_id = ?", id).Delete(&models.Budget{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStore, err)
		}
		if err := tx.Model(&models.Transaction{}).Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStore, err)
		}
		if err := tx.Model(&models.RecurringDefinition{}).Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStore, err)
		}
		if err := tx.Delete(&category).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStore, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.bus.Publish(events.Change{Entity: events.EntityCategory, Op: events.OpDeleted, ID: id})
	s.activity.Log(ctx, "DELETE_CATEGORY", "category", id, nil)
	return nil
}
