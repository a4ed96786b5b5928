package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"gastos/internal/calendar"
	apperrors "gastos/internal/errors"
	"gastos/internal/events"
	"gastos/internal/models"
	"gastos/internal/recurrence"
)

// recurringService handles recurring definition CRUD.
type recurringService struct {
	db       *gorm.DB
	clock    calendar.Clock
	bus      *events.Bus
	activity ActivityServicer
}

// NewRecurringService creates a new RecurringServicer.
func NewRecurringService(db *gorm.DB, clock calendar.Clock, bus *events.Bus, activity ActivityServicer) RecurringServicer {
	return &recurringService{db: db, clock: clock, bus: bus, activity: orNop(activity)}
}

// NormalizeRecurring validates in and builds the definition to store,
// computing its first due date relative to today.
func NormalizeRecurring(in RecurringInput, today calendar.Date) (*models.RecurringDefinition, error) {
	def, err := buildRecurring(in)
	if err != nil {
		return nil, err
	}
	if err := schedule(def, today); err != nil {
		return nil, err
	}
	return def, nil
}

// buildRecurring validates in and returns the definition without a due date.
func buildRecurring(in RecurringInput) (*models.RecurringDefinition, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "title is required")
	}
	if !in.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "amount must be greater than zero")
	}
	if tooPrecise(in.Amount) {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "amount must have at most 2 decimal places")
	}

	kind := in.Kind
	if kind == "" {
		kind = models.RecurrenceMonthly
	}
	rule, err := recurrence.RuleFor(kind)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "unsupported recurrence kind "+string(kind))
	}
	if err := rule.ValidateDay(in.DayOfMonth); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "dayOfMonth must be between 1 and 31")
	}

	start, err := calendar.Parse(in.StartDate)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "startDate must be YYYY-MM-DD")
	}

	var endDate *string
	if in.EndDate != nil && strings.TrimSpace(*in.EndDate) != "" {
		end, err := calendar.Parse(*in.EndDate)
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "endDate must be YYYY-MM-DD")
		}
		if end.Before(start) {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "endDate must not be before startDate")
		}
		s := end.String()
		endDate = &s
	}

	return &models.RecurringDefinition{
		Title:      title,
		Amount:     in.Amount,
		CategoryID: in.CategoryID,
		Kind:       kind,
		DayOfMonth: in.DayOfMonth,
		StartDate:  start.String(),
		EndDate:    endDate,
		IsActive:   in.IsActive,
	}, nil
}

// schedule sets def's first due date on or after both its start and today.
func schedule(def *models.RecurringDefinition, today calendar.Date) error {
	start := calendar.MustParse(def.StartDate)
	next, err := recurrence.InitialDue(def.Kind, def.DayOfMonth, start, today)
	if err != nil {
		if errors.Is(err, recurrence.ErrCatchUp) {
			return apperrors.Wrap(apperrors.ErrScheduleOverflow, err)
		}
		return apperrors.WithMessage(apperrors.ErrValidation, err.Error())
	}
	def.NextDueDate = next.String()
	return nil
}

// sameSchedule reports whether two definitions produce the same due dates.
func sameSchedule(a, b *models.RecurringDefinition) bool {
	return a.Kind == b.Kind && a.DayOfMonth == b.DayOfMonth && a.StartDate == b.StartDate
}

// CreateRecurring validates and stores a new definition.
func (s *recurringService) CreateRecurring(ctx context.Context, in RecurringInput) (*models.RecurringDefinition, error) {
	def, err := NormalizeRecurring(in, s.clock.Today())
	if err != nil {
		return nil, err
	}
	if err := ensureCategory(ctx, s.db, def.CategoryID); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(def).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}

	s.bus.Publish(events.Change{Entity: events.EntityRecurring, Op: events.OpCreated, ID: def.ID})
	s.activity.Log(ctx, "CREATE_RECURRING", "recurring", def.ID,
		map[string]any{"title": def.Title, "amount": def.Amount.String(), "next_due_date": def.NextDueDate})
	return def, nil
}

// UpdateRecurring replaces a definition's fields. The stored next due date
// is kept unless the kind, day or start date changed, in which case it is
// recomputed from the new schedule.
func (s *recurringService) UpdateRecurring(ctx context.Context, id uint, in RecurringInput) (*models.RecurringDefinition, error) {
	existing, err := s.GetRecurringByID(ctx, id)
	if err != nil {
		return nil, err
	}
	def, err := buildRecurring(in)
	if err != nil {
		return nil, err
	}
	if sameSchedule(def, existing) {
		def.NextDueDate = existing.NextDueDate
	} else if err := schedule(def, s.clock.Today()); err != nil {
		return nil, err
	}
	if err := ensureCategory(ctx, s.db, def.CategoryID); err != nil {
		return nil, err
	}

	def.ID = existing.ID
	def.CreatedAt = existing.CreatedAt
	if err := s.db.WithContext(ctx).Save(def).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}

	s.bus.Publish(events.Change{Entity: events.EntityRecurring, Op: events.OpUpdated, ID: def.ID})
	s.activity.Log(ctx, "UPDATE_RECURRING", "recurring", def.ID,
		map[string]any{"title": def.Title, "is_active": def.IsActive, "next_due_date": def.NextDueDate})
	return def, nil
}

// GetRecurringByID retrieves a definition by ID.
func (s *recurringService) GetRecurringByID(ctx context.Context, id uint) (*models.RecurringDefinition, error) {
	var def models.RecurringDefinition
	if err := s.db.WithContext(ctx).First(&def, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRecurringNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	return &def, nil
}

// GetRecurring lists every definition with its category name, soonest due
// first.
func (s *recurringService) GetRecurring(ctx context.Context) ([]RecurringView, error) {
	var defs []models.RecurringDefinition
	if err := s.db.WithContext(ctx).Order("next_due_date ASC, id ASC").Find(&defs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}

	var categories []models.Category
	if err := s.db.WithContext(ctx).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	names := make(map[uint]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	views := make([]RecurringView, 0, len(defs))
	for _, d := range defs {
		v := RecurringView{RecurringDefinition: d}
		if d.CategoryID != nil {
			if name, ok := names[*d.CategoryID]; ok {
				v.CategoryName = &name
			}
		}
		views = append(views, v)
	}
	return views, nil
}

// DeleteRecurring removes a definition. Transactions it already produced
// are kept.
func (s *recurringService) DeleteRecurring(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Transaction{}).Where("recurring_id = ?", id).
			Update("recurring_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStore, err)
		}
		result := tx.Delete(&models.RecurringDefinition{}, id)
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrStore, result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrRecurringNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.bus.Publish(events.Change{Entity: events.EntityRecurring, Op: events.OpDeleted, ID: id})
	s.activity.Log(ctx, "DELETE_RECURRING", "recurring", id, nil)
	return nil
}
