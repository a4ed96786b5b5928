package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"gastos/internal/calendar"
	apperrors "gastos/internal/errors"
	"gastos/internal/events"
	"gastos/internal/logger"
	"gastos/internal/models"
	"gastos/internal/recurrence"
)

// errAlreadyAdvanced means another run consumed the due date first.
var errAlreadyAdvanced = errors.New("recurring definition already advanced")

// outcome reports what processOne did with a due definition.
type outcome struct {
	// materialized is false when the occurrence was already recorded and
	// only the due date moved on.
	materialized bool
	deactivated  bool
	pastEnd      bool
}

// schedulerService materializes due recurring definitions.
type schedulerService struct {
	db       *gorm.DB
	bus      *events.Bus
	activity ActivityServicer
	log      *zap.SugaredLogger

	mu    sync.Mutex
	group singleflight.Group

	// life bounds every run; Close cancels it.
	life context.Context
	stop context.CancelFunc
}

// NewSchedulerService creates a new SchedulerServicer.
func NewSchedulerService(db *gorm.DB, bus *events.Bus, activity ActivityServicer) SchedulerServicer {
	life, stop := context.WithCancel(context.Background())
	return &schedulerService{
		db:       db,
		bus:      bus,
		activity: orNop(activity),
		log:      logger.Named("scheduler"),
		life:     life,
		stop:     stop,
	}
}

// ProcessDue materializes every active definition due on or before today.
// Concurrent calls for the same day share one run; runs for different days
// are serialized. Each definition is committed on its own, so one bad row
// never blocks the others.
//
// The shared run keeps the values of the caller that started it but not its
// cancellation, so one caller giving up never fails the others. A caller
// whose ctx ends stops waiting and gets ctx.Err(). Close stops the run.
func (s *schedulerService) ProcessDue(ctx context.Context, today calendar.Date) (*ProcessResult, error) {
	ch := s.group.DoChan(today.String(), func() (interface{}, error) {
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		defer cancel()
		detach := context.AfterFunc(s.life, cancel)
		defer detach()

		s.mu.Lock()
		defer s.mu.Unlock()
		return s.processDue(runCtx, today)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		// Shared callers each get their own copy.
		result := *res.Val.(*ProcessResult)
		return &result, nil
	}
}

// Close cancels any run in progress and waits for its current item to
// commit. Later runs fail with context.Canceled.
func (s *schedulerService) Close() {
	s.stop()
	s.mu.Lock()
	defer s.mu.Unlock()
}

func (s *schedulerService) processDue(ctx context.Context, today calendar.Date) (*ProcessResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var due []models.RecurringDefinition
	if err := s.db.WithContext(ctx).
		Where("is_active = ? AND next_due_date <= ?", true, today.String()).
		Order("next_due_date ASC, id ASC").
		Find(&due).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}

	result := &ProcessResult{Today: today.String(), Checked: len(due)}
	for i := range due {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		def := &due[i]
		out, err := s.processOne(ctx, def)
		switch {
		case errors.Is(err, errAlreadyAdvanced):
			s.log.Infow("recurring definition already processed", "recurring_id", def.ID, "next_due_date", def.NextDueDate)
			result.Skipped++
		case err != nil:
			s.log.Errorw("failed to process recurring definition",
				"recurring_id", def.ID,
				"next_due_date", def.NextDueDate,
				"error", err,
			)
			result.Failed++
		case out.pastEnd:
			s.log.Warnw("skipping recurring definition past its end date",
				"recurring_id", def.ID,
				"next_due_date", def.NextDueDate,
				"end_date", *def.EndDate,
			)
			result.Skipped++
		default:
			if out.materialized {
				result.Materialized++
			} else {
				s.log.Infow("occurrence already recorded, advancing due date",
					"recurring_id", def.ID,
					"due_date", def.NextDueDate,
				)
				result.Skipped++
			}
			if out.deactivated {
				result.Deactivated++
			}
		}
	}

	if result.Checked > 0 {
		s.log.Infow("processed due recurring definitions",
			"today", result.Today,
			"checked", result.Checked,
			"materialized", result.Materialized,
			"deactivated", result.Deactivated,
			"skipped", result.Skipped,
			"failed", result.Failed,
		)
	}
	return result, nil
}

// processOne materializes def's current due date and advances it in one
// database transaction. The advance is a compare-and-set on next_due_date.
// When the occurrence already exists the advance is still committed, so a
// definition whose due date was moved back never gets stuck on it.
func (s *schedulerService) processOne(ctx context.Context, def *models.RecurringDefinition) (outcome, error) {
	dueDate, err := calendar.Parse(def.NextDueDate)
	if err != nil {
		return outcome{}, apperrors.Wrap(apperrors.ErrDateParse, err)
	}
	var endDate *calendar.Date
	if def.EndDate != nil {
		end, err := calendar.Parse(*def.EndDate)
		if err != nil {
			return outcome{}, apperrors.Wrap(apperrors.ErrDateParse, err)
		}
		endDate = &end
	}

	if endDate != nil && dueDate.After(*endDate) {
		return outcome{pastEnd: true}, nil
	}

	next, err := recurrence.Advance(def.Kind, def.DayOfMonth, dueDate)
	if err != nil {
		return outcome{}, apperrors.WithMessage(apperrors.ErrValidation, err.Error())
	}
	out := outcome{deactivated: endDate != nil && next.After(*endDate)}

	updates := map[string]any{"next_due_date": next.String()}
	if out.deactivated {
		updates["is_active"] = false
	}

	txn := &models.Transaction{
		Title:       def.Title,
		Amount:      def.Amount.Neg(),
		Date:        dueDate.String(),
		CategoryID:  def.CategoryID,
		RecurringID: &def.ID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.RecurringDefinition{}).
			Where("id = ? AND next_due_date = ? AND is_active = ?", def.ID, def.NextDueDate, true).
			Updates(updates)
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrStore, res.Error)
		}
		if res.RowsAffected == 0 {
			return errAlreadyAdvanced
		}

		var existing int64
		if err := tx.Model(&models.Transaction{}).
			Where("recurring_id = ? AND date = ?", def.ID, txn.Date).
			Count(&existing).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStore, err)
		}
		if existing > 0 {
			return nil
		}

		if err := tx.Create(txn).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errAlreadyAdvanced
			}
			return apperrors.Wrap(apperrors.ErrStore, fmt.Errorf("insert transaction: %w", err))
		}
		out.materialized = true
		return nil
	})
	if err != nil {
		return outcome{}, err
	}

	if !out.materialized {
		s.bus.Publish(events.Change{Entity: events.EntityRecurring, Op: events.OpUpdated, ID: def.ID})
		s.activity.Log(ctx, "ADVANCE_RECURRING", "recurring", def.ID, map[string]any{
			"due_date":      txn.Date,
			"next_due_date": next.String(),
			"deactivated":   out.deactivated,
		})
		return out, nil
	}

	s.bus.Publish(events.Change{Entity: events.EntityTransaction, Op: events.OpCreated, ID: txn.ID})
	s.bus.Publish(events.Change{Entity: events.EntityRecurring, Op: events.OpUpdated, ID: def.ID})
	s.activity.Log(ctx, "MATERIALIZE_RECURRING", "recurring", def.ID, map[string]any{
		"transaction_id": txn.ID,
		"due_date":       txn.Date,
		"next_due_date":  next.String(),
		"deactivated":    out.deactivated,
	})
	return out, nil
}
