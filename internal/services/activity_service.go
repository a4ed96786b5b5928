package services

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	apperrors "gastos/internal/errors"
	"gastos/internal/logger"
	"gastos/internal/models"
	"gastos/internal/pagination"
)

// Activity sources.
const (
	SourceAPI       = "api"
	SourceCLI       = "cli"
	SourceScheduler = "scheduler"
	SourceSystem    = "system"
)

type sourceKey struct{}

// WithSource tags ctx with the origin of the mutations made under it.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

// SourceFrom returns the source ctx was tagged with, or SourceSystem.
func SourceFrom(ctx context.Context) string {
	if s, ok := ctx.Value(sourceKey{}).(string); ok && s != "" {
		return s
	}
	return SourceSystem
}

// activityService handles activity log recording.
type activityService struct {
	db *gorm.DB
}

// NewActivityService creates a new ActivityServicer.
func NewActivityService(db *gorm.DB) ActivityServicer {
	return &activityService{db: db}
}

// Log records an activity entry. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *activityService) Log(ctx context.Context, action, resourceType string, resourceID uint, changes map[string]any) {
	var changesJSON string
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			logger.Get().Errorw("failed to marshal activity changes", "error", err, "action", action)
			changesJSON = "{}"
		} else {
			changesJSON = string(data)
		}
	}

	entry := &models.ActivityLog{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Source:       SourceFrom(ctx),
		Changes:      changesJSON,
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create activity log entry",
			"error", err,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}

// GetActivity lists activity entries, newest first, optionally for one
// resource type.
func (s *activityService) GetActivity(ctx context.Context, resourceType string, page pagination.PageRequest) (*pagination.PageResponse[models.ActivityLog], error) {
	query := s.db.WithContext(ctx).Model(&models.ActivityLog{})
	if resourceType != "" {
		query = query.Where("resource_type = ?", resourceType)
	}
	resp, err := pagination.Find[models.ActivityLog](query.Order("id DESC"), page)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	return resp, nil
}

// nopActivity discards entries. Used when no ActivityServicer is supplied.
type nopActivity struct{}

func (nopActivity) Log(context.Context, string, string, uint, map[string]any) {}

func (nopActivity) GetActivity(context.Context, string, pagination.PageRequest) (*pagination.PageResponse[models.ActivityLog], error) {
	resp := pagination.NewPageResponse[models.ActivityLog](nil, 1, pagination.DefaultPageSize, 0)
	return &resp, nil
}

func orNop(a ActivityServicer) ActivityServicer {
	if a == nil {
		return nopActivity{}
	}
	return a
}
