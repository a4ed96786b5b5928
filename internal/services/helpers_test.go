package services

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"gastos/internal/logger"
	"gastos/internal/models"
)

func init() {
	logger.Init("test")
}

var ctx = context.Background()

func reloadRecurring(t *testing.T, db *gorm.DB, id uint) models.RecurringDefinition {
	t.Helper()
	var def models.RecurringDefinition
	if err := db.First(&def, id).Error; err != nil {
		t.Fatalf("failed to reload recurring definition %d: %v", id, err)
	}
	return def
}
