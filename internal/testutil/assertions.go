package testutil

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	apperrors "gastos/internal/errors"
)

// AssertAppError checks that err carries an *AppError with the expected
// code. The wrapped cause, if any, is included in the failure message.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		cause := "none"
		if appErr.Internal != nil {
			cause = appErr.Internal.Error()
		}
		t.Errorf("expected error code %q, got %q (message: %s, cause: %s)", expectedCode, appErr.Code, appErr.Message, cause)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// CountRows counts rows of model matching the optional condition.
func CountRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()

	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}
