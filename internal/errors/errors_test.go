package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(ErrStore, cause)

	if err.Code != "STORE_FAULT" {
		t.Errorf("expected code STORE_FAULT, got %s", err.Code)
	}
	if err.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", err.StatusCode)
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected wrapped error to unwrap to its cause")
	}
	if !stderrors.Is(err, ErrStore) {
		t.Error("expected wrapped error to match its sentinel")
	}
}

func TestWithMessage(t *testing.T) {
	err := WithMessage(ErrValidation, "dayOfMonth must be between 1 and 31")

	if err.Error() != "dayOfMonth must be between 1 and 31" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !stderrors.Is(err, ErrValidation) {
		t.Error("expected reworded error to match its sentinel")
	}
	if stderrors.Is(err, ErrInvalidInput) {
		t.Error("expected codes to distinguish sentinels")
	}
}

func TestAs(t *testing.T) {
	var wrapped error = fmt.Errorf("outer: %w", Wrap(ErrDateParse, fmt.Errorf("bad date")))

	var appErr *AppError
	if !stderrors.As(wrapped, &appErr) {
		t.Fatal("expected errors.As to find the AppError")
	}
	if appErr.Code != "DATE_PARSE_FAULT" {
		t.Errorf("expected DATE_PARSE_FAULT, got %s", appErr.Code)
	}
}
