package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	t.Run("Error returns formatted string", func(t *testing.T) {
		err := New(ErrCodeNotFound, "Company not found")
		assert.Equal(t, "NOT_FOUND: Company not found", err.Error())
	})

	t.Run("Error with cause includes cause", func(t *testing.T) {
		cause := errors.New("database connection failed")
		err := Wrap(ErrCodeDatabase, "Database error", cause)
		assert.Contains(t, err.Error(), "DATABASE_ERROR")
		assert.Contains(t, err.Error(), "Database error")
		assert.Contains(t, err.Error(), "database connection failed")
	})

	t.Run("WithCause adds cause to error", func(t *testing.T) {
		cause := errors.New("original error")
		err := New(ErrCodeInternal, "Something went wrong").WithCause(cause)
		assert.Equal(t, cause, err.Unwrap())
	})

	t.Run("WithDetails adds details to error", func(t *testing.T) {
		details := map[string]string{"field": "email", "reason": "invalid format"}
		err := New(ErrCodeValidation, "Validation failed").WithDetails(details)
		assert.Equal(t, details, err.Details)
	})
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name        string
		constructor func() *AppError
		code        ErrorCode
	}{
		{"Unauthorized", func() *AppError { return Unauthorized("no") }, ErrCodeUnauthorized},
		{"Forbidden", func() *AppError { return Forbidden("no") }, ErrCodeForbidden},
		{"InvalidToken", func() *AppError { return InvalidToken("bad") }, ErrCodeInvalidToken},
		{"NotFound", func() *AppError { return NotFound("Company") }, ErrCodeNotFound},
		{"ValidationError", func() *AppError { return ValidationError("bad") }, ErrCodeValidation},
		{"MissingRequired", func() *AppError { return MissingRequired("token") }, ErrCodeMissingRequired},
		{"CompanyReserved", CompanyReserved, ErrCodeCompanyReserved},
		{"ReservationExpired", ReservationExpired, ErrCodeReservationExpired},
		{"ReservationNotActive", ReservationNotActive, ErrCodeReservationNotActive},
		{"ReservationNotHeld", ReservationNotHeld, ErrCodeReservationNotHeld},
		{"ResearchComplete", ResearchComplete, ErrCodeResearchComplete},
		{"RateLimitExceeded", RateLimitExceeded, ErrCodeRateLimitExceeded},
		{"Internal", func() *AppError { return Internal("boom") }, ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.constructor().Code)
		})
	}

	t.Run("CompanyReserved carries the taken message", func(t *testing.T) {
		err := CompanyReserved()
		assert.Contains(t, err.Message, "already taken")
		assert.Contains(t, err.Message, "different company")
	})
}

func TestErrorInspection(t *testing.T) {
	t.Run("IsAppError detects AppError", func(t *testing.T) {
		assert.True(t, IsAppError(NotFound("Company")))
		assert.False(t, IsAppError(errors.New("plain")))
	})

	t.Run("IsAppError sees through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("reserve: %w", CompanyReserved())
		assert.True(t, IsAppError(wrapped))
	})

	t.Run("GetCode returns the wrapped code", func(t *testing.T) {
		wrapped := fmt.Errorf("reserve: %w", CompanyReserved())
		assert.Equal(t, ErrCodeCompanyReserved, GetCode(wrapped))
	})

	t.Run("GetCode falls back to internal", func(t *testing.T) {
		assert.Equal(t, ErrCodeInternal, GetCode(errors.New("plain")))
	})
}
