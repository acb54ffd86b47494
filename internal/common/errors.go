package common

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrValidation   = errors.New("validation failed")
)

// Extraction errors
var (
	// ErrNoData means a strategy found nothing; the next fallback should run.
	ErrNoData = errors.New("no data extracted")
	// ErrUnsupportedFormat is never retried.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrMalformed means the payload could not be decoded at all.
	ErrMalformed = errors.New("malformed input")
	ErrTooLarge  = errors.New("file too large")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// HTTP error helpers
func BadRequestError(message string) error {
	return fiber.NewError(fiber.StatusBadRequest, message)
}

func BadRequestErrorf(format string, args ...interface{}) error {
	return BadRequestError(fmt.Sprintf(format, args...))
}

// StatusFromError maps an error chain to the HTTP status it should produce.
func StatusFromError(err error) int {
	var fe *fiber.Error
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, ErrUnsupportedFormat):
		return fiber.StatusUnsupportedMediaType
	case errors.Is(err, ErrTooLarge):
		return fiber.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation),
		errors.Is(err, ErrNoData), errors.Is(err, ErrMalformed):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}
