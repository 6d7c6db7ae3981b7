package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by AppError.
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s %v not found", resource, id),
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeConflict,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeForbidden,
		Message: message,
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeUnauthorized,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// ErrorCode returns the AppError code carried by err, or ErrCodeInternal.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// IsNotFound reports whether err carries the NOT_FOUND code.
func IsNotFound(err error) bool {
	return err != nil && ErrorCode(err) == ErrCodeNotFound
}

// RespondWithError writes a standardized error body. Internal causes are never
// included in the response.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	response := ErrorResponse{Error: "Internal server error", Code: ErrCodeInternal}

	var appErr *AppError
	if errors.As(err, &appErr) {
		response.Code = appErr.Code
		if appErr.Code != ErrCodeInternal {
			response.Error = appErr.Message
		}
	}

	return c.Status(status).JSON(response)
}
