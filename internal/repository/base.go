// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"
	"strings"

	"nestling/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique or primary-key conflict
// from either postgres or sqlite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

// translateError maps storage errors onto the AppError taxonomy.
func translateError(err error, resource string, id any) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.NewNotFoundError(resource, id)
	case isUniqueViolation(err):
		return models.NewConflictError(resource + " already exists")
	default:
		return models.NewInternalError(err)
	}
}

func wrapInternal(err error) error {
	if err == nil {
		return nil
	}
	return translateError(err, "", nil)
}
