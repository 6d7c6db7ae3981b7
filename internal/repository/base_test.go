package repository

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"nestling/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"record not found", gorm.ErrRecordNotFound, models.ErrCodeNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound), models.ErrCodeNotFound},
		{"postgres unique violation", &pgconn.PgError{Code: "23505"}, models.ErrCodeConflict},
		{"sqlite unique violation", errors.New("UNIQUE constraint failed: users.email"), models.ErrCodeConflict},
		{"gorm duplicated key", gorm.ErrDuplicatedKey, models.ErrCodeConflict},
		{"other postgres error", &pgconn.PgError{Code: "23503"}, models.ErrCodeInternal},
		{"anything else", errors.New("connection reset"), models.ErrCodeInternal},
		{"app error passes through", models.NewForbiddenError("no"), models.ErrCodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, models.ErrorCode(translateError(tt.err, "Thing", 1)))
		})
	}

	assert.NoError(t, translateError(nil, "Thing", 1))
	assert.NoError(t, wrapInternal(nil))
}

func TestPageRequest(t *testing.T) {
	assert.Equal(t, 0, PageRequest{Page: 1, Size: 20}.Offset())
	assert.Equal(t, 40, PageRequest{Page: 3, Size: 20}.Offset())
	assert.Equal(t, 0, PageRequest{Page: -4, Size: 20}.Offset())
	assert.Equal(t, DefaultPageSize, PageRequest{Page: 2}.Offset())
	assert.Equal(t, math.MaxInt, PageRequest{Page: math.MaxInt64/20 + 2, Size: 20}.Offset())
	assert.Equal(t, math.MaxInt-1, PageRequest{Page: math.MaxInt, Size: 1}.Offset())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now`, escapeLike("50% off_now"))
}
