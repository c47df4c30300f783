package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/tasker-api/internal/store"
)

func pgError(code, constraint string) *pgconn.PgError {
	return &pgconn.PgError{Code: code, ConstraintName: constraint}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no_rows", sql.ErrNoRows, store.ErrNotFound},
		{"wrapped_no_rows", fmt.Errorf("query: %w", sql.ErrNoRows), store.ErrNotFound},
		{"unique_violation", pgError(uniqueViolationCode, "tasks_pkey"), store.ErrDuplicate},
		{"foreign_key_violation", pgError(foreignKeyViolationCode, "tasks_owner_id_fkey"), store.ErrInvalidEntity},
		{"check_violation", pgError(checkViolationCode, "tasks_priority_check"), store.ErrInvalidEntity},
		{"not_null_violation", pgError(notNullViolationCode, ""), store.ErrInvalidEntity},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := MapError(tc.in)
			if tc.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.want)
		})
	}

	// Unrecognized errors pass through untouched.
	boom := errors.New("boom")
	assert.Equal(t, boom, MapError(boom))
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUniqueViolation(pgError(uniqueViolationCode, "")))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", pgError(uniqueViolationCode, ""))))
	assert.False(t, IsUniqueViolation(pgError(foreignKeyViolationCode, "")))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}

func TestIsForeignKeyViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, IsForeignKeyViolation(pgError(foreignKeyViolationCode, "")))
	assert.False(t, IsForeignKeyViolation(pgError(uniqueViolationCode, "")))
}

func TestPostgresIsNotFoundError(t *testing.T) {
	t.Parallel()

	assert.True(t, IsNotFoundError(sql.ErrNoRows))
	assert.True(t, IsNotFoundError(store.ErrTaskNotFound))
	assert.True(t, IsNotFoundError(MapError(sql.ErrNoRows)))
	assert.False(t, IsNotFoundError(errors.New("boom")))
}
