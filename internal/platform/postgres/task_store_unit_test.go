package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tasker-api/internal/store"
)

// fakeDBTX satisfies store.DBTX so the constructor can be exercised without
// a live database.
type fakeDBTX struct {
	store.DBTX
}

func TestNewTaskStorePanicsOnNilDB(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() {
		NewTaskStore(nil, nil)
	})
}

func TestNewTaskStoreDefaultsLogger(t *testing.T) {
	t.Parallel()
	s := NewTaskStore(&fakeDBTX{}, nil)
	require.NotNil(t, s)
	assert.NotNil(t, s.logger)
}

func TestFilterConditions(t *testing.T) {
	t.Parallel()

	conds, args, err := filterConditions(
		[]string{"owner_id = $1"},
		[]any{int64(7)},
		store.Filters{"completed": true},
	)
	require.NoError(t, err)
	require.Len(t, conds, 2)
	assert.Equal(t, "owner_id = $1", conds[0])
	assert.Equal(t, "completed = $2", conds[1])
	assert.Equal(t, []any{int64(7), true}, args)
}

func TestFilterConditionsRejectsUnknownField(t *testing.T) {
	t.Parallel()

	cases := []string{"title", "due_date", "owner_id; DROP TABLE tasks"}
	for _, field := range cases {
		field := field
		t.Run(field, func(t *testing.T) {
			t.Parallel()
			_, _, err := filterConditions(nil, nil, store.Filters{field: "x"})
			assert.ErrorIs(t, err, store.ErrInvalidEntity)
		})
	}
}

func TestEscapeLikePattern(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "report", "report"},
		{"percent", "50% done", `50\% done`},
		{"underscore", "a_b", `a\_b`},
		{"backslash", `a\b`, `a\\b`},
		{"all_meta", `\%_`, `\\\%\_`},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, escapeLikePattern(tc.input))
		})
	}
}

func TestNullTime(t *testing.T) {
	t.Parallel()

	assert.False(t, nullTime(nil).Valid)

	now := time.Now().UTC()
	got := nullTime(&now)
	assert.True(t, got.Valid)
	assert.Equal(t, now, got.Time)
}

func TestStartOfDayUTC(t *testing.T) {
	t.Parallel()

	in := time.Date(2026, 3, 15, 18, 45, 12, 999, time.FixedZone("CET", 3600))
	got := startOfDayUTC(in)

	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}
