package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/mmynk/currentsee/internal/storage"
)

func TestExtractSSLMode(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"postgres://u:p@localhost/db?sslmode=disable", "disable"},
		{"postgres://u:p@localhost/db?sslmode=REQUIRE", "require"},
		{"postgres://u:p@localhost/db", "prefer (default)"},
		{"://bad", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, extractSSLMode(tt.url))
		})
	}
}

func TestFilterClause(t *testing.T) {
	assert.Equal(t, " WHERE TRUE AND NOT is_placeholder AND NOT is_reserve", filterClause(storage.ListOptions{}))
	assert.Equal(t, " WHERE TRUE", filterClause(storage.All()))
	assert.Equal(t, " WHERE TRUE AND NOT is_reserve", filterClause(storage.ListOptions{IncludePlaceholders: true}))
}

func TestWrapWriteErr(t *testing.T) {
	err := wrapWriteErr("insert member", &pgconn.PgError{Code: uniqueViolation})
	assert.ErrorIs(t, err, storage.ErrConflict)

	other := errors.New("connection reset")
	err = wrapWriteErr("insert member", other)
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, storage.ErrConflict)
}
