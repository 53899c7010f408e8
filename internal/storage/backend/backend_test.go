package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/currentsee/internal/config"
	"github.com/mmynk/currentsee/internal/storage"
	"github.com/mmynk/currentsee/internal/storage/storetest"
)

func TestOpenFileBackends(t *testing.T) {
	tests := []struct {
		driver string
		file   string
	}{
		{config.DriverSQLite, "currentsee.db"},
		{config.DriverJSON, "members.json"},
		{config.DriverMemory, ""},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			ctx := context.Background()
			location := ""
			if tt.file != "" {
				location = filepath.Join(t.TempDir(), tt.file)
			}

			store, err := Open(ctx, tt.driver, location)
			require.NoError(t, err)
			defer store.Close()

			require.NoError(t, store.Ping(ctx))
			require.NoError(t, store.CreateMember(ctx, storetest.NewMember("ada", time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC))))

			n, err := store.CountMembers(ctx, storage.ListOptions{})
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mongo", "")
	assert.ErrorContains(t, err, "unknown store driver")
}

func TestLocation(t *testing.T) {
	cfg := &config.Config{DBPath: "a.db", DatabaseURL: "postgres://x", MembersFile: "m.json"}

	assert.Equal(t, "a.db", Location(cfg, config.DriverSQLite))
	assert.Equal(t, "postgres://x", Location(cfg, config.DriverPostgres))
	assert.Equal(t, "m.json", Location(cfg, config.DriverJSON))
	assert.Equal(t, "", Location(cfg, config.DriverMemory))
}
