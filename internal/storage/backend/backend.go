// Package backend opens a storage.Store by driver name.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/currentsee/internal/config"
	"github.com/mmynk/currentsee/internal/storage"
	"github.com/mmynk/currentsee/internal/storage/jsonfile"
	"github.com/mmynk/currentsee/internal/storage/memory"
	"github.com/mmynk/currentsee/internal/storage/postgres"
	"github.com/mmynk/currentsee/internal/storage/sqlite"
)

// Open returns the store for driver. location is a file path for sqlite and json,
// a connection URL for postgres, and ignored for memory.
func Open(ctx context.Context, driver, location string) (storage.Store, error) {
	var (
		store storage.Store
		err   error
	)

	switch driver {
	case config.DriverSQLite:
		store, err = sqlite.New(location)
	case config.DriverPostgres:
		store, err = postgres.New(ctx, location)
	case config.DriverJSON:
		store, err = jsonfile.New(location)
	case config.DriverMemory:
		store = memory.New()
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", driver, err)
	}

	slog.Info("Store opened", "driver", driver)
	return store, nil
}

// FromConfig opens the store selected by cfg.
func FromConfig(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	return Open(ctx, cfg.StoreDriver, Location(cfg, cfg.StoreDriver))
}

// Location returns the configured path or URL for driver.
func Location(cfg *config.Config, driver string) string {
	switch driver {
	case config.DriverSQLite:
		return cfg.DBPath
	case config.DriverPostgres:
		return cfg.DatabaseURL
	case config.DriverJSON:
		return cfg.MembersFile
	}
	return ""
}
