package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/currentsee/internal/artifacts"
	"github.com/mmynk/currentsee/internal/auth"
	"github.com/mmynk/currentsee/internal/config"
	"github.com/mmynk/currentsee/internal/distribution"
	"github.com/mmynk/currentsee/internal/members"
	"github.com/mmynk/currentsee/internal/metrics"
	"github.com/mmynk/currentsee/internal/storage"
	"github.com/mmynk/currentsee/internal/storage/backend"
)

// app holds the services shared by the commands.
type app struct {
	store         storage.Store
	registry      *prometheus.Registry
	members       *members.Service
	distributor   *distribution.Distributor
	artifacts     *artifacts.Service
	authenticator *auth.PasswordAuthenticator
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	store, err := backend.FromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	files, err := artifacts.NewFileManager(cfg.ArtifactDir, cfg.MaxUploadBytes,
		&artifacts.PreviewGenerator{MaxDim: cfg.PreviewMaxDim})
	if err != nil {
		store.Close()
		return nil, err
	}

	reg := metrics.NewRegistry()
	return &app{
		store:    store,
		registry: reg,
		members: members.NewService(store, members.Options{
			Location: cfg.Location(),
			Rates:    cfg.Rates(),
		}),
		distributor: distribution.NewDistributor(store, distribution.Options{
			Location: cfg.Location(),
			Rates:    cfg.Rates(),
			Metrics:  metrics.NewDistributionMetrics(reg),
		}),
		artifacts:     artifacts.NewService(files, store, metrics.NewArtifactMetrics(reg)),
		authenticator: auth.NewPasswordAuthenticator(store),
	}, nil
}

func (a *app) Close() error {
	if err := a.store.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	return nil
}

// jwtSecret returns the configured secret. Development runs without one get
// a random secret, so tokens do not survive a restart.
func jwtSecret(cfg *config.Config) string {
	if cfg.JWTSecret != "" {
		return cfg.JWTSecret
	}
	slog.Warn("JWT_SECRET not set, using a random secret for this process")
	return uuid.NewString() + uuid.NewString()
}
