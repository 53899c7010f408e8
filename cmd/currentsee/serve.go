package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/currentsee/internal/auth"
	"github.com/mmynk/currentsee/internal/distribution"
	"github.com/mmynk/currentsee/internal/httpapi"
	"github.com/mmynk/currentsee/internal/metrics"
	"github.com/mmynk/currentsee/internal/middleware"
	"github.com/mmynk/currentsee/internal/rpc"
	"github.com/mmynk/currentsee/internal/service"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, admin RPC service and distribution scheduler",
	Long: `Serve the public REST API, the admin Connect service and /metrics on PORT.

Unless DISTRIBUTION_ENABLED=false, a catch-up distribution runs at startup and
then at every midnight in DISTRIBUTION_TIMEZONE. SIGINT or SIGTERM shuts down
gracefully.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	jwtManager := auth.NewJWTManager(jwtSecret(cfg), cfg.TokenTTL)
	admin := service.NewAdminService(service.AdminDeps{
		Authenticator: a.authenticator,
		JWTManager:    jwtManager,
		Admins:        a.store,
		Members:       a.members,
		Distributor:   a.distributor,
		Runs:          a.store,
		Artifacts:     a.artifacts,
	})

	srv := httpapi.NewServer(httpapi.Deps{
		Members:     a.members,
		Distributor: a.distributor,
		Artifacts:   a.artifacts,
		Registry:    a.registry,
		HTTPMetrics: metrics.NewHTTPMetrics(a.registry),
		HealthChecks: []httpapi.HealthCheck{
			{Name: "store", Check: a.store.Ping},
		},
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	srv.MountRPC(rpc.NewAdminServiceHandler(admin,
		middleware.RequireAuth(jwtManager),
		connect.WithInterceptors(middleware.LoggingInterceptor()),
	))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(":" + cfg.Port)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		slog.Info("Shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.DistributionEnabled {
		g.Go(func() error {
			distribution.NewScheduler(a.distributor).Run(gctx)
			return nil
		})
	} else {
		slog.Info("Distribution scheduler disabled")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server stopped: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}
