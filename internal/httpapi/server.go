// Package httpapi serves the public REST API, health probes and metrics with echo.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/currentsee/internal/artifacts"
	"github.com/mmynk/currentsee/internal/distribution"
	"github.com/mmynk/currentsee/internal/members"
	"github.com/mmynk/currentsee/internal/metrics"
)

// HealthCheck is a named readiness check.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps are the services the API serves.
type Deps struct {
	Members      *members.Service
	Distributor  *distribution.Distributor
	Artifacts    *artifacts.Service
	Registry     *prometheus.Registry
	HTTPMetrics  *metrics.HTTPMetrics
	HealthChecks []HealthCheck

	// MaxUploadBytes bounds the artifact upload request body.
	MaxUploadBytes int64

	// AllowOrigins lists CORS origins. Empty allows any.
	AllowOrigins []string
}

const readHeaderTimeout = 10 * time.Second

type Server struct {
	echo   *echo.Echo
	server *http.Server

	members      *members.Service
	distributor  *distribution.Distributor
	artifacts    *artifacts.Service
	registry     *prometheus.Registry
	httpMetrics  *metrics.HTTPMetrics
	healthChecks []HealthCheck
	maxUpload    int64
	allowOrigins []string
	startTime    time.Time
}

func NewServer(deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:         e,
		members:      deps.Members,
		distributor:  deps.Distributor,
		artifacts:    deps.Artifacts,
		registry:     deps.Registry,
		httpMetrics:  deps.HTTPMetrics,
		healthChecks: deps.HealthChecks,
		maxUpload:    deps.MaxUploadBytes,
		allowOrigins: deps.AllowOrigins,
		startTime:    time.Now(),
	}
	s.server = &http.Server{
		Handler:           h2c.NewHandler(e, &http2.Server{}),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	s.registerRoutes()
	return s
}

// MountRPC routes every request under path to h, behind the same middleware
// as the REST routes.
func (s *Server) MountRPC(path string, h http.Handler) {
	s.echo.Any(path+"*", echo.WrapHandler(h))
}

// ServeHTTP makes the server usable as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start serves HTTP/1.1 and cleartext HTTP/2 on addr until Shutdown.
// Returns nil after a graceful shutdown, even one that happened before Start.
func (s *Server) Start(addr string) error {
	s.server.Addr = addr

	slog.Info("Starting server", "address", addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
