package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	apperrors "github.com/mmynk/currentsee/internal/errors"
	"github.com/mmynk/currentsee/internal/metrics"
	"github.com/mmynk/currentsee/internal/platform/correlation"
	"github.com/mmynk/currentsee/internal/rpc"
)

func (s *Server) registerRoutes() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(correlationMiddleware)
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.corsOrigins(),
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderContentType,
			echo.HeaderAuthorization,
			correlation.Header,
			"Connect-Protocol-Version",
			"Connect-Timeout-Ms",
		},
		ExposeHeaders: []string{correlation.Header, "Connect-Protocol-Version"},
	}))
	if s.httpMetrics != nil {
		s.echo.Use(s.httpMetrics.Middleware())
	}
	s.echo.Use(apperrors.Middleware())

	s.registerHealthRoutes()
	s.registerMemberRoutes()
	s.registerEconomyRoutes()
	s.registerArtifactRoutes()
}

func (s *Server) corsOrigins() []string {
	if len(s.allowOrigins) == 0 {
		return []string{"*"}
	}
	return s.allowOrigins
}

// correlationMiddleware reuses the caller's X-Request-ID or assigns one,
// and echoes it on the response.
func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := req.Context()
		if id := req.Header.Get(correlation.Header); id != "" {
			ctx = correlation.WithID(ctx, id)
		}
		ctx, id := correlation.Ensure(ctx)

		// Connect handlers read the id from the header.
		req.Header.Set(correlation.Header, id)
		c.Response().Header().Set(correlation.Header, id)
		c.SetRequest(req.WithContext(ctx))
		return next(c)
	}
}

// setupRequestLoggerMiddleware logs REST requests. RPC calls are logged by the
// Connect logging interceptor instead.
func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return rpc.IsRPCPath(c.Request().URL.Path) || c.Path() == "/metrics"
		},
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.InfoContext(c.Request().Context(), "Request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			)
			return nil
		},
	})
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	if s.registry != nil {
		s.echo.GET("/metrics", echo.WrapHandler(metrics.Handler(s.registry)))
	}
}

func (s *Server) registerMemberRoutes() {
	limit := middleware.BodyLimit("64K")
	s.echo.GET("/api/members", s.handleListMembers)
	s.echo.POST("/api/members", s.handleCreateMember, limit)
	s.echo.GET("/api/members/count", s.handleCountMembers)
	s.echo.GET("/api/members/:id", s.handleGetMember)
}

func (s *Server) registerEconomyRoutes() {
	s.echo.GET("/api/economy", s.handleEconomy)
	s.echo.GET("/api/distribution/status", s.handleDistributionStatus)
}

func (s *Server) registerArtifactRoutes() {
	s.echo.GET("/api/artifacts", s.handleListArtifacts)
	s.echo.POST("/api/artifacts", s.handleUploadArtifact, middleware.BodyLimit(uploadBodyLimit(s.maxUpload)))
	s.echo.GET("/api/artifacts/:id", s.handleGetArtifact)
	s.echo.GET("/api/artifacts/:id/preview", s.handleArtifactPreview)
	s.echo.GET("/api/artifacts/:id/download", s.handleArtifactDownload)
}
