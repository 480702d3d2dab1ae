// Package http provides the cart HTTP API used by web rendering layers.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/cartd/internal/cartview"
	"github.com/fyrsmithlabs/cartd/internal/logging"
)

// Server provides HTTP endpoints for cartd.
type Server struct {
	echo    *echo.Echo
	view    *cartview.View
	logger  *zap.Logger
	config  *Config
	limiter *clientLimiter
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// RateLimit is the sustained mutation rate allowed per client, in
	// requests per second. Zero disables limiting.
	RateLimit float64
	RateBurst int

	// Meter records HTTP metrics. Defaults to the global meter provider.
	Meter metric.Meter
}

// NewServer creates a new HTTP server.
func NewServer(view *cartview.View, logger *zap.Logger, cfg *Config) (*Server, error) {
	if view == nil {
		return nil, fmt.Errorf("cart view is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host:      "localhost",
			Port:      9191,
			RateLimit: 20,
			RateBurst: 40,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			req := c.Request()
			c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), requestID)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			logger.Info("http request",
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", requestID),
			)
			return nil
		}
	})
	e.Use(newRequestMetrics(cfg.Meter, logger).middleware())

	s := &Server{
		echo:    e,
		view:    view,
		logger:  logger,
		config:  cfg,
		limiter: newClientLimiter(cfg.RateLimit, cfg.RateBurst),
	}

	// Register routes
	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.GET("/catalog", s.handleCatalog)
	v1.GET("/cart", s.handleGetCart)
	v1.GET("/cart/manifest", s.handleManifest)

	mutations := v1.Group("/cart", s.limiter.Middleware(s.logger))
	mutations.POST("/items", s.handleAddItem)
	mutations.PUT("/items/:id", s.handleSetQuantity)
	mutations.DELETE("/items/:id", s.handleRemoveItem)
	mutations.DELETE("", s.handleClear)
}

// Echo returns the underlying echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start starts the HTTP server. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
