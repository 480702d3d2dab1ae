// Cartd serves a shopping cart over HTTP.
//
// The daemon hydrates the cart from the configured storage medium, exposes
// it to web rendering layers through the HTTP API and, when enabled,
// publishes every change to NATS.
//
// Configuration is read from ~/.config/cartd/config.yaml and CARTD_*
// environment variables. See internal/config for details.
//
// Usage:
//
//	# Start with defaults (file storage, port 9191)
//	cartd
//
//	# Use Redis and a custom catalog
//	CARTD_STORAGE_DRIVER=redis CARTD_STORAGE_REDIS_URL=redis://localhost:6379/0 \
//	  CARTD_CATALOG_PATH=~/.config/cartd/catalog.toml cartd
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/cartd/internal/config"
	httpserver "github.com/fyrsmithlabs/cartd/internal/http"
	"github.com/fyrsmithlabs/cartd/internal/logging"
	"github.com/fyrsmithlabs/cartd/internal/services"
	"github.com/fyrsmithlabs/cartd/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "config file (default ~/.config/cartd/config.yaml)")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion(os.Stdout)
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  cartd           Start the cart daemon\n")
			fmt.Fprintf(os.Stderr, "  cartd version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, os.Stdout, nil); err != nil {
		fmt.Fprintf(os.Stderr, "cartd: %v\n", err)
		os.Exit(1)
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "cartd by Fyrsmith Labs\n")
	fmt.Fprintf(w, "Version:    %s\n", version)
	fmt.Fprintf(w, "Commit:     %s\n", gitCommit)
	fmt.Fprintf(w, "Build Date: %s\n", buildDate)
}

// run starts the daemon and blocks until ctx is cancelled, then shuts down
// gracefully. ready, when non-nil, receives the HTTP server once routes are
// registered.
func run(ctx context.Context, configPath string, logOut io.Writer, ready chan<- *httpserver.Server) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	tel, err := telemetry.New(ctx, telemetry.FromObservability(cfg.Observability, version))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	logCfg, err := logging.FromObservability(cfg.Observability)
	if err != nil {
		return fmt.Errorf("invalid logging configuration: %w", err)
	}
	logger, err := logging.NewLoggerWithWriter(logCfg, logOut, tel.LoggerProvider())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()
	zl := logger.Underlying()

	if err := tel.Degraded(); err != nil {
		logger.Warn(ctx, "telemetry degraded, continuing without exporters", zap.Error(err))
	}

	logger.Info(ctx, "Starting cartd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Driver),
		zap.Bool("events", cfg.Events.Enabled),
	)

	reg, err := services.Open(ctx, cfg, services.Options{Logger: zl, Telemetry: tel})
	if err != nil {
		return fmt.Errorf("failed to initialize cart: %w", err)
	}
	defer func() {
		if err := reg.Close(); err != nil {
			logger.Warn(ctx, "failed to release cart resources", zap.Error(err))
		}
	}()

	ctx = logging.WithCartKey(ctx, reg.Store().Key())
	snap := reg.Store().Snapshot()
	logger.Info(ctx, "Cart ready",
		zap.String("key", reg.Store().Key()),
		zap.Int("lines", len(snap.Lines)),
		zap.Bool("events", reg.Publisher() != nil),
	)

	srv, err := httpserver.NewServer(reg.View(), zl.Named("http"), &httpserver.Config{
		Host:      cfg.Server.Host,
		Port:      cfg.Server.Port,
		RateLimit: cfg.Server.RateLimit,
		RateBurst: cfg.Server.RateBurst,
		Meter:     tel.Meter(httpserver.InstrumentationName),
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}
	if ready != nil {
		ready <- srv
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info(ctx, "Shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout.Duration()))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
	}
	logger.Info(ctx, "Shutdown complete")
	return errors.Join(errs...)
}
