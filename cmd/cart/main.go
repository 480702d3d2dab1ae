// Package main implements the cart CLI for editing the saved cart from a terminal.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/cartd/internal/cart"
	"github.com/fyrsmithlabs/cartd/internal/cartview"
	"github.com/fyrsmithlabs/cartd/internal/config"
	"github.com/fyrsmithlabs/cartd/internal/logging"
	"github.com/fyrsmithlabs/cartd/internal/services"
)

var (
	// configPath overrides ~/.config/cartd/config.yaml
	configPath string
	// outputJSON switches every command to JSON output
	outputJSON bool
	// verbose lowers the log level to debug
	verbose bool
	// version information
	version = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cart",
	Short: "Edit the saved shopping cart",
	Long: `cart reads and edits the shopping cart cartd persists.

Every command loads the cart from the configured storage medium, performs
one operation and prints the cart as it is stored afterwards.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/cartd/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
}

// openCart loads the configuration and hydrates the cart. Logs go to the
// command's stderr so they never mix with printed output.
func openCart(cmd *cobra.Command) (services.Registry, func(), error) {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logCfg, err := logging.FromObservability(cfg.Observability)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid logging configuration: %w", err)
	}
	logCfg.Format = "console"
	logCfg.Caller = false
	logCfg.Output.OTEL = false
	logCfg.Level = zapcore.WarnLevel
	if verbose {
		logCfg.Level = zapcore.DebugLevel
	}

	logger, err := logging.NewLoggerWithWriter(logCfg, cmd.ErrOrStderr(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	reg, err := services.Open(cmd.Context(), cfg, services.Options{Logger: logger.Underlying()})
	if err != nil {
		_ = logger.Sync()
		return nil, nil, fmt.Errorf("failed to open cart: %w", err)
	}

	ctx := logging.WithCartKey(cmd.Context(), reg.Store().Key())
	cmd.SetContext(logging.WithLogger(ctx, logger))
	cleanup := func() {
		if err := reg.Close(); err != nil {
			logging.FromContext(cmd.Context()).Warn(cmd.Context(), "failed to close cart", zap.Error(err))
		}
		_ = logger.Sync()
	}
	return reg, cleanup, nil
}

// dispatch runs intent and prints the resulting cart. A failed save is
// reported on stderr; the command still succeeds because the change was
// applied.
func dispatch(cmd *cobra.Command, intent cartview.Intent) error {
	reg, cleanup, err := openCart(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	doc, err := reg.View().Dispatch(ctx, intent)
	if err != nil && !errors.Is(err, cart.ErrPersistence) {
		return err
	}
	logging.FromContext(ctx).Debug(ctx, "cart intent applied",
		zap.String("action", string(intent.Action)),
		zap.Int("item_id", intent.ItemID),
		zap.Bool("degraded", doc.Degraded),
	)
	return printCart(cmd, reg, doc)
}

// printCart writes doc as JSON or as the editable cart list.
func printCart(cmd *cobra.Command, reg services.Registry, doc cartview.Document) error {
	if doc.Warning != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "[cart] %s\n", doc.Warning)
	}
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), doc)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), cartview.List(reg.Store().Snapshot(), doc.Currency))
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
