package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dshills/forensicq/internal/config"
	"github.com/dshills/forensicq/internal/engine"
	"github.com/dshills/forensicq/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	flagConfig   string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:           "forensicq",
	Short:         "High-speed keyword search over extracted device dumps",
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ./forensicq.yaml or ~/.forensicq/forensicq.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"forensicq\nVersion: %s\nBuild Time: %s\nBuild Mode: %s\nSQLite Driver: %s\n",
		version, buildTime, storage.BuildMode, storage.DriverName))
}

func main() {
	engine.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the root logger. Logs go to stderr;
// stdout is reserved for command output and the MCP protocol.
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger, nil
}

// openEngine is setup followed by engine construction
func openEngine(ctx context.Context) (*engine.Engine, zerolog.Logger, error) {
	cfg, logger, err := setup()
	if err != nil {
		return nil, logger, err
	}
	eng, err := engine.New(ctx, cfg, logger)
	if err != nil {
		return nil, logger, fmt.Errorf("failed to start engine: %w", err)
	}
	return eng, logger, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(logger zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

// printJSON writes v to stdout as indented JSON
func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
