// Package cli provides common initialization shared by cmd/saoke and
// cmd/saoke-report.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"saoke/internal/aggregate"
	"saoke/internal/config"
	"saoke/internal/core"
	"saoke/internal/log"
)

// SetupLogger builds the application logger and installs it as the slog
// default.
func SetupLogger(level, format string, out io.Writer) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	cfg.Format = format
	cfg.Output = out
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// A missing file is not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// LoadRanges returns the histogram ranges from path, or the defaults when
// path is empty. Overlapping ranges are accepted with a warning.
func LoadRanges(path string, logger *log.Logger) ([]core.Range, error) {
	if path == "" {
		return aggregate.DefaultRanges(), nil
	}
	ranges, err := aggregate.LoadRanges(path)
	if err != nil {
		return nil, fmt.Errorf("load histogram ranges: %w", err)
	}
	for _, pair := range aggregate.Overlapping(ranges) {
		logger.Warn("Histogram ranges overlap; records count toward the first",
			"first", ranges[pair[0]].Label(),
			"second", ranges[pair[1]].Label())
	}
	logger.Info("Loaded histogram ranges", "file", path, "count", len(ranges))
	return ranges, nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM.
func GracefulShutdown(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
