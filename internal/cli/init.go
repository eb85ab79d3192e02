// Package cli provides common CLI initialization utilities shared by
// cmd/salesdash, cmd/salesreport and cmd/salesdb-import.
package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"salesdash/internal/backend"
	"salesdash/internal/config"
	"salesdash/internal/core"
	applog "salesdash/internal/log"
	"salesdash/internal/source"
)

// Exit codes shared by the binaries.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitNotFound    = 2
	ExitUnreadable  = 3
	ExitBadArgument = 64
)

// SetupLogger builds the process logger from a level and format name and
// installs it as the slog default.
func SetupLogger(level, format string, out io.Writer) *applog.Logger {
	if out == nil {
		out = os.Stdout
	}
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(level),
		Format:    format,
		Output:    out,
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err.Error())
		os.Exit(ExitFailure)
	}
	return cfg
}

// NewLoader builds the loader the configuration names.
func NewLoader(ctx context.Context, cfg *config.Config, logger *applog.Logger) (source.Loader, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateLoader(ctx, bc)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// ExitCode maps an ingestion failure to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, core.ErrSourceNotFound):
		return ExitNotFound
	case errors.Is(err, core.ErrSourceUnreadable):
		return ExitUnreadable
	default:
		return ExitFailure
	}
}
