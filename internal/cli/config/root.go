package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rustyeddy/marketlab/config"
)

// RootConfig carries the persistent flags every subcommand sees.
type RootConfig struct {
	ConfigPath string
	DBPath     string
	LogLevel   string

	Logger *slog.Logger
}

// SetupLogger builds the text logger for LogLevel, writing to w.
func (rc *RootConfig) SetupLogger(w io.Writer) error {
	var lvl slog.Level
	switch strings.ToLower(rc.LogLevel) {
	case "debug":
		lvl = slog.LevelDebug
	case "", "info":
		lvl = slog.LevelInfo
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return fmt.Errorf("unknown log level %q (want debug|info|warn|error)", rc.LogLevel)
	}
	rc.Logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	return nil
}

// Load returns the file config when --config is set, defaults otherwise.
// The result is not validated; callers apply flag overrides first.
func (rc *RootConfig) Load() (*config.Config, error) {
	if rc.ConfigPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.ReadFromFile(rc.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
