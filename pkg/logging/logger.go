package logging

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Name is the name of the application that the logger is for.
type Name string

// Config is the configuration for a logger.
type Config struct {
	// name is the name of the application.
	name Name

	// level is the minimum level that will be logged.
	level slog.Level

	// pretty forces the human-readable handler.
	pretty bool
}

// NewConfig creates a new logging configuration for the named application.
func NewConfig(name Name) *Config {
	cfg := &Config{
		name:  name,
		level: slog.LevelDebug,
	}

	if os.Getenv(EnvLogPretty) != "" {
		cfg.pretty = true
	}

	return cfg
}

const (
	// EnvLogPretty forces the tinted console handler when set.
	EnvLogPretty = `LOG_PRETTY`

	// keyApp is the key used for the application name.
	keyApp = `app`
)

// CommonLogger returns the logger that every component of the application
// shares. The handler is JSON by default so that log collection keeps
// working; the tinted handler is used when explicitly requested.
func CommonLogger(c *Config) (*slog.Logger, error) {
	var h slog.Handler
	if c.pretty {
		h = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      c.level,
			TimeFormat: time.Kitchen,
		})
	} else {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: c.level,
		})
	}

	l := slog.New(h).With(slog.String(keyApp, string(c.name)))
	slog.SetDefault(l)
	return l, nil
}
