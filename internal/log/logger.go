// SPDX-License-Identifier: MIT

// Package log provides structured logging for the pipeline.
package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config captures options for configuring the global logger.
type Config struct {
	Level   string    // optional log level ("debug", "info", etc.)
	Output  io.Writer // optional writer (defaults to os.Stderr)
	Service string    // optional service name attached to every log entry
	Version string    // optional build version attached to every log entry
}

var (
	once sync.Once
	base zerolog.Logger
)

// Configure initialises the global zerolog logger exactly once.
func Configure(cfg Config) {
	once.Do(func() {
		level := zerolog.InfoLevel
		if cfg.Level != "" {
			if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
				level = parsed
			}
		} else if env := os.Getenv("LOG_LEVEL"); env != "" {
			if parsed, err := zerolog.ParseLevel(env); err == nil {
				level = parsed
			}
		}
		zerolog.SetGlobalLevel(level)
		zerolog.TimeFieldFormat = time.RFC3339

		writer := cfg.Output
		if writer == nil {
			writer = os.Stderr
		}

		service := cfg.Service
		if service == "" {
			service = "county-htf"
		}

		ctx := zerolog.New(writer).With().
			Timestamp().
			Str("service", service)
		if cfg.Version != "" {
			ctx = ctx.Str("version", cfg.Version)
		}
		base = ctx.Logger()
	})
}

func logger() zerolog.Logger {
	Configure(Config{})
	return base
}

// WithComponent returns a child logger annotated with the given component name.
func WithComponent(component string) zerolog.Logger {
	return logger().With().Str(FieldComponent, component).Logger()
}
