// SPDX-License-Identifier: MIT

package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey string

const (
	runIDKey     ctxKey = "run_id"
	stationIDKey ctxKey = "station_id"
)

// ContextWithRunID stores the provided pipeline run ID in the context.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, runIDKey, id)
}

// ContextWithStationID stores the provided station ID in the context.
func ContextWithStationID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, stationIDKey, id)
}

// RunIDFromContext extracts the run ID from context if present.
func RunIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(runIDKey).(string); ok {
		return v
	}
	return ""
}

// StationIDFromContext extracts the station ID from context if present.
func StationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(stationIDKey).(string); ok {
		return v
	}
	return ""
}

// WithContext enriches the supplied logger with correlation fields from context.
func WithContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	if ctx == nil {
		return logger
	}
	builder := logger.With()
	added := false
	if rid := RunIDFromContext(ctx); rid != "" {
		builder = builder.Str(FieldRunID, rid)
		added = true
	}
	if sid := StationIDFromContext(ctx); sid != "" {
		builder = builder.Str(FieldStationID, sid)
		added = true
	}
	if !added {
		return logger
	}
	return builder.Logger()
}

// WithComponentFromContext returns a logger annotated with the component name
// and enriched with correlation fields from ctx.
func WithComponentFromContext(ctx context.Context, component string) zerolog.Logger {
	return WithContext(ctx, WithComponent(component))
}
