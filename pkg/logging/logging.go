// Package logging builds zerolog loggers and adapts them to the ffopts
// logger interfaces.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	ffopts "github.com/goliatone/go-ffoptions"
)

// Field names shared by every adapter.
const (
	FieldService  = "service"
	FieldEngine   = "engine"
	FieldScope    = "scope"
	FieldStaged   = "staged"
	FieldWritten  = "written"
	FieldPath     = "path"
	FieldValue    = "value"
	FieldRule     = "rule"
	FieldExpr     = "expr"
	FieldMatched  = "matched"
	FieldDuration = "duration_ms"
	FieldHookErr  = "hook_error"
)

// Config holds logger configuration.
type Config struct {
	Level   string `mapstructure:"level"`
	Pretty  bool   `mapstructure:"pretty"`
	Service string `mapstructure:"service"`
}

// New creates a configured logger writing to w (stderr when nil).
func New(cfg Config, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(w).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger()
	if cfg.Service != "" {
		logger = logger.With().Str(FieldService, cfg.Service).Logger()
	}
	return logger
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// ApplyLogger logs every Apply at debug level, or at error level when the
// engine rejected the store.
func ApplyLogger(logger zerolog.Logger) ffopts.ApplyLogger {
	return ffopts.ApplyLoggerFunc(func(event ffopts.ApplyLogEvent) {
		evt := logger.Debug()
		if event.Err != nil {
			evt = logger.Error().Err(event.Err)
		}
		evt = evt.
			Str(FieldEngine, event.Engine).
			Int(FieldStaged, event.Staged).
			Int(FieldWritten, event.Written).
			Float64(FieldDuration, durationMillis(event.Duration))
		if event.Scope != "" {
			evt = evt.Str(FieldScope, event.Scope)
		}
		if event.Failed != nil {
			evt = evt.Str(FieldPath, event.Failed.Path()).Str(FieldValue, event.Failed.Value.String())
		}
		if event.HookErr != nil {
			evt = evt.AnErr(FieldHookErr, event.HookErr)
		}
		if event.Err != nil {
			evt.Msg("options apply failed")
			return
		}
		evt.Msg("options applied")
	})
}

// EvaluatorLogger logs rule evaluations at trace level and failures at warn.
func EvaluatorLogger(logger zerolog.Logger) ffopts.EvaluatorLogger {
	return ffopts.EvaluatorLoggerFunc(func(event ffopts.EvaluatorLogEvent) {
		evt := logger.Trace()
		if event.Err != nil {
			evt = logger.Warn().Err(event.Err)
		}
		evt = evt.
			Str(FieldEngine, event.Engine).
			Str(FieldExpr, event.Expr).
			Str(FieldScope, event.Scope).
			Bool(FieldMatched, event.Matched).
			Float64(FieldDuration, durationMillis(event.Duration))
		if event.Rule != "" {
			evt = evt.Str(FieldRule, event.Rule)
		}
		evt.Msg("rule evaluated")
	})
}

// StoreOptions wires both adapters into a store.
func StoreOptions(logger zerolog.Logger) []ffopts.StoreOption {
	return []ffopts.StoreOption{
		ffopts.WithApplyLogger(ApplyLogger(logger)),
		ffopts.WithEvaluatorLogger(EvaluatorLogger(logger)),
	}
}

type ctxKey struct{}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// Ctx retrieves the logger from the context, or a disabled logger.
func Ctx(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return l
	}
	return zerolog.Nop()
}

func durationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
