package postindex

import (
	"context"
	"log/slog"
)

type loggerCtxKey struct{}

// LoggingContext returns a copy of ctx that carries logger. Everything in
// this package that needs to log pulls the logger out of the context; without
// one, log output is discarded.
func LoggingContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// Logger returns the logger carried by ctx, or a logger that discards
// everything if ctx doesn't carry one.
func Logger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.New(discardHandler{})
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
