// Package observability carries request and action identifiers in a
// context and adds them to every slog record logged with that context.
package observability

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/grdesk/internal/logfields"
)

// LogContext holds structured logging context information.
type LogContext struct {
	RequestID string
	ActionID  string
	ModuleKey string
	Surface   string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

const (
	KeyRequestID = "request_id"
	KeySurface   = "surface"
)

// WithRequestID adds an HTTP request id to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	lc := extractLogContext(ctx)
	lc.RequestID = id
	return context.WithValue(ctx, logContextKey, lc)
}

// WithActionID adds the id of the action being dispatched.
func WithActionID(ctx context.Context, id string) context.Context {
	lc := extractLogContext(ctx)
	lc.ActionID = id
	return context.WithValue(ctx, logContextKey, lc)
}

// WithModuleKey adds a slice key.
func WithModuleKey(ctx context.Context, key string) context.Context {
	lc := extractLogContext(ctx)
	lc.ModuleKey = key
	return context.WithValue(ctx, logContextKey, lc)
}

// WithSurface names the UI surface (screen) the work originates from.
func WithSurface(ctx context.Context, surface string) context.Context {
	lc := extractLogContext(ctx)
	lc.Surface = surface
	return context.WithValue(ctx, logContextKey, lc)
}

func extractLogContext(ctx context.Context) LogContext {
	if ctx == nil {
		return LogContext{}
	}
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

// GetContext returns the structured log context carried by ctx.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}

// Attrs returns the non-empty context values as slog attributes.
func Attrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	var attrs []slog.Attr
	if lc.RequestID != "" {
		attrs = append(attrs, slog.String(KeyRequestID, lc.RequestID))
	}
	if lc.ActionID != "" {
		attrs = append(attrs, logfields.ActionID(lc.ActionID))
	}
	if lc.ModuleKey != "" {
		attrs = append(attrs, logfields.ModuleKey(lc.ModuleKey))
	}
	if lc.Surface != "" {
		attrs = append(attrs, slog.String(KeySurface, lc.Surface))
	}
	return attrs
}

// ContextHandler wraps a slog.Handler and appends Attrs(ctx) to each record.
type ContextHandler struct {
	next slog.Handler
}

// NewContextHandler wraps next.
func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := Attrs(ctx); len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(attrs...)
	}
	return h.next.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name)}
}
