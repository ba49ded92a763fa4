package logging

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
)

type contextKey string

const slogAttrs contextKey = "slogAttrs"

// ContextHandler adds request scoped attributes stored with [WithAttrs] to every record.
type ContextHandler struct {
	handler slog.Handler
}

// NewContextHandler wraps h so that attributes attached to the [context.Context] end up in the log records.
func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{handler: h}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle enriches the record with the attributes from ctx before delegating.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(Attrs(ctx)...)
	if err := h.handler.Handle(ctx, r); err != nil {
		return fmt.Errorf("handle log record: %w", err)
	}
	return nil
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{handler: h.handler.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{handler: h.handler.WithGroup(name)}
}

// WithAttrs returns a child context carrying attr in addition to the attributes of ctx.
//
// The parent's attributes are copied so that sibling contexts never see each other's additions.
func WithAttrs(ctx context.Context, attr ...slog.Attr) context.Context {
	return context.WithValue(ctx, slogAttrs, slices.Concat(Attrs(ctx), attr))
}

// Attrs returns the attributes stored in ctx.
func Attrs(ctx context.Context) []slog.Attr {
	attrs, _ := ctx.Value(slogAttrs).([]slog.Attr)
	return attrs
}
