package ndp

import (
	"context"
	"log/slog"
)

// discardHandler is a slog.Handler that drops every record. It backs the
// Context's default log sink: "a null sink is the default" (spec.md §9)
// until a caller opts in via SetLogSink.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool        { return false }
func (discardHandler) Handle(context.Context, slog.Record) error       { return nil }
func (discardHandler) WithAttrs(attrs []slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(name string) slog.Handler              { return discardHandler{} }

// floorHandler wraps a caller-supplied slog.Handler with a minimum
// priority floor, independent of whatever level that handler itself was
// built with. This is the Go shape of the original library's
// ndp_set_log_priority: the sink is injected, the floor is the Context's
// own knob.
type floorHandler struct {
	next slog.Handler
	min  slog.Level
}

func (h *floorHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.min && h.next.Enabled(ctx, level)
}

func (h *floorHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.next.Handle(ctx, r)
}

func (h *floorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &floorHandler{next: h.next.WithAttrs(attrs), min: h.min}
}

func (h *floorHandler) WithGroup(name string) slog.Handler {
	return &floorHandler{next: h.next.WithGroup(name), min: h.min}
}

// SetLogSink installs handler as the Context's log sink: every log
// record the Context emits (currently the warning for a dropped malformed
// message; transport errors are returned, not logged) goes through handler, but only if its level is at or above
// minPriority. Passing a nil handler restores the null sink.
func (c *Context) SetLogSink(handler slog.Handler, minPriority slog.Level) {
	if handler == nil {
		c.log = slog.New(discardHandler{})
		return
	}
	c.log = slog.New(&floorHandler{next: handler, min: minPriority})
}
