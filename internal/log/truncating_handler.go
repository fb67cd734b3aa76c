package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// DefaultMaxValueLen is the attribute value length limit. Long enough to
// show the shape of a page fragment or form payload, short enough to keep
// a log line readable.
const DefaultMaxValueLen = 512

// TruncatingHandler wraps an slog.Handler and truncates oversized string
// attribute values. Truncated values end with a marker noting how many
// bytes were dropped.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Components keep logging whole values; the cut happens in one place
type TruncatingHandler struct {
	// handler is the underlying slog handler that receives the records.
	handler slog.Handler

	// maxLen is the string value length limit.
	maxLen int
}

// TruncatingOption configures a TruncatingHandler.
type TruncatingOption func(*TruncatingHandler)

// WithMaxValueLen sets the string value length limit.
func WithMaxValueLen(n int) TruncatingOption {
	return func(h *TruncatingHandler) {
		if n > 0 {
			h.maxLen = n
		}
	}
}

// NewTruncatingHandler creates a TruncatingHandler wrapping the given
// handler. If handler is nil, slog.Default().Handler() is used.
func NewTruncatingHandler(handler slog.Handler, opts ...TruncatingOption) *TruncatingHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}

	h := &TruncatingHandler{handler: handler, maxLen: DefaultMaxValueLen}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Enabled delegates to the underlying handler.
func (h *TruncatingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle truncates the record's attributes and passes it on.
func (h *TruncatingHandler) Handle(ctx context.Context, r slog.Record) error {
	truncated := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		truncated.AddAttrs(h.truncateAttr(a))
		return true
	})

	return h.handler.Handle(ctx, truncated)
}

// WithAttrs returns a new handler with the given attributes added,
// truncated first.
func (h *TruncatingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	truncated := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		truncated[i] = h.truncateAttr(a)
	}
	return &TruncatingHandler{handler: h.handler.WithAttrs(truncated), maxLen: h.maxLen}
}

// WithGroup returns a new handler with the given group name.
func (h *TruncatingHandler) WithGroup(name string) slog.Handler {
	return &TruncatingHandler{handler: h.handler.WithGroup(name), maxLen: h.maxLen}
}

// truncateAttr truncates a single attribute, recursively handling groups.
func (h *TruncatingHandler) truncateAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		truncated := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			truncated[i] = h.truncateAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(truncated...)}
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}

	v := a.Value.String()
	if len(v) <= h.maxLen {
		return a
	}

	dropped := len(v) - h.maxLen
	return slog.String(a.Key, fmt.Sprintf("%s...[%d bytes truncated]", v[:h.maxLen], dropped))
}

// NewLogger creates a text-format slog.Logger with value truncation.
// Verbose enables debug level; otherwise only info and above are logged.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	textHandler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewTruncatingHandler(textHandler))
}

// NewJSONLogger creates a JSON-format slog.Logger with value truncation.
// Useful for structured log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	jsonHandler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewTruncatingHandler(jsonHandler))
}
