package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestTruncatingHandler tests value truncation behavior.
func TestTruncatingHandler(t *testing.T) {
	t.Parallel()

	t.Run("long string values are cut with a marker", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		handler := NewTruncatingHandler(
			slog.NewTextHandler(&buf, nil),
			WithMaxValueLen(10),
		)
		logger := slog.New(handler)

		logger.Info("page received", "body", strings.Repeat("x", 100))

		out := buf.String()
		if !strings.Contains(out, "[90 bytes truncated]") {
			t.Errorf("output missing truncation marker: %s", out)
		}
		if strings.Contains(out, strings.Repeat("x", 11)) {
			t.Errorf("value not truncated: %s", out)
		}
	})

	t.Run("short values pass through untouched", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewTruncatingHandler(slog.NewTextHandler(&buf, nil)))

		logger.Info("unit done", "unit", "georgia-state_cs_fall-2025", "records", 12)

		out := buf.String()
		if !strings.Contains(out, "georgia-state_cs_fall-2025") || !strings.Contains(out, "records=12") {
			t.Errorf("attributes mangled: %s", out)
		}
		if strings.Contains(out, "truncated") {
			t.Errorf("unexpected truncation: %s", out)
		}
	})

	t.Run("group attributes are truncated recursively", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		handler := NewTruncatingHandler(
			slog.NewTextHandler(&buf, nil),
			WithMaxValueLen(8),
		)
		logger := slog.New(handler)

		logger.Info("fetch failed",
			slog.Group("request", "url", "https://portal.example/very/long/path"),
		)

		if !strings.Contains(buf.String(), "truncated") {
			t.Errorf("group value not truncated: %s", buf.String())
		}
	})

	t.Run("WithAttrs truncates pre-bound attributes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		handler := NewTruncatingHandler(
			slog.NewTextHandler(&buf, nil),
			WithMaxValueLen(5),
		)
		logger := slog.New(handler).With("payload", "0123456789")

		logger.Info("bound")

		if !strings.Contains(buf.String(), "[5 bytes truncated]") {
			t.Errorf("bound attribute not truncated: %s", buf.String())
		}
	})
}

// TestNewLogger tests level selection.
func TestNewLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, false)
	logger.Debug("hidden")
	logger.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug should be suppressed when not verbose")
	}
	if !strings.Contains(out, "shown") {
		t.Error("info should be logged")
	}

	buf.Reset()
	NewLogger(&buf, true).Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("debug should be logged when verbose")
	}
}
