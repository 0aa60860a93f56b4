package ndp

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSetLogSink_FloorFiltersBelowMinimum(t *testing.T) {
	var buf bytes.Buffer
	c := newTestContext()
	c.SetLogSink(slog.NewTextHandler(&buf, nil), slog.LevelWarn)

	c.log.Info("should not appear")
	c.log.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Fatalf("info record leaked past the warn floor: %q", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Fatalf("warn record missing from output: %q", out)
	}
}

func TestSetLogSink_NilRestoresNullSink(t *testing.T) {
	var buf bytes.Buffer
	c := newTestContext()
	c.SetLogSink(slog.NewTextHandler(&buf, nil), slog.LevelDebug)
	c.SetLogSink(nil, slog.LevelDebug)

	c.log.Error("must be discarded")
	if buf.Len() != 0 {
		t.Fatalf("expected no output after restoring the null sink, got %q", buf.String())
	}
}
