package logger

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestLogger(format logFormat) (*slog.Logger, *asyncWriter, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	h := newStructuredHandler(handlerConfig{
		level:  slog.LevelDebug,
		writer: aw,
		format: format,
	})
	return slog.New(h), aw, buf
}

func closeWriter(t *testing.T, aw *asyncWriter) {
	t.Helper()
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestKVLineFollowsKeyOrder(t *testing.T) {
	log, aw, buf := newTestLogger(formatKV)
	ctx := WithRID(context.Background(), "rid-1")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	LogEvent(ctx, log.With("component", "conversation"), slog.LevelInfo, "step.changed",
		slog.String("status", "ok"),
		slog.String("step", "parent_name"),
	)
	closeWriter(t, aw)

	tokens := strings.Split(strings.TrimSpace(buf.String()), " ")
	want := []string{"ts=", "level=INFO", "component=conversation", "event=step.changed", "status=ok", "rid=rid-1", "update_id=42", "user_id=7", "chat_id=9", "step=parent_name"}
	if len(tokens) < len(want) {
		t.Fatalf("unexpected token count %d: %v", len(tokens), tokens)
	}
	for i, prefix := range want {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestJSONLineCompactsRID(t *testing.T) {
	log, aw, buf := newTestLogger(formatJSON)
	ctx := WithRID(context.Background(), "12:34:56")

	LogEvent(ctx, log, slog.LevelError, "send.fail",
		slog.Any("err", errors.New("boom")),
		slog.Duration("backoff", 1500*time.Millisecond),
	)
	closeWriter(t, aw)

	line := strings.TrimSpace(buf.String())
	for _, part := range []string{
		`"level":"ERROR"`,
		`"component":"app"`,
		`"rid":"` + CompactRID("12:34:56") + `"`,
		`"rid_full":"12:34:56"`,
		`"err":"boom"`,
		`"backoff_ms":1500`,
	} {
		if !strings.Contains(line, part) {
			t.Fatalf("missing %s in %s", part, line)
		}
	}
}

func TestEmptyStringsArePruned(t *testing.T) {
	log, aw, buf := newTestLogger(formatKV)
	LogEvent(context.Background(), log, slog.LevelInfo, "x", Err(nil), slog.String("kind", " "))
	closeWriter(t, aw)

	line := buf.String()
	if strings.Contains(line, "err=") || strings.Contains(line, "kind=") {
		t.Fatalf("empty attrs should be pruned: %s", line)
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	log := slog.New(newStructuredHandler(handlerConfig{level: slog.LevelWarn, writer: aw, format: formatKV}))
	log.Info("hidden")
	log.Warn("shown")
	closeWriter(t, aw)

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "event=shown") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestWriteAfterCloseFails(t *testing.T) {
	aw := newAsyncWriter([]io.Writer{io.Discard}, 0)
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := aw.Write([]byte("late\n")); err == nil {
		t.Fatal("expected error after close")
	}
}

func TestCompactRID(t *testing.T) {
	if got := CompactRID("36:1:0"); got != "10.1.0" {
		t.Fatalf("CompactRID = %q", got)
	}
	if got := CompactRID("not-a-rid"); got != "not-a-rid" {
		t.Fatalf("CompactRID passthrough = %q", got)
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("a\x00b\u200bßc", 3); got != "abß" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
}
