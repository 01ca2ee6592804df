package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestZapWritesObjectUnderKey(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", "factify", "test")

	log.InfoObj("analysis complete", "analysis", map[string]any{"request_id": "r1", "confidence": 0.91})
	log.DebugObj("pipeline stage", "pipeline", map[string]any{"stage": "received"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected debug to be filtered, got %d lines: %s", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if entry["msg"] != "analysis complete" || entry["app"] != "factify" || entry["env"] != "test" {
		t.Fatalf("unexpected entry %v", entry)
	}
	obj, ok := entry["analysis"].(map[string]any)
	if !ok || obj["request_id"] != "r1" {
		t.Fatalf("object not logged under key: %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("missing ts field")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestEnsure(t *testing.T) {
	if _, ok := Ensure(nil).(NopLogger); !ok {
		t.Fatalf("nil logger should become NopLogger")
	}
	z := New(&bytes.Buffer{}, "info", "a", "b")
	if Ensure(z) != Logger(z) {
		t.Fatalf("non-nil logger should be returned as is")
	}
	if err := z.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
