package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerFormatsComponentAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl)).With("component", "allocator")

	logger.Info("scheduled", "isbn", "9780306406157", "book_id", "bk 1")

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, "INFO allocator: scheduled") {
		t.Fatalf("unexpected line %q", line)
	}
	if !strings.Contains(line, "isbn=9780306406157") {
		t.Fatalf("missing attr in %q", line)
	}
	if !strings.Contains(line, `book_id="bk 1"`) {
		t.Fatalf("expected quoted value in %q", line)
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.Info("suppressed")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Fatalf("info line leaked through warn level: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestJSONFormatEmitsLowercaseLevel(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newJSONHandler(&buf, lvl))

	logger.Error("save failed", "path", "/tmp/registry.json")

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if payload["level"] != "error" || payload["msg"] != "save failed" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("missing ts key: %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
