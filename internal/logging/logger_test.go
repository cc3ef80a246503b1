package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/goliatone/go-easel/internal/logging"
)

func TestConsoleHandlerPromotesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "queue").Info("submitted", slog.String("request_id", "abc"))

	line := buf.String()
	if !strings.Contains(line, " INFO queue: submitted") {
		t.Fatalf("expected component prefix in %q", line)
	}
	if !strings.Contains(line, "request_id=abc") {
		t.Fatalf("expected attribute rendering in %q", line)
	}
}

func TestConsoleHandlerQuotesSpacedValues(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Warn("job failed", slog.String("reason", "safety checker tripped"))

	if got := buf.String(); !strings.Contains(got, `reason="safety checker tripped"`) {
		t.Fatalf("expected quoted value in %q", got)
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("hidden")
	logger.Warn("visible")

	got := buf.String()
	if strings.Contains(got, "hidden") {
		t.Fatalf("info line should be suppressed at warn level: %q", got)
	}
	if !strings.Contains(got, "visible") {
		t.Fatalf("warn line missing: %q", got)
	}
}

func TestJSONHandlerRenamesCoreKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("saved", slog.Int("count", 3))

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	for _, key := range []string{"ts", "level", "msg"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("expected key %q in %v", key, decoded)
		}
	}
	if decoded["level"] != "info" {
		t.Fatalf("expected lowercase level, got %v", decoded["level"])
	}
	if decoded["msg"] != "saved" {
		t.Fatalf("unexpected msg: %v", decoded["msg"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerStaysSilent(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("should not panic", logging.Error(nil))
}
