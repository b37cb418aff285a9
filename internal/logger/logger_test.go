package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("failed to decode log line %q: %v", line, err)
	}
	return entry
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{" warn ", LevelWarn},
		{"Warning", LevelWarn},
		{"error", LevelError},
		{"info", LevelInfo},
		{"verbose", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSlogLogger_WritesJSONFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogLogger(Config{Level: LevelInfo, Format: "json", Output: &buf})

	log.Info("snapshot written",
		String("product_name", "milk"),
		Int("total_purchases", 8),
		Duration("elapsed", 1500*time.Microsecond),
		Err(errors.New("boom")),
	)

	entry := decodeLine(t, &buf)
	if entry["msg"] != "snapshot written" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["product_name"] != "milk" {
		t.Errorf("product_name = %v", entry["product_name"])
	}
	if entry["total_purchases"] != float64(8) {
		t.Errorf("total_purchases = %v", entry["total_purchases"])
	}
	if entry["elapsed"] != 1.5 {
		t.Errorf("elapsed = %v, want 1.5", entry["elapsed"])
	}
	if entry["error"] != "boom" {
		t.Errorf("error = %v", entry["error"])
	}
}

func TestSlogLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogLogger(Config{Level: LevelWarn, Format: "json", Output: &buf})

	log.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info entry written at warn level: %s", buf.String())
	}
	log.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("warn entry missing: %s", buf.String())
	}
}

func TestCtx_EnrichesFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := NewSlogLogger(Config{Level: LevelDebug, Format: "json", Output: &buf})

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithProduct(ctx, "user-1", "milk")
	ctx = WithLogger(ctx, base)

	Ctx(ctx).Debug("recomputing")

	entry := decodeLine(t, &buf)
	for key, want := range map[string]string{
		"request_id":   "req-1",
		"user_id":      "user-1",
		"product_name": "milk",
	} {
		if entry[key] != want {
			t.Errorf("%s = %v, want %q", key, entry[key], want)
		}
	}
}

func TestWithRequestID_GeneratesWhenEmpty(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	if RequestIDFromContext(ctx) == "" {
		t.Error("expected a generated request id")
	}
}

func TestNewNop_DiscardsEverything(t *testing.T) {
	log := NewNop()
	log.Error("ignored", String("k", "v"))
	if log.With(String("a", "b")) == nil {
		t.Error("With() returned nil")
	}
}
