package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLoggerRedactsBearerToken(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Format: "json", Output: &buf, Level: "debug"})

	logger.Debug(context.Background(), "request sent", "header", "Authorization: Bearer sk-ant-REDACTED")

	if strings.Contains(buf.String(), "sk-ant-REDACTED") {
		t.Fatalf("expected secret to be redacted, got: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "[REDACTED]") {
		t.Fatalf("expected redaction marker in output, got: %s", buf.String())
	}
}

func TestLoggerWithContextAddsCorrelationFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Format: "json", Output: &buf, Level: "debug"})

	ctx := WithRunID(context.Background(), "run-1")
	ctx = WithProvider(ctx, "anthropic")
	ctx = WithTurn(ctx, 3)

	logger.WithContext(ctx).Info(ctx, "turn complete")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected valid JSON log line, got error: %v (%s)", err, buf.String())
	}
	if record["run_id"] != "run-1" || record["provider"] != "anthropic" {
		t.Fatalf("expected correlation fields in log record, got: %v", record)
	}
}

func TestLogLevelFromString(t *testing.T) {
	cases := map[string]string{
		"debug": "DEBUG",
		"warn":  "WARN",
		"error": "ERROR",
		"":      "INFO",
		"junk":  "INFO",
	}
	for input, want := range cases {
		if got := LogLevelFromString(input).String(); got != want {
			t.Errorf("LogLevelFromString(%q) = %q, want %q", input, got, want)
		}
	}
}
