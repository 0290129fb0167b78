package debug

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestWithDebug(t *testing.T) {
	ctx := WithDebug(context.Background(), true)
	if !IsEnabled(ctx) {
		t.Error("IsEnabled should return true when debug is enabled")
	}
}

func TestIsEnabled_DefaultFalse(t *testing.T) {
	ctx := context.Background()
	if IsEnabled(ctx) {
		t.Error("IsEnabled should return false by default")
	}
}

func TestWithDebug_Disabled(t *testing.T) {
	ctx := WithDebug(context.Background(), false)
	if IsEnabled(ctx) {
		t.Error("IsEnabled should return false when debug is disabled")
	}
}

func TestSetupLogger_Debug(t *testing.T) {
	SetupLogger("debug", "text")

	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		t.Error(`SetupLogger("debug") should enable debug level logging`)
	}
}

func TestSetupLogger_Default(t *testing.T) {
	SetupLogger("", "")

	if slog.Default().Enabled(context.Background(), slog.LevelInfo) {
		t.Error("default level should hide info logging")
	}
	if !slog.Default().Enabled(context.Background(), slog.LevelWarn) {
		t.Error("default level should enable warn logging")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelWarn,
	}
	for input, want := range tests {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "info", "json").Info("fetched page", "page", 2)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "fetched page" || entry["page"] != float64(2) {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "warn", "text").Warn("throttled", "delay", "3s")
	if !strings.Contains(buf.String(), "msg=throttled") {
		t.Errorf("unexpected text output %q", buf.String())
	}
}

func TestWithCall_SharesRequestID(t *testing.T) {
	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(NewLogger(&buf, "debug", "json"))
	t.Cleanup(func() { slog.SetDefault(old) })

	ctx := WithCall(context.Background(), "path", "/rest/orders")
	Logger(ctx).Debug("fetched page", "page", 1)
	Logger(ctx).Debug("fetched page", "page", 2)
	Logger(WithCall(context.Background())).Debug("other call")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("log lines = %q", buf.String())
	}
	ids := make([]string, len(lines))
	for i, line := range lines {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		ids[i], _ = entry["request_id"].(string)
		if i < 2 && entry["path"] != "/rest/orders" {
			t.Errorf("line %d lacks the call attributes: %v", i, entry)
		}
	}
	if ids[0] == "" || ids[0] != ids[1] {
		t.Errorf("pages of one call must share a request_id: %v", ids)
	}
	if ids[2] == ids[0] {
		t.Error("separate calls must get separate request ids")
	}
}

func TestLogger_DefaultsToSlogDefault(t *testing.T) {
	if Logger(context.Background()) != slog.Default() {
		t.Error("Logger without a call must return slog.Default()")
	}
}
