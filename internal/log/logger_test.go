package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newJSONLogger(buf *bytes.Buffer, level slog.Level) *Logger {
	return New(Config{Level: level, Format: "json", Component: ComponentApp, Output: buf})
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogger_ComponentAttached(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf, slog.LevelInfo)

	logger.Info("hello", "k", "v")
	logger.WithComponent(ComponentLedger).Info("ledger line")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0][FieldComponent] != ComponentApp || lines[0]["k"] != "v" {
		t.Errorf("unexpected first line %v", lines[0])
	}
	if lines[1][FieldComponent] != ComponentLedger {
		t.Errorf("component = %v, want %s", lines[1][FieldComponent], ComponentLedger)
	}
	if strings.Count(buf.String(), `"component"`) != 2 {
		t.Errorf("component attribute duplicated: %s", buf.String())
	}
}

func TestLogger_WithKeepsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf, slog.LevelInfo).WithComponent(ComponentHTTP).With(FieldRequestID, "abc")

	logger.Info("x")

	lines := decodeLines(t, &buf)
	if lines[0][FieldComponent] != ComponentHTTP || lines[0][FieldRequestID] != "abc" {
		t.Errorf("unexpected line %v", lines[0])
	}
	if logger.Component() != ComponentHTTP {
		t.Errorf("Component() = %q", logger.Component())
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf, slog.LevelWarn)

	logger.Info("dropped")
	logger.Warn("kept")

	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Errorf("level filtering failed: %s", buf.String())
	}
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Level: slog.LevelInfo, Format: "text", Output: &buf}).Info("plain")

	if !strings.Contains(buf.String(), "msg=plain") || !strings.Contains(buf.String(), "component=app") {
		t.Errorf("unexpected text output: %s", buf.String())
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()); got == nil || got.Component() != "unknown" {
		t.Fatalf("FromContext on empty context = %+v", got)
	}

	var buf bytes.Buffer
	logger := newJSONLogger(&buf, slog.LevelInfo)
	if got := FromContext(IntoContext(context.Background(), logger)); got != logger {
		t.Error("FromContext did not return the stored logger")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf, slog.LevelInfo)

	handler := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside")
		}),
	))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0][FieldRequestID] != "req-1" {
		t.Errorf("request id not propagated: %v", lines)
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newJSONLogger(&buf, slog.LevelInfo))
	ctx := context.Background()
	date := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	sl.LogCostAdded(ctx, "123123", "milk", "food", 8, date)
	sl.LogCostEvent(ctx, "m-1", "123123", "milk", "food", 8, date)
	sl.LogError(ctx, "boom", errors.New("bad"), ComponentStorage, OpAppend, nil)
	sl.LogHTTPEnd(ctx, httptest.NewRequest(http.MethodGet, "/api/report?id=1", nil), http.StatusBadRequest, 3*time.Millisecond, "1.2.3.4")

	lines := decodeLines(t, &buf)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %s", len(lines), buf.String())
	}
	if lines[0][FieldComponent] != ComponentLedger || lines[0][FieldCategory] != "food" || lines[0][FieldDate] != "2025-03-04T05:06:07Z" {
		t.Errorf("cost added line = %v", lines[0])
	}
	if lines[1][FieldMessageID] != "m-1" || lines[1][FieldComponent] != ComponentWorker {
		t.Errorf("cost event line = %v", lines[1])
	}
	if lines[2]["level"] != "ERROR" || lines[2][FieldError] != "bad" || lines[2][FieldComponent] != ComponentStorage {
		t.Errorf("error line = %v", lines[2])
	}
	if lines[3]["level"] != "WARN" || lines[3][FieldStatusCode] != float64(400) {
		t.Errorf("http line = %v", lines[3])
	}
}
