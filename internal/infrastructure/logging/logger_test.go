package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	cblog "github.com/charmbracelet/log"
)

func TestLoggerIncludesCorrelationIDAndLayer(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{
		Writer:     &buf,
		Level:      "debug",
		Formatter:  cblog.JSONFormatter,
		Layer:      "infrastructure",
		Component:  "dagger",
		TimeFormat: "2006-01-02T15:04:05Z07:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := WithCorrelationID(context.Background(), GenerateCorrelationID())
	correlationID := GetCorrelationID(ctx)
	logger.Info(ctx, "claimed generation", "generation", 3, "entity", "eth0.10")

	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected log output, got empty string")
	}

	payload := make(map[string]interface{})
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("failed to parse log line %q: %v", line, err)
	}

	if payload["layer"] != "infrastructure" {
		t.Fatalf("expected layer to be infrastructure, got %v", payload["layer"])
	}
	if payload["component"] != "dagger" {
		t.Fatalf("expected component field, got %v", payload["component"])
	}
	if payload["correlation_id"] != correlationID {
		t.Fatalf("expected correlation_id to be %q, got %v", correlationID, payload["correlation_id"])
	}
	if payload["entity"] != "eth0.10" {
		t.Fatalf("expected entity to be recorded, got %v", payload["entity"])
	}
	if payload["msg"] != "claimed generation" {
		t.Fatalf("expected message to be recorded, got %v", payload["msg"])
	}
}

func TestGenerateCorrelationIDIsUniquePerCall(t *testing.T) {
	first := GenerateCorrelationID()
	second := GenerateCorrelationID()
	if first == "" || second == "" {
		t.Fatal("expected non-empty correlation IDs")
	}
	if first == second {
		t.Fatalf("expected distinct correlation IDs, got %q twice", first)
	}
}

func TestLoggerWithAddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{
		Writer:    &buf,
		Formatter: cblog.JSONFormatter,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	child := logger.With("component", "runner").(*Logger)
	child.Warn(context.Background(), "action file failed", "entity", "br0", "path", "0/action/init/br0/10-ip.ip")

	line := strings.TrimSpace(buf.String())
	payload := make(map[string]interface{})
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("failed to parse log line: %v", err)
	}

	if payload["component"] != "runner" {
		t.Fatalf("expected component=runner, got %v", payload["component"])
	}
	if payload["entity"] != "br0" {
		t.Fatalf("expected entity br0, got %v", payload["entity"])
	}
	if payload["layer"] != "infrastructure" {
		t.Fatalf("expected default layer infrastructure, got %v", payload["layer"])
	}
}

func TestNoOpLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{
		Writer:    &buf,
		Formatter: cblog.JSONFormatter,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	noOp := NewNoOpLogger()
	noOp.Info(context.Background(), "hello world")

	if buf.Len() != 0 {
		t.Fatalf("expected no output from noop logger, got %s", buf.String())
	}

	// ensure With on noop doesn't panic and returns the same instance
	if noOp.With("key", "value") != noOp {
		t.Fatalf("expected With to return same no-op logger instance")
	}

	// Base logger still writes.
	logger.Info(context.Background(), "emitted")
	if buf.Len() == 0 {
		t.Fatal("expected base logger to write output")
	}
}

func TestBufferedLoggerStoresAndFlushes(t *testing.T) {
	buffer := NewEventBuffer(10)
	bufLogger := NewBufferedLogger(buffer)

	ctx := WithCorrelationID(context.Background(), "boot-seq")
	bufLogger.Info(ctx, "startup config rejected", "path", "/etc/confd/startup-config.json")
	bufLogger.With("component", "bootstrap").Error(ctx, "falling back to failure config", "attempt", 1)

	var output bytes.Buffer
	delegate, err := New(Options{Writer: &output, Formatter: cblog.JSONFormatter})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	buffer.Flush(delegate)

	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}

	var first map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("failed to parse first log line: %v", err)
	}
	if first["msg"] != "startup config rejected" || first["path"] != "/etc/confd/startup-config.json" {
		t.Fatalf("unexpected first event payload: %+v", first)
	}

	var second map[string]interface{}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("failed to parse second log line: %v", err)
	}
	if second["msg"] != "falling back to failure config" || second["component"] != "bootstrap" {
		t.Fatalf("unexpected second event payload: %+v", second)
	}
	if second["correlation_id"] != "boot-seq" {
		t.Fatalf("expected correlation id to be preserved, got %v", second["correlation_id"])
	}
}
