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

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf), WithFormat(FormatJSON)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Named("runner").Info(context.Background(), "run committed",
		String("run_id", "abc"),
		Int("rows", 2),
		Duration("took", time.Second),
	)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not json: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "run committed" {
		t.Errorf("unexpected msg: %v", entry["msg"])
	}
	if entry["logger"] != "runner" {
		t.Errorf("unexpected logger name: %v", entry["logger"])
	}
	if entry["run_id"] != "abc" {
		t.Errorf("unexpected run_id: %v", entry["run_id"])
	}
	if src, _ := entry["source"].(string); !strings.Contains(src, "logger_test.go") {
		t.Errorf("caller should point at the test file, got %q", src)
	}
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Get().With(String("task_id", "insert_into_sqlite")).Error(context.Background(), "fetch failed", Error(errors.New("boom")))

	out := buf.String()
	if !strings.Contains(out, "task_id=insert_into_sqlite") {
		t.Errorf("missing bound field in %q", out)
	}
	if !strings.Contains(out, "error=boom") {
		t.Errorf("missing error field in %q", out)
	}
}

func TestSetLevelString(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = SetLevelString("info") }()

	if err := SetLevelString("WARN"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	Get().Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %q", buf.String())
	}

	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNop(t *testing.T) {
	l := NewNop()
	l.Named("x").With(Bool("ok", true)).Debug(context.Background(), "discarded")
}
