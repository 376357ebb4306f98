package testsupport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-dealform/pkg/model"
)

// LoadSnapshot reads a YAML or JSON form snapshot fixture.
func LoadSnapshot(t *testing.T, path string) model.FormSnapshot {
	t.Helper()

	snapshot, err := LoadSnapshotFromPath(path)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	return snapshot
}

// LoadSnapshotFromPath returns a snapshot without requiring testing.T so
// fixtures can be wired in setup functions.
func LoadSnapshotFromPath(path string) (model.FormSnapshot, error) {
	if path == "" {
		return model.FormSnapshot{}, errors.New("testsupport: snapshot path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.FormSnapshot{}, fmt.Errorf("testsupport: read snapshot: %w", err)
	}
	var snapshot model.FormSnapshot
	// YAML is a superset of JSON, so one decoder covers both fixture formats.
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return model.FormSnapshot{}, fmt.Errorf("testsupport: decode snapshot: %w", err)
	}
	return snapshot, nil
}

// ObservedLogger returns a debug-level zap logger whose entries can be
// inspected by the test.
func ObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out, buf.String()
}
