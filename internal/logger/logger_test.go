package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		EnableDebug(false)
	})
	return &buf
}

func TestLevels(t *testing.T) {
	buf := capture(t)
	log := New("sim")

	log.Info("ran %d steps", 1601)
	log.Warn("slow")
	log.Error("failed: %s", "boom")

	out := buf.String()
	for _, want := range []string{
		"[sim] INFO: ran 1601 steps",
		"[sim] WARN: slow",
		"[sim] ERROR: (logger_test.go:",
		"failed: boom",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDebugToggle(t *testing.T) {
	buf := capture(t)
	log := New("sim")

	EnableDebug(false)
	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug output while disabled: %q", buf.String())
	}

	EnableDebug(true)
	log.Debug("shown %d", 1)
	if !strings.Contains(buf.String(), "[sim] DEBUG: shown 1") {
		t.Errorf("expected debug line, got %q", buf.String())
	}
	if !IsDebug() {
		t.Error("IsDebug should report true")
	}
}

func TestInitWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ctrlsim.log")
	if err := Init(Options{File: path, MaxSizeMB: 1, Debug: true}); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		EnableDebug(false)
	})

	New("test").Debug("to file")
	if err := Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "[test] DEBUG: to file") {
		t.Errorf("log file missing line: %q", data)
	}
}
