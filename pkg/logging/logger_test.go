// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// Level Tests
// =============================================================================

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
		{Level(-1), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := tt.level.String()
			if got != tt.want {
				t.Errorf("Level.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLevel_toSlogLevel(t *testing.T) {
	tests := []struct {
		level Level
		want  slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{Level(99), slog.LevelInfo}, // Unknown defaults to Info
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			got := tt.level.toSlogLevel()
			if got != tt.want {
				t.Errorf("Level.toSlogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"bogus", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// =============================================================================
// Logger Constructor Tests
// =============================================================================

func TestNew_DefaultConfig(t *testing.T) {
	logger := New(Config{})
	if logger == nil {
		t.Fatal("New() returned nil")
	}
	if logger.slog == nil {
		t.Error("logger.slog is nil")
	}
	defer logger.Close()
}

func TestNew_FileLogging(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "kekectl-logging-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	logger := New(Config{
		Level:   LevelInfo,
		LogDir:  tempDir,
		Service: "kekectl-test",
		Quiet:   true,
	})
	logger.Info("file probe", "key", "value")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	filename := "kekectl-test_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(tempDir, filename))
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	if !strings.Contains(string(data), "file probe") {
		t.Errorf("log file does not contain the message: %s", data)
	}
	if !strings.Contains(string(data), `"service":"kekectl-test"`) {
		t.Errorf("log file does not carry the service attribute: %s", data)
	}
}

func TestDefault(t *testing.T) {
	logger := Default()
	if logger == nil {
		t.Fatal("Default() returned nil")
	}
	if logger.config.Service != "kekectl" {
		t.Errorf("Default() service = %q, want %q", logger.config.Service, "kekectl")
	}
	defer logger.Close()
}

// =============================================================================
// Exporter Tests
// =============================================================================

func TestBufferedExporter_CollectsEntries(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{
		Level:    LevelDebug,
		Quiet:    true,
		Service:  "test",
		Exporter: exporter,
	})
	defer logger.Close()

	logger.Info("hello", "level_id", "1-1", "won", true)

	// Export runs on a goroutine; give it a moment.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(exporter.Entries()) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	entries := exporter.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "hello" {
		t.Errorf("Message = %q, want %q", entries[0].Message, "hello")
	}
	if entries[0].Service != "test" {
		t.Errorf("Service = %q, want %q", entries[0].Service, "test")
	}
	if entries[0].Attrs["level_id"] != "1-1" {
		t.Errorf("Attrs[level_id] = %v, want %q", entries[0].Attrs["level_id"], "1-1")
	}
}

func TestBufferedExporter_LevelFilter(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{
		Level:    LevelWarn,
		Quiet:    true,
		Exporter: exporter,
	})
	defer logger.Close()

	logger.Debug("dropped")
	logger.Warn("kept")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(exporter.Entries()) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	entries := exporter.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "kept" {
		t.Errorf("Message = %q, want %q", entries[0].Message, "kept")
	}
}

func TestWriterExporter(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewWriterExporter(&buf)

	err := exporter.Export(context.Background(), LogEntry{
		Timestamp: time.Now(),
		Level:     LevelInfo,
		Message:   "written",
		Attrs:     map[string]any{"k": "v"},
	})
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if !strings.Contains(buf.String(), "written") {
		t.Errorf("writer output missing message: %q", buf.String())
	}
}

func TestNopExporter(t *testing.T) {
	var e NopExporter
	if err := e.Export(context.Background(), LogEntry{}); err != nil {
		t.Errorf("Export() = %v, want nil", err)
	}
	if err := e.Flush(context.Background()); err != nil {
		t.Errorf("Flush() = %v, want nil", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("Close() = %v, want nil", err)
	}
}

// =============================================================================
// Helper Tests
// =============================================================================

func TestWith_ChildCarriesAttrs(t *testing.T) {
	exporter := NewBufferedExporter()
	parent := New(Config{Level: LevelDebug, Quiet: true, Exporter: exporter})
	defer parent.Close()

	child := parent.With("request_id", "req-42")
	if child == parent {
		t.Fatal("With() returned the parent logger")
	}
	// The child shares the exporter
	child.Info("child message")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(exporter.Entries()) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(exporter.Entries()) == 0 {
		t.Fatal("child logger did not export")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	got := expandPath("~/.kekectl/logs")
	want := filepath.Join(home, ".kekectl", "logs")
	if got != want {
		t.Errorf("expandPath() = %q, want %q", got, want)
	}

	if got := expandPath("/absolute"); got != "/absolute" {
		t.Errorf("expandPath() rewrote absolute path: %q", got)
	}
}

func TestArgsToMap(t *testing.T) {
	m := argsToMap([]any{"a", 1, "b", "two", 3, "dangling-key-not-string"})
	if m["a"] != 1 {
		t.Errorf("m[a] = %v, want 1", m["a"])
	}
	if m["b"] != "two" {
		t.Errorf("m[b] = %v, want two", m["b"])
	}
	if len(m) != 2 {
		t.Errorf("len(m) = %d, want 2", len(m))
	}
}
