package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/obenchekro/namkin-data-migration/internal/config"
)

// These tests replace the zap globals and do not run in parallel.

func TestBuild_ConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "run.log")

	log, closeFn, err := build(config.Logging{Level: "debug", File: path}, &console)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	log.Debugw("sink: table written", "table", "dim_time", "rows", 65380)
	zap.S().Infof("pipeline: run_id=%s", "abc")
	closeFn()

	if !strings.Contains(console.String(), "sink: table written") || !strings.Contains(console.String(), "run_id=abc") {
		t.Fatalf("console output missing lines:\n%s", console.String())
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Fatalf("file has %d lines, want 2:\n%s", len(lines), raw)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("file line is not JSON: %v", err)
	}
	if entry["table"] != "dim_time" || entry["msg"] != "sink: table written" {
		t.Fatalf("entry = %v", entry)
	}
}

func TestBuild_LevelFilters(t *testing.T) {
	var console bytes.Buffer
	log, closeFn, err := build(config.Logging{Level: "warn"}, &console)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	log.Info("hidden")
	log.Warn("shown")
	closeFn()

	if strings.Contains(console.String(), "hidden") || !strings.Contains(console.String(), "shown") {
		t.Fatalf("level filter failed:\n%s", console.String())
	}
}

func TestBuild_BadLevel(t *testing.T) {
	if _, _, err := build(config.Logging{Level: "chatty"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
