package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"
)

func TestInitWritesJSONWithService(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Options{Level: "info", Console: &buf}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer Close()

	log.Info().Str("pdf", "a.pdf").Msg("hello")
	log.Debug().Msg("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var ev map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if ev["service"] != "pdfpreview" || ev["pdf"] != "a.pdf" || ev["message"] != "hello" {
		t.Errorf("unexpected event: %v", ev)
	}
}

func TestInitCreatesLogFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "preview.log")
	var buf bytes.Buffer
	if err := Init(Options{Level: "debug", File: file, MaxSizeMB: 1, Console: &buf}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer Close()

	log.Debug().Msg("to file")
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("log file = %q", data)
	}
}
