package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogger_LevelsGoToTheirWriters(t *testing.T) {
	var info, warning, errOut bytes.Buffer
	l := New(&info, &warning, &errOut)

	l.Info("Camera opened %s", "successfully!")
	l.Warning("Trying camera index %d...", 0)
	l.Error("Could not open any camera!")

	if !strings.Contains(info.String(), "INFO") || !strings.Contains(info.String(), "Camera opened successfully!") {
		t.Errorf("unexpected info output: %q", info.String())
	}
	if !strings.Contains(warning.String(), "Trying camera index 0...") {
		t.Errorf("unexpected warning output: %q", warning.String())
	}
	if !strings.Contains(errOut.String(), "ERROR") || !strings.Contains(errOut.String(), "Could not open any camera!") {
		t.Errorf("unexpected error output: %q", errOut.String())
	}
	if strings.Contains(info.String(), "Could not open") {
		t.Error("error entry leaked into info writer")
	}
}

func TestNewLogger_WritesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	l, err := NewLogger(dir)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	l.Info("Loading YOLO model...")
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "info.log"))
	if err != nil {
		t.Fatalf("Failed to read info.log: %v", err)
	}
	if !strings.Contains(string(data), "Loading YOLO model...") {
		t.Errorf("info.log missing entry, got %q", string(data))
	}

	for _, name := range []string{"warning.log", "error.log"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
}

func TestNewLogger_ConsoleOnly(t *testing.T) {
	l, err := NewLogger("")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if len(l.files) != 0 {
		t.Errorf("expected no log files, got %d", len(l.files))
	}
	if err := l.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
