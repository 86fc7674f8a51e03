package internal

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger_WritesConsoleAndFile(t *testing.T) {
	root := t.TempDir()
	var console bytes.Buffer

	logger, closer, err := NewLogger(slog.LevelInfo, root, &console)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("meeting saved", slog.String("number", "0003"))
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	var rec map[string]any
	if err := json.Unmarshal(console.Bytes(), &rec); err != nil {
		t.Fatalf("console output is not one JSON record: %q", console.String())
	}
	if rec["msg"] != "meeting saved" || rec["number"] != "0003" {
		t.Errorf("record = %v", rec)
	}

	data, err := os.ReadFile(filepath.Join(root, "logs", "app.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(data), "hidden") || !strings.Contains(string(data), "meeting saved") {
		t.Errorf("log file = %q", data)
	}
}

func TestNewLogger_Appends(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 2; i++ {
		logger, closer, err := NewLogger(slog.LevelInfo, root, &bytes.Buffer{})
		if err != nil {
			t.Fatal(err)
		}
		logger.Info("start")
		closer.Close()
	}
	data, _ := os.ReadFile(filepath.Join(root, "logs", "app.log"))
	if n := strings.Count(string(data), `"msg":"start"`); n != 2 {
		t.Errorf("records = %d, want 2", n)
	}
}

func TestNewLogger_ConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	logger, closer, err := NewLogger(slog.LevelWarn, "", &console)
	if err != nil {
		t.Fatal(err)
	}
	defer closer.Close()
	logger.Info("skip")
	logger.Warn("keep")
	if strings.Contains(console.String(), "skip") || !strings.Contains(console.String(), "keep") {
		t.Errorf("console = %q", console.String())
	}
}
