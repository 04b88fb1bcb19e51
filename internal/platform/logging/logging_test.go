package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(Config{Level: "debug", Dir: dir, File: "test.log"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("hello %s", "world")
	logger.WarnTag("Auth", "token %d", 42)

	if err := logger.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "test.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "hello world") {
		t.Errorf("log file missing formatted message: %s", content)
	}
	if !strings.Contains(content, "[Auth] token 42") {
		t.Errorf("log file missing tagged message: %s", content)
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("unknown") != parseLevel("info") {
		t.Error("unknown level should default to info")
	}
	if parseLevel("ERROR") != parseLevel("error") {
		t.Error("level parsing should be case insensitive")
	}
}
