package logger

import (
	"path/filepath"
	"testing"
)

func TestNewLevels(t *testing.T) {
	for _, lvl := range []string{"", "debug", "info", "warn", "error"} {
		if _, err := New(lvl, ""); err != nil {
			t.Errorf("level %q: %v", lvl, err)
		}
	}
	if _, err := New("loud", ""); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	log, err := New("debug", path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	log.Info("hello")
	_ = log.Sync()
}
