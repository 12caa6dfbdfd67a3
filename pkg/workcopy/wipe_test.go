package workcopy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWipe_RemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.txt")
	if err := os.WriteFile(path, []byte("sensitive content"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := Wipe(path); err != nil {
		t.Fatalf("Wipe: %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file to be removed after Wipe, stat err = %v", err)
	}
}

func TestWipe_MissingFileErrors(t *testing.T) {
	if err := Wipe(filepath.Join(t.TempDir(), "does-not-exist")); err == nil {
		t.Fatal("expected error wiping nonexistent file")
	}
}
