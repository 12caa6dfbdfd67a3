package workcopy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew_CreatesDirWithMode0700(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scratch")
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("expected %s to not exist yet", dir)
	}

	m, err := New(dir, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	info, err := os.Stat(m.Dir())
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o700 {
		t.Fatalf("mode = %v, want 0700", info.Mode().Perm())
	}
}

func TestNew_EmptyPathRejected(t *testing.T) {
	if _, err := New("", false); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestCreateWorkingCopy(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "source.csv")
	if err := os.WriteFile(src, []byte("test,data\n1,2"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m, err := New(filepath.Join(root, "work"), false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	dst, err := m.CreateWorkingCopy(src)
	if err != nil {
		t.Fatalf("CreateWorkingCopy: %v", err)
	}

	content, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(content) != "test,data\n1,2" {
		t.Fatalf("content = %q, want %q", content, "test,data\n1,2")
	}
	if filepath.Dir(dst) != m.Dir() {
		t.Fatalf("dst dir = %s, want %s", filepath.Dir(dst), m.Dir())
	}
}

func TestCreateWorkingCopyUnique_AvoidsCollision(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "data.csv")
	if err := os.WriteFile(src, []byte("first"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m, err := New(filepath.Join(root, "work"), false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	copy1, err := m.CreateWorkingCopyUnique(src)
	if err != nil {
		t.Fatalf("CreateWorkingCopyUnique: %v", err)
	}

	if err := os.WriteFile(src, []byte("second"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	copy2, err := m.CreateWorkingCopyUnique(src)
	if err != nil {
		t.Fatalf("CreateWorkingCopyUnique: %v", err)
	}

	if copy1 == copy2 {
		t.Fatalf("expected distinct paths, got %s twice", copy1)
	}
}

func TestCleanup_RemovesRegularFiles(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "source.csv")
	if err := os.WriteFile(src, []byte("data"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m, err := New(filepath.Join(root, "work"), false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := m.CreateWorkingCopy(src); err != nil {
		t.Fatalf("CreateWorkingCopy: %v", err)
	}

	entries, err := os.ReadDir(m.Dir())
	if err != nil || len(entries) == 0 {
		t.Fatalf("expected non-empty working dir before cleanup, err=%v", err)
	}

	if err := m.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	entries, err = os.ReadDir(m.Dir())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty working dir after cleanup, got %d entries", len(entries))
	}
}
