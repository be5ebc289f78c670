package rasterize

import (
	"os"
	"path/filepath"
	"testing"

	"contractarchive/internal/errs"
)

func TestRasterizeOpenFailureReturnsIOError(t *testing.T) {
	tempRoot := t.TempDir()
	_, err := Rasterize(tempRoot, 1, filepath.Join(tempRoot, "missing.pdf"), 1000)
	if err == nil {
		t.Fatal("expected an error for a missing PDF")
	}
	if kind := errs.KindOf(err); kind != errs.IO {
		t.Errorf("expected an IO error, got kind %v", kind)
	}
}

func TestPagesCleanupRemovesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "1000-1")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}
	p := Pages{Dir: dir, Paths: []string{filepath.Join(dir, "page_1.png")}}
	if err := p.Cleanup(); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("expected %s to be removed", dir)
	}
}

func TestPagesCleanupEmptyDirIsNoop(t *testing.T) {
	var p Pages
	if err := p.Cleanup(); err != nil {
		t.Errorf("Cleanup() on zero value error = %v", err)
	}
}
