package upload

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveAndOpenRoundTrips(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	rel, size, err := s.Save(context.Background(), "C230970483-再生資源.pdf", strings.NewReader("pdf bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if size != int64(len("pdf bytes")) {
		t.Errorf("size = %d, want %d", size, len("pdf bytes"))
	}
	if !strings.HasSuffix(rel, ".pdf") {
		t.Errorf("relative path %q should keep the original extension", rel)
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 4 {
		t.Fatalf("expected YYYY/MM/DD/uuid.ext, got %q", rel)
	}

	rc, err := s.Open(context.Background(), rel)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, []byte("pdf bytes")) {
		t.Errorf("read back %q, want %q", got, "pdf bytes")
	}
}

func TestOpenMissingFile(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.Open(context.Background(), "2026/01/01/missing.pdf"); err == nil {
		t.Error("expected an error opening a missing blob")
	}
}

func TestDeleteMissingFileIsNotAnError(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Delete("2026/01/01/missing.pdf"); err != nil {
		t.Errorf("Delete on a missing file should be a no-op, got %v", err)
	}
}

func TestDeleteRemovesFile(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	rel, _, err := s.Save(context.Background(), "a.pdf", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Delete(rel); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(s.AbsolutePath(rel)); !os.IsNotExist(err) {
		t.Error("expected the blob to no longer exist on disk")
	}
}
