package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

type stubRecognizer struct {
	fail map[int]bool
}

func (s stubRecognizer) Recognize(_ context.Context, _ []byte, pageNum, totalPages int) (string, error) {
	if s.fail[pageNum] {
		return "", fmt.Errorf("page %d: upstream exploded", pageNum)
	}
	return fmt.Sprintf("<p>page %d of %d</p>", pageNum, totalPages), nil
}

func writeTempImages(t *testing.T, n int) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, n)
	for i := 0; i < n; i++ {
		p := filepath.Join(dir, fmt.Sprintf("page_%d.png", i+1))
		if err := os.WriteFile(p, []byte("fake-png-bytes"), 0o644); err != nil {
			t.Fatalf("setup: %v", err)
		}
		paths[i] = p
	}
	return paths
}

func TestProcessPagesOrdersByPageNum(t *testing.T) {
	paths := writeTempImages(t, 4)
	pool := NewPool(stubRecognizer{}, 2)
	outcomes := pool.ProcessPages(context.Background(), paths)

	if len(outcomes) != 4 {
		t.Fatalf("got %d outcomes, want 4", len(outcomes))
	}
	for i, o := range outcomes {
		if o.PageNum != i+1 {
			t.Errorf("outcomes[%d].PageNum = %d, want %d", i, o.PageNum, i+1)
		}
		if o.Err != nil {
			t.Errorf("outcomes[%d].Err = %v", i, o.Err)
		}
	}
}

func TestProcessPagesPartialFailure(t *testing.T) {
	paths := writeTempImages(t, 3)
	pool := NewPool(stubRecognizer{fail: map[int]bool{2: true}}, 3)
	outcomes := pool.ProcessPages(context.Background(), paths)

	results, failed := Succeeded(outcomes)
	if len(results) != 2 {
		t.Errorf("got %d successful results, want 2", len(results))
	}
	if len(failed) != 1 || failed[0] != 2 {
		t.Errorf("failedPages = %v, want [2]", failed)
	}
}

func TestProcessPagesMissingImageFile(t *testing.T) {
	pool := NewPool(stubRecognizer{}, 1)
	outcomes := pool.ProcessPages(context.Background(), []string{filepath.Join(t.TempDir(), "missing.png")})
	if len(outcomes) != 1 || outcomes[0].Err == nil {
		t.Fatalf("expected a read error, got %+v", outcomes)
	}
}

func TestProcessPagesDefaultPoolSize(t *testing.T) {
	pool := NewPool(stubRecognizer{}, 0)
	if pool.size != 5 {
		t.Errorf("size = %d, want 5", pool.size)
	}
}
