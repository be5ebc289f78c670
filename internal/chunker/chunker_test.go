package chunker

import (
	"strings"
	"testing"
)

func TestSplitChunkIndexDense(t *testing.T) {
	text := strings.Repeat("Alpha beta gamma delta epsilon zeta eta theta. ", 80)
	chunks := Split(text, DefaultConfig())

	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	for i, c := range chunks {
		if c.ChunkIndex != i {
			t.Errorf("chunk %d has ChunkIndex %d", i, c.ChunkIndex)
		}
		if c.TotalChunks != len(chunks) {
			t.Errorf("chunk %d TotalChunks = %d, want %d", i, c.TotalChunks, len(chunks))
		}
	}
}

func TestSplitChunkLengthBound(t *testing.T) {
	text := strings.Repeat("word ", 1000)
	cfg := DefaultConfig()
	chunks := Split(text, cfg)

	bound := cfg.ChunkSize + cfg.ChunkOverlap
	for i, c := range chunks {
		if c.ChunkSize > bound {
			t.Errorf("chunk %d length %d exceeds bound %d", i, c.ChunkSize, bound)
		}
	}
}

func TestSplitBoundaryScenario(t *testing.T) {
	text := strings.Repeat("A。", 600)
	cfg := Config{ChunkSize: 1000, ChunkOverlap: 200, Separators: DefaultSeparators}
	chunks := Split(text, cfg)

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if !strings.HasSuffix(chunks[0].ContentText, "。") {
		t.Errorf("chunk 1 does not end on a 。 boundary: %q", lastRunes(chunks[0].ContentText, 10))
	}
	overlapTail := lastRunes(chunks[0].ContentText, 200)
	if !strings.HasPrefix(chunks[1].ContentText, overlapTail) {
		t.Errorf("chunk 2 does not start with the overlap tail of chunk 1")
	}
}

func TestSplitNoSeparatorHardSplits(t *testing.T) {
	text := strings.Repeat("x", 2500)
	cfg := Config{ChunkSize: 1000, ChunkOverlap: 100, Separators: []string{"\n\n", "\n"}}
	chunks := Split(text, cfg)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks from hard split, got %d", len(chunks))
	}
	for _, c := range chunks {
		if c.ChunkSize > cfg.ChunkSize {
			t.Errorf("hard-split chunk length %d exceeds chunk size %d", c.ChunkSize, cfg.ChunkSize)
		}
	}
}

func TestPreprocessCollapsesWhitespaceAndNewlines(t *testing.T) {
	got := Preprocess("a\r\nb\r  c\n\n\td")
	want := "a b c d"
	if got != want {
		t.Errorf("Preprocess() = %q, want %q", got, want)
	}
}

func TestSplitEmptyInput(t *testing.T) {
	if chunks := Split("   \n\t  ", DefaultConfig()); chunks != nil {
		t.Errorf("expected nil chunks for blank input, got %v", chunks)
	}
}

func TestSplitMetadataHasChineseAndKeywords(t *testing.T) {
	chunks := Split("合同金额合同金额合同金额条款条款条款", DefaultConfig())
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if !chunks[0].HasChinese {
		t.Error("expected HasChinese = true")
	}
	if len(chunks[0].Keywords) == 0 {
		t.Error("expected at least one extracted keyword")
	}
	if len(chunks[0].Keywords) > 5 {
		t.Errorf("got %d keywords, want at most 5", len(chunks[0].Keywords))
	}
}

func lastRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
