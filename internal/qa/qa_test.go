package qa

import (
	"reflect"
	"strings"
	"testing"

	"contractarchive/internal/ftindex"
	"contractarchive/internal/model"
)

func TestMergeCandidatesPrefersRicherContentText(t *testing.T) {
	lexical := []ftindex.Hit{
		{ChunkID: 1, ContractID: 10, ContentText: "short"},
	}
	semantic := []model.Chunk{
		{ID: 1, ContractID: 10, ChunkIndex: 3, ContentText: "a much longer and richer chunk body"},
		{ID: 2, ContractID: 11, ChunkIndex: 0, ContentText: "semantic only"},
	}
	scores := map[int64]float64{1: 0.9, 2: 0.5}

	merged := mergeCandidates(lexical, semantic, scores)
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged candidates, got %d", len(merged))
	}

	byID := make(map[int64]*candidate)
	for _, c := range merged {
		byID[c.chunkID] = c
	}

	c1 := byID[1]
	if !c1.fromLexical || !c1.fromSemantic {
		t.Error("chunk 1 should be marked as coming from both lexical and semantic")
	}
	if c1.contentText != "a much longer and richer chunk body" {
		t.Errorf("expected merge to prefer the richer content_text, got %q", c1.contentText)
	}
	if c1.vectorSimilarity != 0.9 {
		t.Errorf("expected vector_similarity 0.9, got %v", c1.vectorSimilarity)
	}

	c2 := byID[2]
	if c2.fromLexical {
		t.Error("chunk 2 should only be marked semantic")
	}
}

func TestMergeCandidatesPreservesInsertionOrder(t *testing.T) {
	lexical := []ftindex.Hit{{ChunkID: 5, ContractID: 1}, {ChunkID: 6, ContractID: 1}}
	semantic := []model.Chunk{{ID: 7, ContractID: 1}}

	merged := mergeCandidates(lexical, semantic, map[int64]float64{})
	var order []int64
	for _, c := range merged {
		order = append(order, c.chunkID)
	}
	want := []int64{5, 6, 7}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestAssembleContextTruncatesAndDedupsContracts(t *testing.T) {
	long := make([]rune, 1000)
	for i := range long {
		long[i] = 'x'
	}
	candidates := []*candidate{
		{chunkID: 1, contractID: 100, contractName: "MSA", contractNumber: "C1", chunkIndex: 0, contentText: string(long)},
		{chunkID: 2, contractID: 100, contractName: "MSA", contractNumber: "C1", chunkIndex: 1, contentText: "short"},
	}

	blocks, sourceContracts, sourceChunks := assembleContext(candidates)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if len([]rune(blocks[0])) <= contextChars {
		t.Error("expected the first block's truncated text to still contain a full 800-char body plus the label")
	}
	if n := strings.Count(blocks[0], "x"); n != contextChars {
		t.Errorf("expected the first block's body truncated to %d chars, got %d", contextChars, n)
	}
	if !reflect.DeepEqual(sourceContracts, []int64{100}) {
		t.Errorf("expected deduped source_contracts [100], got %v", sourceContracts)
	}
	if !reflect.DeepEqual(sourceChunks, []int64{1, 2}) {
		t.Errorf("expected source_chunks [1,2], got %v", sourceChunks)
	}
}

func TestClassifySearchMethod(t *testing.T) {
	cases := []struct {
		lexical, semantic bool
		want              model.SearchMethod
	}{
		{true, true, model.SearchHybrid},
		{true, false, model.SearchKeyword},
		{false, true, model.SearchSemantic},
		{false, false, model.SearchNone},
	}
	for _, c := range cases {
		if got := classifySearchMethod(c.lexical, c.semantic); got != c.want {
			t.Errorf("classifySearchMethod(%v, %v) = %q, want %q", c.lexical, c.semantic, got, c.want)
		}
	}
}

func TestGenerateEmptyContextSkipsLLM(t *testing.T) {
	e := &Engine{}
	answer, trace := e.generate(nil, "question", nil)
	if answer != noContextMsg {
		t.Errorf("answer = %q, want fallback %q", answer, noContextMsg)
	}
	if trace.Status != "skipped" {
		t.Errorf("trace.Status = %q, want skipped", trace.Status)
	}
}

func TestNewSessionIDIsNonEmptyAndUnique(t *testing.T) {
	a, b := newSessionID(), newSessionID()
	if a == "" || b == "" {
		t.Fatal("expected non-empty session ids")
	}
	if a == b {
		t.Error("expected two successive session ids to differ")
	}
}
