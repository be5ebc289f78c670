package ftindex

import (
	"strings"
	"testing"

	"github.com/bytedance/sonic"
)

func TestContractsMappingIsValidJSON(t *testing.T) {
	var v map[string]any
	if err := sonic.Unmarshal([]byte(contractsMapping), &v); err != nil {
		t.Fatalf("contractsMapping is not valid JSON: %v", err)
	}
}

func TestContentsMappingIsValidJSON(t *testing.T) {
	var v map[string]any
	if err := sonic.Unmarshal([]byte(contentsMapping), &v); err != nil {
		t.Fatalf("contentsMapping is not valid JSON: %v", err)
	}
}

func TestContractDocRoundTrips(t *testing.T) {
	doc := ContractDoc{
		ContractID:     7,
		ContractNumber: "HT-2026-001",
		ContractName:   "供货合同",
		Keywords:       "供货 合同",
	}
	raw, err := sonic.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"contract_id":7`) {
		t.Errorf("marshaled doc missing contract_id: %s", raw)
	}

	var got ContractDoc
	if err := sonic.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != doc {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, doc)
	}
}

func TestSearchResponseParsesHits(t *testing.T) {
	raw := []byte(`{"hits":{"hits":[{"_score":1.5,"_source":{"contract_id":3,"chunk_id":9,"content_text":"条款内容"}}]}}`)
	var parsed searchResponse
	if err := sonic.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(parsed.Hits.Hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(parsed.Hits.Hits))
	}
	h := parsed.Hits.Hits[0]
	if h.Score != 1.5 || h.Source.ContractID != 3 || h.Source.ChunkID != 9 {
		t.Errorf("unexpected hit: %+v", h)
	}
}

func TestSearchResponseParsesHighlight(t *testing.T) {
	raw := []byte(`{"hits":{"hits":[{"_score":2.1,"_source":{"contract_id":3,"chunk_id":9,"content_text":"full chunk text"},"highlight":{"content_text":["<em>term</em> one","<em>term</em> two"]}}]}}`)
	var parsed searchResponse
	if err := sonic.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	h := parsed.Hits.Hits[0]
	if len(h.Highlight.ContentText) != 2 {
		t.Fatalf("expected 2 highlight fragments, got %d", len(h.Highlight.ContentText))
	}
}

func TestSearchResponseWithoutHighlightLeavesItEmpty(t *testing.T) {
	raw := []byte(`{"hits":{"hits":[{"_score":1.0,"_source":{"contract_id":1,"chunk_id":2,"content_text":"x"}}]}}`)
	var parsed searchResponse
	if err := sonic.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(parsed.Hits.Hits[0].Highlight.ContentText) != 0 {
		t.Error("expected no highlight fragments when the response omits them")
	}
}
