package keyword

import "testing"

func TestExtractEnglishRanksByFrequency(t *testing.T) {
	e := NewDefaultExtractor()
	text := "contract contract payment terms payment the a of"
	got := e.Extract(text, 2)

	if len(got) != 2 {
		t.Fatalf("Extract returned %d keywords, want 2: %v", len(got), got)
	}
	if got[0] != "contract" && got[0] != "payment" {
		t.Errorf("top keyword = %q, want contract or payment", got[0])
	}
}

func TestExtractRespectsTopN(t *testing.T) {
	e := NewDefaultExtractor()
	got := e.Extract("alpha beta gamma delta epsilon", 3)
	if len(got) != 3 {
		t.Fatalf("len(got) = %d, want 3", len(got))
	}
}

func TestExtractChineseProducesBigrams(t *testing.T) {
	e := NewDefaultExtractor()
	got := e.Extract("合同金额合同金额合同金额", 5)
	if len(got) == 0 {
		t.Fatal("expected at least one keyword from Chinese text")
	}
	for _, k := range got {
		if utf8RuneCount(k) != 2 {
			t.Errorf("keyword %q has %d runes, want 2", k, utf8RuneCount(k))
		}
	}
}

func TestExtractZeroTopN(t *testing.T) {
	e := NewDefaultExtractor()
	if got := e.Extract("anything here", 0); got != nil {
		t.Errorf("Extract with topN=0 = %v, want nil", got)
	}
}
