package ocr

import "testing"

func TestCleanEmptyAndDigitsOnly(t *testing.T) {
	c := NewCleaner(DefaultCleanerConfig())
	if got := c.Clean("   "); got != "" {
		t.Errorf("Clean(blank) = %q, want empty", got)
	}
	if got := c.Clean("  42  "); got != "" {
		t.Errorf("Clean(digits-only) = %q, want empty", got)
	}
}

func TestCleanStripsThinkTags(t *testing.T) {
	c := NewCleaner(DefaultCleanerConfig())
	raw := "<think>我需要分析一下</think><p>合同内容在此</p>"
	got := c.Clean(raw)
	if got != "<p>合同内容在此</p>" {
		t.Errorf("Clean() = %q", got)
	}
}

func TestCleanStripsThoughtPreambleLines(t *testing.T) {
	c := NewCleaner(DefaultCleanerConfig())
	raw := "首先我需要看看这张图片\n<p>正文内容</p>"
	got := c.Clean(raw)
	if got != "<p>正文内容</p>" {
		t.Errorf("Clean() = %q", got)
	}
}

func TestCleanStripsMarkdownFence(t *testing.T) {
	c := NewCleaner(DefaultCleanerConfig())
	got := c.Clean("```html\n<p>hello world</p>\n```")
	if got != "<p>hello world</p>" {
		t.Errorf("Clean() = %q", got)
	}
}

func TestCleanStripsPageNumberElements(t *testing.T) {
	c := NewCleaner(DefaultCleanerConfig())
	got := c.Clean("<p>real content here</p><p>3</p>")
	if got != "<p>real content here</p>" {
		t.Errorf("Clean() = %q", got)
	}
}

func TestCleanStripsUnclosedTable(t *testing.T) {
	c := NewCleaner(DefaultCleanerConfig())
	got := c.Clean("<p>before content</p><table><tr><td>dangling")
	if got != "<p>before content</p>" {
		t.Errorf("Clean() = %q", got)
	}
}

func TestCleanIdempotent(t *testing.T) {
	c := NewCleaner(DefaultCleanerConfig())
	inputs := []string{
		"<think>我需要</think><p>正文内容足够长</p>",
		"```html\n<p>hello there friend</p>\n```",
		"<p>normal paragraph content</p>",
		"",
		"7",
	}
	for _, in := range inputs {
		once := c.Clean(in)
		twice := c.Clean(once)
		if once != twice {
			t.Errorf("Clean not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestCleanShortResidueBecomesEmpty(t *testing.T) {
	c := NewCleaner(DefaultCleanerConfig())
	if got := c.Clean("<p>ab</p>"); got != "" {
		t.Errorf("Clean(short residue) = %q, want empty", got)
	}
}
