package ocr

import (
	"strings"
	"testing"
)

func TestExtractTextParagraphsAndHeadings(t *testing.T) {
	got := ExtractText("<h1>Title</h1><p>Body text</p>")
	if !strings.Contains(got, "Title") || !strings.Contains(got, "Body text") {
		t.Errorf("ExtractText() = %q", got)
	}
}

func TestExtractTextTableFormat(t *testing.T) {
	htmlInput := "<table><tr><th>Name</th><th>Amount</th></tr><tr><td>Acme</td><td>100</td></tr></table>"
	got := ExtractText(htmlInput)

	if !strings.Contains(got, "【表格内容】") {
		t.Errorf("missing table header marker: %q", got)
	}
	if !strings.Contains(got, "【表格结束】") {
		t.Errorf("missing table end marker: %q", got)
	}
	if !strings.Contains(got, "Name|Amount") {
		t.Errorf("missing header row: %q", got)
	}
	if !strings.Contains(got, "Name：Acme") || !strings.Contains(got, "Amount：100") {
		t.Errorf("missing data row pairs: %q", got)
	}
}

func TestExtractTextEmptyInput(t *testing.T) {
	if got := ExtractText(""); got != "" {
		t.Errorf("ExtractText(empty) = %q, want empty", got)
	}
}
