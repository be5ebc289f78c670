package ocr

import (
	"strings"
	"testing"
)

func TestMergeOrdersByPageNum(t *testing.T) {
	pages := []PageResult{
		{PageNum: 2, HTML: "<p>second</p>", Success: true},
		{PageNum: 1, HTML: "<p>first</p>", Success: true},
	}
	got := Merge(pages)
	if strings.Index(got, "first") > strings.Index(got, "second") {
		t.Errorf("Merge() did not order by page number: %q", got)
	}
}

func TestMergeDropsDuplicateTables(t *testing.T) {
	table := "<table><tr><td>X</td></tr></table>"
	pages := []PageResult{
		{PageNum: 1, HTML: "<p>intro</p>" + table, Success: true},
		{PageNum: 2, HTML: table + "<p>outro</p>", Success: true},
	}
	got := Merge(pages)
	if strings.Count(got, "<table>") != 1 {
		t.Errorf("Merge() kept %d tables, want 1: %q", strings.Count(got, "<table>"), got)
	}
}

func TestMergeSkipsFailedAndEmptyPages(t *testing.T) {
	pages := []PageResult{
		{PageNum: 1, HTML: "<p>kept</p>", Success: true},
		{PageNum: 2, HTML: "<p>dropped</p>", Success: false},
		{PageNum: 3, HTML: "", Success: true},
	}
	got := Merge(pages)
	if got != "<p>kept</p>" {
		t.Errorf("Merge() = %q", got)
	}
}

func TestMergeIdempotent(t *testing.T) {
	pages := []PageResult{
		{PageNum: 1, HTML: "<p>合同条款</p>", Success: true},
		{PageNum: 2, HTML: "内容继续说明", Success: true},
	}
	once := Merge(pages)
	twice := Merge(pages)
	if once != twice {
		t.Errorf("Merge not idempotent: once=%q twice=%q", once, twice)
	}
}

func TestMergeJunctionSmoothing(t *testing.T) {
	pages := []PageResult{
		{PageNum: 1, HTML: "上文没有终止符", Success: true},
		{PageNum: 2, HTML: "<p>继续的内容</p>", Success: true},
	}
	got := Merge(pages)
	want := "上文没有终止符\n\n继续的内容</p>"
	if got != want {
		t.Errorf("Merge() = %q, want %q", got, want)
	}
}
