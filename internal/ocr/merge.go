package ocr

import (
	"hash/fnv"
	"regexp"
	"sort"
	"strings"
)

// PageResult is one page's OCR output, keyed for ordering and success.
type PageResult struct {
	PageNum int
	HTML    string
	Success bool
}

var reTable = regexp.MustCompile(`(?is)<table\b[^>]*>.*?</table>`)

var junctionTerminators = []string{"。", "！", "？", "；", "</p>", "</h1>", "</h2>", "</h3>", "</table>"}

// Merge sorts pages by PageNum, drops duplicate tables by content hash,
// applies junction smoothing between adjacent pages, and joins survivors
// with a blank line, per spec.md §4.4.
func Merge(pages []PageResult) string {
	sorted := make([]PageResult, len(pages))
	copy(sorted, pages)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PageNum < sorted[j].PageNum })

	seenTables := make(map[uint64]struct{})
	var survivors []string
	var prev string

	for _, p := range sorted {
		if !p.Success || strings.TrimSpace(p.HTML) == "" {
			continue
		}
		content := dedupeTables(p.HTML, seenTables)
		if strings.TrimSpace(content) == "" {
			continue
		}
		content = smoothJunction(prev, content)
		survivors = append(survivors, content)
		prev = content
	}

	return strings.Join(survivors, "\n\n")
}

// dedupeTables replaces any <table>...</table> whose tag-stripped text
// hash has already been seen with an empty string.
func dedupeTables(content string, seen map[uint64]struct{}) string {
	return reTable.ReplaceAllStringFunc(content, func(table string) string {
		textOnly := reTagsOnly.ReplaceAllString(table, "")
		textOnly = strings.TrimSpace(textOnly)
		h := hashString(textOnly)
		if _, dup := seen[h]; dup {
			return ""
		}
		seen[h] = struct{}{}
		return table
	})
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// smoothJunction strips one leading tag from content when prev does not
// end on a terminator and content's first visible character looks like
// a continuation (lowercase ASCII or CJK).
func smoothJunction(prev, content string) string {
	if prev == "" {
		return content
	}
	if endsWithTerminator(prev) {
		return content
	}
	firstVisible := firstVisibleRune(content)
	if firstVisible == 0 {
		return content
	}
	if isLowerASCII(firstVisible) || isCJKRune(firstVisible) {
		return stripLeadingTag(content)
	}
	return content
}

func endsWithTerminator(s string) bool {
	for _, t := range junctionTerminators {
		if strings.HasSuffix(s, t) {
			return true
		}
	}
	return false
}

var reLeadingTag = regexp.MustCompile(`^\s*<[^>]*>`)

func stripLeadingTag(content string) string {
	return reLeadingTag.ReplaceAllString(content, "")
}

// firstVisibleRune returns the first rune of content once tags are
// stripped, or 0 if there is none.
func firstVisibleRune(content string) rune {
	visible := reTagsOnly.ReplaceAllString(content, "")
	visible = strings.TrimSpace(visible)
	for _, r := range visible {
		return r
	}
	return 0
}

func isLowerASCII(r rune) bool {
	return r >= 'a' && r <= 'z'
}

func isCJKRune(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}
