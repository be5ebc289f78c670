// Package chunker implements the recursive separator-driven text
// splitter grounded on the original ContractChunkService: preprocess,
// recursive split with overlap, position back-mapping, and per-chunk
// metadata extraction.
package chunker

import (
	"strings"
	"unicode/utf8"

	"contractarchive/internal/keyword"
	"contractarchive/internal/model"
)

// DefaultSeparators is the ordered separator list tried during
// recursive splitting, narrowest (character-level) fallback last.
var DefaultSeparators = []string{"\n\n", "\n", "。", "；", "，", ".", ";", ",", " ", ""}

// Config controls chunk sizing and the separator list.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
	Keywords     keyword.Extractor
}

// DefaultConfig returns the spec's defaults: size 1000, overlap 200.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1000,
		ChunkOverlap: 200,
		Separators:   DefaultSeparators,
		Keywords:     keyword.NewDefaultExtractor(),
	}
}

// Chunk is one emitted text segment before it is attached to a Contract.
type Chunk struct {
	ChunkIndex  int
	ContentText string
	ChunkSize   int
	TotalChunks int
	HasChinese  bool
	Keywords    []string
	StartChar   int
	EndChar     int
}

// Split preprocesses raw text and returns its chunks with positions and
// metadata populated.
func Split(raw string, cfg Config) []Chunk {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.Separators == nil {
		cfg.Separators = DefaultSeparators
	}
	if cfg.Keywords == nil {
		cfg.Keywords = keyword.NewDefaultExtractor()
	}

	text := Preprocess(raw)
	if text == "" {
		return nil
	}

	parts := splitRecursive(text, cfg.Separators, cfg.ChunkSize, cfg.ChunkOverlap)

	chunks := make([]Chunk, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" {
			continue
		}
		chunks = append(chunks, Chunk{ContentText: trimmed})
	}

	positionChunks(text, chunks, cfg.ChunkOverlap)

	for i := range chunks {
		chunks[i].ChunkIndex = i
		chunks[i].TotalChunks = len(chunks)
		chunks[i].ChunkSize = utf8.RuneCountInString(chunks[i].ContentText)
		chunks[i].HasChinese = hasChinese(chunks[i].ContentText)
		chunks[i].Keywords = cfg.Keywords.Extract(chunks[i].ContentText, 5)
	}

	return chunks
}

// Preprocess collapses whitespace runs to a single space, normalizes
// line endings to LF, and trims the result.
func Preprocess(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\f' || r == '\v' {
			if !inSpace {
				b.WriteRune(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// splitRecursive implements spec.md §4.5's recursive split. Parts keep
// their separator attached at the end (so merging never needs to
// reinsert one), matching the spec's example split of "A。"*600 into a
// chunk that ends cleanly on a 。 boundary.
func splitRecursive(t string, separators []string, chunkSize, chunkOverlap int) []string {
	if utf8.RuneCountInString(t) <= chunkSize {
		if t == "" {
			return nil
		}
		return []string{t}
	}

	sepIdx, sep := firstPresentSeparator(t, separators)
	if sepIdx == -1 {
		return hardSplit(t, chunkSize, chunkOverlap)
	}

	var parts []string
	if sep == "" {
		parts = splitIntoRunes(t)
	} else {
		parts = splitAfter(t, sep)
	}
	if len(parts) <= 1 {
		return hardSplit(t, chunkSize, chunkOverlap)
	}

	// Mirrors the original's `separators[1:]`: recursion always drops
	// the first separator of the list passed to this call, regardless
	// of which separator actually matched.
	remainingSeparators := separators
	if len(separators) > 0 {
		remainingSeparators = separators[1:]
	}

	var out []string
	var cur string
	for _, next := range parts {
		if next == "" {
			continue
		}
		candidateLen := utf8.RuneCountInString(cur) + utf8.RuneCountInString(next)
		if candidateLen > chunkSize {
			if cur != "" {
				out = append(out, strings.TrimSpace(cur))
				if chunkOverlap > 0 && utf8.RuneCountInString(cur) > chunkOverlap {
					cur = lastNRunes(cur, chunkOverlap) + next
				} else {
					cur = next
				}
			} else {
				out = append(out, splitRecursive(next, remainingSeparators, chunkSize, chunkOverlap)...)
			}
		} else {
			cur = cur + next
		}
	}
	if cur != "" {
		out = append(out, strings.TrimSpace(cur))
	}
	return out
}

// splitAfter splits t on every occurrence of sep, keeping sep attached
// to the end of the preceding piece (the last piece has no trailing sep
// unless t itself ended with one, in which case it is an empty tail
// that the caller skips).
func splitAfter(t, sep string) []string {
	return strings.SplitAfter(t, sep)
}

func firstPresentSeparator(t string, separators []string) (int, string) {
	for i, s := range separators {
		if s == "" {
			return i, ""
		}
		if strings.Contains(t, s) {
			return i, s
		}
	}
	return -1, ""
}

// hardSplit windows text by rune count, stepping by chunkSize-overlap,
// used when no separator in the list appears in t at all.
func hardSplit(t string, chunkSize, chunkOverlap int) []string {
	runes := []rune(t)
	step := chunkSize - chunkOverlap
	if step <= 0 {
		step = chunkSize
	}
	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

func splitIntoRunes(t string) []string {
	runes := []rune(t)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}

func lastNRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

// positionChunks fills StartChar/EndChar for each chunk by searching the
// preprocessed text monotonically forward, falling back to a 50-char
// prefix match and finally to the running cursor.
func positionChunks(text string, chunks []Chunk, chunkOverlap int) {
	runes := []rune(text)
	searchStart := 0
	prevEnd := 0

	for i := range chunks {
		content := chunks[i].ContentText
		contentRunes := []rune(content)

		from := searchStart
		if i > 0 {
			from = maxInt(searchStart, prevEnd-chunkOverlap)
		}
		if from < 0 {
			from = 0
		}
		if from > len(runes) {
			from = len(runes)
		}

		idx := indexOfRunes(runes, contentRunes, from)
		if idx == -1 {
			prefixLen := 50
			if prefixLen > len(contentRunes) {
				prefixLen = len(contentRunes)
			}
			idx = indexOfRunes(runes, contentRunes[:prefixLen], from)
		}

		var start, end int
		if idx == -1 {
			start = from
			end = start + len(contentRunes)
			if end > len(runes) {
				end = len(runes)
			}
		} else {
			start = idx
			end = idx + len(contentRunes)
		}

		chunks[i].StartChar = start
		chunks[i].EndChar = end
		searchStart = start + 1
		prevEnd = end
	}
}

func indexOfRunes(haystack, needle []rune, from int) int {
	if len(needle) == 0 || from >= len(haystack) {
		return -1
	}
	hs := string(haystack[from:])
	pos := strings.Index(hs, string(needle))
	if pos == -1 {
		return -1
	}
	return from + utf8.RuneCountInString(hs[:pos])
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func hasChinese(s string) bool {
	for _, r := range s {
		if r >= 0x4E00 && r <= 0x9FFF {
			return true
		}
	}
	return false
}

// ToModelChunks converts splitter output into persistence-layer Chunk
// rows for a given contract, defaulting ChunkType to paragraph; the
// merger/caller may reclassify table/list/title chunks upstream.
func ToModelChunks(contractID int64, chunks []Chunk) []model.Chunk {
	out := make([]model.Chunk, len(chunks))
	for i, c := range chunks {
		out[i] = model.Chunk{
			ContractID:  contractID,
			ChunkIndex:  c.ChunkIndex,
			ContentText: c.ContentText,
			ChunkType:   model.ChunkParagraph,
			ChunkSize:   c.ChunkSize,
			StartChar:   c.StartChar,
			EndChar:     c.EndChar,
			HasChinese:  c.HasChinese,
			Keywords:    c.Keywords,
		}
	}
	return out
}
