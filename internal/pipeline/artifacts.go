package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"contractarchive/internal/errs"
)

// writeContentArtifacts persists the merged HTML and extracted plain
// text for one contract under {UPLOAD_DIR}/processed, named
// {stem}_content.html / {stem}_content.txt per spec.md §4.10 (the stem
// is disambiguated with the contract id to avoid collisions between
// uploads that share an original filename).
func writeContentArtifacts(uploadDir string, contractID int64, originalFilename, html, text string) (htmlPath, textPath string, err error) {
	dir := filepath.Join(uploadDir, "processed")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", errs.Wrap(errs.IO, "create processed content dir", err)
	}

	ext := filepath.Ext(originalFilename)
	stem := strings.TrimSuffix(filepath.Base(originalFilename), ext)
	if stem == "" {
		stem = "document"
	}
	stem = fmt.Sprintf("%s_%d", stem, contractID)

	htmlPath = filepath.Join(dir, stem+"_content.html")
	textPath = filepath.Join(dir, stem+"_content.txt")

	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		return "", "", errs.Wrap(errs.IO, "write html content", err)
	}
	if err := os.WriteFile(textPath, []byte(text), 0o644); err != nil {
		return "", "", errs.Wrap(errs.IO, "write text content", err)
	}
	return htmlPath, textPath, nil
}

func readContentArtifact(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errs.Wrap(errs.IO, "read content artifact", err)
	}
	return string(data), nil
}
