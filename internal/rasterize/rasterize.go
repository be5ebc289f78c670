// Package rasterize turns a PDF's pages into PNG images for the vision
// OCR pipeline, grounded on other_examples/firdasafridi-pdf-chunk-extractor's
// go-fitz usage (fitz.New, doc.NumPage, doc.Image) and re-pointed at
// original_source/.../ocr_service.py's temp_dir/page_{n}_{time}.png layout.
package rasterize

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"

	"contractarchive/internal/errs"
)

// Pages is an ordered set of page image paths rendered from one PDF,
// rooted at Dir. Cleanup removes Dir and everything under it.
type Pages struct {
	Dir   string
	Paths []string
}

// Cleanup removes the per-document temp directory. Safe to call more
// than once.
func (p Pages) Cleanup() error {
	if p.Dir == "" {
		return nil
	}
	return os.RemoveAll(p.Dir)
}

// Rasterize opens pdfPath via go-fitz, renders every page to a PNG
// under a fresh subdirectory of tempRoot, and returns their paths in
// page order. The caller owns the returned Pages and must call
// Cleanup when done with them.
func Rasterize(tempRoot string, contractID int64, pdfPath string, now int64) (Pages, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return Pages{}, errs.Wrap(errs.IO, "open PDF", err)
	}
	defer doc.Close()

	dir := filepath.Join(tempRoot, fmt.Sprintf("%d-%d", now, contractID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Pages{}, errs.Wrap(errs.IO, "create temp directory", err)
	}

	numPages := doc.NumPage()
	paths := make([]string, 0, numPages)
	for i := 0; i < numPages; i++ {
		img, err := doc.Image(i)
		if err != nil {
			_ = os.RemoveAll(dir)
			return Pages{}, errs.Wrap(errs.IO, fmt.Sprintf("render page %d", i+1), err)
		}

		pagePath := filepath.Join(dir, fmt.Sprintf("page_%d.png", i+1))
		f, err := os.Create(pagePath)
		if err != nil {
			_ = os.RemoveAll(dir)
			return Pages{}, errs.Wrap(errs.IO, "create page image file", err)
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			_ = os.RemoveAll(dir)
			return Pages{}, errs.Wrap(errs.IO, "encode page image", err)
		}
		if err := f.Close(); err != nil {
			_ = os.RemoveAll(dir)
			return Pages{}, errs.Wrap(errs.IO, "close page image file", err)
		}
		paths = append(paths, pagePath)
	}

	return Pages{Dir: dir, Paths: paths}, nil
}
