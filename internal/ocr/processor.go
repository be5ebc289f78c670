package ocr

import (
	"context"
	"os"
	"sort"
	"sync"

	"contractarchive/internal/errs"
)

// Recognizer is the subset of adapters.VisionOCR this package depends
// on, kept narrow so tests can stub it.
type Recognizer interface {
	Recognize(ctx context.Context, imageBytes []byte, pageNum, totalPages int) (string, error)
}

// PageOutcome is one page's OCR result, successful or not.
type PageOutcome struct {
	PageNum int
	HTML    string
	Err     error
}

// Pool runs page OCR across a bounded number of concurrent workers,
// grounded on go-enhanced-rag-service/cuda_worker.go's
// sync.WaitGroup-plus-semaphore fan-out, re-pointed at page images
// instead of vectors.
type Pool struct {
	recognizer Recognizer
	size       int
}

// NewPool builds a Pool with the given worker count. A non-positive
// size defaults to 5, per spec.md §4.2's default OCR concurrency.
func NewPool(recognizer Recognizer, size int) *Pool {
	if size <= 0 {
		size = 5
	}
	return &Pool{recognizer: recognizer, size: size}
}

// ProcessPages OCRs every image in imagePaths concurrently, bounded by
// the pool's worker count, and returns outcomes ordered by page number
// (1-indexed by position in imagePaths).
func (p *Pool) ProcessPages(ctx context.Context, imagePaths []string) []PageOutcome {
	total := len(imagePaths)
	outcomes := make([]PageOutcome, total)

	var wg sync.WaitGroup
	sem := make(chan struct{}, p.size)

	for i, path := range imagePaths {
		wg.Add(1)
		go func(index int, imagePath string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			pageNum := index + 1
			outcomes[index] = processOne(ctx, p.recognizer, imagePath, pageNum, total)
		}(i, path)
	}
	wg.Wait()

	sort.Slice(outcomes, func(a, b int) bool { return outcomes[a].PageNum < outcomes[b].PageNum })
	return outcomes
}

func processOne(ctx context.Context, recognizer Recognizer, imagePath string, pageNum, total int) PageOutcome {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return PageOutcome{PageNum: pageNum, Err: errs.Wrap(errs.IO, "read page image", err)}
	}

	raw, err := recognizer.Recognize(ctx, data, pageNum, total)
	if err != nil {
		return PageOutcome{PageNum: pageNum, Err: err}
	}
	return PageOutcome{PageNum: pageNum, HTML: raw}
}

// Succeeded splits outcomes into PageResults ready for Merge plus the
// page numbers that failed.
func Succeeded(outcomes []PageOutcome) (results []PageResult, failedPages []int) {
	for _, o := range outcomes {
		if o.Err != nil {
			failedPages = append(failedPages, o.PageNum)
			continue
		}
		results = append(results, PageResult{PageNum: o.PageNum, HTML: o.HTML, Success: true})
	}
	return results, failedPages
}
