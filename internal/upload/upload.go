// Package upload implements the blob-storage layer for uploaded
// contract files, grounded on original_source/.../file_service.py's
// generate_file_path/save_file/delete_file trio: a uuid-named file
// under a YYYY/MM/DD directory, addressed by the relative path alone so
// the database never stores an absolute filesystem path.
package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"contractarchive/internal/errs"
)

// Store saves and serves uploaded contract blobs under a root directory,
// per spec.md's `{UPLOAD_DIR}/YYYY/MM/DD/{uuid}.{ext}` layout.
type Store struct {
	root string
}

// New builds a Store rooted at dir.
func New(dir string) *Store {
	return &Store{root: dir}
}

// Save writes src to a freshly minted path under root and returns the
// path relative to root (the value persisted as stored_blob_path).
func (s *Store) Save(ctx context.Context, originalFilename string, src io.Reader) (relativePath string, size int64, err error) {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	relativePath = filepath.Join(time.Now().Format("2006/01/02"), fmt.Sprintf("%s%s", uuid.New().String(), ext))
	fullPath := filepath.Join(s.root, relativePath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", 0, errs.Wrap(errs.IO, "create upload dir", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", 0, errs.Wrap(errs.IO, "create upload file", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, src)
	if err != nil {
		os.Remove(fullPath)
		return "", 0, errs.Wrap(errs.IO, "write upload file", err)
	}

	return relativePath, written, nil
}

// Open returns a reader over the blob at relativePath. Callers must
// close it.
func (s *Store) Open(ctx context.Context, relativePath string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.root, relativePath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.NotFound, "blob not found", err)
		}
		return nil, errs.Wrap(errs.IO, "open blob", err)
	}
	return f, nil
}

// Delete removes the blob at relativePath. A missing file is not an
// error, matching file_service.py's delete_file tolerance.
func (s *Store) Delete(relativePath string) error {
	if err := os.Remove(filepath.Join(s.root, relativePath)); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.IO, "delete blob", err)
	}
	return nil
}

// AbsolutePath resolves relativePath to a full filesystem path, for
// callers (like the pipeline's rasterizer) that need to open the file
// directly rather than through Open's io.ReadCloser.
func (s *Store) AbsolutePath(relativePath string) string {
	return filepath.Join(s.root, relativePath)
}
