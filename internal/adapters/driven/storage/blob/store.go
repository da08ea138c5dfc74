// Package blob caches document bytes on the local filesystem.
//
// Each key maps to one file under the cache directory, named after the key
// and the extension of its media type. Files are written to a temporary
// name first and renamed into place, so a reader never sees a partial
// document. The cache survives restarts: a document fetched once is not
// downloaded again by a later run.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/cortex-cli/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.BlobStore = (*Store)(nil)

const (
	pdfMediaType     = "application/pdf"
	defaultMediaType = "application/octet-stream"
)

// Store is a filesystem-backed driven.BlobStore.
type Store struct {
	dir string
}

// NewStore creates a blob store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("blob store: no directory: %w", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}

// Put streams r into the cache under key, replacing any previous file.
func (s *Store) Put(ctx context.Context, key, mediaType string, r io.Reader) (domain.ContentHandle, error) {
	name, err := fileName(key)
	if err != nil {
		return domain.ContentHandle{}, err
	}
	mediaType = normaliseMediaType(mediaType)

	tmp, err := os.CreateTemp(s.dir, ".put-*")
	if err != nil {
		return domain.ContentHandle{}, fmt.Errorf("cache %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, contextReader{ctx: ctx, r: r})
	if err != nil {
		tmp.Close()
		return domain.ContentHandle{}, fmt.Errorf("cache %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return domain.ContentHandle{}, fmt.Errorf("cache %s: %w", key, err)
	}

	// Drop older copies stored under a different extension.
	s.remove(name)

	path := filepath.Join(s.dir, name+extension(mediaType))
	if err := os.Rename(tmp.Name(), path); err != nil {
		return domain.ContentHandle{}, fmt.Errorf("cache %s: %w", key, err)
	}
	return s.handle(path, mediaType, size), nil
}

// Get returns the handle of a cached key.
func (s *Store) Get(key string) (domain.ContentHandle, bool) {
	name, err := fileName(key)
	if err != nil {
		return domain.ContentHandle{}, false
	}
	path, ok := s.find(name)
	if !ok {
		return domain.ContentHandle{}, false
	}
	info, err := os.Stat(path)
	if err != nil {
		return domain.ContentHandle{}, false
	}
	mediaType := mime.TypeByExtension(filepath.Ext(path))
	return s.handle(path, normaliseMediaType(mediaType), info.Size()), true
}

// Delete removes a cached key.
func (s *Store) Delete(key string) error {
	name, err := fileName(key)
	if err != nil {
		return err
	}
	return s.remove(name)
}

func (s *Store) handle(path, mediaType string, size int64) domain.ContentHandle {
	h := domain.ContentHandle{
		URI:       (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String(),
		Path:      path,
		MediaType: mediaType,
		Size:      size,
	}
	if mediaType == pdfMediaType {
		h.Pages = PageCount(path)
	}
	return h
}

func (s *Store) find(name string) (string, bool) {
	matches, err := filepath.Glob(filepath.Join(s.dir, name+".*"))
	if err != nil {
		return "", false
	}
	for _, m := range matches {
		// Skip keys that merely share a prefix, such as "doc.v2" for "doc".
		if strings.Contains(strings.TrimPrefix(filepath.Base(m), name+"."), ".") {
			continue
		}
		return m, true
	}
	return "", false
}

func (s *Store) remove(name string) error {
	var errs []error
	for {
		path, ok := s.find(name)
		if !ok {
			break
		}
		if err := os.Remove(path); err != nil {
			errs = append(errs, err)
			break
		}
	}
	return errors.Join(errs...)
}

// PageCount returns the number of pages of the PDF at path, or zero when
// the file cannot be parsed.
func PageCount(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	return pageCount(data)
}

func pageCount(data []byte) (n int) {
	defer func() {
		// The PDF reader panics on some malformed cross-reference tables.
		if r := recover(); r != nil {
			logger.Debug("count pages: %v", r)
			n = 0
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0
	}
	return r.NumPage()
}

// fileName turns a key into a safe file name. Keys are document ids, so
// anything outside a conservative set is escaped.
func fileName(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("blob key: %w", domain.ErrInvalidInput)
	}
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			fmt.Fprintf(&b, "%%%02X", r)
		}
	}
	return b.String(), nil
}

func normaliseMediaType(mediaType string) string {
	if mediaType == "" {
		return defaultMediaType
	}
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return defaultMediaType
	}
	return mt
}

func extension(mediaType string) string {
	switch mediaType {
	case pdfMediaType:
		return ".pdf"
	case defaultMediaType:
		return ".bin"
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
