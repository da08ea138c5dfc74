package memory

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driven"
)

// Ensure BlobStore implements the interface.
var _ driven.BlobStore = (*BlobStore)(nil)

type blob struct {
	data      []byte
	mediaType string
}

// BlobStore keeps document bytes in memory.
type BlobStore struct {
	mu    sync.RWMutex
	blobs map[string]blob
}

// NewBlobStore creates a new in-memory blob store.
func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[string]blob)}
}

// Put stores the bytes read from r under key.
func (s *BlobStore) Put(ctx context.Context, key, mediaType string, r io.Reader) (domain.ContentHandle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.ContentHandle{}, fmt.Errorf("read %s: %w", key, err)
	}
	if err := ctx.Err(); err != nil {
		return domain.ContentHandle{}, err
	}

	s.mu.Lock()
	s.blobs[key] = blob{data: data, mediaType: mediaType}
	s.mu.Unlock()

	return s.handle(key, mediaType, len(data)), nil
}

// Get returns the handle for a stored key.
func (s *BlobStore) Get(key string) (domain.ContentHandle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[key]
	if !ok {
		return domain.ContentHandle{}, false
	}
	return s.handle(key, b.mediaType, len(b.data)), true
}

// Bytes returns a copy of the stored bytes.
func (s *BlobStore) Bytes(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b.data...), true
}

// Delete removes a stored key.
func (s *BlobStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

func (s *BlobStore) handle(key, mediaType string, size int) domain.ContentHandle {
	return domain.ContentHandle{
		URI:       "mem://" + key,
		MediaType: mediaType,
		Size:      int64(size),
	}
}
