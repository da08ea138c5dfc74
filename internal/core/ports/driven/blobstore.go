package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
)

// BlobStore caches document bytes on the local device.
type BlobStore interface {
	// Put stores the bytes read from r under key and returns a handle.
	// The handle Kind is left for the caller to set.
	Put(ctx context.Context, key, mediaType string, r io.Reader) (domain.ContentHandle, error)

	// Get returns the handle for a previously stored key.
	Get(key string) (domain.ContentHandle, bool)

	// Delete removes a stored key. Missing keys are not an error.
	Delete(key string) error
}
