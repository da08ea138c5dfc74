package driving

import (
	"context"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
)

// DocumentFetcher obtains document bytes on demand.
type DocumentFetcher interface {
	// ResolveContent returns the entry's content, downloading it at most once.
	ResolveContent(ctx context.Context, entry domain.DocumentEntry, token string) (domain.ContentHandle, error)
}
