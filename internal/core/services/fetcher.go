package services

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driving"
	"github.com/custodia-labs/cortex-cli/internal/logger"
)

// Ensure Fetcher implements the interface.
var _ driving.DocumentFetcher = (*Fetcher)(nil)

// DefaultFetchTimeout bounds one document download.
const DefaultFetchTimeout = 2 * time.Minute

// Fetcher downloads document bytes on demand. Concurrent requests for the
// same document share one download, and the result is recorded in the
// catalog so later requests do not touch the network.
type Fetcher struct {
	papers  driven.PaperClient
	blobs   driven.BlobStore
	catalog driving.DocumentCatalog
	timeout time.Duration
	group   singleflight.Group
}

// NewFetcher creates a fetcher. A zero timeout uses DefaultFetchTimeout.
func NewFetcher(
	papers driven.PaperClient,
	blobs driven.BlobStore,
	catalog driving.DocumentCatalog,
	timeout time.Duration,
) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Fetcher{
		papers:  papers,
		blobs:   blobs,
		catalog: catalog,
		timeout: timeout,
	}
}

// ResolveContent returns the entry's content, downloading it if needed.
// Local entries are never fetched. A caller whose ctx ends stops waiting,
// but a shared download continues for the other callers.
func (f *Fetcher) ResolveContent(
	ctx context.Context,
	entry domain.DocumentEntry,
	token string,
) (domain.ContentHandle, error) {
	if entry.HasContent() {
		return *entry.Content, nil
	}
	if f.catalog != nil {
		if cur, ok := f.catalog.Lookup(entry.ID); ok && cur.HasContent() {
			return *cur.Content, nil
		}
	}
	if entry.Local || domain.IsLocalID(entry.ID) {
		return domain.ContentHandle{}, &domain.FetchError{Kind: domain.FetchNotFound, DocumentID: entry.ID}
	}
	if f.papers == nil || f.blobs == nil {
		return domain.ContentHandle{}, &domain.FetchError{
			Kind: domain.FetchNetwork, DocumentID: entry.ID, Err: domain.ErrNotImplemented,
		}
	}
	if token == "" {
		return domain.ContentHandle{}, &domain.FetchError{
			Kind: domain.FetchUnauthorized, DocumentID: entry.ID, Err: domain.ErrAuthRequired,
		}
	}

	shared := context.WithoutCancel(ctx)
	ch := f.group.DoChan(entry.ID, func() (any, error) {
		return f.download(shared, entry.ID, token)
	})

	select {
	case <-ctx.Done():
		return domain.ContentHandle{}, &domain.FetchError{Kind: domain.FetchNetwork, DocumentID: entry.ID, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return domain.ContentHandle{}, res.Err
		}
		if res.Shared {
			logger.Debug("fetch %s: joined in-flight download", entry.ID)
		}
		return res.Val.(domain.ContentHandle), nil
	}
}

func (f *Fetcher) download(ctx context.Context, id, token string) (domain.ContentHandle, error) {
	if h, ok := f.blobs.Get(id); ok {
		h.Kind = domain.ContentFetched
		return f.attach(id, h), nil
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	body, mediaType, err := f.papers.DownloadPaper(ctx, token, id)
	if err != nil {
		return domain.ContentHandle{}, fetchError(id, err)
	}
	defer body.Close()

	h, err := f.blobs.Put(ctx, id, mediaType, body)
	if err != nil {
		return domain.ContentHandle{}, fetchError(id, err)
	}
	h.Kind = domain.ContentFetched
	logger.Debug("fetched %s: %d bytes in %s", id, h.Size, time.Since(start).Round(time.Millisecond))
	return f.attach(id, h), nil
}

// attach records the handle in the catalog. An entry removed by a
// concurrent sync still gets the downloaded handle back.
func (f *Fetcher) attach(id string, h domain.ContentHandle) domain.ContentHandle {
	if f.catalog == nil {
		return h
	}
	stored, err := f.catalog.AttachContent(id, h)
	if err != nil {
		logger.Debug("fetch %s: %v", id, err)
		return h
	}
	return stored
}

func fetchError(id string, err error) error {
	kind := domain.FetchNetwork
	switch driven.BackendKind(err) {
	case driven.BackendUnauthorized:
		kind = domain.FetchUnauthorized
	case driven.BackendNotFound:
		kind = domain.FetchNotFound
	}
	return &domain.FetchError{Kind: kind, DocumentID: id, Err: err}
}
