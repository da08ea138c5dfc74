package cli

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/sahilm/fuzzy"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/logger"
)

// prepareSession refreshes the catalog and, when restore is set, loads the
// saved transcript. Both run concurrently. A failed sync is only logged so
// that commands keep working offline.
func prepareSession(ctx context.Context, restore bool) error {
	if chatSession == nil {
		return errors.New("chat session not configured")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if _, err := chatSession.SyncDocuments(gctx); err != nil {
			logger.Warn("document sync failed: %v", err)
		}
		return nil
	})
	if restore {
		g.Go(func() error {
			return chatSession.Restore(gctx)
		})
	}
	return g.Wait()
}

// documentIndex is a DocumentLookup over a catalog snapshot.
type documentIndex []domain.DocumentEntry

func (d documentIndex) Lookup(id string) (domain.DocumentEntry, bool) {
	for _, e := range d {
		if e.ID == id {
			return e, true
		}
	}
	return domain.DocumentEntry{}, false
}

// find resolves a document by id, exact name, or best fuzzy name match.
func (d documentIndex) find(query string) (domain.DocumentEntry, error) {
	query = strings.TrimSpace(query)
	if e, ok := d.Lookup(query); ok {
		return e, nil
	}
	for _, e := range d {
		if strings.EqualFold(e.DisplayName, query) {
			return e, nil
		}
	}
	if matches := d.match(query); len(matches) > 0 {
		return matches[0], nil
	}
	return domain.DocumentEntry{}, fmt.Errorf("document %q: %w", query, domain.ErrNotFound)
}

// match returns the entries whose names fuzzily match pattern, best first.
// An empty pattern matches everything in catalog order.
func (d documentIndex) match(pattern string) []domain.DocumentEntry {
	if pattern == "" {
		return d
	}
	names := make([]string, len(d))
	for i, e := range d {
		names[i] = e.DisplayName
	}
	found := fuzzy.Find(pattern, names)
	out := make([]domain.DocumentEntry, 0, len(found))
	for _, m := range found {
		out = append(out, d[m.Index])
	}
	return out
}

// attachmentsFrom builds attachments for the given file paths.
func attachmentsFrom(paths []string) ([]domain.Attachment, error) {
	out := make([]domain.Attachment, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		mediaType := mime.TypeByExtension(strings.ToLower(filepath.Ext(abs)))
		if mediaType == "" {
			mediaType = "application/octet-stream"
		}
		out = append(out, domain.Attachment{
			Name:      filepath.Base(abs),
			MediaType: mediaType,
			Path:      abs,
		})
	}
	return out, nil
}
