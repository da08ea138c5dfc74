package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driving"
	"github.com/custodia-labs/cortex-cli/internal/logger"
)

// Ensure Catalog implements the interfaces.
var (
	_ driving.DocumentCatalog = (*Catalog)(nil)
	_ NameLookup              = (*Catalog)(nil)
)

// catalogEntry tracks when an entry was last added or renamed so a sync
// that started earlier does not drop it.
type catalogEntry struct {
	domain.DocumentEntry
	version uint64
}

// Catalog is the client-side document list. Backend entries are replaced
// on each sync; local entries live until promoted.
type Catalog struct {
	papers driven.PaperClient

	mu      sync.RWMutex
	entries []catalogEntry
	version uint64
}

// NewCatalog creates an empty catalog backed by the given paper client.
func NewCatalog(papers driven.PaperClient) *Catalog {
	return &Catalog{papers: papers}
}

// Sync fetches the backend list and merges it. On failure the catalog is unchanged.
func (c *Catalog) Sync(ctx context.Context, token string) ([]domain.DocumentEntry, error) {
	if c.papers == nil {
		return nil, &domain.CatalogSyncError{Err: domain.ErrNotImplemented}
	}
	if token == "" {
		return nil, &domain.CatalogSyncError{Unauthorized: true, Err: domain.ErrAuthRequired}
	}

	c.mu.RLock()
	started := c.version
	c.mu.RUnlock()

	remote, err := c.papers.ListPapers(ctx, token)
	if err != nil {
		return nil, &domain.CatalogSyncError{
			Unauthorized: driven.BackendKind(err) == driven.BackendUnauthorized,
			Err:          err,
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	current := make(map[string]catalogEntry, len(c.entries))
	for _, e := range c.entries {
		current[e.ID] = e
	}

	merged := make([]catalogEntry, 0, len(remote)+len(c.entries))
	seen := make(map[string]bool, len(remote))
	for _, r := range remote {
		if r.ID == "" || seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		e := catalogEntry{DocumentEntry: domain.DocumentEntry{
			ID:          r.ID,
			DisplayName: r.Filename,
			UploadedAt:  r.UploadedAt,
		}}
		if prev, ok := current[r.ID]; ok {
			e.Content = prev.Content
			e.version = prev.version
			if e.DisplayName == "" {
				e.DisplayName = prev.DisplayName
			}
		}
		merged = append(merged, e)
	}

	dropped := 0
	for _, e := range c.entries {
		if seen[e.ID] {
			continue
		}
		if e.Local || e.version > started {
			merged = append(merged, e)
			continue
		}
		dropped++
	}

	c.entries = merged
	logger.Debug("catalog sync: %d remote, %d total, %d dropped", len(remote), len(merged), dropped)
	return c.snapshot(), nil
}

// AddLocal registers a document supplied on this device under a fresh temporary id.
func (c *Catalog) AddLocal(entry domain.DocumentEntry) domain.DocumentEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.version++
	entry = entry.Clone()
	entry.ID = domain.LocalIDPrefix + uuid.NewString()
	entry.Local = true
	c.entries = append(c.entries, catalogEntry{DocumentEntry: entry, version: c.version})
	return entry.Clone()
}

// Promote renames a temporary entry to its backend id in place. If the
// backend id is already present because a sync got there first, the two
// entries are folded into one at the temporary entry's position.
func (c *Catalog) Promote(tempID, backendID string) error {
	if backendID == "" {
		return fmt.Errorf("promote %s: empty backend id: %w", tempID, domain.ErrInvalidInput)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(tempID)
	if i < 0 {
		return fmt.Errorf("promote %s: %w", tempID, domain.ErrNotFound)
	}

	c.version++
	e := c.entries[i]
	if j := c.indexOf(backendID); j >= 0 && j != i {
		dup := c.entries[j]
		if !e.HasContent() {
			e.Content = dup.Content
		}
		if e.UploadedAt.IsZero() {
			e.UploadedAt = dup.UploadedAt
		}
		c.entries = append(c.entries[:j], c.entries[j+1:]...)
		if j < i {
			i--
		}
	}
	e.ID = backendID
	e.Local = false
	e.version = c.version
	c.entries[i] = e
	return nil
}

// AttachContent records the content handle of an entry. An entry that
// already has content keeps it and that handle is returned instead.
func (c *Catalog) AttachContent(id string, content domain.ContentHandle) (domain.ContentHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return content, fmt.Errorf("attach content %s: %w", id, domain.ErrNotFound)
	}
	if c.entries[i].HasContent() {
		return *c.entries[i].Content, nil
	}
	h := content
	c.entries[i].Content = &h
	return content, nil
}

// Lookup returns the entry with the given id.
func (c *Catalog) Lookup(id string) (domain.DocumentEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i := c.indexOf(id); i >= 0 {
		return c.entries[i].Clone(), true
	}
	return domain.DocumentEntry{}, false
}

// LookupByName returns the first entry whose display name, without
// directory or extension, matches name case-insensitively.
func (c *Catalog) LookupByName(name string) (domain.DocumentEntry, bool) {
	want := NormaliseDocumentID(name)
	if want == "" {
		return domain.DocumentEntry{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, e := range c.entries {
		if strings.EqualFold(NormaliseDocumentID(e.DisplayName), want) {
			return e.Clone(), true
		}
	}
	return domain.DocumentEntry{}, false
}

// Entries returns a snapshot in display order.
func (c *Catalog) Entries() []domain.DocumentEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot()
}

func (c *Catalog) snapshot() []domain.DocumentEntry {
	out := make([]domain.DocumentEntry, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Clone()
	}
	return out
}

func (c *Catalog) indexOf(id string) int {
	for i := range c.entries {
		if c.entries[i].ID == id {
			return i
		}
	}
	return -1
}
