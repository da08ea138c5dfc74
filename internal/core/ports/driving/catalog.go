package driving

import (
	"context"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
)

// DocumentLookup is the read-only view of the catalog used for citation resolution.
type DocumentLookup interface {
	// Lookup returns the entry with the given id.
	Lookup(id string) (domain.DocumentEntry, bool)
}

// DocumentCatalog is the client-side list of documents the user can view.
type DocumentCatalog interface {
	DocumentLookup

	// Sync replaces backend-derived entries with the backend's list.
	// Local entries survive; content handles of surviving ids are kept.
	Sync(ctx context.Context, token string) ([]domain.DocumentEntry, error)

	// AddLocal registers a document supplied on this device under a fresh temporary id.
	AddLocal(entry domain.DocumentEntry) domain.DocumentEntry

	// Promote renames a temporary entry to its backend id.
	Promote(tempID, backendID string) error

	// AttachContent records the content handle of an entry. The first handle wins.
	AttachContent(id string, content domain.ContentHandle) (domain.ContentHandle, error)

	// Entries returns a snapshot in display order.
	Entries() []domain.DocumentEntry
}
