package driving

import (
	"context"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
)

// Turn is a handle on one submitted question and its pending answer.
type Turn interface {
	// UserID is the id of the user message.
	UserID() string

	// AssistantID is the id of the assistant message.
	AssistantID() string

	// Done is closed once the assistant message reaches a terminal status.
	Done() <-chan struct{}

	// Wait blocks until the turn completes or ctx is done and returns the
	// final assistant message. A failed turn returns its SubmissionFailed error.
	Wait(ctx context.Context) (domain.Message, error)
}

// ChatSession owns one conversation: its transcript, document catalog and
// current navigation.
type ChatSession interface {
	// Submit appends a user message and a pending assistant message and
	// starts the backend request. Returns a nil Turn when text and
	// attachments are both empty.
	Submit(ctx context.Context, text string, attachments []domain.Attachment) (Turn, error)

	// Ask submits and waits for the answer.
	Ask(ctx context.Context, text string, attachments []domain.Attachment) (domain.Message, error)

	// Stop aborts the newest in-flight request. Partial content is kept.
	Stop()

	// RetryLast re-submits the most recent request.
	RetryLast(ctx context.Context) (Turn, error)

	// Delete removes a message from the transcript.
	Delete(id string) error

	// CitationClicked navigates to the first citation of an assistant message.
	CitationClicked(ctx context.Context, messageID string) (domain.Navigation, error)

	// Open navigates to a catalog document at a page.
	Open(ctx context.Context, documentID string, page int) (domain.Navigation, error)

	// Upload adds a local PDF to the catalog, shows it and sends it to the backend.
	Upload(ctx context.Context, path string) (domain.DocumentEntry, error)

	// Messages returns a copy of the transcript.
	Messages() []domain.Message

	// Message returns one message by id.
	Message(id string) (domain.Message, bool)

	// Err returns the last submission error, cleared by the next submission.
	Err() error

	// LastNavigation returns the most recent navigation outcome.
	LastNavigation() (domain.Navigation, bool)

	// Documents returns the catalog entries.
	Documents() []domain.DocumentEntry

	// SyncDocuments refreshes the catalog from the backend.
	SyncDocuments(ctx context.Context) ([]domain.DocumentEntry, error)

	// Restore loads the persisted transcript.
	Restore(ctx context.Context) error

	// ClearHistory empties the transcript and its persisted copy.
	ClearHistory(ctx context.Context) error

	// SetAutoNavigate turns automatic navigation of finished answers on or off.
	SetAutoNavigate(on bool)

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error

	// Close cancels in-flight requests and waits for them to finish.
	Close() error
}
