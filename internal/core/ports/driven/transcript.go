package driven

import (
	"context"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
)

// TranscriptStore persists chat messages between runs.
type TranscriptStore interface {
	// SaveMessage inserts or replaces a message.
	SaveMessage(ctx context.Context, msg domain.Message) error

	// DeleteMessage removes a message. Missing ids are not an error.
	DeleteMessage(ctx context.Context, id string) error

	// ListMessages returns all messages in transcript order.
	ListMessages(ctx context.Context) ([]domain.Message, error)

	// Clear removes every message.
	Clear(ctx context.Context) error
}
