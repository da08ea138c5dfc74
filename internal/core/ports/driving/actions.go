package driving

import (
	"context"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
)

// MessageActionService provides actions on transcript messages for external actors.
// This is used by the TUI and CLI adapters.
type MessageActionService interface {
	// CopyToClipboard copies the message text and its citations to the system clipboard.
	CopyToClipboard(ctx context.Context, msg domain.Message) error
}
