package driven

import (
	"context"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
)

// Viewer displays document content. Rendering is entirely the viewer's
// concern; the session only decides what to show.
type Viewer interface {
	// Show moves the viewer to the target page of the given content.
	Show(ctx context.Context, target domain.NavigationTarget, content domain.ContentHandle) error
}
