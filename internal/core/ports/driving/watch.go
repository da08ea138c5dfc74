package driving

import (
	"context"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
)

// WatchService uploads PDFs that appear in a directory.
type WatchService interface {
	// Run watches dir until ctx is done. report receives each finished
	// upload and may be nil.
	Run(ctx context.Context, dir string, report func(domain.UploadResult)) error
}
