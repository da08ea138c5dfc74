package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driving"
	"github.com/custodia-labs/cortex-cli/internal/logger"
)

// DefaultSettleDelay is how long a file must stay unchanged before it is uploaded.
const DefaultSettleDelay = 750 * time.Millisecond

// Uploader sends a local file to the backend.
type Uploader interface {
	Upload(ctx context.Context, path string) (domain.DocumentEntry, error)
}

// Ensure WatchService implements the interface.
var _ driving.WatchService = (*WatchService)(nil)

// WatchService uploads PDF files that appear in a directory. Each path is
// uploaded once per run, after writes to it have settled.
type WatchService struct {
	watcher  driven.FileWatcher
	uploader Uploader
	settle   time.Duration
}

// NewWatchService creates a watch service. A zero settle uses DefaultSettleDelay.
func NewWatchService(watcher driven.FileWatcher, uploader Uploader, settle time.Duration) *WatchService {
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	return &WatchService{watcher: watcher, uploader: uploader, settle: settle}
}

// Run watches dir until ctx is done. Each finished upload is passed to
// report, which may be nil.
func (w *WatchService) Run(ctx context.Context, dir string, report func(domain.UploadResult)) error {
	if w.watcher == nil || w.uploader == nil {
		return fmt.Errorf("watch: %w", domain.ErrNotImplemented)
	}
	if dir == "" {
		return fmt.Errorf("watch: no directory: %w", domain.ErrInvalidInput)
	}

	events, err := w.watcher.Watch(ctx, dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	defer w.watcher.Close()
	logger.Info("watching %s for new PDFs", dir)

	pending := make(map[string]time.Time)
	uploaded := make(map[string]bool)

	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Removed {
				delete(pending, ev.Path)
				delete(uploaded, ev.Path)
				continue
			}
			if !uploaded[ev.Path] && isPDFName(ev.Path) {
				pending[ev.Path] = time.Now()
			}

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < w.settle {
					continue
				}
				delete(pending, path)
				uploaded[path] = true

				entry, err := w.uploader.Upload(ctx, path)
				if err != nil {
					logger.Warn("upload %s: %v", path, err)
				}
				if report != nil {
					report(domain.UploadResult{Path: path, Entry: entry, Err: err})
				}
			}
		}
	}
}
