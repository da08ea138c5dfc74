// Package watcher reports files appearing in an upload folder.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/cortex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/cortex-cli/internal/logger"
)

// Ensure FSNotifyWatcher implements the interface.
var _ driven.FileWatcher = (*FSNotifyWatcher)(nil)

// FSNotifyWatcher implements driven.FileWatcher using fsnotify.
// Only the top level of the directory is watched.
type FSNotifyWatcher struct {
	watcher    *fsnotify.Watcher
	extensions []string
	closeOnce  sync.Once
}

// NewFSNotifyWatcher creates a watcher for the given extensions. No
// extensions means every file is reported.
func NewFSNotifyWatcher(extensions ...string) (*FSNotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	for i, ext := range extensions {
		extensions[i] = strings.ToLower(ext)
	}
	return &FSNotifyWatcher{watcher: w, extensions: extensions}, nil
}

// Watch starts monitoring dir. The returned channel is closed when ctx is
// done or the watcher is closed.
func (w *FSNotifyWatcher) Watch(ctx context.Context, dir string) (<-chan driven.FileEvent, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := w.watcher.Add(abs); err != nil {
		return nil, fmt.Errorf("watch %s: %w", abs, err)
	}

	events := make(chan driven.FileEvent, 64)

	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.watched(event.Name) {
					continue
				}

				var fe driven.FileEvent
				switch {
				case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
					fe = driven.FileEvent{Path: event.Name}
				case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
					fe = driven.FileEvent{Path: event.Name, Removed: true}
				default:
					continue
				}

				select {
				case events <- fe:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("watch %s: %v", abs, err)
			}
		}
	}()

	return events, nil
}

// Close stops the watcher. It is safe to call more than once.
func (w *FSNotifyWatcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.watcher.Close()
	})
	return err
}

func (w *FSNotifyWatcher) watched(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
