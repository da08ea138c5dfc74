package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driven"
)

type fakeWatcher struct {
	events chan driven.FileEvent
	err    error
	closed bool
}

func (w *fakeWatcher) Watch(_ context.Context, _ string) (<-chan driven.FileEvent, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.events, nil
}

func (w *fakeWatcher) Close() error {
	w.closed = true
	return nil
}

type fakeUploader struct {
	mu    sync.Mutex
	paths []string
}

func (u *fakeUploader) Upload(_ context.Context, path string) (domain.DocumentEntry, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.paths = append(u.paths, path)
	return domain.DocumentEntry{ID: "srv-" + path}, nil
}

func (u *fakeUploader) uploads() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.paths...)
}

func TestWatchService_UploadsSettledPDFsOnce(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	watcher := &fakeWatcher{events: make(chan driven.FileEvent)}
	uploader := &fakeUploader{}
	svc := NewWatchService(watcher, uploader, 20*time.Millisecond)

	results := make(chan domain.UploadResult, 4)
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx, "/papers", func(r domain.UploadResult) { results <- r }) }()

	// A burst of writes to one file and an unrelated text file.
	watcher.events <- driven.FileEvent{Path: "/papers/a.pdf"}
	watcher.events <- driven.FileEvent{Path: "/papers/a.pdf"}
	watcher.events <- driven.FileEvent{Path: "/papers/notes.txt"}

	select {
	case r := <-results:
		assert.Equal(t, "/papers/a.pdf", r.Path)
		assert.Equal(t, "srv-/papers/a.pdf", r.Entry.ID)
		require.NoError(t, r.Err)
	case <-time.After(2 * time.Second):
		t.Fatal("no upload reported")
	}

	// Later writes to an uploaded file are ignored.
	watcher.events <- driven.FileEvent{Path: "/papers/a.pdf"}
	time.Sleep(60 * time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, []string{"/papers/a.pdf"}, uploader.uploads())
	assert.True(t, watcher.closed)
}

func TestWatchService_RemovedBeforeSettling(t *testing.T) {
	watcher := &fakeWatcher{events: make(chan driven.FileEvent)}
	uploader := &fakeUploader{}
	svc := NewWatchService(watcher, uploader, 50*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- svc.Run(t.Context(), "/papers", nil) }()

	watcher.events <- driven.FileEvent{Path: "/papers/tmp.pdf"}
	watcher.events <- driven.FileEvent{Path: "/papers/tmp.pdf", Removed: true}
	time.Sleep(120 * time.Millisecond)
	close(watcher.events)

	require.NoError(t, <-done)
	assert.Empty(t, uploader.uploads())
}

func TestWatchService_Errors(t *testing.T) {
	uploader := &fakeUploader{}

	err := NewWatchService(nil, uploader, 0).Run(t.Context(), "/papers", nil)
	assert.ErrorIs(t, err, domain.ErrNotImplemented)

	err = NewWatchService(&fakeWatcher{}, uploader, 0).Run(t.Context(), "", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = NewWatchService(&fakeWatcher{err: domain.ErrNotFound}, uploader, 0).Run(t.Context(), "/missing", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
