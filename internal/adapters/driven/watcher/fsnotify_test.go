package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cortex-cli/internal/core/ports/driven"
)

func nextEvent(t *testing.T, events <-chan driven.FileEvent) driven.FileEvent {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for event")
		return driven.FileEvent{}
	}
}

func TestNewFSNotifyWatcher(t *testing.T) {
	w, err := NewFSNotifyWatcher(".PDF")
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, []string{".pdf"}, w.extensions)
	assert.True(t, w.watched("/x/Paper.Pdf"))
	assert.False(t, w.watched("/x/notes.txt"))
}

func TestWatch_ReportsCreate(t *testing.T) {
	dir := t.TempDir()
	w, err := NewFSNotifyWatcher(".pdf")
	require.NoError(t, err)
	defer w.Close()

	events, err := w.Watch(t.Context(), dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "paper.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))

	ev := nextEvent(t, events)
	assert.Equal(t, path, ev.Path)
	assert.False(t, ev.Removed)
}

func TestWatch_ReportsRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paper.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))

	w, err := NewFSNotifyWatcher(".pdf")
	require.NoError(t, err)
	defer w.Close()
	events, err := w.Watch(t.Context(), dir)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))

	ev := nextEvent(t, events)
	assert.Equal(t, path, ev.Path)
	assert.True(t, ev.Removed)
}

func TestWatch_FiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	w, err := NewFSNotifyWatcher(".pdf")
	require.NoError(t, err)
	defer w.Close()

	events, err := w.Watch(t.Context(), dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o600))

	select {
	case ev := <-events:
		t.Errorf("unexpected event %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatch_ClosesOnCancel(t *testing.T) {
	w, err := NewFSNotifyWatcher()
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(t.Context())
	events, err := w.Watch(ctx, t.TempDir())
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(3 * time.Second):
		t.Fatal("channel not closed")
	}
}

func TestWatch_MissingDir(t *testing.T) {
	w, err := NewFSNotifyWatcher()
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Watch(t.Context(), filepath.Join(t.TempDir(), "missing"))

	assert.Error(t, err)
}

func TestClose_Idempotent(t *testing.T) {
	w, err := NewFSNotifyWatcher()
	require.NoError(t, err)

	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
