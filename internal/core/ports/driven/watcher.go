package driven

import "context"

// FileEvent reports a file that appeared or changed in a watched directory.
type FileEvent struct {
	// Path is the absolute file path.
	Path string

	// Removed is true when the file was deleted or renamed away.
	Removed bool
}

// FileWatcher reports files appearing in a directory.
type FileWatcher interface {
	// Watch starts watching dir. Events are delivered until ctx is done
	// or Close is called, after which the channel is closed.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Close stops watching.
	Close() error
}
