package chat

import "errors"

// Error definitions for the chat view.
var (
	// ErrNoChatSession indicates that no chat session was provided.
	ErrNoChatSession = errors.New("chat session is required")

	// ErrNoActionService indicates that copy is not available.
	ErrNoActionService = errors.New("copy not available")

	// ErrMissingPath indicates an /upload or /attach without a file.
	ErrMissingPath = errors.New("a file path is required")
)
