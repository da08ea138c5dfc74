// Package mcp provides an MCP (Model Context Protocol) server adapter for Cortex.
// It lets AI assistants ask questions of the paper library and follow citations.
package mcp

import "errors"

// ErrMissingChatSession is returned when the chat session is not provided.
var ErrMissingChatSession = errors.New("mcp: chat session is required")
