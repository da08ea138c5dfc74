package mcp

import (
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the MCP server.
type Ports struct {
	// Chat answers questions and navigates citations.
	Chat driving.ChatSession
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatSession
	}
	return nil
}
