// Package tui provides an interactive terminal chat for cortex.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
type Ports struct {
	// Chat is the conversation the TUI drives.
	Chat driving.ChatSession

	// Actions provides clipboard actions on transcript messages.
	Actions driving.MessageActionService

	// Settings manages application settings.
	Settings driving.SettingsService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	chat driving.ChatSession,
	actions driving.MessageActionService,
	settings driving.SettingsService,
) *Ports {
	return &Ports{
		Chat:     chat,
		Actions:  actions,
		Settings: settings,
	}
}

// Validate ensures all required ports are set.
// Actions and Settings are optional.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Chat == nil {
		return ErrMissingChatSession
	}
	return nil
}
