// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/cortex-cli/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewChat is the conversation view.
	ViewChat
	// ViewPapers lists the document catalog.
	ViewPapers
	// ViewPage shows the text of the current navigation target.
	ViewPage
	// ViewSettings is the settings editor.
	ViewSettings
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewChat:
		return "chat"
	case ViewPapers:
		return "papers"
	case ViewPage:
		return "page"
	case ViewSettings:
		return "settings"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// TranscriptChanged is sent whenever the session transcript changes,
// including every streamed snapshot.
type TranscriptChanged struct{}

// NavigationRecorded carries a navigation outcome. Requested is set when
// the user asked for it from the TUI rather than an answer finishing.
type NavigationRecorded struct {
	Navigation domain.Navigation
	Requested  bool
}

// TurnFinished signals an assistant message reached a terminal status.
type TurnFinished struct {
	AssistantID string
	Err         error
}

// DocumentsLoaded carries the catalog after a sync.
type DocumentsLoaded struct {
	Documents []domain.DocumentEntry
	Err       error
}

// UploadFinished signals a local document upload completed.
type UploadFinished struct {
	Path  string
	Entry domain.DocumentEntry
	Err   error
}

// PageTextLoaded carries the extracted text of a page.
type PageTextLoaded struct {
	Target domain.NavigationTarget
	Name   string
	Pages  int
	Text   string
	Err    error
}

// MessageCopied signals a clipboard copy finished.
type MessageCopied struct {
	MessageID string
	Err       error
}

// Setting is one editable key and its current value.
type Setting struct {
	Key   string
	Value string
}

// SettingsLoaded carries the application settings.
type SettingsLoaded struct {
	Settings []Setting
	Err      error
}

// SettingSaved signals a setting was saved.
type SettingSaved struct {
	Key string
	Err error
}
