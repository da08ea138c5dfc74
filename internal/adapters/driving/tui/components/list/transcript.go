// Package list provides list display components for the TUI.
package list

import (
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/render"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/cortex-cli/internal/core/domain"
)

// Library is a catalog snapshot used to name cited documents.
type Library []domain.DocumentEntry

// Lookup returns the entry with the given id.
func (l Library) Lookup(id string) (domain.DocumentEntry, bool) {
	for _, e := range l {
		if e.ID == id {
			return e, true
		}
	}
	return domain.DocumentEntry{}, false
}

// Transcript displays the conversation as a scrollable list of messages.
// With no selection the view follows the newest message.
type Transcript struct {
	messages []domain.Message
	library  Library
	markdown *render.Markdown
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewTranscript creates a transcript component. md may be nil, in which
// case answers are shown as plain text.
func NewTranscript(s *styles.Styles, md *render.Markdown) *Transcript {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &Transcript{
		markdown: md,
		selected: -1,
		styles:   s,
		width:    80,
		height:   10,
	}
}

// Init initialises the transcript.
func (t *Transcript) Init() tea.Cmd {
	return nil
}

// Update handles selection keys.
func (t *Transcript) Update(msg tea.Msg) (*Transcript, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			t.MoveUp()
		case "down", "j":
			t.MoveDown()
		}
	}
	return t, nil
}

// View renders the visible window of the transcript.
func (t *Transcript) View() string {
	if len(t.messages) == 0 {
		return t.styles.Muted.Render("Ask a question about your papers to get started.")
	}

	var lines []string
	selStart, selEnd := -1, -1
	for i := range t.messages {
		block := strings.Split(t.renderMessage(i, &t.messages[i]), "\n")
		if i == t.selected {
			selStart = len(lines)
			selEnd = selStart + len(block)
		}
		lines = append(lines, block...)
		lines = append(lines, "")
	}
	lines = lines[:len(lines)-1]

	return strings.Join(window(lines, t.height, selStart, selEnd), "\n")
}

// window picks height lines, keeping [selStart, selEnd) in view when a
// message is selected and showing the tail otherwise.
func window(lines []string, height, selStart, selEnd int) []string {
	if height < 1 || len(lines) <= height {
		return lines
	}
	end := len(lines)
	if selStart >= 0 {
		end = selEnd
		if end-height > selStart {
			end = selStart + height
		}
		if end < height {
			end = height
		}
	}
	return lines[end-height : end]
}

// renderMessage formats one message with its role, status, body and sources.
func (t *Transcript) renderMessage(index int, m *domain.Message) string {
	var header string
	if m.Role == domain.RoleUser {
		header = t.styles.User.Render("You")
	} else {
		header = t.styles.Assistant.Render("Cortex")
	}
	switch m.Status {
	case domain.StatusPending:
		header += t.styles.Muted.Render("  thinking...")
	case domain.StatusStreaming:
		header += t.styles.Muted.Render("  answering...")
	case domain.StatusFailed:
		header += t.styles.Error.Render("  failed")
	case domain.StatusDone:
	}

	parts := []string{header}
	if body := t.renderBody(m); body != "" {
		parts = append(parts, body)
	}
	for _, a := range m.Attachments() {
		parts = append(parts, t.styles.Muted.Render("attached "+filepath.Base(a.Name)))
	}
	for _, src := range render.Sources(m.Citations, t.library) {
		parts = append(parts, t.styles.Citation.Render(src))
	}

	block := strings.Join(parts, "\n")
	if index == t.selected {
		return t.styles.Message.Render(block)
	}
	return block
}

func (t *Transcript) renderBody(m *domain.Message) string {
	text := m.Text()
	if strings.TrimSpace(text) == "" {
		return ""
	}
	if m.Role == domain.RoleAssistant && m.Status == domain.StatusDone {
		return t.markdown.Render(text)
	}
	return t.styles.Normal.Width(t.width).Render(text)
}

// SetMessages replaces the transcript. The selection is kept when the
// selected message still exists.
func (t *Transcript) SetMessages(msgs []domain.Message) {
	var selectedID string
	if m := t.SelectedMessage(); m != nil {
		selectedID = m.ID
	}

	t.messages = msgs
	t.selected = -1
	for i := range msgs {
		if selectedID != "" && msgs[i].ID == selectedID {
			t.selected = i
		}
	}
}

// SetLibrary sets the catalog snapshot used to name cited documents.
func (t *Transcript) SetLibrary(lib Library) {
	t.library = lib
}

// Messages returns the displayed messages.
func (t *Transcript) Messages() []domain.Message {
	return t.messages
}

// Selected returns the index of the selected message, or -1.
func (t *Transcript) Selected() int {
	return t.selected
}

// SelectedMessage returns the selected message, or nil if none.
func (t *Transcript) SelectedMessage() *domain.Message {
	if t.selected < 0 || t.selected >= len(t.messages) {
		return nil
	}
	return &t.messages[t.selected]
}

// SelectLast selects the newest message.
func (t *Transcript) SelectLast() {
	t.selected = len(t.messages) - 1
}

// ClearSelection returns the view to following the newest message.
func (t *Transcript) ClearSelection() {
	t.selected = -1
}

// MoveUp moves selection up.
func (t *Transcript) MoveUp() {
	if t.selected > 0 {
		t.selected--
	}
}

// MoveDown moves selection down.
func (t *Transcript) MoveDown() {
	if t.selected >= 0 && t.selected < len(t.messages)-1 {
		t.selected++
	}
}

// SetDimensions sets the component dimensions.
func (t *Transcript) SetDimensions(width, height int) {
	t.width = width
	t.height = height
}

// Height returns the current height.
func (t *Transcript) Height() int {
	return t.height
}

// Count returns the number of messages.
func (t *Transcript) Count() int {
	return len(t.messages)
}
