// Package input provides text input components for the TUI.
package input

import (
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/styles"
)

// CommandKind identifies a slash command typed into the chat input.
type CommandKind string

const (
	// CommandNone is plain question text.
	CommandNone CommandKind = ""
	// CommandUpload uploads a local PDF to the library.
	CommandUpload CommandKind = "upload"
	// CommandAttach attaches a file to the next question.
	CommandAttach CommandKind = "attach"
	// CommandClear clears the conversation.
	CommandClear CommandKind = "clear"
	// CommandUnknown is a slash command that is not recognised.
	CommandUnknown CommandKind = "unknown"
)

// Command is a parsed line of chat input.
type Command struct {
	Kind CommandKind
	Arg  string
}

// Parse splits a line into a slash command and its argument. Lines that do
// not start with a slash are questions.
func Parse(line string) Command {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return Command{Kind: CommandNone, Arg: line}
	}

	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	arg = strings.TrimSpace(arg)
	switch CommandKind(strings.ToLower(name)) {
	case CommandUpload:
		return Command{Kind: CommandUpload, Arg: arg}
	case CommandAttach:
		return Command{Kind: CommandAttach, Arg: arg}
	case CommandClear:
		return Command{Kind: CommandClear}
	default:
		return Command{Kind: CommandUnknown, Arg: name}
	}
}

// ChatInput wraps a bubbles textinput and tracks files attached to the
// next question.
type ChatInput struct {
	textinput   textinput.Model
	styles      *styles.Styles
	attachments []string
	width       int
}

// NewChatInput creates a new chat input component.
func NewChatInput(s *styles.Styles) *ChatInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask about your papers, or /upload <file.pdf>"
	ti.Focus()
	ti.CharLimit = 4000
	ti.Width = 50

	return &ChatInput{
		textinput: ti,
		styles:    s,
		width:     50,
	}
}

// Init initialises the chat input.
func (c *ChatInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (c *ChatInput) Update(msg tea.Msg) (*ChatInput, tea.Cmd) {
	var cmd tea.Cmd
	c.textinput, cmd = c.textinput.Update(msg)
	return c, cmd
}

// View renders the input with its pending attachments.
func (c *ChatInput) View() string {
	label := c.styles.User.Render("You: ")
	field := c.styles.InputField.Render(c.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	view := lipgloss.JoinHorizontal(lipgloss.Center, label, field)

	if len(c.attachments) == 0 {
		return view
	}
	names := make([]string, 0, len(c.attachments))
	for _, p := range c.attachments {
		names = append(names, filepath.Base(p))
	}
	return view + "\n" + c.styles.Muted.Render("  attached: "+strings.Join(names, ", "))
}

// Value returns the current input value.
func (c *ChatInput) Value() string {
	return c.textinput.Value()
}

// SetValue sets the input value.
func (c *ChatInput) SetValue(value string) {
	c.textinput.SetValue(value)
}

// Attach adds a file to the next question. Duplicates are ignored.
func (c *ChatInput) Attach(path string) {
	for _, p := range c.attachments {
		if p == path {
			return
		}
	}
	c.attachments = append(c.attachments, path)
}

// Attachments returns the files attached to the next question.
func (c *ChatInput) Attachments() []string {
	return append([]string(nil), c.attachments...)
}

// Focus sets focus on the input.
func (c *ChatInput) Focus() tea.Cmd {
	return c.textinput.Focus()
}

// Blur removes focus from the input.
func (c *ChatInput) Blur() {
	c.textinput.Blur()
}

// Focused returns whether the input is focused.
func (c *ChatInput) Focused() bool {
	return c.textinput.Focused()
}

// SetWidth sets the width of the input.
func (c *ChatInput) SetWidth(width int) {
	c.width = width
	// Account for label and padding
	inputWidth := width - 10
	if inputWidth < 20 {
		inputWidth = 20
	}
	c.textinput.Width = inputWidth
}

// Width returns the current width.
func (c *ChatInput) Width() int {
	return c.width
}

// Reset clears the text and the attachments.
func (c *ChatInput) Reset() {
	c.textinput.Reset()
	c.attachments = nil
}
