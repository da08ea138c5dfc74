// Package help renders the key reference for the TUI.
package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/styles"
)

// commands lists the slash commands understood by the chat input.
var commands = [][2]string{
	{"/upload <file>", "send a paper to the backend"},
	{"/attach <file>", "attach a file to the next question"},
	{"/clear", "forget the conversation"},
}

// View shows key bindings and chat commands.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	help   help.Model
	width  int
	height int
}

// NewView creates a help view.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	h := help.New()
	h.ShowAll = true
	h.Styles.FullKey = s.Title
	h.Styles.FullDesc = s.Normal
	h.Styles.FullSeparator = s.Muted

	return &View{styles: s, keymap: km, help: h, width: 80, height: 24}
}

// Update handles messages for the help view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc || msg.String() == "q" {
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
		}
	}
	return v, nil
}

// View renders the key reference.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	b.WriteString(v.help.View(v.keymap))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Subtitle.Render("Commands"))
	b.WriteString("\n")
	for _, c := range commands {
		b.WriteString("  " + v.styles.Title.Render(c[0]) + "  " + v.styles.Muted.Render(c[1]) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[esc] back to menu"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.help.Width = width
}
