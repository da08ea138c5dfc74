// Package page provides the cited page view for the TUI.
package page

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/cortex-cli/internal/adapters/driven/viewer"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/render"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driving"
)

// TextLoader extracts the text of one 1-based page of a local file.
type TextLoader func(path string, page int) (string, error)

// View shows the text of the page the session last navigated to.
type View struct {
	styles *styles.Styles
	chat   driving.ChatSession
	loader TextLoader
	ctx    context.Context

	nav          *domain.Navigation
	name         string
	pages        int
	lines        []string
	text         string
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
}

// NewView creates a new page view. A nil loader reads PDFs with
// viewer.PageText.
func NewView(s *styles.Styles, chat driving.ChatSession, loader TextLoader) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if loader == nil {
		loader = viewer.PageText
	}
	return &View{
		styles: s,
		chat:   chat,
		loader: loader,
		ctx:    context.Background(),
		width:  80,
		height: 24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// SetNavigation shows a navigation outcome and loads the page text when
// the navigation succeeded. The same target is not loaded twice.
func (v *View) SetNavigation(nav domain.Navigation) tea.Cmd {
	if nav.Outcome == domain.NavigationSuperseded {
		return nil
	}
	if v.nav != nil && v.nav.Outcome == nav.Outcome && v.nav.Target == nav.Target && v.err == nil {
		return nil
	}

	v.nav = &nav
	v.name = v.displayName(nav.Target.DocumentID)
	v.pages = 0
	v.text = ""
	v.lines = nil
	v.scrollOffset = 0
	v.err = nil
	v.loading = false

	if nav.Outcome != domain.NavigationNavigated || nav.Content == nil {
		return nil
	}
	v.pages = nav.Content.Pages
	v.loading = true
	return v.loadText(nav.Target, *nav.Content)
}

// loadText returns a command that extracts the page text.
func (v *View) loadText(target domain.NavigationTarget, content domain.ContentHandle) tea.Cmd {
	name := v.name
	return func() tea.Msg {
		if content.MediaType != "application/pdf" || content.Path == "" {
			return messages.PageTextLoaded{Target: target, Name: name, Pages: content.Pages}
		}
		text, err := v.loader(content.Path, target.Page)
		return messages.PageTextLoaded{Target: target, Name: name, Pages: content.Pages, Text: text, Err: err}
	}
}

// Update handles messages for the page view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.PageTextLoaded:
		if v.nav == nil || msg.Target != v.nav.Target {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.text = msg.Text
		v.wrapContent()
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.loading = false
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "pgup", "ctrl+u":
		v.scrollOffset = max(v.scrollOffset-v.visibleLines(), 0)
	case "pgdown", "ctrl+d":
		v.scrollOffset = min(v.scrollOffset+v.visibleLines(), v.maxScrollOffset())
	case "home", "g":
		v.scrollOffset = 0
	case "end", "G":
		v.scrollOffset = v.maxScrollOffset()
	case "n", "right":
		return v, v.turnPage(1)
	case "p", "left":
		return v, v.turnPage(-1)
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewChat}
		}
	}

	return v, nil
}

// turnPage opens the neighbouring page of the current document.
func (v *View) turnPage(delta int) tea.Cmd {
	if v.nav == nil || v.nav.Target.DocumentID == "" || v.chat == nil {
		return nil
	}
	page := v.nav.Target.Page + delta
	if page < 1 || (v.pages > 0 && page > v.pages) {
		return nil
	}

	id := v.nav.Target.DocumentID
	return func() tea.Msg {
		nav, err := v.chat.Open(v.ctx, id, page)
		if err != nil && nav.Outcome == "" {
			return messages.ErrorOccurred{Err: err}
		}
		return messages.NavigationRecorded{Navigation: nav, Requested: true}
	}
}

// wrapContent wraps the text to fit the view width.
func (v *View) wrapContent() {
	if v.text == "" {
		v.lines = nil
		return
	}

	contentWidth := max(v.width-4, 20)
	raw := strings.Split(v.text, "\n")
	v.lines = make([]string, 0, len(raw))
	for _, line := range raw {
		r := []rune(line)
		for len(r) > contentWidth {
			v.lines = append(v.lines, string(r[:contentWidth]))
			r = r[contentWidth:]
		}
		v.lines = append(v.lines, string(r))
	}
}

// visibleLines returns the number of lines that can be displayed.
func (v *View) visibleLines() int {
	// Title, separator, scroll indicator and help
	return max(v.height-7, 1)
}

// maxScrollOffset returns the maximum scroll offset.
func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the page view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(v.title()))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(max(v.width-4, 1), 60)))
	b.WriteString("\n\n")

	switch {
	case v.nav == nil:
		b.WriteString(v.styles.Muted.Render("Select an answer and press enter to show its source."))
	case v.nav.Outcome != domain.NavigationNavigated:
		b.WriteString(v.styles.Warning.Render(render.Navigation(*v.nav, v.library())))
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading page..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case len(v.lines) == 0:
		b.WriteString(v.styles.Muted.Render("(No text on this page)"))
	default:
		visible := v.visibleLines()
		end := min(v.scrollOffset+visible, len(v.lines))
		b.WriteString(v.styles.Normal.Render(strings.Join(v.lines[v.scrollOffset:end], "\n")))
		if len(v.lines) > visible {
			b.WriteString("\n\n")
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  Line %d-%d of %d",
				v.scrollOffset+1, end, len(v.lines))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] scroll  [n/p] next/previous page  [g/G] top/bottom  [esc] back"))
	return b.String()
}

func (v *View) title() string {
	if v.nav == nil {
		return "Page"
	}
	if v.pages > 0 {
		return fmt.Sprintf("%s, page %d of %d", v.name, v.nav.Target.Page, v.pages)
	}
	return fmt.Sprintf("%s, page %d", v.name, v.nav.Target.Page)
}

func (v *View) displayName(id string) string {
	if e, ok := v.library().Lookup(id); ok && e.DisplayName != "" {
		return e.DisplayName
	}
	if id == "" {
		return "Page"
	}
	return id
}

func (v *View) library() list.Library {
	if v.chat == nil {
		return nil
	}
	return list.Library(v.chat.Documents())
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.wrapContent()
}

// Navigation returns the navigation being shown, if any.
func (v *View) Navigation() (domain.Navigation, bool) {
	if v.nav == nil {
		return domain.Navigation{}, false
	}
	return *v.nav, true
}

// Text returns the loaded page text.
func (v *View) Text() string {
	return v.text
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
