// Package papers provides the document library view for the TUI.
package papers

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driving"
)

// View lists the document catalog and opens papers at their first page.
type View struct {
	styles *styles.Styles
	chat   driving.ChatSession
	ctx    context.Context
	filter textinput.Model

	entries      []domain.DocumentEntry
	visible      []int // indexes into entries after filtering
	selected     int
	scrollOffset int
	filtering    bool
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
}

// NewView creates a new papers view.
func NewView(s *styles.Styles, chat driving.ChatSession) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "filter"
	ti.Prompt = "/ "
	ti.CharLimit = 128

	return &View{
		styles: s,
		chat:   chat,
		ctx:    context.Background(),
		filter: ti,
		width:  80,
		height: 24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init shows the cached catalog and starts a sync with the backend.
func (v *View) Init() tea.Cmd {
	if v.chat != nil {
		v.setEntries(v.chat.Documents())
	}
	return v.sync()
}

// sync returns a command that refreshes the catalog.
func (v *View) sync() tea.Cmd {
	v.loading = true
	return func() tea.Msg {
		if v.chat == nil {
			return messages.DocumentsLoaded{Err: fmt.Errorf("chat session not available")}
		}
		docs, err := v.chat.SyncDocuments(v.ctx)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

// Update handles messages for the papers view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.filtering {
			return v.handleFilterKeyMsg(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		if msg.Err != nil {
			// The cached catalog stays usable
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.setEntries(msg.Documents)
		return v, nil

	case messages.UploadFinished:
		if v.chat != nil {
			v.setEntries(v.chat.Documents())
		}
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses in list mode.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.visible)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "enter":
		if entry := v.SelectedEntry(); entry != nil {
			return v, v.open(entry.ID)
		}
	case "r":
		return v, v.sync()
	case "/":
		v.filtering = true
		return v, v.filter.Focus()
	case "esc":
		if v.filter.Value() != "" {
			v.filter.Reset()
			v.applyFilter()
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	return v, nil
}

// handleFilterKeyMsg edits the filter.
func (v *View) handleFilterKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyEnter:
		v.filtering = false
		v.filter.Blur()
		return v, nil
	case tea.KeyEsc:
		v.filtering = false
		v.filter.Blur()
		v.filter.Reset()
		v.applyFilter()
		return v, nil
	}

	var cmd tea.Cmd
	v.filter, cmd = v.filter.Update(msg)
	v.applyFilter()
	return v, cmd
}

// open shows a paper at its first page.
func (v *View) open(id string) tea.Cmd {
	return func() tea.Msg {
		if v.chat == nil {
			return messages.ErrorOccurred{Err: fmt.Errorf("chat session not available")}
		}
		nav, err := v.chat.Open(v.ctx, id, 1)
		if err != nil && nav.Outcome == "" {
			return messages.ErrorOccurred{Err: err}
		}
		return messages.NavigationRecorded{Navigation: nav, Requested: true}
	}
}

func (v *View) setEntries(entries []domain.DocumentEntry) {
	v.entries = entries
	v.applyFilter()
}

// applyFilter ranks entries by fuzzy match against the filter text.
func (v *View) applyFilter() {
	pattern := strings.TrimSpace(v.filter.Value())
	v.visible = v.visible[:0]
	if pattern == "" {
		for i := range v.entries {
			v.visible = append(v.visible, i)
		}
	} else {
		names := make([]string, len(v.entries))
		for i, e := range v.entries {
			names[i] = e.DisplayName
		}
		for _, m := range fuzzy.Find(pattern, names) {
			v.visible = append(v.visible, m.Index)
		}
	}

	if v.selected >= len(v.visible) {
		v.selected = max(len(v.visible)-1, 0)
	}
	v.adjustScroll()
}

// adjustScroll keeps the selected item visible.
func (v *View) adjustScroll() {
	visibleItems := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visibleItems {
		v.scrollOffset = v.selected - visibleItems + 1
	}
}

// visibleItemCount returns the number of items that can be displayed.
func (v *View) visibleItemCount() int {
	// Title, filter, scroll indicator and help
	return max(v.height-9, 1)
}

// View renders the papers view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Papers (%d)", len(v.entries))))
	b.WriteString("\n\n")

	if v.filtering || v.filter.Value() != "" {
		b.WriteString(v.filter.View())
		b.WriteString("\n\n")
	}

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Sync failed: %s", v.err.Error())))
		b.WriteString("\n\n")
	} else if v.loading {
		b.WriteString(v.styles.Muted.Render("Syncing..."))
		b.WriteString("\n\n")
	}

	if len(v.visible) == 0 {
		if len(v.entries) == 0 {
			b.WriteString(v.styles.Muted.Render("No papers yet. Upload one with /upload <file.pdf> in the chat."))
		} else {
			b.WriteString(v.styles.Muted.Render("No papers match the filter."))
		}
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	visibleItems := v.visibleItemCount()
	end := min(v.scrollOffset+visibleItems, len(v.visible))
	for i := v.scrollOffset; i < end; i++ {
		b.WriteString(v.renderEntry(i, &v.entries[v.visible[i]]))
		b.WriteString("\n")
	}

	if len(v.visible) > visibleItems {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
			v.scrollOffset+1, end, len(v.visible))))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

// renderEntry renders a single catalog line.
func (v *View) renderEntry(index int, e *domain.DocumentEntry) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	name := e.DisplayName
	if name == "" {
		name = e.ID
	}
	maxNameLen := max(v.width/2-4, 10)
	if r := []rune(name); len(r) > maxNameLen {
		name = string(r[:maxNameLen-3]) + "..."
	}

	var details []string
	if e.Local {
		details = append(details, "local only")
	}
	if e.HasContent() {
		details = append(details, "cached")
		if e.Content.Pages > 0 {
			details = append(details, fmt.Sprintf("%d pages", e.Content.Pages))
		}
	}
	if !e.UploadedAt.IsZero() {
		details = append(details, e.UploadedAt.Local().Format("2006-01-02"))
	}
	detail := strings.Join(details, ", ")

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxNameLen, name, detail))
	}
	return v.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, maxNameLen, name)) +
		v.styles.Muted.Render(detail)
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	if v.filtering {
		return v.styles.Help.Render("[enter] apply  [esc] clear filter")
	}
	return v.styles.Help.Render("[↑/↓] navigate  [enter] open  [/] filter  [r] sync  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.filter.Width = max(width/2, 20)
}

// Entries returns the displayed entries in display order.
func (v *View) Entries() []domain.DocumentEntry {
	out := make([]domain.DocumentEntry, 0, len(v.visible))
	for _, i := range v.visible {
		out = append(out, v.entries[i])
	}
	return out
}

// SelectedEntry returns the selected entry, or nil if none.
func (v *View) SelectedEntry() *domain.DocumentEntry {
	if v.selected < 0 || v.selected >= len(v.visible) {
		return nil
	}
	return &v.entries[v.visible[v.selected]]
}

// Filtering reports whether the filter has focus.
func (v *View) Filtering() bool {
	return v.filtering
}

// Err returns the last sync error.
func (v *View) Err() error {
	return v.err
}
