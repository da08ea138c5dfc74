// Package render formats chat answers for terminal output.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driving"
	"github.com/custodia-labs/cortex-cli/internal/core/services"
)

// Glamour style names accepted by NewMarkdown besides "auto".
const (
	StyleAuto  = "auto"
	StyleDark  = "dark"
	StyleLight = "light"
	StylePlain = "notty"
)

// DefaultWidth is the word wrap width used when none is given.
const DefaultWidth = 80

// Markdown renders answer text as styled terminal markdown.
type Markdown struct {
	renderer *glamour.TermRenderer
	width    int
}

// NewMarkdown creates a renderer. An unknown style falls back to auto
// detection; a width below 20 uses DefaultWidth.
func NewMarkdown(style string, width int) (*Markdown, error) {
	if width < 20 {
		width = DefaultWidth
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	switch style {
	case StyleDark, StyleLight, StylePlain:
		opts = append(opts, glamour.WithStandardStyle(style))
	default:
		opts = append(opts, glamour.WithAutoStyle())
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}
	return &Markdown{renderer: r, width: width}, nil
}

// Width returns the wrap width.
func (m *Markdown) Width() int {
	return m.width
}

// Render returns styled text. The input is returned unchanged if
// rendering fails.
func (m *Markdown) Render(text string) string {
	if m == nil || strings.TrimSpace(text) == "" {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// Sources returns one line per citation, e.g. "[1] attention.pdf, Page 7, Chunk 3".
func Sources(citations []domain.Citation, catalog driving.DocumentLookup) []string {
	lines := make([]string, 0, len(citations))
	for i, c := range citations {
		line := fmt.Sprintf("[%d] %s", i+1, services.SourceName(c, catalog))
		if label := c.Label(); label != "" {
			line += ", " + label
		}
		lines = append(lines, line)
	}
	return lines
}

// Navigation describes a navigation outcome in one line.
func Navigation(nav domain.Navigation, catalog driving.DocumentLookup) string {
	name := nav.Target.DocumentID
	if catalog != nil && name != "" {
		if entry, ok := catalog.Lookup(name); ok && entry.DisplayName != "" {
			name = entry.DisplayName
		}
	}

	switch nav.Outcome {
	case domain.NavigationNavigated:
		return fmt.Sprintf("Showing %s, page %d", name, nav.Target.Page)
	case domain.NavigationNoCitation:
		return "No citation to show"
	case domain.NavigationUnknownDocument:
		return "Cited document is not in the library"
	case domain.NavigationFetchFailed:
		return fmt.Sprintf("Could not fetch %s: %v", name, nav.Err)
	case domain.NavigationViewerFailed:
		return fmt.Sprintf("Could not show %s: %v", name, nav.Err)
	case domain.NavigationSuperseded:
		return "Navigation superseded"
	default:
		return string(nav.Outcome)
	}
}
