package viewer

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driven"
)

// Ensure Terminal implements the interface.
var _ driven.Viewer = (*Terminal)(nil)

// maxPageRunes caps the text printed for one page.
const maxPageRunes = 4000

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))

// Terminal prints the text of the target page to a writer.
type Terminal struct {
	mu    sync.Mutex
	out   io.Writer
	names func(id string) string
}

// NewTerminal creates a terminal viewer. names maps a document id to a
// display name and may be nil.
func NewTerminal(out io.Writer, names func(id string) string) *Terminal {
	return &Terminal{out: out, names: names}
}

// Show prints a header and the page text. Content that is not a PDF
// only gets the header.
func (v *Terminal) Show(_ context.Context, target domain.NavigationTarget, content domain.ContentHandle) error {
	name := ""
	if v.names != nil {
		name = v.names(target.DocumentID)
	}
	if name == "" {
		name = filepath.Base(content.Path)
	}

	header := fmt.Sprintf("%s, page %d", name, target.Page)
	if content.Pages > 0 {
		header = fmt.Sprintf("%s, page %d of %d", name, target.Page, content.Pages)
	}

	var body string
	if content.MediaType == "application/pdf" && content.Path != "" {
		text, err := PageText(content.Path, target.Page)
		if err != nil {
			return err
		}
		body = truncate(text, maxPageRunes)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if _, err := fmt.Fprintln(v.out, headerStyle.Render(header)); err != nil {
		return err
	}
	if body != "" {
		_, err := fmt.Fprintln(v.out, body)
		return err
	}
	return nil
}

// PageText extracts the plain text of one 1-based page.
func PageText(path string, page int) (text string, err error) {
	defer func() {
		// The PDF reader panics on some malformed content streams.
		if r := recover(); r != nil {
			err = fmt.Errorf("read page %d of %s: %v", page, filepath.Base(path), r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	if page < 1 || page > r.NumPage() {
		return "", fmt.Errorf("page %d of %s: %w", page, filepath.Base(path), domain.ErrNotFound)
	}
	p := r.Page(page)
	if p.V.IsNull() {
		return "", fmt.Errorf("page %d of %s: %w", page, filepath.Base(path), domain.ErrNotFound)
	}
	text, err = p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("read page %d of %s: %w", page, filepath.Base(path), err)
	}
	return strings.TrimSpace(text), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
