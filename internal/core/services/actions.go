package services

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driving"
)

// Operating system identifiers.
const (
	osDarwin  = "darwin"
	osLinux   = "linux"
	osWindows = "windows"
)

// Ensure MessageActionService implements the interface.
var _ driving.MessageActionService = (*MessageActionService)(nil)

// MessageActionService provides actions on transcript messages.
type MessageActionService struct {
	catalog driving.DocumentLookup
	copy    func(text string) error
}

// NewMessageActionService creates a new message action service. The
// catalog names cited documents and may be nil.
func NewMessageActionService(catalog driving.DocumentLookup) *MessageActionService {
	return &MessageActionService{
		catalog: catalog,
		copy:    copyToClipboard,
	}
}

// CopyToClipboard copies the message and its citations to the system clipboard.
func (s *MessageActionService) CopyToClipboard(_ context.Context, msg domain.Message) error {
	text := s.Format(msg)
	if text == "" {
		return fmt.Errorf("message %s has no text: %w", msg.ID, domain.ErrInvalidInput)
	}
	return s.copy(text)
}

// Format renders the message text followed by one line per citation.
func (s *MessageActionService) Format(msg domain.Message) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(msg.Text()))
	if len(msg.Citations) == 0 {
		return b.String()
	}

	b.WriteString("\n\nSources:")
	for i, c := range msg.Citations {
		fmt.Fprintf(&b, "\n[%d] %s", i+1, SourceName(c, s.catalog))
		if label := c.Label(); label != "" {
			b.WriteString(" (" + label + ")")
		}
	}
	return b.String()
}

// copyToClipboard copies text to the system clipboard using OS-specific commands.
func copyToClipboard(text string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case osDarwin:
		cmd = exec.Command("pbcopy")
	case osLinux:
		// Try xclip first, fall back to xsel
		if _, err := exec.LookPath("xclip"); err == nil {
			cmd = exec.Command("xclip", "-selection", "clipboard")
		} else if _, err := exec.LookPath("xsel"); err == nil {
			cmd = exec.Command("xsel", "--clipboard", "--input")
		} else {
			return fmt.Errorf("no clipboard utility found (install xclip or xsel)")
		}
	case osWindows:
		cmd = exec.Command("cmd", "/c", "clip")
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}
