package tui

import (
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/cortex-cli/internal/core/domain"
)

// Sender delivers messages into a running program. *tea.Program
// implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// Notifier forwards session hooks into the TUI. Its Changed and Navigated
// methods are meant for services.SessionConfig.OnChange and OnNavigation.
// They never block the caller; bursts of transcript changes collapse into
// one TranscriptChanged message.
type Notifier struct {
	mu      sync.RWMutex
	sender  Sender
	pending atomic.Bool
}

// NewNotifier creates a notifier with no program attached.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Attach starts forwarding to s. A nil s stops forwarding.
func (n *Notifier) Attach(s Sender) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sender = s
}

// Changed reports a transcript change.
func (n *Notifier) Changed() {
	s := n.current()
	if s == nil {
		return
	}
	if !n.pending.CompareAndSwap(false, true) {
		return
	}
	go func() {
		n.pending.Store(false)
		s.Send(messages.TranscriptChanged{})
	}()
}

// Navigated reports a navigation outcome.
func (n *Notifier) Navigated(nav domain.Navigation) {
	s := n.current()
	if s == nil {
		return
	}
	go s.Send(messages.NavigationRecorded{Navigation: nav})
}

func (n *Notifier) current() Sender {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.sender
}
