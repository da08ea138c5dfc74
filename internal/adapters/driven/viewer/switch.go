package viewer

import (
	"context"
	"sync"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driven"
)

// Ensure Switch implements the interface.
var _ driven.Viewer = (*Switch)(nil)

// Switch forwards to a viewer that can be replaced while the session runs.
// With no viewer set, Show does nothing and succeeds.
type Switch struct {
	mu      sync.RWMutex
	current driven.Viewer
}

// NewSwitch creates a switch showing through v, which may be nil.
func NewSwitch(v driven.Viewer) *Switch {
	return &Switch{current: v}
}

// Set replaces the viewer and returns the previous one.
func (s *Switch) Set(v driven.Viewer) driven.Viewer {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.current
	s.current = v
	return prev
}

// Show displays the target through the current viewer.
func (s *Switch) Show(ctx context.Context, target domain.NavigationTarget, content domain.ContentHandle) error {
	s.mu.RLock()
	v := s.current
	s.mu.RUnlock()
	if v == nil {
		return nil
	}
	return v.Show(ctx, target, content)
}
