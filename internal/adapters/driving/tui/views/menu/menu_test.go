package menu

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/messages"
)

func TestNewView(t *testing.T) {
	v := NewView(nil)

	require.NotNil(t, v)
	assert.NotNil(t, v.styles)
	assert.Len(t, v.items, 6)
	assert.Equal(t, 0, v.Selected())
	assert.Nil(t, v.Init())
	assert.Equal(t, "Initialising...", v.View())
}

func TestView_Render(t *testing.T) {
	v := NewView(nil)
	v.SetDimensions(80, 24)

	view := v.View()

	for _, label := range []string{"Cortex", "Chat", "Papers", "Current page", "Settings", "Help", "Quit"} {
		assert.Contains(t, view, label)
	}
	assert.Contains(t, view, "> ")
}

func TestView_Navigation(t *testing.T) {
	v := NewView(nil)

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, v.Selected())

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, v.Selected())

	for range 10 {
		v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, 5, v.Selected())

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	assert.Equal(t, 4, v.Selected())
}

func TestView_SelectViews(t *testing.T) {
	tests := []struct {
		downs int
		want  messages.ViewType
	}{
		{0, messages.ViewChat},
		{1, messages.ViewPapers},
		{2, messages.ViewPage},
		{3, messages.ViewSettings},
		{4, messages.ViewHelp},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			v := NewView(nil)
			for range tt.downs {
				v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})
			}

			_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

			require.NotNil(t, cmd)
			assert.Equal(t, messages.ViewChanged{View: tt.want}, cmd())
		})
	}
}

func TestView_Quit(t *testing.T) {
	v := NewView(nil)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	for range 5 {
		v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestView_WindowSize(t *testing.T) {
	v := NewView(nil)

	v, _ = v.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Equal(t, 120, v.width)
	assert.Equal(t, 40, v.height)
	assert.True(t, v.ready)
}
