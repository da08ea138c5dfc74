package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	require.NotNil(t, km)
	assert.Contains(t, km.Quit.Keys(), "ctrl+c")
	assert.Contains(t, km.Send.Keys(), "enter")
	assert.Contains(t, km.Stop.Keys(), "ctrl+x")
	assert.Contains(t, km.Retry.Keys(), "ctrl+r")
	assert.Contains(t, km.Focus.Keys(), "tab")
}

func TestDefaultKeyMap_QuitIsNotPlainQ(t *testing.T) {
	km := DefaultKeyMap()

	// q must reach the chat input as text
	assert.NotContains(t, km.Quit.Keys(), "q")
}

func TestDefaultKeyMap_PageBindings(t *testing.T) {
	km := DefaultKeyMap()

	assert.Equal(t, []string{"n", "right"}, km.NextPage.Keys())
	assert.Equal(t, []string{"p", "left"}, km.PrevPage.Keys())
}

func TestKeyMap_HelpGroups(t *testing.T) {
	km := DefaultKeyMap()

	assert.Len(t, km.ShortHelp(), 3)
	assert.Len(t, km.TranscriptHelp(), 4)
	assert.Len(t, km.BusyHelp(), 2)

	full := km.FullHelp()
	require.Len(t, full, 4)
	for _, group := range full {
		for _, b := range group {
			assert.NotEmpty(t, b.Help().Key)
			assert.NotEmpty(t, b.Help().Desc)
		}
	}
}

func TestMatches(t *testing.T) {
	binding := key.NewBinding(key.WithKeys("a", "b"))

	tests := []struct {
		key  string
		want bool
	}{
		{"a", true},
		{"b", true},
		{"c", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.key, binding))
		})
	}
}
