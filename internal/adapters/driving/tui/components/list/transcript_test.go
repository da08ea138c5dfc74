package list

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
)

func conversation() []domain.Message {
	return []domain.Message{
		{
			ID: "u1", Role: domain.RoleUser, Status: domain.StatusDone,
			Parts: []domain.Part{
				domain.TextPart("What is attention?"),
				domain.FilePart(domain.Attachment{Name: "notes.pdf", MediaType: "application/pdf"}),
			},
		},
		{
			ID: "a1", Role: domain.RoleAssistant, Status: domain.StatusDone,
			Parts:     []domain.Part{domain.TextPart("A weighting over tokens.")},
			Citations: []domain.Citation{{ChunkID: "doc-42_c3", Source: "doc-42", Page: 7}},
		},
		{
			ID: "u2", Role: domain.RoleUser, Status: domain.StatusDone,
			Parts: []domain.Part{domain.TextPart("And transformers?")},
		},
		{ID: "a2", Role: domain.RoleAssistant, Status: domain.StatusPending},
	}
}

func TestLibrary_Lookup(t *testing.T) {
	lib := Library{{ID: "doc-42", DisplayName: "attention.pdf"}}

	e, ok := lib.Lookup("doc-42")
	require.True(t, ok)
	assert.Equal(t, "attention.pdf", e.DisplayName)

	_, ok = lib.Lookup("missing")
	assert.False(t, ok)

	_, ok = Library(nil).Lookup("doc-42")
	assert.False(t, ok)
}

func TestNewTranscript(t *testing.T) {
	tr := NewTranscript(nil, nil)

	require.NotNil(t, tr)
	assert.NotNil(t, tr.styles)
	assert.Equal(t, -1, tr.Selected())
	assert.Nil(t, tr.SelectedMessage())
	assert.Nil(t, tr.Init())
	assert.Contains(t, tr.View(), "Ask a question")
}

func TestTranscript_View(t *testing.T) {
	tr := NewTranscript(nil, nil)
	tr.SetDimensions(100, 100)
	tr.SetLibrary(Library{{ID: "doc-42", DisplayName: "attention.pdf"}})
	tr.SetMessages(conversation())

	view := tr.View()

	assert.Contains(t, view, "What is attention?")
	assert.Contains(t, view, "attached notes.pdf")
	assert.Contains(t, view, "A weighting over tokens.")
	assert.Contains(t, view, "[1] attention.pdf, Page 7, Chunk 3")
	assert.Contains(t, view, "thinking...")
}

func TestTranscript_FailedStatus(t *testing.T) {
	tr := NewTranscript(nil, nil)
	tr.SetDimensions(80, 20)
	tr.SetMessages([]domain.Message{{
		ID: "a1", Role: domain.RoleAssistant, Status: domain.StatusFailed,
		Parts: []domain.Part{domain.TextPart("partial")},
	}})

	assert.Contains(t, tr.View(), "failed")
	assert.Contains(t, tr.View(), "partial")
}

func TestTranscript_Selection(t *testing.T) {
	tr := NewTranscript(nil, nil)
	tr.SetMessages(conversation())

	tr.MoveDown()
	assert.Equal(t, -1, tr.Selected(), "no selection until SelectLast")

	tr.SelectLast()
	assert.Equal(t, 3, tr.Selected())

	tr, _ = tr.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	tr, _ = tr.Update(tea.KeyMsg{Type: tea.KeyUp})
	require.NotNil(t, tr.SelectedMessage())
	assert.Equal(t, "a1", tr.SelectedMessage().ID)

	tr.MoveUp()
	tr.MoveUp()
	assert.Equal(t, 0, tr.Selected())

	tr, _ = tr.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	assert.Equal(t, 1, tr.Selected())

	tr.ClearSelection()
	assert.Nil(t, tr.SelectedMessage())
}

func TestTranscript_SetMessagesKeepsSelection(t *testing.T) {
	tr := NewTranscript(nil, nil)
	msgs := conversation()
	tr.SetMessages(msgs)
	tr.SelectLast()
	tr.MoveUp()
	tr.MoveUp()
	require.Equal(t, "a1", tr.SelectedMessage().ID)

	// u1 deleted
	tr.SetMessages(msgs[1:])
	require.NotNil(t, tr.SelectedMessage())
	assert.Equal(t, "a1", tr.SelectedMessage().ID)
	assert.Equal(t, 0, tr.Selected())

	// a1 deleted
	tr.SetMessages(msgs[2:])
	assert.Equal(t, -1, tr.Selected())
}

func TestTranscript_FollowsTail(t *testing.T) {
	tr := NewTranscript(nil, nil)
	tr.SetDimensions(80, 3)
	tr.SetMessages(conversation())

	view := tr.View()

	assert.Len(t, strings.Split(view, "\n"), 3)
	assert.Contains(t, view, "thinking...")
	assert.NotContains(t, view, "What is attention?")
}

func TestWindow(t *testing.T) {
	lines := []string{"0", "1", "2", "3", "4", "5", "6", "7"}

	tests := []struct {
		name             string
		height           int
		selStart, selEnd int
		want             []string
	}{
		{"fits", 10, -1, -1, lines},
		{"tail", 3, -1, -1, []string{"5", "6", "7"}},
		{"selected middle", 3, 2, 4, []string{"1", "2", "3"}},
		{"selected top", 3, 0, 2, []string{"0", "1", "2"}},
		{"selected taller than window", 2, 3, 7, []string{"3", "4"}},
		{"zero height", 0, -1, -1, lines},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, window(lines, tt.height, tt.selStart, tt.selEnd))
		})
	}
}
