package papers

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/testutil"
)

func library() []domain.DocumentEntry {
	return []domain.DocumentEntry{
		{ID: "doc-1", DisplayName: "attention-is-all-you-need.pdf",
			UploadedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "doc-2", DisplayName: "bert.pdf",
			Content: &domain.ContentHandle{Path: "/cache/doc-2.pdf", Pages: 16}},
		{ID: domain.LocalIDPrefix + "1", DisplayName: "draft.pdf", Local: true},
	}
}

func newTestView(chat *testutil.ChatSession) *View {
	v := NewView(nil, chat)
	v.SetDimensions(120, 30)
	cmd := v.Init()
	v, _ = v.Update(cmd())
	return v
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func names(entries []domain.DocumentEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.DisplayName)
	}
	return out
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil)

	require.NotNil(t, v)
	assert.NotNil(t, v.styles)
	assert.Nil(t, v.SelectedEntry())
	assert.False(t, v.Filtering())
}

func TestView_InitSyncs(t *testing.T) {
	chat := &testutil.ChatSession{Entries: library()}
	v := newTestView(chat)

	assert.Equal(t, 1, chat.Syncs)
	assert.Len(t, v.Entries(), 3)
	view := v.View()
	assert.Contains(t, view, "Papers (3)")
	assert.Contains(t, view, "attention-is-all-you-need.pdf")
	assert.Contains(t, view, "cached, 16 pages")
	assert.Contains(t, view, "local only")
}

func TestView_SyncErrorKeepsCache(t *testing.T) {
	chat := &testutil.ChatSession{Entries: library(), SyncErr: errors.New("offline")}
	v := newTestView(chat)

	assert.EqualError(t, v.Err(), "offline")
	assert.Len(t, v.Entries(), 3)
	assert.Contains(t, v.View(), "Sync failed: offline")
}

func TestView_Empty(t *testing.T) {
	v := newTestView(&testutil.ChatSession{})

	assert.Contains(t, v.View(), "No papers yet")
}

func TestView_NavigateAndOpen(t *testing.T) {
	chat := &testutil.ChatSession{
		Entries: library(),
		Nav:     domain.Navigation{Outcome: domain.NavigationNavigated},
	}
	v := newTestView(chat)

	v, _ = v.Update(key("j"))
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, "draft.pdf", v.SelectedEntry().DisplayName)
	v, _ = v.Update(key("k"))

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg, ok := cmd().(messages.NavigationRecorded)
	require.True(t, ok)
	assert.True(t, msg.Requested)
	assert.Equal(t, []domain.NavigationTarget{{DocumentID: "doc-2", Page: 1}}, chat.Opened)
}

func TestView_OpenError(t *testing.T) {
	chat := &testutil.ChatSession{Entries: library(), NavErr: errors.New("boom")}
	v := newTestView(chat)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, messages.ErrorOccurred{Err: chat.NavErr}, cmd())
}

func TestView_Filter(t *testing.T) {
	v := newTestView(&testutil.ChatSession{Entries: library()})

	v, _ = v.Update(key("/"))
	require.True(t, v.Filtering())
	v, _ = v.Update(key("brt"))

	assert.Equal(t, []string{"bert.pdf"}, names(v.Entries()))

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, v.Filtering())
	assert.Equal(t, "bert.pdf", v.SelectedEntry().DisplayName)

	// esc clears an applied filter before leaving the view
	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.Len(t, v.Entries(), 3)
}

func TestView_FilterNoMatch(t *testing.T) {
	v := newTestView(&testutil.ChatSession{Entries: library()})

	v, _ = v.Update(key("/"))
	v, _ = v.Update(key("zzz"))

	assert.Empty(t, v.Entries())
	assert.Nil(t, v.SelectedEntry())
	assert.Contains(t, v.View(), "No papers match")

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, v.Filtering())
	assert.Len(t, v.Entries(), 3)
}

func TestView_Resync(t *testing.T) {
	chat := &testutil.ChatSession{Entries: library()}
	v := newTestView(chat)

	_, cmd := v.Update(key("r"))
	require.NotNil(t, cmd)
	cmd()

	assert.Equal(t, 2, chat.Syncs)
}

func TestView_UploadFinishedRefreshes(t *testing.T) {
	chat := &testutil.ChatSession{}
	v := newTestView(chat)

	chat.Entries = library()[:1]
	v, _ = v.Update(messages.UploadFinished{Path: "a.pdf"})

	assert.Len(t, v.Entries(), 1)
}

func TestView_Esc(t *testing.T) {
	v := newTestView(&testutil.ChatSession{})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_Scroll(t *testing.T) {
	entries := make([]domain.DocumentEntry, 40)
	for i := range entries {
		entries[i] = domain.DocumentEntry{ID: string(rune('a' + i%26)), DisplayName: "paper.pdf"}
	}
	v := newTestView(&testutil.ChatSession{Entries: entries})

	for range 30 {
		v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})
	}

	assert.Equal(t, 30, v.selected)
	assert.Equal(t, 30-v.visibleItemCount()+1, v.scrollOffset)
	assert.Contains(t, v.View(), "of 40]")
}
