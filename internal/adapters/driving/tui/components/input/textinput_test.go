package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/styles"
)

func TestNewChatInput(t *testing.T) {
	in := NewChatInput(styles.DefaultStyles())

	require.NotNil(t, in)
	assert.Empty(t, in.Value())
	assert.True(t, in.Focused())
	assert.Empty(t, in.Attachments())
	assert.NotNil(t, in.Init())
}

func TestNewChatInput_NilStyles(t *testing.T) {
	in := NewChatInput(nil)

	require.NotNil(t, in)
	assert.NotNil(t, in.styles)
}

func TestChatInput_Typing(t *testing.T) {
	in := NewChatInput(nil)

	in, _ = in.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")})

	assert.Equal(t, "hi", in.Value())
}

func TestChatInput_FocusBlur(t *testing.T) {
	in := NewChatInput(nil)

	in.Blur()
	assert.False(t, in.Focused())

	in.Focus()
	assert.True(t, in.Focused())
}

func TestChatInput_Attachments(t *testing.T) {
	in := NewChatInput(nil)

	in.Attach("/papers/a.pdf")
	in.Attach("/papers/b.pdf")
	in.Attach("/papers/a.pdf")

	assert.Equal(t, []string{"/papers/a.pdf", "/papers/b.pdf"}, in.Attachments())
	assert.Contains(t, in.View(), "attached: a.pdf, b.pdf")

	in.SetValue("question")
	in.Reset()
	assert.Empty(t, in.Value())
	assert.Empty(t, in.Attachments())
}

func TestChatInput_AttachmentsCopy(t *testing.T) {
	in := NewChatInput(nil)
	in.Attach("/a.pdf")

	got := in.Attachments()
	got[0] = "changed"

	assert.Equal(t, []string{"/a.pdf"}, in.Attachments())
}

func TestChatInput_SetWidth(t *testing.T) {
	in := NewChatInput(nil)

	in.SetWidth(100)
	assert.Equal(t, 100, in.Width())
	assert.Equal(t, 90, in.textinput.Width)

	in.SetWidth(10)
	assert.Equal(t, 20, in.textinput.Width)
}

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"what is attention?", Command{Kind: CommandNone, Arg: "what is attention?"}},
		{"  padded  ", Command{Kind: CommandNone, Arg: "padded"}},
		{"/upload ~/papers/a.pdf", Command{Kind: CommandUpload, Arg: "~/papers/a.pdf"}},
		{"/UPLOAD a.pdf", Command{Kind: CommandUpload, Arg: "a.pdf"}},
		{"/attach  notes.pdf ", Command{Kind: CommandAttach, Arg: "notes.pdf"}},
		{"/clear", Command{Kind: CommandClear}},
		{"/upload", Command{Kind: CommandUpload}},
		{"/frobnicate x", Command{Kind: CommandUnknown, Arg: "frobnicate"}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.line))
		})
	}
}
