// Package chat provides the conversation view for the TUI.
package chat

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/render"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driving"
)

// View represents the chat view with transcript, input and status bar.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.ChatInput
	transcript *list.Transcript
	statusbar  *status.Bar

	chat          driving.ChatSession
	actionService driving.MessageActionService
	ctx           context.Context

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool // true = typing, false = browsing the transcript
}

// NewView creates a new chat view. md renders answers and may be nil.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	md *render.Markdown,
	chat driving.ChatSession,
	actionService driving.MessageActionService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:        s,
		keymap:        km,
		input:         input.NewChatInput(s),
		transcript:    list.NewTranscript(s, md),
		statusbar:     status.NewBar(s, km),
		chat:          chat,
		actionService: actionService,
		ctx:           context.Background(),
		width:         80,
		height:        24,
		focusInput:    true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view from the current transcript.
func (v *View) Init() tea.Cmd {
	v.Refresh()
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.TranscriptChanged:
		v.Refresh()
		return v, nil

	case messages.TurnFinished:
		v.Refresh()
		v.handleTurnFinished(msg)
		return v, nil

	case messages.NavigationRecorded:
		v.statusbar.SetNavigation(render.Navigation(msg.Navigation, v.library()))
		return v, nil

	case messages.UploadFinished:
		v.handleUploadFinished(msg)
		return v, nil

	case messages.DocumentsLoaded:
		v.transcript.SetLibrary(v.library())
		return v, nil

	case messages.MessageCopied:
		if msg.Err != nil {
			v.setError(fmt.Errorf("copy: %w", msg.Err))
		} else {
			v.setMessage("Copied to clipboard")
		}
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEsc:
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case keymap.Matches(msg.String(), v.keymap.Focus):
		v.toggleFocus()
		return v, nil
	case keymap.Matches(msg.String(), v.keymap.Stop):
		if v.chat != nil {
			v.chat.Stop()
		}
		return v, nil
	case keymap.Matches(msg.String(), v.keymap.Retry):
		return v, v.retry()
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			return v, v.handleEnter()
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	return v.handleTranscriptKey(msg)
}

// handleTranscriptKey processes keys while a message is selected.
func (v *View) handleTranscriptKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	selected := v.transcript.SelectedMessage()

	switch {
	case keymap.Matches(msg.String(), v.keymap.Select):
		if selected == nil {
			return v, nil
		}
		return v, v.followCitation(selected.ID)
	case keymap.Matches(msg.String(), v.keymap.Delete):
		if selected == nil || v.chat == nil {
			return v, nil
		}
		if err := v.chat.Delete(selected.ID); err != nil {
			v.setError(err)
		}
		v.Refresh()
		return v, nil
	case keymap.Matches(msg.String(), v.keymap.Copy):
		if selected == nil {
			return v, nil
		}
		return v, v.copyMessage(*selected)
	}

	var cmd tea.Cmd
	v.transcript, cmd = v.transcript.Update(msg)
	return v, cmd
}

// handleEnter runs a slash command or submits the typed question.
func (v *View) handleEnter() tea.Cmd {
	command := input.Parse(v.input.Value())

	switch command.Kind {
	case input.CommandUpload:
		if command.Arg == "" {
			v.setError(fmt.Errorf("/upload: %w", ErrMissingPath))
			return nil
		}
		v.input.SetValue("")
		v.setMessage("Uploading " + filepath.Base(command.Arg) + "...")
		return v.upload(expandPath(command.Arg))

	case input.CommandAttach:
		if command.Arg == "" {
			v.setError(fmt.Errorf("/attach: %w", ErrMissingPath))
			return nil
		}
		path := expandPath(command.Arg)
		if _, err := os.Stat(path); err != nil {
			v.setError(err)
			return nil
		}
		v.input.SetValue("")
		v.input.Attach(path)
		v.setMessage("Attached " + filepath.Base(path))
		return nil

	case input.CommandClear:
		v.input.Reset()
		return v.clearHistory()

	case input.CommandUnknown:
		v.setError(fmt.Errorf("unknown command /%s", command.Arg))
		return nil

	case input.CommandNone:
	}

	attachments := attachmentsFrom(v.input.Attachments())
	if command.Arg == "" && len(attachments) == 0 {
		return nil
	}
	v.input.Reset()
	v.err = nil
	v.statusbar.Clear()
	v.statusbar.SetState(status.StateWaiting)
	return v.submit(command.Arg, attachments)
}

// submit sends a question and waits for its answer in the background.
func (v *View) submit(text string, attachments []domain.Attachment) tea.Cmd {
	return func() tea.Msg {
		if v.chat == nil {
			return messages.ErrorOccurred{Err: ErrNoChatSession}
		}
		turn, err := v.chat.Submit(v.ctx, text, attachments)
		return waitTurn(v.ctx, turn, err)
	}
}

// retry re-submits the last question.
func (v *View) retry() tea.Cmd {
	return func() tea.Msg {
		if v.chat == nil {
			return messages.ErrorOccurred{Err: ErrNoChatSession}
		}
		turn, err := v.chat.RetryLast(v.ctx)
		return waitTurn(v.ctx, turn, err)
	}
}

func waitTurn(ctx context.Context, turn driving.Turn, err error) tea.Msg {
	if err != nil {
		return messages.TurnFinished{Err: err}
	}
	if turn == nil {
		return messages.TurnFinished{}
	}
	_, err = turn.Wait(ctx)
	return messages.TurnFinished{AssistantID: turn.AssistantID(), Err: err}
}

// followCitation navigates to the first citation of a message.
func (v *View) followCitation(id string) tea.Cmd {
	return func() tea.Msg {
		if v.chat == nil {
			return messages.ErrorOccurred{Err: ErrNoChatSession}
		}
		nav, err := v.chat.CitationClicked(v.ctx, id)
		if err != nil && nav.Outcome == "" {
			return messages.ErrorOccurred{Err: err}
		}
		return messages.NavigationRecorded{Navigation: nav, Requested: true}
	}
}

// upload adds a local PDF to the library.
func (v *View) upload(path string) tea.Cmd {
	return func() tea.Msg {
		if v.chat == nil {
			return messages.ErrorOccurred{Err: ErrNoChatSession}
		}
		entry, err := v.chat.Upload(v.ctx, path)
		return messages.UploadFinished{Path: path, Entry: entry, Err: err}
	}
}

// copyMessage copies a message and its sources to the clipboard.
func (v *View) copyMessage(msg domain.Message) tea.Cmd {
	return func() tea.Msg {
		if v.actionService == nil {
			return messages.MessageCopied{MessageID: msg.ID, Err: ErrNoActionService}
		}
		err := v.actionService.CopyToClipboard(v.ctx, msg)
		return messages.MessageCopied{MessageID: msg.ID, Err: err}
	}
}

// clearHistory empties the conversation.
func (v *View) clearHistory() tea.Cmd {
	return func() tea.Msg {
		if v.chat == nil {
			return messages.ErrorOccurred{Err: ErrNoChatSession}
		}
		if err := v.chat.ClearHistory(v.ctx); err != nil {
			return messages.ErrorOccurred{Err: err}
		}
		return messages.TranscriptChanged{}
	}
}

// handleTurnFinished reports the outcome of a submission.
func (v *View) handleTurnFinished(msg messages.TurnFinished) {
	switch {
	case msg.Err == nil:
		v.err = nil
	case errors.Is(msg.Err, context.Canceled):
		v.setMessage("Stopped")
	case errors.Is(msg.Err, domain.ErrNothingToRetry):
		v.setMessage("Nothing to retry")
	default:
		v.setError(msg.Err)
	}
}

// handleUploadFinished reports the outcome of an upload.
func (v *View) handleUploadFinished(msg messages.UploadFinished) {
	v.transcript.SetLibrary(v.library())
	name := msg.Entry.DisplayName
	if name == "" {
		name = filepath.Base(msg.Path)
	}

	switch {
	case msg.Err == nil:
		v.setMessage("Uploaded " + name)
	case msg.Entry.ID != "":
		v.setError(fmt.Errorf("kept %s locally: %w", name, msg.Err))
	default:
		v.setError(fmt.Errorf("upload %s: %w", name, msg.Err))
	}
}

// toggleFocus switches between typing and browsing the transcript.
func (v *View) toggleFocus() {
	if v.focusInput {
		if v.transcript.Count() == 0 {
			return
		}
		v.focusInput = false
		v.input.Blur()
		v.transcript.SelectLast()
	} else {
		v.focusInput = true
		v.input.Focus()
		v.transcript.ClearSelection()
	}
	v.syncState()
}

// Refresh reloads the transcript and catalog from the session.
func (v *View) Refresh() {
	if v.chat == nil {
		return
	}
	v.transcript.SetMessages(v.chat.Messages())
	v.transcript.SetLibrary(v.library())
	if !v.focusInput && v.transcript.SelectedMessage() == nil {
		v.transcript.SelectLast()
	}
	v.syncState()
}

// syncState derives the status bar state from the newest message.
func (v *View) syncState() {
	if v.statusbar.State() == status.StateError && !v.busy() {
		return
	}
	switch {
	case v.newestStatus() == domain.StatusPending:
		v.statusbar.SetState(status.StateWaiting)
	case v.newestStatus() == domain.StatusStreaming:
		v.statusbar.SetState(status.StateStreaming)
	case !v.focusInput:
		v.statusbar.SetState(status.StateBrowsing)
	default:
		v.statusbar.SetState(status.StateReady)
	}
}

func (v *View) busy() bool {
	s := v.newestStatus()
	return s == domain.StatusPending || s == domain.StatusStreaming
}

func (v *View) newestStatus() domain.MessageStatus {
	msgs := v.transcript.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleAssistant {
			return msgs[i].Status
		}
	}
	return ""
}

func (v *View) library() list.Library {
	if v.chat == nil {
		return nil
	}
	return list.Library(v.chat.Documents())
}

func (v *View) setMessage(text string) {
	v.err = nil
	v.statusbar.SetMessage(text)
	if v.statusbar.State() == status.StateError {
		v.statusbar.SetState(status.StateReady)
	}
	v.syncState()
}

func (v *View) setError(err error) {
	if err == nil {
		return
	}
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{
		v.styles.Title.Render("Cortex"),
		"",
		v.transcript.View(),
		"",
		v.input.View(),
		v.statusbar.View(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	// Title, blank lines, input (with attachments) and status bar
	transcriptHeight := height - 8
	if transcriptHeight < 3 {
		transcriptHeight = 3
	}
	v.transcript.SetDimensions(width, transcriptHeight)
}

// Input returns the chat input.
func (v *View) Input() *input.ChatInput {
	return v.input
}

// Transcript returns the transcript component.
func (v *View) Transcript() *list.Transcript {
	return v.transcript
}

// StatusBar returns the status bar.
func (v *View) StatusBar() *status.Bar {
	return v.statusbar
}

// FocusInput reports whether the input has focus.
func (v *View) FocusInput() bool {
	return v.focusInput
}

// Err returns the last error shown.
func (v *View) Err() error {
	return v.err
}

// attachmentsFrom builds attachments from local paths.
func attachmentsFrom(paths []string) []domain.Attachment {
	out := make([]domain.Attachment, 0, len(paths))
	for _, p := range paths {
		mediaType := mime.TypeByExtension(strings.ToLower(filepath.Ext(p)))
		if mediaType == "" {
			mediaType = "application/octet-stream"
		}
		out = append(out, domain.Attachment{Name: filepath.Base(p), MediaType: mediaType, Path: p})
	}
	return out
}

// expandPath resolves a leading ~ to the home directory.
func expandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
