package testutil

import (
	"context"
	"sync"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driving"
)

// Ensure ChatSession implements the interface.
var _ driving.ChatSession = (*ChatSession)(nil)

// ChatSession is a scripted driving.ChatSession. Asked questions get Answer;
// navigation calls return Nav. Every call is recorded.
type ChatSession struct {
	mu sync.Mutex

	Answer     domain.Message
	AnswerErr  error
	Nav        domain.Navigation
	NavErr     error
	Entries    []domain.DocumentEntry
	SyncErr    error
	UploadErr  error
	PingErr    error
	Transcript []domain.Message

	Questions   []string
	Attachments [][]domain.Attachment
	Opened      []domain.NavigationTarget
	Clicked     []string
	Uploaded    []string
	Deleted     []string
	Stops       int
	Retries     int
	Syncs       int
	Restores    int
	Cleared     int
	AutoNav     *bool

	lastNav *domain.Navigation
}

// Submit records the question and returns a completed turn.
func (c *ChatSession) Submit(ctx context.Context, text string, attachments []domain.Attachment) (driving.Turn, error) {
	msg, err := c.Ask(ctx, text, attachments)
	if err != nil && msg.ID == "" {
		return nil, err
	}
	return doneTurn{msg: msg, err: err}, nil
}

// Ask records the question and returns Answer.
func (c *ChatSession) Ask(_ context.Context, text string, attachments []domain.Attachment) (domain.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Questions = append(c.Questions, text)
	c.Attachments = append(c.Attachments, attachments)
	if c.AnswerErr != nil {
		return domain.Message{}, c.AnswerErr
	}
	user := domain.Message{ID: "user-" + c.Answer.ID, Role: domain.RoleUser, Status: domain.StatusDone,
		Parts: []domain.Part{domain.TextPart(text)}}
	c.Transcript = append(c.Transcript, user, c.Answer.Clone())
	if c.Nav.Outcome != "" && (c.AutoNav == nil || *c.AutoNav) {
		nav := c.Nav
		nav.MessageID = c.Answer.ID
		c.lastNav = &nav
	}
	return c.Answer.Clone(), nil
}

// Stop counts calls.
func (c *ChatSession) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Stops++
}

// RetryLast counts calls and returns a completed turn.
func (c *ChatSession) RetryLast(_ context.Context) (driving.Turn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Retries++
	return doneTurn{msg: c.Answer.Clone()}, nil
}

// Delete removes a message from Transcript.
func (c *ChatSession) Delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Deleted = append(c.Deleted, id)
	for i, m := range c.Transcript {
		if m.ID == id {
			c.Transcript = append(c.Transcript[:i], c.Transcript[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// CitationClicked records the message id and returns Nav.
func (c *ChatSession) CitationClicked(_ context.Context, messageID string) (domain.Navigation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Clicked = append(c.Clicked, messageID)
	nav := c.Nav
	nav.MessageID = messageID
	c.lastNav = &nav
	return nav, c.NavErr
}

// Open records the target and returns Nav with that target.
func (c *ChatSession) Open(_ context.Context, documentID string, page int) (domain.Navigation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	target := domain.NavigationTarget{DocumentID: documentID, Page: page}
	c.Opened = append(c.Opened, target)
	nav := c.Nav
	nav.Target = target
	c.lastNav = &nav
	return nav, c.NavErr
}

// Upload records the path and returns a local entry for it.
func (c *ChatSession) Upload(_ context.Context, path string) (domain.DocumentEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Uploaded = append(c.Uploaded, path)
	entry := domain.DocumentEntry{ID: domain.LocalIDPrefix + "1", DisplayName: path, Local: true}
	return entry, c.UploadErr
}

// Messages returns Transcript.
func (c *ChatSession) Messages() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Message, len(c.Transcript))
	for i, m := range c.Transcript {
		out[i] = m.Clone()
	}
	return out
}

// Message finds a message in Transcript.
func (c *ChatSession) Message(id string) (domain.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.Transcript {
		if m.ID == id {
			return m.Clone(), true
		}
	}
	return domain.Message{}, false
}

// Err returns AnswerErr.
func (c *ChatSession) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.AnswerErr
}

// LastNavigation returns the last navigation produced by a call.
func (c *ChatSession) LastNavigation() (domain.Navigation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastNav == nil {
		return domain.Navigation{}, false
	}
	return *c.lastNav, true
}

// Documents returns Entries.
func (c *ChatSession) Documents() []domain.DocumentEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.DocumentEntry(nil), c.Entries...)
}

// SyncDocuments counts calls and returns Entries or SyncErr.
func (c *ChatSession) SyncDocuments(_ context.Context) ([]domain.DocumentEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Syncs++
	if c.SyncErr != nil {
		return nil, c.SyncErr
	}
	return append([]domain.DocumentEntry(nil), c.Entries...), nil
}

// Restore counts calls.
func (c *ChatSession) Restore(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Restores++
	return nil
}

// ClearHistory empties Transcript.
func (c *ChatSession) ClearHistory(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Cleared++
	c.Transcript = nil
	return nil
}

// SetAutoNavigate records the setting.
func (c *ChatSession) SetAutoNavigate(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.AutoNav = &on
}

// Ping returns PingErr.
func (c *ChatSession) Ping(_ context.Context) error {
	return c.PingErr
}

// Close does nothing.
func (c *ChatSession) Close() error {
	return nil
}

type doneTurn struct {
	msg domain.Message
	err error
}

func (t doneTurn) UserID() string      { return "user-" + t.msg.ID }
func (t doneTurn) AssistantID() string { return t.msg.ID }

func (t doneTurn) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (t doneTurn) Wait(_ context.Context) (domain.Message, error) {
	return t.msg, t.err
}
