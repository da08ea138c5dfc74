package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driving"
	"github.com/custodia-labs/cortex-cli/internal/logger"
)

// Ensure Session implements the interface.
var _ driving.ChatSession = (*Session)(nil)

const pdfMediaType = "application/pdf"

// SessionConfig wires a Session to its collaborators.
type SessionConfig struct {
	// Query sends questions. Required.
	Query driven.QueryClient

	// Papers uploads documents. Optional; uploads stay local without it.
	Papers driven.PaperClient

	// Tokens supplies the bearer token. Optional.
	Tokens driven.TokenProvider

	// Catalog holds the known documents. Required.
	Catalog *Catalog

	// Fetcher obtains document content. Required for navigation.
	Fetcher driving.DocumentFetcher

	// Blobs stores uploaded files. Optional.
	Blobs driven.BlobStore

	// Viewer displays navigation targets. Optional.
	Viewer driven.Viewer

	// Transcript persists messages. Optional.
	Transcript driven.TranscriptStore

	// Transport selects request or stream answers.
	Transport domain.AnswerTransport

	// AutoNavigate shows the first citation of each successful answer.
	AutoNavigate bool

	// OnChange is called after every transcript change, outside the session lock.
	OnChange func()

	// OnNavigation is called with every navigation outcome except superseded ones.
	OnNavigation func(domain.Navigation)
}

// request is the captured copy of a submission used by RetryLast. The
// attachments were registered by the first run and are not uploaded again.
type request struct {
	text        string
	attachments []domain.Attachment
}

// Session owns one conversation. All transcript mutations happen under mu;
// backend calls, fetches and viewer updates happen outside it.
type Session struct {
	cfg SessionConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	messages []domain.Message
	err      error
	last     *request
	inflight map[string]*turn
	latest   *turn
	closed   bool
	lastNav  *domain.Navigation

	navMu   sync.Mutex
	navSeq  atomic.Uint64
	autoNav atomic.Bool
}

// NewSession creates a session with an empty transcript.
func NewSession(cfg SessionConfig) *Session {
	if cfg.Catalog == nil {
		cfg.Catalog = NewCatalog(cfg.Papers)
	}
	if cfg.Transport == "" {
		cfg.Transport = domain.TransportRequest
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:      cfg,
		ctx:      ctx,
		cancel:   cancel,
		inflight: make(map[string]*turn),
	}
	s.autoNav.Store(cfg.AutoNavigate)
	return s
}

// turn tracks one in-flight question.
type turn struct {
	session     *Session
	userID      string
	assistantID string
	cancel      context.CancelFunc
	stopped     atomic.Bool
	done        chan struct{}
}

func (t *turn) UserID() string        { return t.userID }
func (t *turn) AssistantID() string   { return t.assistantID }
func (t *turn) Done() <-chan struct{} { return t.done }

// Wait blocks until the turn completes and returns the assistant message.
func (t *turn) Wait(ctx context.Context) (domain.Message, error) {
	select {
	case <-ctx.Done():
		return domain.Message{}, ctx.Err()
	case <-t.done:
	}
	msg, ok := t.session.Message(t.assistantID)
	if !ok {
		return domain.Message{}, fmt.Errorf("message %s: %w", t.assistantID, domain.ErrNotFound)
	}
	if msg.Status == domain.StatusFailed {
		var failed *domain.SubmissionFailed
		if err := t.session.Err(); errors.As(err, &failed) && failed.MessageID == t.assistantID {
			return msg, err
		}
		return msg, &domain.SubmissionFailed{MessageID: t.assistantID}
	}
	return msg, nil
}

func newMessageID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Submit appends the user message and a pending assistant message, then
// sends the question in the background. Blank text with no attachments is ignored.
func (s *Session) Submit(ctx context.Context, text string, attachments []domain.Attachment) (driving.Turn, error) {
	t, err := s.submit(ctx, text, attachments, true)
	if t == nil {
		return nil, err
	}
	return t, err
}

func (s *Session) submit(
	_ context.Context,
	text string,
	attachments []domain.Attachment,
	upload bool,
) (*turn, error) {
	if strings.TrimSpace(text) == "" && len(attachments) == 0 {
		return nil, nil
	}
	if s.cfg.Query == nil {
		return nil, fmt.Errorf("submit: query client: %w", domain.ErrNotImplemented)
	}

	now := time.Now()
	user := domain.Message{
		ID:        newMessageID(),
		Role:      domain.RoleUser,
		Status:    domain.StatusDone,
		CreatedAt: now,
	}
	if text != "" {
		user.Parts = append(user.Parts, domain.TextPart(text))
	}
	for _, a := range attachments {
		user.Parts = append(user.Parts, domain.FilePart(a))
	}
	assistant := domain.Message{
		ID:        newMessageID(),
		Role:      domain.RoleAssistant,
		Status:    domain.StatusPending,
		CreatedAt: now,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, domain.ErrSessionClosed
	}
	turnCtx, cancel := context.WithCancel(s.ctx)
	t := &turn{
		session:     s,
		userID:      user.ID,
		assistantID: assistant.ID,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	s.messages = append(s.messages, user, assistant)
	s.last = &request{text: text, attachments: append([]domain.Attachment(nil), attachments...)}
	s.err = nil
	s.inflight[assistant.ID] = t
	s.latest = t
	s.wg.Add(1)
	s.mu.Unlock()

	logger.Debug("submit %s: %q (%d attachments)", assistant.ID, text, len(attachments))
	s.persist(user.Clone())
	s.notify()

	go s.run(turnCtx, t, strings.TrimSpace(text), attachments, upload)
	return t, nil
}

// Ask submits a question and waits for the answer. If ctx ends first the
// request is stopped and ctx.Err() is returned.
func (s *Session) Ask(ctx context.Context, text string, attachments []domain.Attachment) (domain.Message, error) {
	t, err := s.submit(ctx, text, attachments, true)
	if err != nil {
		return domain.Message{}, err
	}
	if t == nil {
		return domain.Message{}, fmt.Errorf("ask: empty question: %w", domain.ErrInvalidInput)
	}
	msg, err := t.Wait(ctx)
	if ctx.Err() != nil {
		t.stop()
		<-t.done
	}
	return msg, err
}

func (s *Session) run(
	ctx context.Context,
	t *turn,
	question string,
	attachments []domain.Attachment,
	upload bool,
) {
	defer s.wg.Done()
	defer close(t.done)
	defer t.cancel()

	var added []string
	for _, a := range attachments {
		if a.Path == "" || !isPDFName(a.Name, a.Path) {
			continue
		}
		if !upload {
			added = append(added, filepath.Base(a.Path))
			continue
		}
		entry, err := s.upload(ctx, a.Path, false)
		if err != nil {
			logger.Warn("attachment %s not uploaded: %v", a.Name, err)
		}
		if entry.ID != "" {
			added = append(added, entry.DisplayName)
		}
	}

	var (
		body string
		err  error
	)
	switch {
	case question == "" && len(added) > 0:
		body = "Added " + strings.Join(added, ", ") + "."
	case question == "":
		err = fmt.Errorf("no question text: %w", domain.ErrInvalidInput)
	case s.cfg.Transport == domain.TransportStream:
		body, err = s.cfg.Query.Stream(ctx, question, func(snapshot string) {
			s.applySnapshot(t, snapshot)
		})
	default:
		body, err = s.cfg.Query.Query(ctx, question)
	}

	parsed, ok := s.finish(t, body, err)
	if ok && s.autoNav.Load() {
		if _, err := s.navigate(s.ctx, t.assistantID, parsed); err != nil {
			logger.Debug("auto navigation for %s: %v", t.assistantID, err)
		}
	}
}

// applySnapshot replaces the assistant content with the latest cumulative
// snapshot. Replaying a snapshot leaves the message unchanged.
func (s *Session) applySnapshot(t *turn, snapshot string) {
	if t.stopped.Load() {
		return
	}
	s.mu.Lock()
	i := s.indexOf(t.assistantID)
	if i < 0 || s.messages[i].Status.IsTerminal() {
		s.mu.Unlock()
		return
	}
	s.messages[i].Status = domain.StatusStreaming
	s.messages[i].Parts = []domain.Part{domain.TextPart(snapshotText(snapshot))}
	s.mu.Unlock()
	s.notify()
}

// finish moves the assistant message to its terminal status. It reports
// whether the turn succeeded and the message still exists.
func (s *Session) finish(t *turn, body string, err error) (domain.ParsedAnswer, bool) {
	stopped := t.stopped.Load()

	var parsed domain.ParsedAnswer
	if err == nil && !stopped {
		parsed = ParseAnswer(body)
	}

	s.mu.Lock()
	delete(s.inflight, t.assistantID)
	if s.latest == t {
		s.latest = nil
	}
	i := s.indexOf(t.assistantID)
	if i < 0 {
		s.mu.Unlock()
		logger.Debug("turn %s finished after its message was deleted", t.assistantID)
		return parsed, false
	}

	msg := &s.messages[i]
	ok := false
	switch {
	case stopped:
		msg.Status = domain.StatusDone
		if body != "" {
			partial, _ := decodeAnswer(body)
			msg.Parts = []domain.Part{domain.TextPart(partial.AnswerText)}
			msg.Citations = partial.Citations
		}
	case err != nil:
		msg.Status = domain.StatusFailed
		msg.Parts = nil
		msg.Citations = nil
		s.err = &domain.SubmissionFailed{MessageID: msg.ID, Err: err}
	default:
		msg.Status = domain.StatusDone
		msg.Parts = []domain.Part{domain.TextPart(parsed.AnswerText)}
		msg.Citations = parsed.Citations
		ok = true
	}
	final := msg.Clone()
	s.mu.Unlock()

	switch {
	case stopped:
		logger.Debug("turn %s stopped", final.ID)
	case err != nil:
		logger.Warn("question failed: %v", err)
	default:
		logger.Debug("turn %s done: %d citations", final.ID, len(final.Citations))
	}
	s.persist(final)
	s.notify()
	return parsed, ok
}

func (t *turn) stop() {
	t.stopped.Store(true)
	t.cancel()
}

// Stop aborts the newest in-flight request. It ends done with whatever
// content had arrived.
func (s *Session) Stop() {
	s.mu.Lock()
	t := s.latest
	s.mu.Unlock()
	if t != nil {
		t.stop()
	}
}

// RetryLast re-submits a copy of the last request. Its attachments are
// shown again but not re-uploaded.
func (s *Session) RetryLast(ctx context.Context) (driving.Turn, error) {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()
	if last == nil {
		return nil, domain.ErrNothingToRetry
	}
	t, err := s.submit(ctx, last.text, append([]domain.Attachment(nil), last.attachments...), false)
	if t == nil {
		return nil, err
	}
	return t, err
}

// Delete removes a message locally. A request still running for it is
// canceled and its result dropped.
func (s *Session) Delete(id string) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("delete message %s: %w", id, domain.ErrNotFound)
	}
	s.messages = append(s.messages[:i], s.messages[i+1:]...)
	if t, ok := s.inflight[id]; ok {
		t.cancel()
	}
	s.mu.Unlock()

	if s.cfg.Transcript != nil {
		if err := s.cfg.Transcript.DeleteMessage(context.Background(), id); err != nil {
			logger.Warn("delete message %s from history: %v", id, err)
		}
	}
	s.notify()
	return nil
}

// CitationClicked navigates to the first citation of a message.
func (s *Session) CitationClicked(ctx context.Context, messageID string) (domain.Navigation, error) {
	msg, ok := s.Message(messageID)
	if !ok {
		return domain.Navigation{}, fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
	}
	return s.navigate(ctx, messageID, domain.ParsedAnswer{Citations: msg.Citations})
}

// Open navigates to a catalog document at a page.
func (s *Session) Open(ctx context.Context, documentID string, page int) (domain.Navigation, error) {
	if page < 1 {
		page = 1
	}
	seq := s.navSeq.Add(1)
	return s.show(ctx, seq, "", domain.NavigationTarget{DocumentID: documentID, Page: page})
}

func (s *Session) navigate(ctx context.Context, messageID string, parsed domain.ParsedAnswer) (domain.Navigation, error) {
	seq := s.navSeq.Add(1)

	target, ok := ResolveTarget(parsed, s.cfg.Catalog)
	if !ok {
		nav := domain.Navigation{MessageID: messageID, Outcome: domain.NavigationNoCitation}
		if c, has := parsed.First(); has {
			nav.Outcome = domain.NavigationUnknownDocument
			logger.Debug("citation %q does not match a known document", c.DocumentToken())
		}
		s.record(nav)
		return nav, nil
	}
	return s.show(ctx, seq, messageID, target)
}

// show fetches the target's content and hands it to the viewer unless a
// newer navigation has started in the meantime.
func (s *Session) show(
	ctx context.Context,
	seq uint64,
	messageID string,
	target domain.NavigationTarget,
) (domain.Navigation, error) {
	nav := domain.Navigation{MessageID: messageID, Target: target}

	entry, ok := s.cfg.Catalog.Lookup(target.DocumentID)
	if !ok {
		nav.Outcome = domain.NavigationUnknownDocument
		s.record(nav)
		return nav, nil
	}
	if s.cfg.Fetcher == nil {
		nav.Outcome = domain.NavigationFetchFailed
		nav.Err = &domain.FetchError{Kind: domain.FetchNetwork, DocumentID: entry.ID, Err: domain.ErrNotImplemented}
		s.record(nav)
		return nav, nav.Err
	}

	content, err := s.cfg.Fetcher.ResolveContent(ctx, entry, s.token(ctx))

	s.navMu.Lock()
	defer s.navMu.Unlock()

	if s.navSeq.Load() != seq {
		nav.Outcome = domain.NavigationSuperseded
		logger.Debug("navigation to %s superseded", target.DocumentID)
		return nav, nil
	}
	if err != nil {
		nav.Outcome = domain.NavigationFetchFailed
		nav.Err = err
		s.record(nav)
		return nav, err
	}
	if content.Pages > 0 && target.Page > content.Pages {
		target.Page = content.Pages
		nav.Target = target
	}
	if s.cfg.Viewer != nil {
		if err := s.cfg.Viewer.Show(ctx, target, content); err != nil {
			nav.Outcome = domain.NavigationViewerFailed
			nav.Err = err
			s.record(nav)
			return nav, fmt.Errorf("show %s: %w", target.DocumentID, err)
		}
	}
	nav.Outcome = domain.NavigationNavigated
	nav.Content = &content
	s.record(nav)
	logger.Debug("navigated to %s page %d", target.DocumentID, target.Page)
	return nav, nil
}

func (s *Session) record(nav domain.Navigation) {
	s.mu.Lock()
	n := nav
	s.lastNav = &n
	s.mu.Unlock()
	if s.cfg.OnNavigation != nil {
		s.cfg.OnNavigation(nav)
	}
}

// Upload adds a local PDF to the catalog, shows its first page, and sends
// it to the backend. When the upload fails the local entry is kept and
// returned with the error.
func (s *Session) Upload(ctx context.Context, path string) (domain.DocumentEntry, error) {
	return s.upload(ctx, path, true)
}

func (s *Session) upload(ctx context.Context, path string, show bool) (domain.DocumentEntry, error) {
	name := filepath.Base(path)
	if err := checkPDF(path); err != nil {
		return domain.DocumentEntry{}, fmt.Errorf("upload %s: %w", name, err)
	}

	entry := s.cfg.Catalog.AddLocal(domain.DocumentEntry{DisplayName: name})
	if s.cfg.Blobs != nil {
		if h, err := s.storeLocal(ctx, entry.ID, path); err != nil {
			logger.Warn("cache %s: %v", name, err)
		} else if stored, err := s.cfg.Catalog.AttachContent(entry.ID, h); err == nil {
			entry.Content = &stored
		}
	}
	if show {
		if _, err := s.Open(ctx, entry.ID, 1); err != nil {
			logger.Debug("show %s: %v", name, err)
		}
	}

	if s.cfg.Papers == nil {
		return entry, nil
	}
	token := s.token(ctx)
	if token == "" {
		return entry, fmt.Errorf("upload %s: %w", name, domain.ErrAuthRequired)
	}

	f, err := os.Open(path)
	if err != nil {
		return entry, fmt.Errorf("upload %s: %w", name, err)
	}
	defer f.Close()

	backendID, err := s.cfg.Papers.UploadPaper(ctx, token, name, f)
	if err != nil {
		return entry, fmt.Errorf("upload %s: %w", name, err)
	}
	if err := s.cfg.Catalog.Promote(entry.ID, backendID); err != nil {
		return entry, err
	}
	logger.Info("uploaded %s as %s", name, backendID)

	if promoted, ok := s.cfg.Catalog.Lookup(backendID); ok {
		return promoted, nil
	}
	return entry, nil
}

func (s *Session) storeLocal(ctx context.Context, key, path string) (domain.ContentHandle, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.ContentHandle{}, err
	}
	defer f.Close()
	h, err := s.cfg.Blobs.Put(ctx, key, pdfMediaType, f)
	if err != nil {
		return domain.ContentHandle{}, err
	}
	h.Kind = domain.ContentLocal
	return h, nil
}

var pdfMagic = []byte("%PDF-")

// checkPDF accepts files that carry the PDF header.
func checkPDF(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, head); err != nil || !bytes.Equal(head, pdfMagic) {
		return domain.ErrUnsupportedFile
	}
	return nil
}

func isPDFName(names ...string) bool {
	for _, n := range names {
		if strings.EqualFold(filepath.Ext(n), ".pdf") {
			return true
		}
	}
	return false
}

func (s *Session) token(ctx context.Context) string {
	if s.cfg.Tokens == nil {
		return ""
	}
	token, err := s.cfg.Tokens.GetToken(ctx)
	if err != nil {
		logger.Debug("no token: %v", err)
		return ""
	}
	return token
}

// SyncDocuments refreshes the catalog from the backend.
func (s *Session) SyncDocuments(ctx context.Context) ([]domain.DocumentEntry, error) {
	entries, err := s.cfg.Catalog.Sync(ctx, s.token(ctx))
	if err != nil {
		return nil, err
	}
	s.notify()
	return entries, nil
}

// SetAutoNavigate turns automatic navigation on or off for answers that
// finish after the call.
func (s *Session) SetAutoNavigate(on bool) {
	s.autoNav.Store(on)
}

// Ping checks the backend is reachable.
func (s *Session) Ping(ctx context.Context) error {
	return s.cfg.Query.Ping(ctx)
}

// Documents returns the catalog entries.
func (s *Session) Documents() []domain.DocumentEntry {
	return s.cfg.Catalog.Entries()
}

// Catalog returns the session's catalog.
func (s *Session) Catalog() *Catalog {
	return s.cfg.Catalog
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.messages))
	for i, m := range s.messages {
		out[i] = m.Clone()
	}
	return out
}

// Message returns one message by id.
func (s *Session) Message(id string) (domain.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.messages[i].Clone(), true
	}
	return domain.Message{}, false
}

// Err returns the last submission error. The next submission clears it.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// LastNavigation returns the most recent navigation outcome.
func (s *Session) LastNavigation() (domain.Navigation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastNav == nil {
		return domain.Navigation{}, false
	}
	return *s.lastNav, true
}

// Restore loads the persisted transcript. Messages left pending by an
// earlier run are marked failed.
func (s *Session) Restore(ctx context.Context) error {
	if s.cfg.Transcript == nil {
		return nil
	}
	msgs, err := s.cfg.Transcript.ListMessages(ctx)
	if err != nil {
		return fmt.Errorf("restore transcript: %w", err)
	}
	for i := range msgs {
		if !msgs[i].Status.IsTerminal() {
			msgs[i].Status = domain.StatusFailed
			msgs[i].Parts = nil
		}
	}

	s.mu.Lock()
	s.messages = append(msgs, s.messages...)
	s.mu.Unlock()
	s.notify()
	return nil
}

// ClearHistory empties the transcript and its persisted copy.
func (s *Session) ClearHistory(ctx context.Context) error {
	s.mu.Lock()
	for _, t := range s.inflight {
		t.cancel()
	}
	s.messages = nil
	s.err = nil
	s.mu.Unlock()

	if s.cfg.Transcript != nil {
		if err := s.cfg.Transcript.Clear(ctx); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
	}
	s.notify()
	return nil
}

// Close cancels in-flight requests and waits for them to finish.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	return nil
}

// persist saves terminal messages and user messages.
func (s *Session) persist(msg domain.Message) {
	if s.cfg.Transcript == nil || !msg.Status.IsTerminal() {
		return
	}
	if err := s.cfg.Transcript.SaveMessage(context.Background(), msg); err != nil {
		logger.Warn("save message %s: %v", msg.ID, err)
	}
}

func (s *Session) notify() {
	if s.cfg.OnChange != nil {
		s.cfg.OnChange()
	}
}

func (s *Session) indexOf(id string) int {
	for i := range s.messages {
		if s.messages[i].ID == id {
			return i
		}
	}
	return -1
}
