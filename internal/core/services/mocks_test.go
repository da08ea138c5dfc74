package services

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driven"
)

// --- Test doubles shared by the service tests ---

// fakeReply is a scripted backend answer.
type fakeReply struct {
	body      string
	err       error
	delay     time.Duration
	snapshots []string
	// block waits for ctx cancellation after sending snapshots.
	block bool
}

// fakeQueryClient answers questions from a script keyed by question text.
type fakeQueryClient struct {
	mu      sync.Mutex
	replies map[string]fakeReply
	asked   []string
	pingErr error
}

func newFakeQueryClient() *fakeQueryClient {
	return &fakeQueryClient{replies: make(map[string]fakeReply)}
}

func (f *fakeQueryClient) on(question string, r fakeReply) *fakeQueryClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[question] = r
	return f
}

func (f *fakeQueryClient) questions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.asked...)
}

func (f *fakeQueryClient) reply(question string) fakeReply {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asked = append(f.asked, question)
	r, ok := f.replies[question]
	if !ok {
		return fakeReply{body: `{"answer":"no script for ` + question + `"}`}
	}
	return r
}

func (f *fakeQueryClient) Query(ctx context.Context, question string) (string, error) {
	r := f.reply(question)
	if r.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if r.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(r.delay):
		}
	}
	return r.body, r.err
}

func (f *fakeQueryClient) Stream(ctx context.Context, question string, emit func(string)) (string, error) {
	r := f.reply(question)
	last := ""
	for _, s := range r.snapshots {
		emit(s)
		last = s
	}
	if r.block {
		<-ctx.Done()
		return last, ctx.Err()
	}
	if r.err != nil {
		return last, r.err
	}
	if r.body != "" {
		return r.body, nil
	}
	return last, nil
}

func (f *fakeQueryClient) Ping(_ context.Context) error {
	return f.pingErr
}

// fakePaperClient serves a fixed paper list and counts downloads.
type fakePaperClient struct {
	mu        sync.Mutex
	papers    []domain.RemoteDocument
	listErr   error
	listGate  chan struct{}
	listEnter chan struct{}
	content   map[string]string
	dlErr     error
	dlGate    chan struct{}
	downloads atomic.Int32
	uploadID  string
	uploadErr error
	uploaded  []string
}

func (f *fakePaperClient) ListPapers(ctx context.Context, _ string) ([]domain.RemoteDocument, error) {
	if f.listEnter != nil {
		f.listEnter <- struct{}{}
	}
	if f.listGate != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-f.listGate:
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.RemoteDocument(nil), f.papers...), nil
}

func (f *fakePaperClient) UploadPaper(_ context.Context, _, filename string, r io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = append(f.uploaded, filename)
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return f.uploadID, nil
}

func (f *fakePaperClient) DownloadPaper(ctx context.Context, _, id string) (io.ReadCloser, string, error) {
	f.downloads.Add(1)
	if f.dlGate != nil {
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-f.dlGate:
		}
	}
	if f.dlErr != nil {
		return nil, "", f.dlErr
	}
	f.mu.Lock()
	body, ok := f.content[id]
	f.mu.Unlock()
	if !ok {
		return nil, "", &driven.BackendError{Kind: driven.BackendNotFound, StatusCode: 404}
	}
	return io.NopCloser(strings.NewReader(body)), "application/pdf", nil
}

// staticTokens always returns the same token.
type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) GetToken(_ context.Context) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.token, nil
}

func (s staticTokens) IsAuthenticated() bool {
	return s.err == nil && s.token != ""
}

// recordingViewer records every Show call.
type recordingViewer struct {
	mu    sync.Mutex
	shown []domain.NavigationTarget
	err   error
}

func (v *recordingViewer) Show(_ context.Context, target domain.NavigationTarget, _ domain.ContentHandle) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.err != nil {
		return v.err
	}
	v.shown = append(v.shown, target)
	return nil
}

func (v *recordingViewer) targets() []domain.NavigationTarget {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]domain.NavigationTarget(nil), v.shown...)
}
