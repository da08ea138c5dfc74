package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/cortex-cli/internal/core/ports/driven"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/", Timeout: 5 * time.Second})
}

func TestQuery(t *testing.T) {
	var gotAuth, gotQuestion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotQuestion = r.URL.Query().Get("question")
		_, _ = io.WriteString(w, `{"answer":"42","citations":[]}`)
	}))
	defer srv.Close()

	client := NewClient(Config{
		BaseURL: srv.URL,
		Tokens:  oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok"}),
	})

	body, err := client.Query(t.Context(), "what is 6 × 7?")

	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"42","citations":[]}`, body)
	assert.Equal(t, "what is 6 × 7?", gotQuestion)
	assert.Equal(t, "Bearer tok", gotAuth)
}

func TestQuery_WithoutToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, "plain")
	})

	body, err := client.Query(t.Context(), "q")

	require.NoError(t, err)
	assert.Equal(t, "plain", body)
}

func TestQuery_AnswerSizeLimit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"at limit", maxAnswerBody, false},
		{"over limit", maxAnswerBody + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, strings.Repeat("a", tt.size))
			})

			body, err := client.Query(t.Context(), "q")

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrAnswerTooLarge)
				assert.Empty(t, body)
				return
			}
			require.NoError(t, err)
			assert.Len(t, body, tt.size)
		})
	}
}

func TestStatusErrors(t *testing.T) {
	tests := []struct {
		status  int
		body    string
		kind    driven.BackendErrorKind
		message string
	}{
		{http.StatusUnauthorized, `{"detail":"Invalid token"}`, driven.BackendUnauthorized, "Invalid token"},
		{http.StatusForbidden, ``, driven.BackendUnauthorized, ""},
		{http.StatusNotFound, `not here`, driven.BackendNotFound, "not here"},
		{http.StatusInternalServerError, `{"detail":"MCP error: boom"}`, driven.BackendStatus, "MCP error: boom"},
		{http.StatusTooManyRequests, `{"message":"slow down"}`, driven.BackendRateLimited, "slow down"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				if tt.status == http.StatusTooManyRequests {
					w.Header().Set("Retry-After", "7")
				}
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.Query(t.Context(), "q")

			var be *driven.BackendError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, tt.kind, be.Kind)
			assert.Equal(t, tt.status, be.StatusCode)
			assert.Equal(t, tt.message, be.Message)
			if tt.status == http.StatusTooManyRequests {
				assert.WithinDuration(t, time.Now().Add(7*time.Second), client.limiter.RetryAt(), time.Second)
			}
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewClient(Config{BaseURL: url}).Ping(t.Context())

	assert.Equal(t, driven.BackendNetwork, driven.BackendKind(err))
}

func TestPing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	})

	assert.NoError(t, client.Ping(t.Context()))
}

func TestStream(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reasoning", r.URL.Path)
		assert.Equal(t, "q", r.URL.Query().Get("question"))
		w.Header().Set("Content-Type", "text/event-stream")
		events := []string{
			`{"step":"Searching papers","time_spent":0.2}`,
			`{"answer":"Atten`,
			`{"answer":"Attention weighs tokens.","citations":[]}`,
			`[DONE]`,
			`{"answer":"ignored"}`,
		}
		for _, e := range events {
			_, _ = fmt.Fprintf(w, "data: %s\n\n", e)
			w.(http.Flusher).Flush()
		}
	})

	var snapshots []string
	final, err := client.Stream(t.Context(), "q", func(s string) { snapshots = append(snapshots, s) })

	require.NoError(t, err)
	assert.Equal(t, `{"answer":"Attention weighs tokens.","citations":[]}`, final)
	assert.Equal(t, []string{`{"answer":"Atten`, final}, snapshots)
}

func TestStream_ErrorEvent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "data: partial\n\n")
		_, _ = io.WriteString(w, `data: {"step":"Error: agent crashed","time_spent":0,"error":true}`+"\n\n")
	})

	last, err := client.Stream(t.Context(), "q", nil)

	var be *driven.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "Error: agent crashed", be.Message)
	assert.Equal(t, "partial", last)
}

func TestStream_CanceledKeepsLastSnapshot(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "data: The answer is\n\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(t.Context())
	last, err := client.Stream(ctx, "q", func(string) { cancel() })

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "The answer is", last)
}

func TestListPapers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/papers", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[
			{"id":"doc-42","filename":"attention.pdf","uploaded_at":"2025-10-01T08:30:00.123456"},
			{"id":7,"filename":"bert.pdf","uploaded_at":"2025-10-02T09:00:00Z"},
			{"filename":"no-id.pdf"}
		]`)
	})

	docs, err := client.ListPapers(t.Context(), "tok")

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "doc-42", docs[0].ID)
	assert.Equal(t, "attention.pdf", docs[0].Filename)
	assert.Equal(t, time.Date(2025, 10, 1, 8, 30, 0, 123456000, time.UTC), docs[0].UploadedAt)
	assert.Equal(t, "7", docs[1].ID)
}

func TestUploadPaper(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/upload", r.URL.Path)
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		assert.Equal(t, "%PDF-1.4 body", string(content))
		assert.Equal(t, "mine.pdf", header.Filename)
		assert.Equal(t, "application/pdf", header.Header.Get("Content-Type"))
		_ = json.NewEncoder(w).Encode(map[string]string{"paper_id": "srv-1", "filename": "mine.pdf", "status": "uploaded"})
	})

	id, err := client.UploadPaper(t.Context(), "tok", "/home/ada/mine.pdf", strings.NewReader("%PDF-1.4 body"))

	require.NoError(t, err)
	assert.Equal(t, "srv-1", id)
}

func TestUploadPaper_Rejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusUnsupportedMediaType)
		_, _ = io.WriteString(w, `{"detail":"Only PDF files are supported."}`)
	})

	_, err := client.UploadPaper(t.Context(), "tok", "x.pdf", strings.NewReader("data"))

	var be *driven.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, http.StatusUnsupportedMediaType, be.StatusCode)
}

func TestDownloadPaper(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload/doc-42", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = io.WriteString(w, "%PDF-1.7")
	})

	rc, mediaType, err := client.DownloadPaper(t.Context(), "tok", "doc-42")

	require.NoError(t, err)
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "%PDF-1.7", string(body))
	assert.Equal(t, "application/pdf", mediaType)
}

func TestLoginAndSignup(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		var in credentialsRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		if in.Password != "right" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"Invalid credentials"}`)
			return
		}
		_, _ = io.WriteString(w, `{"access_token":"jwt","token_type":"bearer"}`)
	})

	tok, err := client.Login(t.Context(), "ada@example.com", "right")
	require.NoError(t, err)
	assert.Equal(t, "jwt", tok.Token)

	_, err = client.Signup(t.Context(), "ada@example.com", "wrong")
	assert.Equal(t, driven.BackendUnauthorized, driven.BackendKind(err))

	assert.Equal(t, []string{"/auth/login", "/auth/signup"}, paths)
}

func TestReadEvents(t *testing.T) {
	input := ": keep-alive\n" +
		"event: update\n" +
		"data: line one\n" +
		"data: line two\n" +
		"\n" +
		"data:no-space\n" +
		"\n" +
		"\n" +
		"data: trailing"

	var got []event
	err := readEvents(strings.NewReader(input), func(ev event) error {
		got = append(got, ev)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []event{
		{Name: "update", Data: "line one\nline two"},
		{Data: "no-space"},
		{Data: "trailing"},
	}, got)
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 0, retryAfter(""))
	assert.Equal(t, 12, retryAfter("12"))
	assert.Equal(t, 0, retryAfter("soon"))
	future := time.Now().Add(90 * time.Second).UTC().Format(http.TimeFormat)
	assert.InDelta(t, 90, retryAfter(future), 2)
}
