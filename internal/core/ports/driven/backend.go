package driven

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
)

// QueryClient sends questions to the retrieval-augmented backend.
// The returned body is the raw answer; parsing is the caller's job.
type QueryClient interface {
	// Query asks a question and waits for the complete answer body.
	Query(ctx context.Context, question string) (string, error)

	// Stream asks a question and calls emit with each cumulative snapshot
	// of the answer as it arrives. It returns the final body.
	// A canceled ctx ends the stream; the last snapshot is returned with ctx.Err().
	Stream(ctx context.Context, question string, emit func(snapshot string)) (string, error)

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
}

// PaperClient manages documents held by the backend.
type PaperClient interface {
	// ListPapers returns the documents visible to the token holder, in backend order.
	ListPapers(ctx context.Context, token string) ([]domain.RemoteDocument, error)

	// UploadPaper sends a document and returns its backend id.
	UploadPaper(ctx context.Context, token, filename string, r io.Reader) (string, error)

	// DownloadPaper opens the document bytes. The caller closes the reader.
	DownloadPaper(ctx context.Context, token, id string) (io.ReadCloser, string, error)
}

// BackendErrorKind classifies backend failures independent of transport.
type BackendErrorKind string

// Backend error kinds.
const (
	BackendUnauthorized BackendErrorKind = "unauthorized"
	BackendNotFound     BackendErrorKind = "not_found"
	BackendRateLimited  BackendErrorKind = "rate_limited"
	BackendStatus       BackendErrorKind = "status"
	BackendNetwork      BackendErrorKind = "network"
)

// BackendError is returned by backend adapters.
type BackendError struct {
	Kind       BackendErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *BackendError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("backend %s (%d): %s", e.Kind, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("backend %s (%d)", e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("backend %s: %v", e.Kind, e.Err)
	default:
		return "backend " + string(e.Kind)
	}
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// BackendKind returns the kind of a backend error, or BackendNetwork for
// any other non-nil error.
func BackendKind(err error) BackendErrorKind {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Kind
	}
	return BackendNetwork
}
