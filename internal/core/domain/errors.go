package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrParseDegraded indicates a backend answer was not the expected JSON
	// object and the raw text was used instead. It is only ever logged.
	ErrParseDegraded = errors.New("answer parse degraded")

	// ErrNothingToRetry indicates RetryLast was called before any submission.
	ErrNothingToRetry = errors.New("nothing to retry")

	// ErrSessionClosed indicates the chat session has been closed.
	ErrSessionClosed = errors.New("session closed")

	// ErrUnsupportedFile indicates an upload that is not a PDF document.
	ErrUnsupportedFile = errors.New("unsupported file type")

	// Authentication Errors.

	// ErrAuthRequired indicates an operation needs a bearer token but none is configured.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthExpired indicates the stored token has expired.
	ErrAuthExpired = errors.New("authentication expired")

	// ErrAuthInvalid indicates the backend rejected the supplied credentials.
	ErrAuthInvalid = errors.New("authentication invalid")

	// ErrRateLimited indicates the backend rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// FetchKind classifies why a document could not be fetched.
type FetchKind string

// Fetch failure kinds.
const (
	// FetchUnauthorized means the token was missing or rejected.
	FetchUnauthorized FetchKind = "unauthorized"

	// FetchNotFound means the backend has no such document.
	FetchNotFound FetchKind = "not_found"

	// FetchNetwork covers transport failures and unexpected statuses.
	FetchNetwork FetchKind = "network"
)

// FetchError is returned when document content cannot be obtained.
type FetchError struct {
	Kind       FetchKind
	DocumentID string
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch document %s: %s: %v", e.DocumentID, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch document %s: %s", e.DocumentID, e.Kind)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// CatalogSyncError is returned when the document list could not be refreshed.
// The catalog is left unchanged.
type CatalogSyncError struct {
	Unauthorized bool
	Err          error
}

func (e *CatalogSyncError) Error() string {
	return fmt.Sprintf("catalog sync failed: %v", e.Err)
}

func (e *CatalogSyncError) Unwrap() error {
	return e.Err
}

// SubmissionFailed is recorded on the session when a query did not produce an answer.
type SubmissionFailed struct {
	MessageID string
	Err       error
}

func (e *SubmissionFailed) Error() string {
	return fmt.Sprintf("submission %s failed: %v", e.MessageID, e.Err)
}

func (e *SubmissionFailed) Unwrap() error {
	return e.Err
}

// IsFetchKind reports whether err is a FetchError of the given kind.
func IsFetchKind(err error, kind FetchKind) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}

// IsUnauthorized reports whether err stems from a missing or rejected token.
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrAuthRequired) || errors.Is(err, ErrAuthExpired) || errors.Is(err, ErrAuthInvalid) {
		return true
	}
	if IsFetchKind(err, FetchUnauthorized) {
		return true
	}
	var se *CatalogSyncError
	return errors.As(err, &se) && se.Unauthorized
}
