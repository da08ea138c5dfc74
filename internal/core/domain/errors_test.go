package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrNotImplemented", ErrNotImplemented},
		{"ErrParseDegraded", ErrParseDegraded},
		{"ErrNothingToRetry", ErrNothingToRetry},
		{"ErrSessionClosed", ErrSessionClosed},
		{"ErrUnsupportedFile", ErrUnsupportedFile},
		{"ErrAuthRequired", ErrAuthRequired},
		{"ErrAuthExpired", ErrAuthExpired},
		{"ErrAuthInvalid", ErrAuthInvalid},
		{"ErrRateLimited", ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestFetchError(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("navigate: %w", &FetchError{Kind: FetchNetwork, DocumentID: "doc-1", Err: cause})

	assert.True(t, IsFetchKind(err, FetchNetwork))
	assert.False(t, IsFetchKind(err, FetchNotFound))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "doc-1")
	assert.Contains(t, err.Error(), "network")
}

func TestFetchError_NoCause(t *testing.T) {
	err := &FetchError{Kind: FetchNotFound, DocumentID: "local-1"}
	assert.Equal(t, "fetch document local-1: not_found", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestIsUnauthorized(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"auth required", ErrAuthRequired, true},
		{"wrapped expired", fmt.Errorf("ask: %w", ErrAuthExpired), true},
		{"fetch unauthorized", &FetchError{Kind: FetchUnauthorized}, true},
		{"fetch not found", &FetchError{Kind: FetchNotFound}, false},
		{"sync unauthorized", &CatalogSyncError{Unauthorized: true, Err: errors.New("401")}, true},
		{"sync network", &CatalogSyncError{Err: errors.New("dial")}, false},
		{"other", ErrNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUnauthorized(tt.err))
		})
	}
}

func TestSubmissionFailed(t *testing.T) {
	cause := errors.New("status 500")
	err := &SubmissionFailed{MessageID: "m1", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "submission m1 failed: status 500", err.Error())
}
