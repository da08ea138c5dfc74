package backend

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/cortex-cli/internal/core/ports/driven"
)

// maxErrorBody limits how much of an error response is read.
const maxErrorBody = 4 << 10

// statusError converts a non-2xx response into a *driven.BackendError.
// A 429 also arms the rate limiter's backoff.
func (c *Client) statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	kind := driven.BackendStatus
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = driven.BackendUnauthorized
	case http.StatusNotFound, http.StatusGone:
		kind = driven.BackendNotFound
	case http.StatusTooManyRequests:
		kind = driven.BackendRateLimited
		c.limiter.RecordRateLimitError(retryAfter(resp.Header.Get("Retry-After")))
	}

	return &driven.BackendError{
		Kind:       kind,
		StatusCode: resp.StatusCode,
		Message:    errorMessage(body),
	}
}

// errorMessage extracts the detail of a JSON error body, falling back to
// the trimmed text.
func errorMessage(body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		var detail string
		if json.Unmarshal(payload.Detail, &detail) == nil && detail != "" {
			return detail
		}
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
		if len(payload.Detail) > 0 {
			return string(payload.Detail)
		}
	}
	return strings.TrimSpace(string(body))
}

// retryAfter parses a Retry-After header given in seconds or as an HTTP date.
// It returns 0 when the header is missing or unparseable.
func retryAfter(header string) int {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil {
		return secs
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return int(d.Round(time.Second) / time.Second)
		}
	}
	return 0
}
