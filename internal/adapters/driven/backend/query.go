package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// maxAnswerBody bounds a non-streamed answer.
const maxAnswerBody = 8 << 20

// ErrAnswerTooLarge is returned when an answer body exceeds maxAnswerBody.
var ErrAnswerTooLarge = errors.New("answer too large")

// Query asks a question and returns the raw answer body.
func (c *Client) Query(ctx context.Context, question string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.cfg.QueryPath, url.Values{"question": {question}}, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req, "")

	resp, err := c.do(c.client, req)
	if err != nil {
		return "", fmt.Errorf("query: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAnswerBody+1))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("query: read answer: %w", err)
	}
	if len(body) > maxAnswerBody {
		return "", fmt.Errorf("query: %w: over %d bytes", ErrAnswerTooLarge, maxAnswerBody)
	}
	return string(body), nil
}

// Stream asks a question on the streaming endpoint. Every answer event is
// a cumulative snapshot and is passed to emit. When ctx ends the last
// snapshot is returned with ctx.Err().
func (c *Client) Stream(ctx context.Context, question string, emit func(snapshot string)) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.cfg.StreamPath, url.Values{"question": {question}}, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	c.authorize(req, "")

	resp, err := c.do(c.stream, req)
	if err != nil {
		return "", fmt.Errorf("stream: %w", err)
	}
	defer resp.Body.Close()

	last := ""
	err = readEvents(resp.Body, func(ev event) error {
		snapshot, ok, err := ev.answer()
		if err != nil || !ok {
			return err
		}
		last = snapshot
		if emit != nil {
			emit(snapshot)
		}
		return nil
	})
	switch {
	case ctx.Err() != nil:
		return last, ctx.Err()
	case errors.Is(err, errStreamDone), err == nil:
		return last, nil
	default:
		return last, fmt.Errorf("stream: %w", err)
	}
}

// Ping checks the backend health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, c.cfg.HealthPath, nil, nil)
	if err != nil {
		return err
	}

	resp, err := c.do(c.client, req)
	if err != nil {
		return fmt.Errorf("ping %s: %w", c.cfg.BaseURL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
