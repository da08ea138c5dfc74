package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driven"
)

// jsonEmptyArray is stored for messages without parts or citations.
const jsonEmptyArray = "[]"

// transcriptStore implements driven.TranscriptStore.
type transcriptStore struct {
	store *Store
}

var _ driven.TranscriptStore = (*transcriptStore)(nil)

// SaveMessage inserts or replaces a message. A replaced message keeps its
// place in the transcript.
func (s *transcriptStore) SaveMessage(ctx context.Context, msg domain.Message) error {
	parts, err := marshalList(msg.Parts)
	if err != nil {
		return fmt.Errorf("marshalling parts: %w", err)
	}
	citations, err := marshalList(msg.Citations)
	if err != nil {
		return fmt.Errorf("marshalling citations: %w", err)
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO messages (id, role, status, parts, citations, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			role = excluded.role,
			status = excluded.status,
			parts = excluded.parts,
			citations = excluded.citations
	`, msg.ID, msg.Role.String(), msg.Status.String(), parts, citations, msg.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving message: %w", err)
	}
	return nil
}

// DeleteMessage removes a message. Missing ids are not an error.
func (s *transcriptStore) DeleteMessage(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM messages WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}
	return nil
}

// ListMessages returns all messages in the order they were first saved.
func (s *transcriptStore) ListMessages(ctx context.Context) ([]domain.Message, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, role, status, parts, citations, created_at
		FROM messages
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return msgs, nil
}

// Clear removes every message.
func (s *transcriptStore) Clear(ctx context.Context) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM messages"); err != nil {
		return fmt.Errorf("clearing messages: %w", err)
	}
	return nil
}

func scanMessage(rows *sql.Rows) (domain.Message, error) {
	var (
		msg                  domain.Message
		role, status         string
		partsJSON, citesJSON string
		createdAt            time.Time
	)
	if err := rows.Scan(&msg.ID, &role, &status, &partsJSON, &citesJSON, &createdAt); err != nil {
		return domain.Message{}, fmt.Errorf("scanning message: %w", err)
	}

	msg.Role = domain.Role(role)
	msg.Status = domain.MessageStatus(status)
	if !msg.Status.IsValid() {
		msg.Status = domain.StatusFailed
	}
	msg.CreatedAt = createdAt

	if err := json.Unmarshal([]byte(partsJSON), &msg.Parts); err != nil {
		return domain.Message{}, fmt.Errorf("unmarshalling parts of %s: %w", msg.ID, err)
	}
	if err := json.Unmarshal([]byte(citesJSON), &msg.Citations); err != nil {
		return domain.Message{}, fmt.Errorf("unmarshalling citations of %s: %w", msg.ID, err)
	}
	if len(msg.Parts) == 0 {
		msg.Parts = nil
	}
	if len(msg.Citations) == 0 {
		msg.Citations = nil
	}
	return msg, nil
}

func marshalList[T any](items []T) (string, error) {
	if len(items) == 0 {
		return jsonEmptyArray, nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
