package domain

import (
	"strings"
	"time"
)

// Role identifies who authored a transcript message.
type Role string

// Message roles.
const (
	// RoleUser is a message typed by the user.
	RoleUser Role = "user"

	// RoleAssistant is an answer produced by the backend.
	RoleAssistant Role = "assistant"
)

// String returns the string representation.
func (r Role) String() string {
	return string(r)
}

// MessageStatus tracks the lifecycle of a message.
type MessageStatus string

// Message statuses. Pending and streaming are non-terminal.
const (
	// StatusPending means the request has been sent and nothing has arrived yet.
	StatusPending MessageStatus = "pending"

	// StatusStreaming means partial content is arriving.
	StatusStreaming MessageStatus = "streaming"

	// StatusDone means the message is complete.
	StatusDone MessageStatus = "done"

	// StatusFailed means the request failed. The message carries no content.
	StatusFailed MessageStatus = "failed"
)

// IsTerminal returns true once the status can no longer change.
func (s MessageStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed
}

// IsValid returns true if the status is recognised.
func (s MessageStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusStreaming, StatusDone, StatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s MessageStatus) String() string {
	return string(s)
}

// PartKind tags the variant held by a Part.
type PartKind string

// Part kinds.
const (
	PartText PartKind = "text"
	PartFile PartKind = "file"
)

// Attachment describes a file sent alongside a user message.
type Attachment struct {
	// Name is the file name shown in the transcript.
	Name string

	// MediaType is the MIME type, e.g. application/pdf.
	MediaType string

	// Path is where the file lives on disk.
	Path string
}

// Part is one piece of message content. Exactly one of Text or File is
// meaningful, selected by Kind.
type Part struct {
	Kind PartKind
	Text string
	File *Attachment
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Kind: PartText, Text: text}
}

// FilePart builds a file part.
func FilePart(a Attachment) Part {
	return Part{Kind: PartFile, File: &a}
}

// Message is one entry of the chat transcript.
type Message struct {
	// ID is unique within the session. IDs sort by creation time.
	ID string

	// Role is who authored the message.
	Role Role

	// Parts is the ordered content.
	Parts []Part

	// Status is the lifecycle state.
	Status MessageStatus

	// Citations are the references parsed from an assistant answer.
	Citations []Citation

	// CreatedAt is when the message was added to the transcript.
	CreatedAt time.Time
}

// Text concatenates all text parts.
func (m Message) Text() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if p.Kind == PartText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// Attachments returns the file parts of the message.
func (m Message) Attachments() []Attachment {
	var out []Attachment
	for _, p := range m.Parts {
		if p.Kind == PartFile && p.File != nil {
			out = append(out, *p.File)
		}
	}
	return out
}

// Clone returns a deep copy safe to hand outside the session lock.
func (m Message) Clone() Message {
	c := m
	if m.Parts != nil {
		c.Parts = make([]Part, len(m.Parts))
		for i, p := range m.Parts {
			if p.File != nil {
				f := *p.File
				p.File = &f
			}
			c.Parts[i] = p
		}
	}
	if m.Citations != nil {
		c.Citations = append([]Citation(nil), m.Citations...)
	}
	return c
}
