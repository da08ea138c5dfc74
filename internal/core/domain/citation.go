package domain

import (
	"fmt"
	"strings"
)

// PageUnknown is the Page value of a citation whose page could not be read.
const PageUnknown = 0

// chunkSeparator splits a chunk id into document stem and chunk number,
// e.g. "doc-42_c3".
const chunkSeparator = "_c"

// Citation is a reference from an answer into a source document.
type Citation struct {
	// ChunkID is the backend chunk identifier, kept verbatim.
	ChunkID string

	// Source is the originating file name or document identifier, when given.
	Source string

	// Page is the 1-based page, or PageUnknown.
	Page int

	// RawPage is the page token as received, for display.
	RawPage string
}

// HasPage returns true if the citation carries a usable page.
func (c Citation) HasPage() bool {
	return c.Page > 0
}

// DocumentToken returns the raw token that identifies the cited document:
// Source when present, otherwise the chunk id up to its chunk suffix.
func (c Citation) DocumentToken() string {
	if s := strings.TrimSpace(c.Source); s != "" {
		return s
	}
	id := strings.TrimSpace(c.ChunkID)
	if i := strings.LastIndex(id, chunkSeparator); i > 0 {
		return id[:i]
	}
	return id
}

// ChunkNumber returns the chunk suffix of ChunkID, or "" when absent.
func (c Citation) ChunkNumber() string {
	id := strings.TrimSpace(c.ChunkID)
	if i := strings.LastIndex(id, chunkSeparator); i > 0 {
		return id[i+len(chunkSeparator):]
	}
	return ""
}

// Label renders a short context line such as "Page 7, Chunk 3".
func (c Citation) Label() string {
	var parts []string
	if c.HasPage() {
		parts = append(parts, fmt.Sprintf("Page %d", c.Page))
	} else if c.RawPage != "" {
		parts = append(parts, "Page "+c.RawPage)
	}
	if n := c.ChunkNumber(); n != "" {
		parts = append(parts, "Chunk "+n)
	}
	return strings.Join(parts, ", ")
}

// Chunk is supplementary retrieved text returned with an answer.
type Chunk struct {
	// Source is the document the chunk came from, if known.
	Source string

	// LineRange locates the chunk in the source, if known.
	LineRange string

	// Preview is a short excerpt.
	Preview string

	// Text is the full chunk text.
	Text string
}

// ParsedAnswer is the tolerant decoding of a raw backend answer.
type ParsedAnswer struct {
	// AnswerText is the answer to display. Never empty when the raw body was not.
	AnswerText string

	// Citations are in backend order. The first is the most relevant.
	Citations []Citation

	// Chunks is optional supporting context.
	Chunks []Chunk

	// Degraded is set when the body was not the expected JSON shape.
	Degraded bool
}

// First returns the most relevant citation.
func (p ParsedAnswer) First() (Citation, bool) {
	if len(p.Citations) == 0 {
		return Citation{}, false
	}
	return p.Citations[0], true
}
