package domain

import (
	"strings"
	"time"
)

// LocalIDPrefix marks documents added on this device that the backend
// has not acknowledged yet.
const LocalIDPrefix = "local-"

// IsLocalID returns true for temporary, client-assigned document ids.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

// ContentKind records where document bytes came from.
type ContentKind string

// Content kinds.
const (
	// ContentLocal is a file the user supplied on this device.
	ContentLocal ContentKind = "local"

	// ContentFetched was downloaded from the backend.
	ContentFetched ContentKind = "fetched"
)

// ContentHandle references document bytes available to the viewer.
type ContentHandle struct {
	// URI locates the bytes, normally a file:// path in the cache.
	URI string

	// Path is the filesystem path behind URI.
	Path string

	// Kind records the origin of the bytes.
	Kind ContentKind

	// MediaType is the MIME type, e.g. application/pdf.
	MediaType string

	// Size is the byte length.
	Size int64

	// Pages is the page count when known, zero otherwise.
	Pages int
}

// IsZero returns true for an unset handle.
func (h ContentHandle) IsZero() bool {
	return h.URI == "" && h.Path == ""
}

// DocumentEntry is a document known to the client catalog.
type DocumentEntry struct {
	// ID is unique within the catalog. Local entries use LocalIDPrefix.
	ID string

	// DisplayName is the file name shown to the user.
	DisplayName string

	// Local is true until the backend acknowledges the document.
	Local bool

	// Content is set at most once. Nil means it must be fetched.
	Content *ContentHandle

	// UploadedAt is the backend upload time, zero for local entries.
	UploadedAt time.Time
}

// HasContent returns true when the bytes are already available.
func (e DocumentEntry) HasContent() bool {
	return e.Content != nil && !e.Content.IsZero()
}

// Clone copies the entry, including its content handle.
func (e DocumentEntry) Clone() DocumentEntry {
	c := e
	if e.Content != nil {
		h := *e.Content
		c.Content = &h
	}
	return c
}

// RemoteDocument is a document as listed by the backend.
type RemoteDocument struct {
	ID         string
	Filename   string
	UploadedAt time.Time
}

// UploadResult reports one upload of a local file.
type UploadResult struct {
	Path  string
	Entry DocumentEntry
	Err   error
}
