package domain

import (
	"net/url"
	"time"
)

const unknownDescription = "Unknown"

// Defaults for backend access.
const (
	DefaultBackendURL     = "http://localhost:8000"
	DefaultQueryPath      = "/query"
	DefaultTimeoutSeconds = 120
	DefaultRatePerSecond  = 5
	DefaultBurst          = 10
)

// AnswerTransport selects how answers are received from the backend.
type AnswerTransport string

// Available transports.
const (
	// TransportRequest waits for the complete answer body.
	TransportRequest AnswerTransport = "request"

	// TransportStream receives cumulative snapshots over server-sent events.
	TransportStream AnswerTransport = "stream"
)

// IsValid returns true if the transport is recognised.
func (t AnswerTransport) IsValid() bool {
	switch t {
	case TransportRequest, TransportStream:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t AnswerTransport) String() string {
	return string(t)
}

// Description returns a human-readable description of the transport.
func (t AnswerTransport) Description() string {
	switch t {
	case TransportRequest:
		return "Request (wait for full answer)"
	case TransportStream:
		return "Stream (show answer while it arrives)"
	default:
		return unknownDescription
	}
}

// BackendSettings holds connection settings for the retrieval backend.
type BackendSettings struct {
	// URL is the backend base URL.
	URL string

	// QueryPath is the question endpoint.
	QueryPath string

	// StreamPath is the server-sent events endpoint. Empty disables streaming.
	StreamPath string

	// Transport selects request or stream mode.
	Transport AnswerTransport

	// TimeoutSeconds bounds a single request.
	TimeoutSeconds int

	// RatePerSecond and Burst configure client-side rate limiting.
	RatePerSecond float64
	Burst         int
}

// Timeout returns the request timeout as a duration.
func (b BackendSettings) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// IsConfigured returns true if the backend URL parses as an absolute URL.
func (b BackendSettings) IsConfigured() bool {
	u, err := url.Parse(b.URL)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// ChatSettings holds session behaviour.
type ChatSettings struct {
	// AutoNavigate moves the viewer to the first citation of each answer.
	AutoNavigate bool

	// Persist saves the transcript between runs.
	Persist bool
}

// StorageSettings holds local paths. Empty values use the config directory.
type StorageSettings struct {
	// CacheDir holds downloaded and uploaded document bytes.
	CacheDir string

	// DataDir holds the transcript database.
	DataDir string
}

// WatchSettings holds the upload folder configuration.
type WatchSettings struct {
	// Dir is watched for new PDF files. Empty disables watching.
	Dir string
}

// ViewerMode selects how navigation targets are displayed.
type ViewerMode string

// Available viewer modes.
const (
	// ViewerSystem opens documents with the desktop's default application.
	ViewerSystem ViewerMode = "system"

	// ViewerTerminal prints the text of the target page.
	ViewerTerminal ViewerMode = "terminal"

	// ViewerNone records navigation without displaying anything.
	ViewerNone ViewerMode = "none"
)

// IsValid returns true if the mode is recognised.
func (m ViewerMode) IsValid() bool {
	switch m {
	case ViewerSystem, ViewerTerminal, ViewerNone:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m ViewerMode) String() string {
	return string(m)
}

// ViewerSettings configures the document viewer.
type ViewerSettings struct {
	// Mode selects the viewer.
	Mode ViewerMode

	// Command overrides the system opener. The placeholders {path} and
	// {page} are replaced, e.g. "zathura --page={page} {path}".
	Command string
}

// AuthSettings holds the bearer token issued by the backend.
type AuthSettings struct {
	// Token is the opaque access token.
	Token string

	// Expiry is when the token stops being valid. Zero means unknown.
	Expiry time.Time
}

// HasToken returns true if a non-expired token is stored.
func (a AuthSettings) HasToken() bool {
	if a.Token == "" {
		return false
	}
	return a.Expiry.IsZero() || time.Now().Before(a.Expiry)
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Backend holds retrieval backend settings.
	Backend BackendSettings

	// Chat holds session behaviour.
	Chat ChatSettings

	// Storage holds local paths.
	Storage StorageSettings

	// Watch holds the upload folder.
	Watch WatchSettings

	// Viewer configures document display.
	Viewer ViewerSettings

	// Auth holds the bearer token.
	Auth AuthSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// No token is stored by default; users log in via `cortex login`.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Backend: BackendSettings{
			URL:            DefaultBackendURL,
			QueryPath:      DefaultQueryPath,
			Transport:      TransportRequest,
			TimeoutSeconds: DefaultTimeoutSeconds,
			RatePerSecond:  DefaultRatePerSecond,
			Burst:          DefaultBurst,
		},
		Chat: ChatSettings{
			AutoNavigate: true,
			Persist:      true,
		},
		Viewer: ViewerSettings{
			Mode: ViewerSystem,
		},
	}
}
