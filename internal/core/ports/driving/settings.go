package driving

import "github.com/custodia-labs/cortex-cli/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set updates a single setting by its config key.
	Set(key, value string) error

	// SetBackendURL updates the backend base URL.
	SetBackendURL(rawURL string) error

	// SetTransport selects request or stream answers.
	SetTransport(t domain.AnswerTransport) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// Keys returns the settable config keys in display order.
	Keys() []string

	// Lookup returns the current value of a config key as text.
	Lookup(key string) (string, error)
}
