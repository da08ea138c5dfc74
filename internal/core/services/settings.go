package services

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyBackendURL        = "backend.url"
	keyBackendQueryPath  = "backend.query_path"
	keyBackendStreamPath = "backend.stream_path"
	keyBackendTransport  = "backend.transport"
	keyBackendTimeout    = "backend.timeout_seconds"
	keyBackendRate       = "backend.rate_per_second"
	keyBackendBurst      = "backend.burst"
	keyAutoNavigate      = "chat.auto_navigate"
	keyPersist           = "chat.persist"
	keyCacheDir          = "storage.cache_dir"
	keyDataDir           = "storage.data_dir"
	keyWatchDir          = "watch.dir"
	keyViewerMode        = "viewer.mode"
	keyViewerCommand     = "viewer.command"
	keyAuthToken         = "auth.token"
	keyAuthExpiry        = "auth.expiry"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Backend: domain.BackendSettings{
			URL:            s.getString(keyBackendURL, defaults.Backend.URL),
			QueryPath:      s.getString(keyBackendQueryPath, defaults.Backend.QueryPath),
			StreamPath:     s.configStore.GetString(keyBackendStreamPath), // No default - streaming is opt-in
			Transport:      s.getTransport(defaults.Backend.Transport),
			TimeoutSeconds: s.getInt(keyBackendTimeout, defaults.Backend.TimeoutSeconds),
			RatePerSecond:  s.getFloat(keyBackendRate, defaults.Backend.RatePerSecond),
			Burst:          s.getInt(keyBackendBurst, defaults.Backend.Burst),
		},
		Chat: domain.ChatSettings{
			AutoNavigate: s.getBool(keyAutoNavigate, defaults.Chat.AutoNavigate),
			Persist:      s.getBool(keyPersist, defaults.Chat.Persist),
		},
		Storage: domain.StorageSettings{
			CacheDir: s.configStore.GetString(keyCacheDir),
			DataDir:  s.configStore.GetString(keyDataDir),
		},
		Watch: domain.WatchSettings{
			Dir: s.configStore.GetString(keyWatchDir),
		},
		Viewer: domain.ViewerSettings{
			Mode:    s.getViewerMode(defaults.Viewer.Mode),
			Command: s.configStore.GetString(keyViewerCommand),
		},
		Auth: domain.AuthSettings{
			Token:  s.configStore.GetString(keyAuthToken),
			Expiry: s.getTime(keyAuthExpiry),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyBackendURL, settings.Backend.URL},
		{keyBackendQueryPath, settings.Backend.QueryPath},
		{keyBackendStreamPath, settings.Backend.StreamPath},
		{keyBackendTransport, settings.Backend.Transport.String()},
		{keyBackendTimeout, settings.Backend.TimeoutSeconds},
		{keyBackendRate, settings.Backend.RatePerSecond},
		{keyBackendBurst, settings.Backend.Burst},
		{keyAutoNavigate, settings.Chat.AutoNavigate},
		{keyPersist, settings.Chat.Persist},
		{keyCacheDir, settings.Storage.CacheDir},
		{keyDataDir, settings.Storage.DataDir},
		{keyWatchDir, settings.Watch.Dir},
		{keyViewerMode, settings.Viewer.Mode.String()},
		{keyViewerCommand, settings.Viewer.Command},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Tokens are written by the auth service; only persist one when present
	if settings.Auth.Token != "" {
		if err := s.saveToken(settings.Auth); err != nil {
			return err
		}
	}

	return nil
}

// Set updates a single setting by its config key, converting the value
// to the key's type.
func (s *SettingsService) Set(key, value string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	switch key {
	case keyBackendURL:
		return s.SetBackendURL(value)
	case keyBackendTransport:
		return s.SetTransport(domain.AnswerTransport(value))
	case keyBackendQueryPath:
		settings.Backend.QueryPath = value
	case keyBackendStreamPath:
		settings.Backend.StreamPath = value
	case keyBackendTimeout, keyBackendBurst:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive integer: %w", key, domain.ErrInvalidInput)
		}
		if key == keyBackendTimeout {
			settings.Backend.TimeoutSeconds = n
		} else {
			settings.Backend.Burst = n
		}
	case keyBackendRate:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("%s must be a positive number: %w", key, domain.ErrInvalidInput)
		}
		settings.Backend.RatePerSecond = f
	case keyAutoNavigate, keyPersist:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false: %w", key, domain.ErrInvalidInput)
		}
		if key == keyAutoNavigate {
			settings.Chat.AutoNavigate = b
		} else {
			settings.Chat.Persist = b
		}
	case keyCacheDir:
		settings.Storage.CacheDir = value
	case keyDataDir:
		settings.Storage.DataDir = value
	case keyWatchDir:
		settings.Watch.Dir = value
	case keyViewerMode:
		mode := domain.ViewerMode(value)
		if !mode.IsValid() {
			return fmt.Errorf("%s must be system, terminal or none: %w", key, domain.ErrInvalidInput)
		}
		settings.Viewer.Mode = mode
	case keyViewerCommand:
		settings.Viewer.Command = value
	default:
		return fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}

	return s.Save(settings)
}

// SetBackendURL updates the backend base URL.
func (s *SettingsService) SetBackendURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend url %q: %w", rawURL, domain.ErrInvalidInput)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend url must be http or https: %w", domain.ErrInvalidInput)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Backend.URL = strings.TrimRight(u.String(), "/")
	return s.Save(settings)
}

// SetTransport selects request or stream answers.
func (s *SettingsService) SetTransport(t domain.AnswerTransport) error {
	if !t.IsValid() {
		return fmt.Errorf("invalid transport: %s", t)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Backend.Transport = t
	if t == domain.TransportStream && settings.Backend.StreamPath == "" {
		settings.Backend.StreamPath = "/reasoning"
	}
	return s.Save(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Keys returns the settable config keys in display order.
func (s *SettingsService) Keys() []string {
	return []string{
		keyBackendURL, keyBackendQueryPath, keyBackendStreamPath, keyBackendTransport,
		keyBackendTimeout, keyBackendRate, keyBackendBurst,
		keyAutoNavigate, keyPersist, keyCacheDir, keyDataDir, keyWatchDir,
		keyViewerMode, keyViewerCommand,
	}
}

// Lookup returns the current value of a settable key as text.
func (s *SettingsService) Lookup(key string) (string, error) {
	settings, err := s.Get()
	if err != nil {
		return "", err
	}

	switch key {
	case keyBackendURL:
		return settings.Backend.URL, nil
	case keyBackendQueryPath:
		return settings.Backend.QueryPath, nil
	case keyBackendStreamPath:
		return settings.Backend.StreamPath, nil
	case keyBackendTransport:
		return settings.Backend.Transport.String(), nil
	case keyBackendTimeout:
		return strconv.Itoa(settings.Backend.TimeoutSeconds), nil
	case keyBackendRate:
		return strconv.FormatFloat(settings.Backend.RatePerSecond, 'f', -1, 64), nil
	case keyBackendBurst:
		return strconv.Itoa(settings.Backend.Burst), nil
	case keyAutoNavigate:
		return strconv.FormatBool(settings.Chat.AutoNavigate), nil
	case keyPersist:
		return strconv.FormatBool(settings.Chat.Persist), nil
	case keyCacheDir:
		return settings.Storage.CacheDir, nil
	case keyDataDir:
		return settings.Storage.DataDir, nil
	case keyWatchDir:
		return settings.Watch.Dir, nil
	case keyViewerMode:
		return settings.Viewer.Mode.String(), nil
	case keyViewerCommand:
		return settings.Viewer.Command, nil
	default:
		return "", fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}
}

func (s *SettingsService) saveToken(auth domain.AuthSettings) error {
	if err := s.configStore.Set(keyAuthToken, auth.Token); err != nil {
		return fmt.Errorf("save auth token: %w", err)
	}
	expiry := ""
	if !auth.Expiry.IsZero() {
		expiry = auth.Expiry.UTC().Format(time.RFC3339)
	}
	if err := s.configStore.Set(keyAuthExpiry, expiry); err != nil {
		return fmt.Errorf("save auth expiry: %w", err)
	}
	return nil
}

// Helper methods for reading config values with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if val := s.configStore.GetInt(key); val > 0 {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if val := s.configStore.GetFloat(key); val > 0 {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getTime(key string) time.Time {
	raw := s.configStore.GetString(key)
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (s *SettingsService) getViewerMode(defaultVal domain.ViewerMode) domain.ViewerMode {
	m := domain.ViewerMode(s.configStore.GetString(keyViewerMode))
	if m.IsValid() {
		return m
	}
	return defaultVal
}

func (s *SettingsService) getTransport(defaultVal domain.AnswerTransport) domain.AnswerTransport {
	t := domain.AnswerTransport(s.configStore.GetString(keyBackendTransport))
	if t.IsValid() {
		return t
	}
	return defaultVal
}
