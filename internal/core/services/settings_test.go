package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cortex-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/cortex-cli/internal/core/domain"
)

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults, *settings)
	assert.Empty(t, settings.Backend.StreamPath)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("backend.url", "https://rag.example.com")
	_ = store.Set("backend.transport", "stream")
	_ = store.Set("backend.stream_path", "/reasoning")
	_ = store.Set("backend.rate_per_second", 2.5)
	_ = store.Set("chat.auto_navigate", false)
	_ = store.Set("auth.expiry", "2026-01-02T03:04:05Z")

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	assert.Equal(t, "https://rag.example.com", settings.Backend.URL)
	assert.Equal(t, domain.TransportStream, settings.Backend.Transport)
	assert.Equal(t, "/reasoning", settings.Backend.StreamPath)
	assert.InDelta(t, 2.5, settings.Backend.RatePerSecond, 1e-9)
	assert.False(t, settings.Chat.AutoNavigate)
	assert.True(t, settings.Chat.Persist)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), settings.Auth.Expiry)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("backend.transport", "carrier-pigeon")
	_ = store.Set("backend.timeout_seconds", -4)
	_ = store.Set("auth.expiry", "tomorrow")

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	assert.Equal(t, domain.TransportRequest, settings.Backend.Transport)
	assert.Equal(t, domain.DefaultTimeoutSeconds, settings.Backend.TimeoutSeconds)
	assert.True(t, settings.Auth.Expiry.IsZero())
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	settings := domain.DefaultAppSettings()
	settings.Backend.QueryPath = "/v2/query"
	settings.Backend.Burst = 3
	settings.Watch.Dir = "/tmp/papers"
	require.NoError(t, service.Save(&settings))

	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "/v2/query", got.Backend.QueryPath)
	assert.Equal(t, 3, got.Backend.Burst)
	assert.Equal(t, "/tmp/papers", got.Watch.Dir)

	_, hasToken := store.Get("auth.token")
	assert.False(t, hasToken, "an empty token is not written")
}

func TestSettingsService_Set(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		check func(t *testing.T, s *domain.AppSettings)
	}{
		{
			name: "timeout", key: "backend.timeout_seconds", value: "30",
			check: func(t *testing.T, s *domain.AppSettings) { assert.Equal(t, 30, s.Backend.TimeoutSeconds) },
		},
		{
			name: "rate", key: "backend.rate_per_second", value: "0.5",
			check: func(t *testing.T, s *domain.AppSettings) { assert.InDelta(t, 0.5, s.Backend.RatePerSecond, 1e-9) },
		},
		{
			name: "auto navigate", key: "chat.auto_navigate", value: "false",
			check: func(t *testing.T, s *domain.AppSettings) { assert.False(t, s.Chat.AutoNavigate) },
		},
		{
			name: "cache dir", key: "storage.cache_dir", value: "/var/cache/cortex",
			check: func(t *testing.T, s *domain.AppSettings) { assert.Equal(t, "/var/cache/cortex", s.Storage.CacheDir) },
		},
		{
			name: "viewer mode", key: "viewer.mode", value: "terminal",
			check: func(t *testing.T, s *domain.AppSettings) { assert.Equal(t, domain.ViewerTerminal, s.Viewer.Mode) },
		},
		{
			name: "url", key: "backend.url", value: "https://rag.example.com/",
			check: func(t *testing.T, s *domain.AppSettings) { assert.Equal(t, "https://rag.example.com", s.Backend.URL) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewSettingsService(memory.NewConfigStore())

			require.NoError(t, service.Set(tt.key, tt.value))

			settings, err := service.Get()
			require.NoError(t, err)
			tt.check(t, settings)
		})
	}
}

func TestSettingsService_Set_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"backend.timeout_seconds", "soon"},
		{"backend.burst", "0"},
		{"backend.rate_per_second", "-1"},
		{"chat.persist", "maybe"},
		{"viewer.mode", "hologram"},
		{"backend.url", "localhost"},
		{"backend.url", "ftp://example.com"},
		{"auth.token", "secret"},
		{"nope", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			service := NewSettingsService(memory.NewConfigStore())

			err := service.Set(tt.key, tt.value)

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestSettingsService_SetTransport(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	require.NoError(t, service.SetTransport(domain.TransportStream))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.TransportStream, settings.Backend.Transport)
	assert.Equal(t, "/reasoning", settings.Backend.StreamPath)

	assert.Error(t, service.SetTransport("telepathy"))
}

func TestSettingsService_Keys(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	keys := service.Keys()

	assert.Contains(t, keys, "backend.url")
	assert.NotContains(t, keys, "auth.token")
}

func TestSettingsService_Lookup(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())
	require.NoError(t, service.Set("viewer.mode", "terminal"))
	require.NoError(t, service.Set("backend.rate_per_second", "2.5"))

	for _, key := range service.Keys() {
		_, err := service.Lookup(key)
		assert.NoError(t, err, key)
	}

	mode, err := service.Lookup("viewer.mode")
	require.NoError(t, err)
	assert.Equal(t, "terminal", mode)

	rate, err := service.Lookup("backend.rate_per_second")
	require.NoError(t, err)
	assert.Equal(t, "2.5", rate)

	nav, err := service.Lookup("chat.auto_navigate")
	require.NoError(t, err)
	assert.Equal(t, "true", nav)

	_, err = service.Lookup("auth.token")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
