package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAnswerTransport(t *testing.T) {
	assert.True(t, TransportRequest.IsValid())
	assert.True(t, TransportStream.IsValid())
	assert.False(t, AnswerTransport("carrier-pigeon").IsValid())
	assert.Equal(t, unknownDescription, AnswerTransport("x").Description())
	assert.Equal(t, "stream", TransportStream.String())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, DefaultBackendURL, s.Backend.URL)
	assert.Equal(t, TransportRequest, s.Backend.Transport)
	assert.True(t, s.Backend.IsConfigured())
	assert.True(t, s.Chat.AutoNavigate)
	assert.False(t, s.Auth.HasToken())
	assert.Equal(t, 120*time.Second, s.Backend.Timeout())
}

func TestBackendSettings_IsConfigured(t *testing.T) {
	assert.False(t, BackendSettings{URL: ""}.IsConfigured())
	assert.False(t, BackendSettings{URL: "localhost"}.IsConfigured())
	assert.True(t, BackendSettings{URL: "https://rag.example.com"}.IsConfigured())
}

func TestAuthSettings_HasToken(t *testing.T) {
	assert.True(t, AuthSettings{Token: "abc"}.HasToken())
	assert.False(t, AuthSettings{Token: "abc", Expiry: time.Now().Add(-time.Minute)}.HasToken())
	assert.True(t, AuthSettings{Token: "abc", Expiry: time.Now().Add(time.Hour)}.HasToken())
}
