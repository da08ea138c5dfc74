package mcp

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cortex-cli/internal/testutil"
)

func TestNewServer(t *testing.T) {
	t.Run("nil chat session returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingChatSession)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &testutil.ChatSession{}})
		require.NoError(t, err)
		assert.Equal(t, DefaultVersion, server.Version())
	})

	t.Run("version option", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &testutil.ChatSession{}}, WithVersion("1.2.3"))
		require.NoError(t, err)
		assert.Equal(t, "1.2.3", server.Version())
	})

	t.Run("empty version keeps default", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &testutil.ChatSession{}}, WithVersion(""))
		require.NoError(t, err)
		assert.Equal(t, DefaultVersion, server.Version())
	})
}

func TestPorts_Validate(t *testing.T) {
	assert.ErrorIs(t, (&Ports{}).Validate(), ErrMissingChatSession)
	assert.NoError(t, (&Ports{Chat: &testutil.ChatSession{}}).Validate())
}

func TestServer_Health(t *testing.T) {
	tests := []struct {
		name    string
		pingErr error
		want    int
	}{
		{"backend reachable", nil, http.StatusOK},
		{"backend down", errors.New("connection refused"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := NewServer(&Ports{Chat: &testutil.ChatSession{PingErr: tt.pingErr}})
			require.NoError(t, err)

			rec := httptest.NewRecorder()
			server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, HealthPath, nil))

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestServer_UnknownPath(t *testing.T) {
	server, err := NewServer(&Ports{Chat: &testutil.ChatSession{}})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
