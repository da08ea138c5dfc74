package file

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}

func TestNewConfigStore_DefaultDirFromEnv(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "home")
	t.Setenv(EnvHome, dir)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("backend.url", "http://localhost:8000"))
	require.NoError(t, store.Set("backend.timeout_seconds", 30))
	require.NoError(t, store.Set("backend.rate_per_second", 2.5))
	require.NoError(t, store.Set("chat.persist", true))
	require.NoError(t, store.Set("watch.exts", []string{".pdf"}))

	assert.Equal(t, "http://localhost:8000", store.GetString("backend.url"))
	assert.Equal(t, 30, store.GetInt("backend.timeout_seconds"))
	assert.InDelta(t, 30.0, store.GetFloat("backend.timeout_seconds"), 1e-9)
	assert.InDelta(t, 2.5, store.GetFloat("backend.rate_per_second"), 1e-9)
	assert.True(t, store.GetBool("chat.persist"))
	assert.Equal(t, []string{".pdf"}, store.GetStringSlice("watch.exts"))

	// Wrong types yield zero values.
	assert.Empty(t, store.GetString("backend.timeout_seconds"))
	assert.Zero(t, store.GetInt("backend.url"))
	assert.Zero(t, store.GetFloat("chat.persist"))
	assert.False(t, store.GetBool("backend.url"))
	assert.Nil(t, store.GetStringSlice("backend.url"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_PersistsAsTables(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("backend.url", "https://rag.example.com"))
	require.NoError(t, store.Set("backend.burst", 3))
	require.NoError(t, store.Set("backend.rate_per_second", 0.5))
	require.NoError(t, store.Set("chat.auto_navigate", false))

	raw, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[backend]")
	assert.NotContains(t, string(raw), `"backend.url"`)

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://rag.example.com", reloaded.GetString("backend.url"))
	assert.Equal(t, 3, reloaded.GetInt("backend.burst"))
	assert.InDelta(t, 0.5, reloaded.GetFloat("backend.rate_per_second"), 1e-9)
	_, ok := reloaded.Get("chat.auto_navigate")
	assert.True(t, ok)
	assert.False(t, reloaded.GetBool("chat.auto_navigate"))
}

func TestConfigStore_Delete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("auth.token", "secret"))
	require.NoError(t, store.Set("auth.expiry", "2026-01-01T00:00:00Z"))

	require.NoError(t, store.Delete("auth.token"))
	require.NoError(t, store.Delete("never.set"))

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	_, ok := reloaded.Get("auth.token")
	assert.False(t, ok)
	assert.Equal(t, "2026-01-01T00:00:00Z", reloaded.GetString("auth.expiry"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not enforced on windows")
	}
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("auth.token", "secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestConfigStore_ConflictingKeys(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("backend.url", "x"))

	err = store.Set("backend", "scalar")

	assert.Error(t, err)
}

func TestConfigStore_Load(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
		check   func(t *testing.T, s *ConfigStore)
	}{
		{
			name:    "empty file",
			content: "",
			check: func(t *testing.T, s *ConfigStore) {
				_, ok := s.Get("backend.url")
				assert.False(t, ok)
			},
		},
		{
			name:    "hand written tables",
			content: "[backend]\nurl = \"http://rag:8000\"\ntransport = \"stream\"\n\n[chat]\npersist = false\n",
			check: func(t *testing.T, s *ConfigStore) {
				assert.Equal(t, "http://rag:8000", s.GetString("backend.url"))
				assert.Equal(t, "stream", s.GetString("backend.transport"))
				_, ok := s.Get("chat.persist")
				assert.True(t, ok)
			},
		},
		{
			name:    "invalid toml",
			content: "this is = = not toml",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(tt.content), 0o600))

			store, err := NewConfigStore(dir)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, store)
		})
	}
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set("backend.burst", i)
			_ = store.GetInt("backend.burst")
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, store.GetInt("backend.burst"), 0)
}
