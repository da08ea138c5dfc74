package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cortex-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/render"
	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/core/services"
	"github.com/custodia-labs/cortex-cli/internal/testutil"
)

type fakeAuth struct {
	authenticated bool
	err           error
	logins        []string
	signups       []string
	logouts       int
}

func (f *fakeAuth) Login(_ context.Context, email, _ string) error {
	f.logins = append(f.logins, email)
	if f.err == nil {
		f.authenticated = true
	}
	return f.err
}

func (f *fakeAuth) Signup(_ context.Context, email, _ string) error {
	f.signups = append(f.signups, email)
	if f.err == nil {
		f.authenticated = true
	}
	return f.err
}

func (f *fakeAuth) Logout() error {
	f.logouts++
	f.authenticated = false
	return nil
}

func (f *fakeAuth) IsAuthenticated() bool { return f.authenticated }

type fakeWatch struct {
	dir     string
	results []domain.UploadResult
	err     error
}

func (f *fakeWatch) Run(_ context.Context, dir string, report func(domain.UploadResult)) error {
	f.dir = dir
	for _, r := range f.results {
		report(r)
	}
	return f.err
}

type testServices struct {
	chat     *testutil.ChatSession
	settings *services.SettingsService
	auth     *fakeAuth
	watch    *fakeWatch
}

func library() []domain.DocumentEntry {
	return []domain.DocumentEntry{
		{ID: "doc-42", DisplayName: "attention.pdf"},
		{ID: "doc-7", DisplayName: "bert.pdf"},
	}
}

func answer() domain.Message {
	return domain.Message{
		ID: "a1", Role: domain.RoleAssistant, Status: domain.StatusDone,
		Parts:     []domain.Part{domain.TextPart("Attention weighs tokens.")},
		Citations: []domain.Citation{{ChunkID: "doc-42_c3", Source: "doc-42", Page: 7}},
	}
}

// setupTestServices installs fakes for every service and restores the
// previous ones and all flag values when the test ends.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	store, err := file.NewConfigStore(t.TempDir())
	require.NoError(t, err)

	ts := &testServices{
		chat:     &testutil.ChatSession{Answer: answer(), Entries: library()},
		settings: services.NewSettingsService(store),
		auth:     &fakeAuth{},
		watch:    &fakeWatch{},
	}

	prev := Services{
		Chat:     chatSession,
		Settings: settingsService,
		Auth:     authService,
		Actions:  actionService,
		Watch:    watchService,
	}
	prevStyle := markdownStyle
	prevReader := passwordReader

	SetServices(Services{Chat: ts.chat, Settings: ts.settings, Auth: ts.auth, Watch: ts.watch})
	markdownStyle = render.StylePlain

	t.Cleanup(func() {
		SetServices(prev)
		markdownStyle = prevStyle
		passwordReader = prevReader
		resetFlags()
	})
	return ts
}

func resetFlags() {
	askAttach = nil
	askJSON = false
	askNoNavigate = false
	papersJSON = false
	papersFilter = ""
	papersPage = 1
	historyJSON = false
	historyLimit = 0
	historyYes = false
	authEmail = ""
	chatFresh = false
	chatMenu = false
}

// execute runs the root command with args and stdin, returning its output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(t.Context())
	return buf.String(), err
}
