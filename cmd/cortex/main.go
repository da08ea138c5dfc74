// Command cortex chats with a retrieval-augmented backend about your papers.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/custodia-labs/cortex-cli/internal/adapters/driven/auth"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driven/backend"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driven/storage/blob"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driven/viewer"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driven/watcher"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui"
	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/cortex-cli/internal/core/services"
	"github.com/custodia-labs/cortex-cli/internal/logger"
)

var version = "dev"

func main() {
	code := 0
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		code = 1
	}
	logger.Sync()
	os.Exit(code)
}

func run() error {
	configDir, err := file.DefaultDir()
	if err != nil {
		return err
	}
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}

	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Question requests only read the stored token, so their token source
	// does not need the login client.
	clientCfg := backend.ConfigFromSettings(settings.Backend)
	clientCfg.Tokens = auth.NewTokenSource(ctx, services.NewAuthService(nil, configStore))
	client := backend.NewClient(clientCfg)
	defer client.Close() //nolint:errcheck
	authService := services.NewAuthService(client, configStore)

	cacheDir := settings.Storage.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(configDir, "cache")
	}
	blobs, err := blob.NewStore(cacheDir)
	if err != nil {
		return err
	}

	var transcript driven.TranscriptStore = memory.NewTranscriptStore()
	if settings.Chat.Persist {
		store, err := sqlite.NewStore(settings.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer store.Close() //nolint:errcheck
		transcript = store.TranscriptStore()
	}

	catalog := services.NewCatalog(client)
	fetcher := services.NewFetcher(client, blobs, catalog, settings.Backend.Timeout())
	screen := viewer.NewSwitch(newViewer(settings.Viewer, catalog))
	notifier := tui.NewNotifier()

	session := services.NewSession(services.SessionConfig{
		Query:        client,
		Papers:       client,
		Tokens:       authService,
		Catalog:      catalog,
		Fetcher:      fetcher,
		Blobs:        blobs,
		Viewer:       screen,
		Transcript:   transcript,
		Transport:    settings.Backend.Transport,
		AutoNavigate: settings.Chat.AutoNavigate,
		OnChange:     notifier.Changed,
		OnNavigation: notifier.Navigated,
	})
	defer session.Close() //nolint:errcheck

	var watchService *services.WatchService
	if fsWatcher, err := watcher.NewFSNotifyWatcher(".pdf"); err == nil {
		defer fsWatcher.Close() //nolint:errcheck
		watchService = services.NewWatchService(fsWatcher, session, 0)
	} else {
		logger.Warn("folder watching unavailable: %v", err)
	}

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Chat:     session,
		Settings: settingsService,
		Auth:     authService,
		Actions:  services.NewMessageActionService(catalog),
		Watch:    watchService,
	})
	cli.SetTUIConfig(&cli.TUIConfig{
		Notifier: notifier,
		Silence: func() func() {
			// Terminal output would draw over the TUI; it shows pages itself
			logger.SetOutput(io.Discard)
			var prev driven.Viewer
			if settings.Viewer.Mode == domain.ViewerTerminal {
				prev = screen.Set(nil)
			}
			return func() {
				if prev != nil {
					screen.Set(prev)
				}
				logger.SetOutput(os.Stderr)
			}
		},
	})

	return cli.ExecuteContext(ctx)
}

// newViewer builds the viewer for the configured mode. ViewerNone has no
// viewer; navigation is still reported.
func newViewer(s domain.ViewerSettings, catalog *services.Catalog) driven.Viewer {
	switch s.Mode {
	case domain.ViewerTerminal:
		return viewer.NewTerminal(os.Stdout, func(id string) string {
			if e, ok := catalog.Lookup(id); ok {
				return e.DisplayName
			}
			return ""
		})
	case domain.ViewerNone:
		return nil
	default:
		return viewer.NewSystem(s.Command)
	}
}
