package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/render"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/views/help"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/views/page"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/views/papers"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/views/settings"
	"github.com/custodia-labs/cortex-cli/internal/core/domain"
)

// Option configures an App.
type Option func(*options)

type options struct {
	markdown *render.Markdown
	loader   page.TextLoader
	start    messages.ViewType
}

// WithMarkdown renders finished answers with md.
func WithMarkdown(md *render.Markdown) Option {
	return func(o *options) { o.markdown = md }
}

// WithPageLoader replaces the page text extractor.
func WithPageLoader(loader page.TextLoader) Option {
	return func(o *options) { o.loader = loader }
}

// WithStartView opens the app on view instead of the menu.
func WithStartView(view messages.ViewType) Option {
	return func(o *options) { o.start = view }
}

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	menuView     *menu.View
	chatView     *chat.View
	papersView   *papers.View
	pageView     *page.View
	settingsView *settings.View
	helpView     *help.View

	currentView messages.ViewType
	err         error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports, opts ...Option) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	o := options{start: messages.ViewMenu}
	for _, opt := range opts {
		opt(&o)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:        ports,
		ctx:          context.Background(),
		styles:       s,
		keymap:       km,
		menuView:     menu.NewView(s),
		chatView:     chat.NewView(s, km, o.markdown, ports.Chat, ports.Actions),
		papersView:   papers.NewView(s, ports.Chat),
		pageView:     page.NewView(s, ports.Chat, o.loader),
		settingsView: settings.NewView(s, ports.Settings),
		helpView:     help.NewView(s, km),
		currentView:  o.start,
	}, nil
}

// WithContext sets the context used by session calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	a.papersView.WithContext(ctx)
	a.pageView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("cortex"),
		a.initView(a.currentView),
	)
}

// Update implements tea.Model.
//
//nolint:gocognit,gocyclo,funlen // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if keymap.Matches(msg.String(), a.keymap.Quit) {
			return a, tea.Quit
		}
		return a, a.forward(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		return a, a.initView(msg.View)

	case messages.Quit:
		return a, tea.Quit

	case messages.TranscriptChanged, messages.TurnFinished, messages.MessageCopied:
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case messages.NavigationRecorded:
		a.chatView, _ = a.chatView.Update(msg)
		cmd = a.pageView.SetNavigation(msg.Navigation)
		if msg.Requested && msg.Navigation.Outcome == domain.NavigationNavigated {
			a.currentView = messages.ViewPage
		}
		return a, cmd

	case messages.PageTextLoaded:
		a.pageView, cmd = a.pageView.Update(msg)
		return a, cmd

	case messages.UploadFinished, messages.DocumentsLoaded:
		var papersCmd tea.Cmd
		a.chatView, cmd = a.chatView.Update(msg)
		a.papersView, papersCmd = a.papersView.Update(msg)
		return a, tea.Batch(cmd, papersCmd)

	case messages.SettingsLoaded, messages.SettingSaved:
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, a.forward(msg)
	}

	return a, a.forward(msg)
}

// initView prepares a view when it becomes active.
func (a *App) initView(view messages.ViewType) tea.Cmd {
	switch view {
	case messages.ViewChat:
		return a.chatView.Init()
	case messages.ViewPapers:
		return a.papersView.Init()
	case messages.ViewPage:
		if _, ok := a.pageView.Navigation(); ok {
			return nil
		}
		if nav, ok := a.ports.Chat.LastNavigation(); ok {
			return a.pageView.SetNavigation(nav)
		}
	case messages.ViewSettings:
		a.settingsView.Reset()
		return a.settingsView.Init()
	case messages.ViewMenu, messages.ViewHelp:
	}
	return nil
}

// forward passes a message to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewPapers:
		a.papersView, cmd = a.papersView.Update(msg)
	case messages.ViewPage:
		a.pageView, cmd = a.pageView.Update(msg)
	case messages.ViewSettings:
		a.settingsView, cmd = a.settingsView.Update(msg)
	case messages.ViewHelp:
		a.helpView, cmd = a.helpView.Update(msg)
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewChat:
		return a.chatView.View()
	case messages.ViewPapers:
		return a.papersView.View()
	case messages.ViewPage:
		return a.pageView.View()
	case messages.ViewSettings:
		return a.settingsView.View()
	case messages.ViewHelp:
		return a.helpView.View()
	default:
		return a.menuView.View()
	}
}

// Run starts the TUI and blocks until it exits. Session hooks reach the
// running program through notifier, which may be nil.
func (a *App) Run(notifier *Notifier) error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	if notifier != nil {
		notifier.Attach(p)
		defer notifier.Attach(nil)
	}
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.chatView.SetDimensions(width, height)
	a.papersView.SetDimensions(width, height)
	a.pageView.SetDimensions(width, height)
	a.settingsView.SetDimensions(width, height)
	a.helpView.SetDimensions(width, height)
}
