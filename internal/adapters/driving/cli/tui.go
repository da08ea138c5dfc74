package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/render"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui"
	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/cortex-cli/internal/logger"
)

// TUIConfig holds configuration for the chat command.
type TUIConfig struct {
	// Notifier receives the session's change and navigation hooks.
	Notifier *tui.Notifier

	// Silence mutes output that would draw over the TUI and returns a
	// function that restores it. May be nil.
	Silence func() (restore func())
}

// tuiConfig holds the current TUI configuration.
var tuiConfig *TUIConfig

var (
	chatFresh bool
	chatMenu  bool
)

var chatCmd = &cobra.Command{
	Use:     "chat",
	Aliases: []string{"tui"},
	Short:   "Chat with your papers in the terminal UI",
	Long: `Opens the interactive chat. Answers list their sources; select an
answer and press enter to show the cited page.

Controls:
  enter    - Send / go to citation
  tab      - Switch between input and transcript
  ctrl+x   - Stop the answer in progress
  ctrl+r   - Ask the last question again
  esc      - Back
  ctrl+c   - Quit

Commands:
  /upload <file>  /attach <file>  /clear`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

// SetTUIConfig sets the configuration for the chat command.
func SetTUIConfig(config *TUIConfig) {
	tuiConfig = config
}

func init() {
	chatCmd.Flags().BoolVar(&chatFresh, "new", false, "start without the saved conversation")
	chatCmd.Flags().BoolVar(&chatMenu, "menu", false, "open on the main menu")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	ctx := cmd.Context()
	if err := prepareSession(ctx, !chatFresh); err != nil {
		return err
	}

	md, err := render.NewMarkdown(markdownStyle, render.DefaultWidth)
	if err != nil {
		logger.Warn("markdown rendering disabled: %v", err)
		md = nil
	}

	opts := []tui.Option{tui.WithMarkdown(md)}
	if !chatMenu {
		opts = append(opts, tui.WithStartView(messages.ViewChat))
	}

	app, err := tui.NewApp(tui.NewPorts(chatSession, actionService, settingsService), opts...)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(ctx)

	var notifier *tui.Notifier
	if tuiConfig != nil {
		notifier = tuiConfig.Notifier
		if tuiConfig.Silence != nil {
			restore := tuiConfig.Silence()
			defer restore()
		}
	}

	if err := app.Run(notifier); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
