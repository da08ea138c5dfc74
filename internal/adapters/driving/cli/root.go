// Package cli implements the cortex command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cortex-cli/internal/core/ports/driving"
	"github.com/custodia-labs/cortex-cli/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

var verbose bool

// Services used by the commands. They are set by main before Execute.
var (
	chatSession     driving.ChatSession
	settingsService driving.SettingsService
	authService     driving.AuthService
	actionService   driving.MessageActionService
	watchService    driving.WatchService
)

var rootCmd = &cobra.Command{
	Use:   "cortex",
	Short: "Chat with your papers from the terminal",
	Long: `Cortex asks questions of a retrieval-augmented backend and jumps
to the document pages its answers cite.

Run 'cortex chat' for the interactive interface or 'cortex ask' for a
single question.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Services groups the driving ports the commands need.
type Services struct {
	Chat     driving.ChatSession
	Settings driving.SettingsService
	Auth     driving.AuthService
	Actions  driving.MessageActionService
	Watch    driving.WatchService
}

// SetServices configures the services used by the commands.
func SetServices(s Services) {
	chatSession = s.Chat
	settingsService = s.Settings
	authService = s.Auth
	actionService = s.Actions
	watchService = s.Watch
}

// SetVersion sets the version printed by 'cortex version'.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx as every command's context.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
