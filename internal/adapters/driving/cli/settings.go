package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change the backend, chat, storage and viewer settings.

Settings are stored in ~/.cortex/config.toml.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Long: `Change one setting by its config key, for example:

  cortex settings set backend.url https://rag.example.com
  cortex settings set viewer.command "zathura --page={page} {path}"

Run 'cortex settings show' to list the keys.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsViewerCmd = &cobra.Command{
	Use:   "viewer",
	Short: "Choose how cited pages are shown",
	Long: `Choose how cited pages are shown.

Available modes:
  system   - Open the PDF with a desktop program
  terminal - Print the page text in the terminal
  none     - Only report the cited page`,
	Args: cobra.NoArgs,
	RunE: runSettingsViewer,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsViewerCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	section := ""
	for _, key := range settingsService.Keys() {
		if name, _, _ := strings.Cut(key, "."); name != section {
			if section != "" {
				cmd.Println()
			}
			section = name
			cmd.Printf("[%s]\n", section)
		}
		value, err := settingsService.Lookup(key)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", key, err)
		}
		if value == "" {
			value = "(not set)"
		}
		cmd.Printf("  %s = %s\n", key, value)
	}
	cmd.Println()

	cmd.Println("[auth]")
	if settings.Auth.Token == "" {
		cmd.Println("  token = (not set)")
	} else {
		cmd.Printf("  token = %s\n", maskToken(settings.Auth.Token))
	}
	if !settings.Auth.Expiry.IsZero() {
		cmd.Printf("  expiry = %s\n", settings.Auth.Expiry.Local().Format(time.DateTime))
	}
	return nil
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	value, err := settingsService.Lookup(args[0])
	if err != nil {
		return fmt.Errorf("failed to get setting: %w", err)
	}
	cmd.Println(value)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("%s = %s\n", args[0], args[1])
	return nil
}

var viewerModes = []domain.ViewerMode{domain.ViewerSystem, domain.ViewerTerminal, domain.ViewerNone}

func runSettingsViewer(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	current := 1
	cmd.Println("Select viewer mode:")
	for i, m := range viewerModes {
		marker := ""
		if m == settings.Viewer.Mode {
			current = i + 1
			marker = " (current)"
		}
		cmd.Printf("  %d) %s%s\n", i+1, m, marker)
	}
	cmd.Printf("Choice [%d]: ", current)

	reader := bufio.NewReader(cmd.InOrStdin())
	mode := viewerModes[parseChoice(readLine(reader), len(viewerModes), current)-1]
	settings.Viewer.Mode = mode

	if mode == domain.ViewerSystem {
		cmd.Printf("Viewer command, {path} and {page} are replaced [%s]: ", settings.Viewer.Command)
		if command := readLine(reader); command != "" {
			settings.Viewer.Command = command
		}
	}

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Printf("Viewer mode set to %s.\n", mode)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
