package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the backend connection",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if chatSession == nil {
		return errors.New("chat session not configured")
	}

	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			cmd.Printf("Backend:  %s\n", settings.Backend.URL)
			cmd.Printf("Answers:  %s\n", settings.Backend.Transport)
			cmd.Printf("Viewer:   %s\n", settings.Viewer.Mode)
		}
	}

	reachable := chatSession.Ping(cmd.Context()) == nil
	if reachable {
		cmd.Println("Health:   ok")
	} else {
		cmd.Println("Health:   unreachable")
	}

	if authService != nil {
		if authService.IsAuthenticated() {
			cmd.Println("Auth:     logged in")
		} else {
			cmd.Println("Auth:     not logged in")
		}
	}

	if reachable {
		if entries, err := chatSession.SyncDocuments(cmd.Context()); err == nil {
			cmd.Printf("Papers:   %d\n", len(entries))
		} else {
			cmd.Printf("Papers:   %v\n", err)
		}
	}

	if !reachable {
		return errors.New("backend is unreachable")
	}
	return nil
}
