package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Upload PDFs dropped into a folder",
	Long: `Watches a folder and uploads every PDF that appears in it once writes
to the file have settled. Without an argument the watch.dir setting is used.

Press Ctrl+C to stop.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchService == nil {
		return errors.New("watch service not configured")
	}

	dir := ""
	if len(args) == 1 {
		dir = args[0]
	} else if settingsService != nil {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		dir = settings.Watch.Dir
	}
	if dir == "" {
		return errors.New("no folder given and watch.dir is not set")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := prepareSession(ctx, false); err != nil {
		return err
	}

	cmd.Printf("Watching %s for PDFs. Press Ctrl+C to stop.\n", dir)
	err := watchService.Run(ctx, dir, func(r domain.UploadResult) {
		switch {
		case r.Err == nil:
			cmd.Printf("Uploaded %s (%s)\n", r.Entry.DisplayName, r.Entry.ID)
		case r.Entry.ID != "":
			cmd.Printf("Kept %s locally: %v\n", r.Entry.DisplayName, r.Err)
		default:
			cmd.Printf("Skipped %s: %v\n", r.Path, r.Err)
		}
	})
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
