package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/render"
	"github.com/custodia-labs/cortex-cli/internal/core/domain"
)

var (
	papersJSON   bool
	papersFilter string
	papersPage   int
)

var papersCmd = &cobra.Command{
	Use:   "papers",
	Short: "Manage your papers",
	Long: `List, upload and open the documents known to the backend and the
documents uploaded from this device.`,
}

var papersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List papers",
	Args:  cobra.NoArgs,
	RunE:  runPapersList,
}

var papersSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the paper list from the backend",
	Args:  cobra.NoArgs,
	RunE:  runPapersSync,
}

var papersUploadCmd = &cobra.Command{
	Use:   "upload [file...]",
	Short: "Upload PDF files",
	Long: `Uploads PDF files to the backend. Each file is added to the library
and shown at its first page right away; it stays available locally when the
upload fails.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPapersUpload,
}

var papersOpenCmd = &cobra.Command{
	Use:   "open [id-or-name]",
	Short: "Open a paper in the viewer",
	Long: `Opens a paper at a page. The paper is found by id, by exact name or
by the closest fuzzy name match.`,
	Args: cobra.ExactArgs(1),
	RunE: runPapersOpen,
}

func init() {
	papersListCmd.Flags().BoolVar(&papersJSON, "json", false, "output papers as JSON")
	papersListCmd.Flags().StringVarP(&papersFilter, "filter", "f", "", "fuzzy filter on paper names")
	papersOpenCmd.Flags().IntVarP(&papersPage, "page", "p", 1, "page to open")

	papersCmd.AddCommand(papersListCmd)
	papersCmd.AddCommand(papersSyncCmd)
	papersCmd.AddCommand(papersUploadCmd)
	papersCmd.AddCommand(papersOpenCmd)
	rootCmd.AddCommand(papersCmd)
}

func runPapersList(cmd *cobra.Command, _ []string) error {
	if err := prepareSession(cmd.Context(), false); err != nil {
		return err
	}

	entries := documentIndex(chatSession.Documents()).match(papersFilter)
	if papersJSON {
		return outputPapersJSON(cmd, entries)
	}

	if len(entries) == 0 {
		cmd.Println("No papers found.")
		return nil
	}

	cmd.Println("Papers:")
	cmd.Println()
	for _, e := range entries {
		cmd.Printf("  %s\n", e.DisplayName)
		cmd.Printf("      ID: %s\n", e.ID)
		if !e.UploadedAt.IsZero() {
			cmd.Printf("      Uploaded: %s\n", e.UploadedAt.Local().Format(time.DateTime))
		}
		if e.Local {
			cmd.Println("      Local only")
		}
		if e.HasContent() {
			cmd.Printf("      Cached: %s\n", e.Content.Path)
		}
	}
	return nil
}

type paperJSON struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Local      bool       `json:"local"`
	Cached     bool       `json:"cached"`
	Pages      int        `json:"pages,omitempty"`
	UploadedAt *time.Time `json:"uploaded_at,omitempty"`
}

func outputPapersJSON(cmd *cobra.Command, entries []domain.DocumentEntry) error {
	out := make([]paperJSON, 0, len(entries))
	for _, e := range entries {
		p := paperJSON{ID: e.ID, Name: e.DisplayName, Local: e.Local, Cached: e.HasContent()}
		if e.HasContent() {
			p.Pages = e.Content.Pages
		}
		if !e.UploadedAt.IsZero() {
			t := e.UploadedAt
			p.UploadedAt = &t
		}
		out = append(out, p)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal papers: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func runPapersSync(cmd *cobra.Command, _ []string) error {
	if chatSession == nil {
		return errors.New("chat session not configured")
	}

	entries, err := chatSession.SyncDocuments(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to sync papers: %w", err)
	}
	cmd.Printf("Synced %d papers.\n", len(entries))
	return nil
}

func runPapersUpload(cmd *cobra.Command, args []string) error {
	if err := prepareSession(cmd.Context(), false); err != nil {
		return err
	}

	var failed int
	for _, path := range args {
		entry, err := chatSession.Upload(cmd.Context(), path)
		switch {
		case err == nil:
			cmd.Printf("Uploaded %s (%s)\n", entry.DisplayName, entry.ID)
		case entry.ID != "":
			failed++
			cmd.Printf("Kept %s locally (%s): %v\n", entry.DisplayName, entry.ID, err)
		default:
			failed++
			cmd.Printf("Skipped %s: %v\n", path, err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(args))
	}
	return nil
}

func runPapersOpen(cmd *cobra.Command, args []string) error {
	if err := prepareSession(cmd.Context(), false); err != nil {
		return err
	}

	docs := documentIndex(chatSession.Documents())
	entry, err := docs.find(args[0])
	if err != nil {
		return err
	}

	nav, err := chatSession.Open(cmd.Context(), entry.ID, papersPage)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", entry.DisplayName, err)
	}
	cmd.Println(render.Navigation(nav, docs))
	return nil
}
