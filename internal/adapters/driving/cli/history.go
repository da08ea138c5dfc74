package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
)

var (
	historyJSON  bool
	historyLimit int
	historyYes   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or clear the saved conversation",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved messages",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all saved messages",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

func init() {
	historyListCmd.Flags().BoolVar(&historyJSON, "json", false, "output messages as JSON")
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "show only the last n messages")
	historyClearCmd.Flags().BoolVarP(&historyYes, "yes", "y", false, "do not ask for confirmation")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	if chatSession == nil {
		return errors.New("chat session not configured")
	}
	if err := chatSession.Restore(cmd.Context()); err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	msgs := chatSession.Messages()
	if historyLimit > 0 && len(msgs) > historyLimit {
		msgs = msgs[len(msgs)-historyLimit:]
	}

	if historyJSON {
		return outputHistoryJSON(cmd, msgs)
	}

	if len(msgs) == 0 {
		cmd.Println("No saved messages.")
		return nil
	}
	for _, m := range msgs {
		cmd.Printf("[%s] %s", m.CreatedAt.Local().Format(time.DateTime), m.Role)
		if m.Status == domain.StatusFailed {
			cmd.Print(" (failed)")
		}
		cmd.Printf(": %s\n", strings.TrimSpace(m.Text()))
		for _, a := range m.Attachments() {
			cmd.Printf("    attached %s\n", a.Name)
		}
	}
	return nil
}

type historyMessageJSON struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	Text      string    `json:"text"`
	Citations int       `json:"citations"`
	CreatedAt time.Time `json:"created_at"`
}

func outputHistoryJSON(cmd *cobra.Command, msgs []domain.Message) error {
	out := make([]historyMessageJSON, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, historyMessageJSON{
			ID:        m.ID,
			Role:      m.Role.String(),
			Status:    m.Status.String(),
			Text:      m.Text(),
			Citations: len(m.Citations),
			CreatedAt: m.CreatedAt,
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func runHistoryClear(cmd *cobra.Command, _ []string) error {
	if chatSession == nil {
		return errors.New("chat session not configured")
	}

	if !historyYes {
		cmd.Print("Delete all saved messages? [y/N]: ")
		answer := strings.ToLower(readLine(bufio.NewReader(cmd.InOrStdin())))
		if answer != "y" && answer != "yes" {
			cmd.Println("Cancelled.")
			return nil
		}
	}

	if err := chatSession.ClearHistory(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	cmd.Println("History cleared.")
	return nil
}
