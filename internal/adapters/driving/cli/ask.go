package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/render"
	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/core/services"
)

var (
	askAttach     []string
	askJSON       bool
	askNoNavigate bool
)

// markdownStyle is the glamour style used for answers.
var markdownStyle = render.StyleAuto

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your papers",
	Long: `Sends one question to the backend and prints the answer with its
sources. When the answer cites a known document, the viewer opens the cited
page unless --no-navigate is given.

Attached PDFs are uploaded before the question is sent.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringArrayVarP(&askAttach, "attach", "a", nil, "attach a file (repeatable)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVar(&askNoNavigate, "no-navigate", false, "do not open the cited page")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatSession == nil {
		return errors.New("chat session not configured")
	}
	ctx := cmd.Context()

	attachments, err := attachmentsFrom(askAttach)
	if err != nil {
		return err
	}
	if err := prepareSession(ctx, false); err != nil {
		return err
	}
	if askNoNavigate {
		chatSession.SetAutoNavigate(false)
	}

	msg, err := chatSession.Ask(ctx, strings.Join(args, " "), attachments)
	if err != nil {
		return fmt.Errorf("failed to get answer: %w", err)
	}

	var nav *domain.Navigation
	if last, ok := chatSession.LastNavigation(); ok && last.MessageID == msg.ID {
		nav = &last
	}

	if askJSON {
		return outputAnswerJSON(cmd, msg, nav)
	}
	return outputAnswer(cmd, msg, nav)
}

type answerJSON struct {
	ID         string          `json:"id"`
	Status     string          `json:"status"`
	Answer     string          `json:"answer"`
	Citations  []citationJSON  `json:"citations"`
	Navigation *navigationJSON `json:"navigation,omitempty"`
}

type citationJSON struct {
	ChunkID  string `json:"chunk_id,omitempty"`
	Source   string `json:"source,omitempty"`
	Document string `json:"document"`
	Page     int    `json:"page,omitempty"`
	Label    string `json:"label,omitempty"`
}

type navigationJSON struct {
	Outcome    string `json:"outcome"`
	DocumentID string `json:"document_id,omitempty"`
	Page       int    `json:"page,omitempty"`
	Error      string `json:"error,omitempty"`
}

func outputAnswerJSON(cmd *cobra.Command, msg domain.Message, nav *domain.Navigation) error {
	docs := documentIndex(chatSession.Documents())
	out := answerJSON{
		ID:        msg.ID,
		Status:    msg.Status.String(),
		Answer:    msg.Text(),
		Citations: make([]citationJSON, 0, len(msg.Citations)),
	}
	for _, c := range msg.Citations {
		out.Citations = append(out.Citations, citationJSON{
			ChunkID:  c.ChunkID,
			Source:   c.Source,
			Document: services.SourceName(c, docs),
			Page:     c.Page,
			Label:    c.Label(),
		})
	}
	if nav != nil {
		out.Navigation = &navigationJSON{
			Outcome:    nav.Outcome.String(),
			DocumentID: nav.Target.DocumentID,
			Page:       nav.Target.Page,
		}
		if nav.Err != nil {
			out.Navigation.Error = nav.Err.Error()
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswer(cmd *cobra.Command, msg domain.Message, nav *domain.Navigation) error {
	md, err := render.NewMarkdown(markdownStyle, render.DefaultWidth)
	if err != nil {
		return err
	}
	cmd.Println(md.Render(msg.Text()))

	docs := documentIndex(chatSession.Documents())
	if sources := render.Sources(msg.Citations, docs); len(sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, line := range sources {
			cmd.Printf("  %s\n", line)
		}
	}
	if nav != nil {
		cmd.Println()
		cmd.Println(render.Navigation(*nav, docs))
	}
	return nil
}
