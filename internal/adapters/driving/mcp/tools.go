package mcp

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/core/services"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string   `json:"question" jsonschema:"the question to ask about the paper library"`
	Attach   []string `json:"attach,omitempty" jsonschema:"absolute paths of PDF files to upload before asking"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	MessageID  string            `json:"message_id"`
	Answer     string            `json:"answer"`
	Citations  []CitationOutput  `json:"citations"`
	Navigation *NavigationOutput `json:"navigation,omitempty"`
}

// CitationOutput is one source of an answer.
type CitationOutput struct {
	Document string `json:"document"`
	ChunkID  string `json:"chunk_id,omitempty"`
	Page     int    `json:"page,omitempty"`
	Label    string `json:"label,omitempty"`
}

// NavigationOutput reports where the viewer was moved.
type NavigationOutput struct {
	Outcome    string `json:"outcome"`
	DocumentID string `json:"document_id,omitempty"`
	Page       int    `json:"page,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ListPapersInput is the input schema for the list_papers tool.
type ListPapersInput struct {
	Sync bool `json:"sync,omitempty" jsonschema:"refresh the list from the backend first"`
}

// ListPapersOutput is the output schema for the list_papers tool.
type ListPapersOutput struct {
	Papers []PaperOutput `json:"papers"`
	Count  int           `json:"count"`
}

// PaperOutput represents one paper.
type PaperOutput struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Local bool   `json:"local"`
	Pages int    `json:"pages,omitempty"`
}

// NavigateInput is the input schema for the navigate tool.
type NavigateInput struct {
	MessageID  string `json:"message_id,omitempty" jsonschema:"an answer whose first citation to show"`
	DocumentID string `json:"document_id,omitempty" jsonschema:"a paper to show when no message_id is given"`
	Page       int    `json:"page,omitempty" jsonschema:"page of document_id to show (default 1)"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Ask a question about the paper library and get a cited answer",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_papers",
		Description: "List the papers in the library",
	}, s.handleListPapers)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "navigate",
		Description: "Show the page cited by an answer, or a page of a paper",
	}, s.handleNavigate)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, AskOutput{}, errors.New("question is required")
	}

	attachments := make([]domain.Attachment, 0, len(input.Attach))
	for _, p := range input.Attach {
		attachments = append(attachments, domain.Attachment{
			Name:      filepath.Base(p),
			MediaType: "application/pdf",
			Path:      p,
		})
	}

	msg, err := s.ports.Chat.Ask(ctx, input.Question, attachments)
	if err != nil {
		return nil, AskOutput{}, err
	}

	catalog := s.catalog()
	output := AskOutput{
		MessageID: msg.ID,
		Answer:    msg.Text(),
		Citations: make([]CitationOutput, len(msg.Citations)),
	}
	for i, c := range msg.Citations {
		output.Citations[i] = CitationOutput{
			Document: services.SourceName(c, catalog),
			ChunkID:  c.ChunkID,
			Page:     c.Page,
			Label:    c.Label(),
		}
	}
	if nav, ok := s.ports.Chat.LastNavigation(); ok && nav.MessageID == msg.ID {
		output.Navigation = navigationOutput(nav)
	}

	return nil, output, nil
}

// handleListPapers handles the list_papers tool invocation.
func (s *Server) handleListPapers(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListPapersInput,
) (*mcp.CallToolResult, ListPapersOutput, error) {
	entries := s.ports.Chat.Documents()
	if input.Sync {
		synced, err := s.ports.Chat.SyncDocuments(ctx)
		if err != nil {
			return nil, ListPapersOutput{}, fmt.Errorf("syncing papers: %w", err)
		}
		entries = synced
	}

	output := ListPapersOutput{
		Papers: make([]PaperOutput, len(entries)),
		Count:  len(entries),
	}
	for i, e := range entries {
		output.Papers[i] = paperOutput(e)
	}

	return nil, output, nil
}

// handleNavigate handles the navigate tool invocation.
func (s *Server) handleNavigate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input NavigateInput,
) (*mcp.CallToolResult, NavigationOutput, error) {
	var (
		nav domain.Navigation
		err error
	)
	switch {
	case input.MessageID != "":
		nav, err = s.ports.Chat.CitationClicked(ctx, input.MessageID)
	case input.DocumentID != "":
		nav, err = s.ports.Chat.Open(ctx, input.DocumentID, input.Page)
	default:
		return nil, NavigationOutput{}, errors.New("message_id or document_id is required")
	}
	if err != nil && nav.Outcome == "" {
		return nil, NavigationOutput{}, err
	}

	return nil, *navigationOutput(nav), nil
}

func (s *Server) catalog() documentIndex {
	return documentIndex(s.ports.Chat.Documents())
}

func navigationOutput(nav domain.Navigation) *NavigationOutput {
	out := &NavigationOutput{
		Outcome:    nav.Outcome.String(),
		DocumentID: nav.Target.DocumentID,
		Page:       nav.Target.Page,
	}
	if nav.Err != nil {
		out.Error = nav.Err.Error()
	}
	return out
}

func paperOutput(e domain.DocumentEntry) PaperOutput {
	p := PaperOutput{ID: e.ID, Name: e.DisplayName, Local: e.Local}
	if e.HasContent() {
		p.Pages = e.Content.Pages
	}
	return p
}

// documentIndex is a DocumentLookup over a catalog snapshot.
type documentIndex []domain.DocumentEntry

func (d documentIndex) Lookup(id string) (domain.DocumentEntry, bool) {
	for _, e := range d {
		if e.ID == id {
			return e, true
		}
	}
	return domain.DocumentEntry{}, false
}
