package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/render"
)

const (
	// uriScheme is the custom URI scheme for Cortex resources.
	uriScheme = "cortex://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "papers",
		Name:        "papers",
		Description: "Papers in the library",
		MIMEType:    "application/json",
	}, s.handlePapersResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "transcript",
		Name:        "transcript",
		Description: "Messages of the current conversation",
		MIMEType:    "application/json",
	}, s.handleTranscriptResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "messages/{messageId}",
		Name:        "message",
		Description: "Text and sources of one message",
		MIMEType:    "text/plain",
	}, s.handleMessageResource)
}

// handlePapersResource returns the catalog entries.
func (s *Server) handlePapersResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	entries := s.ports.Chat.Documents()
	papers := make([]PaperOutput, len(entries))
	for i, e := range entries {
		papers[i] = paperOutput(e)
	}

	data, err := json.MarshalIndent(papers, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling papers: %w", err)
	}

	return jsonResult(req.Params.URI, data), nil
}

// handleTranscriptResource returns the messages of the conversation.
func (s *Server) handleTranscriptResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type messageInfo struct {
		ID        string    `json:"id"`
		Role      string    `json:"role"`
		Status    string    `json:"status"`
		Text      string    `json:"text"`
		Citations int       `json:"citations"`
		CreatedAt time.Time `json:"created_at"`
	}

	msgs := s.ports.Chat.Messages()
	infos := make([]messageInfo, len(msgs))
	for i, m := range msgs {
		infos[i] = messageInfo{
			ID:        m.ID,
			Role:      m.Role.String(),
			Status:    m.Status.String(),
			Text:      m.Text(),
			Citations: len(m.Citations),
			CreatedAt: m.CreatedAt,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling transcript: %w", err)
	}

	return jsonResult(req.Params.URI, data), nil
}

// handleMessageResource returns one message followed by its sources.
func (s *Server) handleMessageResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractMessageID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	msg, ok := s.ports.Chat.Message(id)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	var b strings.Builder
	b.WriteString(msg.Text())
	if sources := render.Sources(msg.Citations, s.catalog()); len(sources) > 0 {
		b.WriteString("\n\nSources:\n")
		b.WriteString(strings.Join(sources, "\n"))
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     b.String(),
		}},
	}, nil
}

func jsonResult(uri string, data []byte) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}
}

// extractMessageID extracts the message ID from a URI like cortex://messages/{messageId}.
func extractMessageID(uri string) string {
	const prefix = uriScheme + "messages/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
