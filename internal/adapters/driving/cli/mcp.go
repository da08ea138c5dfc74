package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cortex-cli/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start a Model Context Protocol server that lets AI assistants ask
questions of your papers and look up the pages answers cite.

By default the server speaks JSON-RPC over stdio. Use --port to serve
over HTTP instead; the endpoint is /mcp and /healthz checks the backend.

Examples:
  cortex mcp serve
  cortex mcp serve --port 8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "cortex": {
        "command": "/path/to/cortex",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	server, err := mcp.NewServer(&mcp.Ports{Chat: chatSession}, mcp.WithVersion(version))
	if err != nil {
		return err
	}

	// Answers cited over MCP are not opened locally
	if chatSession != nil {
		chatSession.SetAutoNavigate(false)
		if err := prepareSession(cmd.Context(), false); err != nil {
			return err
		}
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		cmd.PrintErrf("MCP server listening on http://localhost%s%s\n", addr, mcp.EndpointPath)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
