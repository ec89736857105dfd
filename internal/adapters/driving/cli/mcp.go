package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gsignin/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so an AI host can sign the user in.

The tools initialize, signIn, refresh, signOut and status map onto the same
operations as the CLI commands. The loopback callback server runs alongside
for the whole session, and changes to config.toml are picked up while no
initialize override is active.

By default, the server communicates over stdio using JSON-RPC. Use --port to
start an HTTP server instead, for example to test with MCP Inspector.

Examples:
  # Stdio mode (default)
  gsignin mcp serve

  # HTTP mode
  gsignin mcp serve --port 8080

Host configuration:
  {
    "mcpServers": {
      "gsignin": {
        "command": "/path/to/gsignin",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	Annotations: map[string]string{annotationCallback: ""},
	RunE:        runMCPServe,
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

	server, err := mcp.NewServer(&mcp.Ports{Session: sessionService})
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
