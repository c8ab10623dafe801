package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server on stdio",
	Long: `Start the Model Context Protocol (MCP) server.

The server reads one JSON-RPC 2.0 message per line from stdin and writes
responses to stdout. Logs go to stderr, and to logging.file when configured.

Example usage:
  govinv mcp --root /srv/governance

This command is typically invoked by MCP clients and not directly by users.`,
	RunE: runMCP,
}

var mcpQuiet bool

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().BoolVar(&mcpQuiet, "quiet", false, "Do not log to stderr (logging.file still applies)")
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := openRuntime(ctx, stderrOrDiscard(mcpQuiet))
	if err != nil {
		return err
	}
	defer deps.Close()

	if err := deps.tools.Start(ctx); err != nil {
		deps.logger.Error("MCP server error", "error", err.Error())
		return err
	}
	return nil
}
