package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"govinv/internal/mcp"
)

var toolsJSONFlag bool

var toolsCmd = &cobra.Command{
	Use:   "tools [name]",
	Short: "List available MCP tools",
	Long: `List the tools the MCP and HTTP servers expose.

Examples:
  govinv tools                       # Name and description of every tool
  govinv tools analyze_impact        # Input schema of one tool
  govinv tools --json                # All definitions as JSON`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTools,
}

func init() {
	toolsCmd.Flags().BoolVar(&toolsJSONFlag, "json", false, "Output as JSON")
	rootCmd.AddCommand(toolsCmd)
}

func runTools(_ *cobra.Command, args []string) error {
	defs := mcp.NewMCPServerForCLI().GetToolDefinitions()

	if len(args) > 0 {
		for _, tool := range defs {
			if tool.Name == args[0] {
				return printJSON(tool)
			}
		}
		return fmt.Errorf("unknown tool %q", args[0])
	}

	if toolsJSONFlag {
		return printJSON(defs)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, tool := range defs {
		fmt.Fprintf(w, "%s\t%s\n", tool.Name, tool.Description)
	}
	return w.Flush()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
