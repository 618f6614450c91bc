// Package main provides the entry point for the mem CLI.
package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	memmcp "github.com/memcli/mem/internal/mcp"
)

// newServeCmd creates the serve command for running as an MCP server.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run as MCP server (stdio transport)",
		Long: `Run mem as a Model Context Protocol (MCP) server over stdio.

This exposes mem operations as MCP tools that any MCP-capable agent
environment can use (Claude Code, Cursor, Windsurf, Gemini CLI, etc).

Configure in your agent's MCP settings:
  {
    "mcpServers": {
      "mem": {
        "command": "mem",
        "args": ["serve"]
      }
    }
  }

Available tools: status, spec_list, spec_show, task_list,
task_complete, log, todo_list, todo_create`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			server := memmcp.NewServer(buildVersion(), memmcp.Stores{
				Root:  ws.Root,
				Specs: ws.Specs,
				Tasks: ws.Tasks,
				Logs:  ws.Logs,
				Todos: ws.Todos,
			})
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
