package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/pkg/adapters/console"
	"github.com/aretw0/arbor/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the command tree to AI agents as MCP tools.

Tools: execute_command, complete_command, get_tree.
Resource: arbor://tree.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		// Logs must never reach stdout on the stdio transport.
		a, err := newApp(cmd, transport == "stdio")
		if err != nil {
			return err
		}
		defer a.close()

		a.callers = console.NewDirectory(console.WithLogger(a.logger))
		srv := mcp.NewServer(a.engine,
			mcp.WithLogger(a.logger),
			mcp.WithDirectory(a.callers),
		)

		switch transport {
		case "stdio":
			a.logger.Info("starting arbor MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			a.logger.Info("starting arbor MCP server (SSE)", "port", port)
			sigCtx := cli.NewSignalContext(context.Background())
			defer sigCtx.Cancel()
			if err := srv.ServeSSE(sigCtx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			a.logger.Info("MCP server stopped")
			return nil
		default:
			return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringP("transport", "t", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().IntP("port", "p", 8080, "Port for the sse transport")
}
