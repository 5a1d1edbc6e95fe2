package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/aretw0/ivrflow/internal/cli"
	"github.com/aretw0/ivrflow/pkg/adapters/mcp"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/observability"
	"github.com/spf13/cobra"
)

func newMCPCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the Model Context Protocol (MCP) server",
		Long: `Exposes flow validation, compilation, export and simulation as MCP tools, so AI
agents can author and check call flows.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			transport, _ := cmd.Flags().GetString("transport")
			port, _ := cmd.Flags().GetInt("port")
			if port == 0 {
				port = a.cfg.Server.MCPPort
			}

			backend, err := cli.OpenBackend(a.cfg.Store)
			if err != nil {
				return err
			}
			defer backend.Close()

			hooks := observability.LoggingHooks(a.logger)
			opts := []mcp.Option{
				mcp.WithLogger(a.logger),
				mcp.WithHooks(hooks),
				mcp.WithFlows(cli.NewManager(backend, a.cfg, a.logger, hooks)),
			}
			if a.cfg.DeadBranch != "" {
				opts = append(opts, mcp.WithDeadBranch(domain.DeadBranchPolicy(a.cfg.DeadBranch)))
			}
			srv := mcp.NewServer(opts...)

			switch transport {
			case "stdio":
				// Ensure logs don't corrupt JSON-RPC on Stdout
				log.SetOutput(os.Stderr)
				a.logger.Info("Starting ivrflow MCP Server (Stdio)")
				return srv.ServeStdio()
			case "sse":
				ctx := cli.NewSignalContext(cmd.Context())
				defer ctx.Cancel()

				a.logger.Info("Starting ivrflow MCP Server (SSE)", "port", port)
				if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				a.logger.Info("MCP Server stopped gracefully")
				return nil
			default:
				return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
			}
		},
	}
	cmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	cmd.Flags().Int("port", 0, "Port to listen on, only for SSE (default from config, 8081)")
	return cmd
}
