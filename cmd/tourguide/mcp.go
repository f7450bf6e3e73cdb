package main

import (
	"fmt"

	"github.com/aretw0/tourguide"
	"github.com/aretw0/tourguide/internal/cli"
	"github.com/aretw0/tourguide/internal/logging"
	"github.com/aretw0/tourguide/pkg/adapters/mcp"
	"github.com/aretw0/tourguide/pkg/tourconfig"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve tour visibility as MCP tools",
	Long: `Starts a Model Context Protocol server exposing resolve_page, get_status,
record_dismissal and record_completion. Uses stdio unless --sse is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sse, _ := cmd.Flags().GetBool("sse")
		port, _ := cmd.Flags().GetInt("port")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		// Stdout carries the protocol in stdio mode.
		logger := logging.NewWithWriter(cmd.ErrOrStderr(), logging.ParseLevel(settings.LogLevel), settings.LogFormat == "json")

		backend, err := cli.OpenBackend(ctx, settings)
		if err != nil {
			return err
		}
		defer backend.Close()

		holder := tourconfig.NewHolder(cli.NewConfigSource(settings))
		if err := holder.Reload(ctx); err != nil {
			logger.Error("Failed to load config", "config", settings.Config, "error", err)
		}
		holder.Watch(ctx, logger, nil)

		srv := mcp.NewServer(backend.KV, backend.Locker, holder, tourguide.Version, mcp.WithLogger(logger))
		if sse {
			addr := fmt.Sprintf(":%d", port)
			return srv.ServeSSE(ctx, addr, fmt.Sprintf("http://localhost:%d", port))
		}
		return cli.HandleExecutionError(srv.ServeStdio())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().Bool("sse", false, "serve over SSE instead of stdio")
	mcpCmd.Flags().Int("port", 8081, "SSE port")
}
