package commands

import (
	"os"
	"os/signal"
	"syscall"

	"oddsledger/internal/mcp"

	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server on stdio for OWNER_ID",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		eng, store, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		server, err := mcp.NewServer(eng, cfg.OwnerID, Version)
		if err != nil {
			return err
		}
		return server.Run(ctx)
	},
}
