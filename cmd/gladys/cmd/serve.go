package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IgorArodrigues/Gladys-IA/internal/logging"
	"github.com/IgorArodrigues/Gladys-IA/internal/mcp"
)

func newServeCmd() *cobra.Command {
	var vault string
	var offline bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the vault index over MCP (stdio)",
		Long: `Expose the index to Model Context Protocol clients on stdin/stdout.

Tools: vault_search, vault_update, vault_stats, vault_exclude. All logs
go to the vault log file; stdout carries only protocol frames.

Typical client registration:
  claude mcp add gladys -- gladys serve --vault ~/notes`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), vault, offline)
		},
	}

	cmd.Flags().StringVar(&vault, "vault", "", "Vault root (default: walk up from the working directory)")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use the static embedder")

	return cmd
}

func runServe(ctx context.Context, vault string, offline bool) error {
	root, cfg, err := resolveVault(vault)
	if err != nil {
		return err
	}
	if offline {
		cfg.Embedder.Provider = "static"
	}

	// Stdout belongs to the protocol from here on.
	if cleanup, err := logging.SetupMCPMode(logPathFor(root, cfg)); err == nil {
		defer cleanup()
	}

	h, err := openEngine(ctx, root, cfg)
	if err != nil {
		return err
	}
	defer h.Close()

	srv, err := mcp.NewServer(h.Engine, cfg)
	if err != nil {
		return fmt.Errorf("create MCP server: %w", err)
	}
	return srv.Serve(ctx)
}
