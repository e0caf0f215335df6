package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IgorArodrigues/Gladys-IA/internal/config"
	"github.com/IgorArodrigues/Gladys-IA/internal/output"
	"github.com/IgorArodrigues/Gladys-IA/internal/store"
)

func newExcludeCmd() *cobra.Command {
	var vault string

	cmd := &cobra.Command{
		Use:   "exclude",
		Short: "Manage excluded path segments",
		Long: `Exclusions hide any path containing the given segment from scanning.

They live in the vault database, so they persist across restarts and
apply to the daemon and the MCP server alike. Changes take effect on
the next update cycle.

Examples:
  gladys exclude add archive
  gladys exclude remove archive
  gladys exclude list`,
	}

	cmd.PersistentFlags().StringVar(&vault, "vault", "", "Vault root (default: walk up from the working directory)")

	cmd.AddCommand(newExcludeAddCmd(&vault))
	cmd.AddCommand(newExcludeRemoveCmd(&vault))
	cmd.AddCommand(newExcludeListCmd(&vault))

	return cmd
}

func newExcludeAddCmd(vault *string) *cobra.Command {
	return &cobra.Command{
		Use:   "add <segment>",
		Short: "Add an excluded path segment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExclude(cmd.Context(), cmd, *vault, func(ctx context.Context, st *store.SQLiteStore, out *output.Writer) error {
				segment := strings.TrimSpace(args[0])
				if segment == "" {
					return fmt.Errorf("segment cannot be blank")
				}
				if err := st.AddExcludedPath(ctx, segment); err != nil {
					return fmt.Errorf("add exclusion: %w", err)
				}
				out.Success(fmt.Sprintf("Excluded %q (applies on the next update cycle)", segment))
				return nil
			})
		},
	}
}

func newExcludeRemoveCmd(vault *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <segment>",
		Short: "Remove an excluded path segment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExclude(cmd.Context(), cmd, *vault, func(ctx context.Context, st *store.SQLiteStore, out *output.Writer) error {
				segment := strings.TrimSpace(args[0])
				removed, err := st.RemoveExcludedPath(ctx, segment)
				if err != nil {
					return fmt.Errorf("remove exclusion: %w", err)
				}
				if !removed {
					out.Status("", fmt.Sprintf("%q was not excluded", segment))
					return nil
				}
				out.Success(fmt.Sprintf("Removed exclusion %q", segment))
				return nil
			})
		},
	}
}

func newExcludeListCmd(vault *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List excluded path segments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExclude(cmd.Context(), cmd, *vault, func(ctx context.Context, st *store.SQLiteStore, out *output.Writer) error {
				paths, err := st.ListExcludedPaths(ctx)
				if err != nil {
					return fmt.Errorf("list exclusions: %w", err)
				}
				if len(paths) == 0 {
					out.Status("", "No excluded paths")
					return nil
				}
				for _, p := range paths {
					out.Status("", "- "+p)
				}
				return nil
			})
		},
	}
}

// runExclude opens just the record store; exclusions do not need the
// embedder or the engine.
func runExclude(ctx context.Context, cmd *cobra.Command, vault string, fn func(context.Context, *store.SQLiteStore, *output.Writer) error) error {
	root, _, err := resolveVault(vault)
	if err != nil {
		return err
	}

	if err := config.EnsureGladysDir(root); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	st, err := store.NewSQLiteStore(config.DBPath(root))
	if err != nil {
		return fmt.Errorf("open record store: %w", err)
	}
	defer func() { _ = st.Close() }()

	return fn(ctx, st, output.New(cmd.OutOrStdout()))
}
