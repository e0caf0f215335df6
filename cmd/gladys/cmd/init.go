package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/IgorArodrigues/Gladys-IA/configs"
	"github.com/IgorArodrigues/Gladys-IA/internal/config"
	"github.com/IgorArodrigues/Gladys-IA/internal/output"
)

func newInitCmd() *cobra.Command {
	var force bool
	var user bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Initialize a vault for indexing",
		Long: `Create the .gladys state directory and write a starter config file.

The vault kind (Obsidian, Logseq, plain folder) is detected from the
directory layout. Existing config files are left alone unless --force
is given.

With --user, writes the machine-level config template to
~/.config/gladys/config.yaml instead of touching a vault.

Examples:
  gladys init                # initialize the current directory
  gladys init ~/notes        # initialize a specific vault
  gladys init --force        # overwrite an existing config
  gladys init --user         # write the user config template`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if user {
				return runInitUser(cmd, force)
			}
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runInit(cmd, path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	cmd.Flags().BoolVar(&user, "user", false, "Write the user-level config template instead")
	return cmd
}

func runInit(cmd *cobra.Command, path string, force bool) error {
	out := output.New(cmd.OutOrStdout())

	root, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve vault path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("vault path does not exist: %s", root)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault path is not a directory: %s", root)
	}

	if err := config.EnsureGladysDir(root); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	cfgPath := config.VaultConfigPath(root)
	if fileExists(cfgPath) && !force {
		out.Status("", fmt.Sprintf("Config already exists: %s", cfgPath))
		out.Status("", "Use --force to overwrite, or edit it directly")
		return nil
	}

	kind := config.DetectVaultKind(root)

	if err := os.WriteFile(cfgPath, []byte(configs.VaultConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	out.Success(fmt.Sprintf("Initialized %s vault at %s", kind, root))
	out.Status("", fmt.Sprintf("Config:    %s", cfgPath))
	out.Status("", fmt.Sprintf("State dir: %s", config.GladysDir(root)))
	out.Newline()
	out.Status("", "Next steps:")
	out.Status("", "  gladys index     # build the index")
	out.Status("", "  gladys serve     # expose it over MCP")
	return nil
}

// runInitUser writes the machine-level config template. An existing
// user config is backed up before --force overwrites it.
func runInitUser(cmd *cobra.Command, force bool) error {
	out := output.New(cmd.OutOrStdout())

	cfgPath := config.GetUserConfigPath()
	if config.UserConfigExists() && !force {
		out.Status("", fmt.Sprintf("User config already exists: %s", cfgPath))
		out.Status("", "Use --force to overwrite, or edit it directly")
		return nil
	}

	if config.UserConfigExists() {
		backup, err := config.BackupUserConfig()
		if err != nil {
			return fmt.Errorf("backup user config: %w", err)
		}
		out.Status("", fmt.Sprintf("Backed up existing config to %s", backup))
	}

	if err := os.MkdirAll(config.GetUserConfigDir(), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(cfgPath, []byte(configs.UserConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("write user config: %w", err)
	}

	out.Success(fmt.Sprintf("Wrote user config template to %s", cfgPath))
	return nil
}
