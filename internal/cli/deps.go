package cli

import (
	"github.com/spf13/cobra"

	"github.com/pyrite-dev/pyrite/internal/ops"
	"github.com/pyrite-dev/pyrite/internal/venv"
)

func newAddCmd(directory *string) *cobra.Command {
	var group string
	var installerArgs []string

	cmd := &cobra.Command{
		Use:   "add <requirement>...",
		Short: "Add dependencies to the project",
		Long: `Add installs the given requirements into the project's virtual
environment and declares them in pyproject.toml. Requirements without a
version specifier are pinned to the installed version.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newConfig(cmd, directory)
			if err != nil {
				return err
			}
			opts := ops.AddOptions{Install: venv.InstallOptions{Args: installerArgs}}
			return ops.Add(cmd.Context(), cfg, args, group, opts)
		},
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "optional dependency group to add to")
	cmd.Flags().StringArrayVar(&installerArgs, "installer-arg", nil, "extra argument passed through to the installer (repeatable)")
	return cmd
}

func newRemoveCmd(directory *string) *cobra.Command {
	var installerArgs []string

	cmd := &cobra.Command{
		Use:   "remove <requirement>...",
		Short: "Remove dependencies from the project",
		Long: `Remove erases the given dependencies from the required list and from
every optional group containing them, then uninstalls them from the
virtual environment if one exists.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newConfig(cmd, directory)
			if err != nil {
				return err
			}
			opts := ops.RemoveOptions{Install: venv.InstallOptions{Args: installerArgs}}
			return ops.Remove(cmd.Context(), cfg, args, opts)
		},
	}

	cmd.Flags().StringArrayVar(&installerArgs, "installer-arg", nil, "extra argument passed through to the installer (repeatable)")
	return cmd
}

func newInstallCmd(directory *string) *cobra.Command {
	var installerArgs []string

	cmd := &cobra.Command{
		Use:   "install [group]...",
		Short: "Install declared dependencies",
		Long: `Install installs the project's declared dependencies into the virtual
environment. With no arguments the required list and every optional
group are installed; otherwise only the named groups are. The group
"required" selects just the required list unless the project defines an
optional group of that name.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newConfig(cmd, directory)
			if err != nil {
				return err
			}
			return ops.Install(cmd.Context(), cfg, args, venv.InstallOptions{Args: installerArgs})
		},
	}

	cmd.Flags().StringArrayVar(&installerArgs, "installer-arg", nil, "extra argument passed through to the installer (repeatable)")
	return cmd
}

func newUpdateCmd(directory *string) *cobra.Command {
	var installerArgs []string

	cmd := &cobra.Command{
		Use:   "update [requirement]...",
		Short: "Update dependencies to their newest satisfying versions",
		Long: `Update upgrades the given dependencies, or every declared dependency
when none are given, to the newest versions satisfying their declared
constraints, and re-pins tracked entries in pyproject.toml.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newConfig(cmd, directory)
			if err != nil {
				return err
			}
			opts := ops.UpdateOptions{Install: venv.InstallOptions{Args: installerArgs}}
			return ops.Update(cmd.Context(), cfg, args, opts)
		},
	}

	cmd.Flags().StringArrayVar(&installerArgs, "installer-arg", nil, "extra argument passed through to the installer (repeatable)")
	return cmd
}
