package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pyrite-dev/pyrite/internal/ops"
)

func newRunCmd(directory *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <command>...",
		Short: "Run a command inside the project environment",
		Long: `Run executes a command with the virtual environment's executables
directory leading PATH and VIRTUAL_ENV set, both scoped to the spawned
process. Use "--" to separate the command from pyrite's own flags.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newConfig(cmd, directory)
			if err != nil {
				return err
			}
			return ops.Run(cmd.Context(), cfg, args)
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func newCleanCmd(directory *string) *cobra.Command {
	var opts ops.CleanOptions

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove build artifacts from the workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newConfig(cmd, directory)
			if err != nil {
				return err
			}
			return ops.Clean(cfg, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Pycache, "include-pycache", false, "also remove __pycache__ directories")
	cmd.Flags().BoolVar(&opts.CompiledBytecode, "include-pyc", false, "also remove compiled bytecode files")
	return cmd
}

func newInitCmd(directory *string) *cobra.Command {
	var app, noVCS bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the current directory as a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newConfig(cmd, directory)
			if err != nil {
				return err
			}
			return ops.Init(cmd.Context(), cfg, ops.WorkspaceOptions{App: app, UseGit: !noVCS})
		},
	}

	cmd.Flags().BoolVar(&app, "app", false, "initialize as an application with an entry point")
	cmd.Flags().BoolVar(&noVCS, "no-vcs", false, "skip git initialization")
	return cmd
}

func newNewCmd() *cobra.Command {
	var app, noVCS bool

	cmd := &cobra.Command{
		Use:   "new <path>",
		Short: "Create a new project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newConfig(cmd, nil)
			if err != nil {
				return err
			}
			cfg.WorkspaceRoot = args[0]
			return ops.New(cmd.Context(), cfg, ops.WorkspaceOptions{App: app, UseGit: !noVCS})
		},
	}

	cmd.Flags().BoolVar(&app, "app", false, "create an application with an entry point")
	cmd.Flags().BoolVar(&noVCS, "no-vcs", false, "skip git initialization")
	return cmd
}

func newVersionCmd(directory *string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the project version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newConfig(cmd, directory)
			if err != nil {
				return err
			}
			v, err := ops.ProjectVersion(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
}
