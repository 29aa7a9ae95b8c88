package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pyrite-dev/pyrite/internal/ops"
	"github.com/pyrite-dev/pyrite/internal/shell"
)

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version.
// Typically called by the main package with values injected via ldflags
// at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the pyrite CLI and returns an error if any command
// fails.
func Execute(ctx context.Context) error {
	var verbose bool
	var directory string

	root := &cobra.Command{
		Use:          "pyrite",
		Short:        "Manage Python projects, dependencies and environments",
		Long:         `Pyrite manages a Python project's declared dependencies, its virtual environment, and the interpreters available on the host, keeping pyproject.toml and the environment's installed set consistent across every operation.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("pyrite %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&directory, "directory", "C", "", "project directory (defaults to the working directory)")

	root.AddCommand(newAddCmd(&directory))
	root.AddCommand(newRemoveCmd(&directory))
	root.AddCommand(newInstallCmd(&directory))
	root.AddCommand(newUpdateCmd(&directory))
	root.AddCommand(newRunCmd(&directory))
	root.AddCommand(newCleanCmd(&directory))
	root.AddCommand(newInitCmd(&directory))
	root.AddCommand(newNewCmd())
	root.AddCommand(newFmtCmd(&directory))
	root.AddCommand(newLintCmd(&directory))
	root.AddCommand(newTestCmd(&directory))
	root.AddCommand(newBuildCmd(&directory))
	root.AddCommand(newPublishCmd(&directory))
	root.AddCommand(newPythonCmd(&directory))
	root.AddCommand(newVersionCmd(&directory))

	return root.ExecuteContext(ctx)
}

// newConfig builds the per-invocation operation config. The workspace
// root defaults to the working directory unless --directory overrides
// it.
func newConfig(cmd *cobra.Command, directory *string) (*ops.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root := cwd
	if directory != nil && *directory != "" {
		root = *directory
	}
	return &ops.Config{
		WorkspaceRoot: root,
		CWD:           cwd,
		Runner:        &shell.ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr},
		Logger:        loggerFromContext(cmd.Context()),
	}, nil
}
