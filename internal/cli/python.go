package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pyrite-dev/pyrite/internal/ops"
)

var (
	indexStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	versionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	pathStyle    = lipgloss.NewStyle().Faint(true)
)

func newPythonCmd(directory *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "python",
		Short: "Manage the project's Python interpreter",
	}

	cmd.AddCommand(newPythonListCmd(directory))
	cmd.AddCommand(newPythonUseCmd(directory))
	return cmd
}

func newPythonListCmd(directory *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List Python interpreters found on PATH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newConfig(cmd, directory)
			if err != nil {
				return err
			}
			interpreters := ops.ListInterpreters(cmd.Context(), cfg)
			if len(interpreters) == 0 {
				cfg.Logger.Warn("no python interpreters found on PATH")
				return nil
			}
			for i, interp := range interpreters {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n",
					indexStyle.Render(fmt.Sprintf("%d:", i+1)),
					versionStyle.Render(interp.Version),
					pathStyle.Render(interp.Path))
			}
			return nil
		},
	}
}

func newPythonUseCmd(directory *string) *cobra.Command {
	return &cobra.Command{
		Use:   "use <version>",
		Short: "Switch the project environment to an interpreter version",
		Long: `Use destroys the project's current virtual environment, if any, and
creates a fresh one with the interpreter reporting exactly the given
version.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newConfig(cmd, directory)
			if err != nil {
				return err
			}
			return ops.UseInterpreter(cmd.Context(), cfg, args[0])
		},
	}
}
