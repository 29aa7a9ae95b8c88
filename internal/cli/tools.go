package cli

import (
	"github.com/spf13/cobra"

	"github.com/pyrite-dev/pyrite/internal/ops"
)

func newFmtCmd(directory *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmt [tool-arg]...",
		Short: "Format the project's Python sources",
		Long: `Fmt sorts imports with ruff and formats code with black, installing
them into the environment and recording them in the "dev" group when
missing. Extra arguments are passed through to black.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newConfig(cmd, directory)
			if err != nil {
				return err
			}
			return ops.Fmt(cmd.Context(), cfg, ops.ToolOptions{Args: args})
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func newLintCmd(directory *string) *cobra.Command {
	var noTypes bool

	cmd := &cobra.Command{
		Use:   "lint [tool-arg]...",
		Short: "Lint the project's Python sources",
		Long: `Lint checks sources with ruff, and with mypy unless --no-types is
given, installing the tools and recording them in the "dev" group when
missing. Extra arguments are passed through to ruff.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newConfig(cmd, directory)
			if err != nil {
				return err
			}
			opts := ops.LintOptions{Args: args, IncludeTypes: !noTypes}
			return ops.Lint(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().BoolVar(&noTypes, "no-types", false, "skip type checking")
	return cmd
}

func newTestCmd(directory *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test [tool-arg]...",
		Short: "Run the project's test suite",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newConfig(cmd, directory)
			if err != nil {
				return err
			}
			return ops.Test(cmd.Context(), cfg, ops.ToolOptions{Args: args})
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func newBuildCmd(directory *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [tool-arg]...",
		Short: "Build the project's distributions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newConfig(cmd, directory)
			if err != nil {
				return err
			}
			return ops.Build(cmd.Context(), cfg, ops.ToolOptions{Args: args})
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func newPublishCmd(directory *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish [tool-arg]...",
		Short: "Upload built distributions to a package index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newConfig(cmd, directory)
			if err != nil {
				return err
			}
			return ops.Publish(cmd.Context(), cfg, ops.ToolOptions{Args: args})
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}
