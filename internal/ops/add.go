package ops

import (
	"context"

	"github.com/pyrite-dev/pyrite/internal/dependency"
	"github.com/pyrite-dev/pyrite/internal/venv"
)

// AddOptions configures Add.
type AddOptions struct {
	Install venv.InstallOptions
}

// Add installs the requested requirements into the project environment
// and declares them in the metadata document. group selects an
// optional-dependency group; empty means the required list.
//
// Requirements already declared exactly as requested are skipped; a
// requirement declared under a different constraint is installed and
// its declared entry replaced. Requirements without an explicit
// constraint are persisted pinned to the version the environment
// reports installed.
func Add(ctx context.Context, cfg *Config, requirements []string, group string, opts AddOptions) error {
	ws, doc, before, err := loadProject(cfg)
	if err != nil {
		return err
	}

	deps, err := dependency.ParseAll(requirements)
	if err != nil {
		return err
	}

	// Collect only the requirements not already declared verbatim.
	candidates := deps[:0:0]
	for _, dep := range deps {
		declared := doc.ContainsDependency(dep)
		if group != "" {
			declared = doc.ContainsOptionalDependency(dep, group)
		}
		if !declared {
			candidates = append(candidates, dep)
		}
	}
	if len(candidates) == 0 {
		cfg.logger().Debug("nothing to add")
		return nil
	}

	env, err := ws.ResolveEnvironment(ctx)
	if err != nil {
		return err
	}
	if err := env.Install(ctx, candidates, opts.Install); err != nil {
		return err
	}

	installed, err := env.InstalledPackages()
	if err != nil {
		return err
	}
	for _, dep := range candidates {
		final := backfill(dep, installed)
		if group == "" {
			doc.AddDependency(final)
		} else {
			doc.AddOptionalDependency(final, group)
		}
		cfg.logger().Info("added dependency", "requirement", final.String())
	}

	return writeIfChanged(doc, before, cfg.logger())
}
