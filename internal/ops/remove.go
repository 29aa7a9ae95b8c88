package ops

import (
	"context"

	"github.com/pyrite-dev/pyrite/internal/dependency"
	"github.com/pyrite-dev/pyrite/internal/venv"

	perr "github.com/pyrite-dev/pyrite/internal/errors"
)

// RemoveOptions configures Remove.
type RemoveOptions struct {
	Install venv.InstallOptions
}

// Remove erases the requested dependencies from the required list and
// from every optional group containing them, then uninstalls them from
// the environment. Requirements not declared anywhere are skipped; a
// missing environment makes the uninstall a no-op, not a failure.
func Remove(ctx context.Context, cfg *Config, requirements []string, opts RemoveOptions) error {
	ws, doc, before, err := loadProject(cfg)
	if err != nil {
		return err
	}

	deps, err := dependency.ParseAll(requirements)
	if err != nil {
		return err
	}

	candidates := deps[:0:0]
	for _, dep := range deps {
		if doc.ContainsDependencyAny(dep) {
			candidates = append(candidates, dep)
		}
	}
	if len(candidates) == 0 {
		cfg.logger().Debug("nothing to remove")
		return nil
	}

	groups := doc.Groups()
	for _, dep := range candidates {
		doc.RemoveDependency(dep)
		for _, group := range groups {
			doc.RemoveOptionalDependency(dep, group)
		}
		cfg.logger().Info("removed dependency", "name", dep.NormalizedName())
	}

	if err := writeIfChanged(doc, before, cfg.logger()); err != nil {
		return err
	}

	env, err := ws.CurrentEnvironment()
	if err != nil {
		if perr.IsCode(err, perr.ErrCodeEnvironmentNotFound) {
			return nil
		}
		return err
	}
	return env.Uninstall(ctx, candidates, opts.Install)
}
