package ops

import (
	"context"

	"github.com/pyrite-dev/pyrite/internal/dependency"
	"github.com/pyrite-dev/pyrite/internal/metadata"
	"github.com/pyrite-dev/pyrite/internal/venv"
)

// Install installs declared dependencies into the project environment.
//
// With no groups, the full declared set is installed: the required list
// plus every optional group. The pseudo-group "required" selects just
// the required list, but only when the project does not define a
// literal optional group of that name; otherwise group names are looked
// up literally and a missing group contributes nothing rather than
// failing. The metadata document is never written.
func Install(ctx context.Context, cfg *Config, groups []string, opts venv.InstallOptions) error {
	ws, doc, _, err := loadProject(cfg)
	if err != nil {
		return err
	}

	var deps []dependency.Dependency
	switch {
	case len(groups) == 0:
		deps = declaredDependencies(doc)
	case wantsRequiredPseudoGroup(doc, groups):
		deps = doc.Dependencies()
	default:
		for _, group := range groups {
			gdeps, ok := doc.OptionalDependencyGroup(group)
			if !ok {
				cfg.logger().Warn("no such dependency group", "group", group)
				continue
			}
			deps = append(deps, gdeps...)
		}
	}

	deps = dedupeByIdentity(deps)
	if len(deps) == 0 {
		cfg.logger().Debug("nothing to install")
		return nil
	}

	env, err := ws.ResolveEnvironment(ctx)
	if err != nil {
		return err
	}
	return env.Install(ctx, deps, opts)
}

// wantsRequiredPseudoGroup reports whether the request names the
// "required" pseudo-group. A literal optional group called "required"
// takes precedence over the pseudo-group.
func wantsRequiredPseudoGroup(doc *metadata.Document, groups []string) bool {
	if _, exists := doc.OptionalDependencyGroup("required"); exists {
		return false
	}
	for _, g := range groups {
		if g == "required" {
			return true
		}
	}
	return false
}
