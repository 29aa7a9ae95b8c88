package ops

import (
	"context"

	"github.com/pyrite-dev/pyrite/internal/dependency"
	"github.com/pyrite-dev/pyrite/internal/metadata"
	"github.com/pyrite-dev/pyrite/internal/venv"
)

// UpdateOptions configures Update.
type UpdateOptions struct {
	Install venv.InstallOptions
}

// Update refreshes dependencies to the newest versions satisfying their
// declared constraints. With an explicit list, only declared entries
// among it are updated; with none, the full declared set (required plus
// every optional group) is re-installed with the installer's upgrade
// mode. Afterwards, declared entries that track the installed version
// (pins and version-less entries) are re-pinned to what the
// environment now reports.
func Update(ctx context.Context, cfg *Config, requirements []string, opts UpdateOptions) error {
	ws, doc, before, err := loadProject(cfg)
	if err != nil {
		return err
	}

	var targets []dependency.Dependency
	if len(requirements) > 0 {
		deps, err := dependency.ParseAll(requirements)
		if err != nil {
			return err
		}
		for _, dep := range deps {
			if doc.ContainsDependencyAny(dep) {
				targets = append(targets, dep)
			}
		}
	} else {
		targets = declaredDependencies(doc)
	}
	if len(targets) == 0 {
		cfg.logger().Debug("nothing to update")
		return nil
	}

	env, err := ws.ResolveEnvironment(ctx)
	if err != nil {
		return err
	}
	if err := env.Update(ctx, targets, opts.Install); err != nil {
		return err
	}

	installed, err := env.InstalledPackages()
	if err != nil {
		return err
	}
	repin(doc, installed)

	return writeIfChanged(doc, before, cfg.logger())
}

// repin replaces every pin-tracking declared entry with the version the
// environment reports installed. User range constraints and direct
// references are preserved verbatim.
func repin(doc *metadata.Document, installed []venv.Package) {
	byName := make(map[string]venv.Package, len(installed))
	for _, pkg := range installed {
		byName[pkg.Name] = pkg
	}

	for _, dep := range doc.Dependencies() {
		if pinned, ok := repinned(dep, byName); ok {
			doc.AddDependency(pinned)
		}
	}
	for _, group := range doc.Groups() {
		gdeps, _ := doc.OptionalDependencyGroup(group)
		for _, dep := range gdeps {
			if pinned, ok := repinned(dep, byName); ok {
				doc.AddOptionalDependency(pinned, group)
			}
		}
	}
}

func repinned(dep dependency.Dependency, byName map[string]venv.Package) (dependency.Dependency, bool) {
	pkg, ok := byName[dep.NormalizedName()]
	if !ok || !pinnable(dep) {
		return dependency.Dependency{}, false
	}
	pinned := dependency.Pin(pkg.Name, pkg.Version)
	pinned.Extras = dep.Extras
	if dep.Equal(pinned) {
		return dependency.Dependency{}, false
	}
	return pinned, true
}
