package ops

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pyrite-dev/pyrite/internal/dependency"
	"github.com/pyrite-dev/pyrite/internal/metadata"
	"github.com/pyrite-dev/pyrite/internal/venv"
)

// ToolOptions configures the operations that drive an external tool:
// Args are passed through to the tool, Install to the installer when
// the tool itself has to be installed first.
type ToolOptions struct {
	Args    []string
	Install venv.InstallOptions
}

// LintOptions configures Lint.
type LintOptions struct {
	Args         []string
	IncludeTypes bool
	Install      venv.InstallOptions
}

// Fmt formats the project's Python sources with ruff (import sorting)
// and black, installing and recording them in the dev group first when
// missing.
func Fmt(ctx context.Context, cfg *Config, opts ToolOptions) error {
	ws, doc, before, err := loadProject(cfg)
	if err != nil {
		return err
	}
	env, err := ws.ResolveEnvironment(ctx)
	if err != nil {
		return err
	}
	if err := ensureDevTools(ctx, cfg, doc, env, opts.Install, "ruff", "black"); err != nil {
		return err
	}
	if err := writeIfChanged(doc, before, cfg.logger()); err != nil {
		return err
	}

	ruffArgs := []string{"check", ".", "--select", "I001", "--fix"}
	blackArgs := append([]string{"."}, opts.Args...)
	for _, arg := range opts.Args {
		if arg == "--check" {
			// Check mode must not rewrite imports either.
			ruffArgs = ruffArgs[:len(ruffArgs)-1]
			break
		}
	}
	if err := env.RunModule(ctx, "ruff", ruffArgs, ws.Root, nil); err != nil {
		return err
	}
	return env.RunModule(ctx, "black", blackArgs, ws.Root, nil)
}

// Lint checks the project's sources with ruff, and with mypy when type
// checking is requested, installing and recording the tools in the dev
// group first when missing.
func Lint(ctx context.Context, cfg *Config, opts LintOptions) error {
	ws, doc, before, err := loadProject(cfg)
	if err != nil {
		return err
	}
	env, err := ws.ResolveEnvironment(ctx)
	if err != nil {
		return err
	}

	tools := []string{"ruff"}
	if opts.IncludeTypes {
		tools = append(tools, "mypy")
	}
	if err := ensureDevTools(ctx, cfg, doc, env, opts.Install, tools...); err != nil {
		return err
	}
	if err := writeIfChanged(doc, before, cfg.logger()); err != nil {
		return err
	}

	if opts.IncludeTypes {
		mypyArgs := []string{".", "--exclude", env.Name()}
		if err := env.RunModule(ctx, "mypy", mypyArgs, ws.Root, nil); err != nil {
			return err
		}
	}
	ruffArgs := append([]string{"check", "."}, opts.Args...)
	return env.RunModule(ctx, "ruff", ruffArgs, ws.Root, nil)
}

// Test runs the project's test suite with pytest, installing and
// recording it in the dev group first when missing. The package
// directory is put on PYTHONPATH for the spawned process.
func Test(ctx context.Context, cfg *Config, opts ToolOptions) error {
	ws, doc, before, err := loadProject(cfg)
	if err != nil {
		return err
	}
	env, err := ws.ResolveEnvironment(ctx)
	if err != nil {
		return err
	}
	if err := ensureDevTools(ctx, cfg, doc, env, opts.Install, "pytest"); err != nil {
		return err
	}
	if err := writeIfChanged(doc, before, cfg.logger()); err != nil {
		return err
	}

	pythonPath := ws.Root
	if src := filepath.Join(ws.Root, "src"); dirExists(src) {
		pythonPath = src
	}
	return env.RunModule(ctx, "pytest", opts.Args, ws.Root, map[string]string{"PYTHONPATH": pythonPath})
}

// Build builds the project's distributions with the build package,
// installing and recording it in the dev group first when missing.
func Build(ctx context.Context, cfg *Config, opts ToolOptions) error {
	ws, doc, before, err := loadProject(cfg)
	if err != nil {
		return err
	}
	env, err := ws.ResolveEnvironment(ctx)
	if err != nil {
		return err
	}
	if err := ensureDevTools(ctx, cfg, doc, env, opts.Install, "build"); err != nil {
		return err
	}
	if err := writeIfChanged(doc, before, cfg.logger()); err != nil {
		return err
	}
	return env.RunModule(ctx, "build", opts.Args, ws.Root, nil)
}

// Publish uploads built distributions with twine, installing and
// recording it in the dev group first when missing.
func Publish(ctx context.Context, cfg *Config, opts ToolOptions) error {
	ws, doc, before, err := loadProject(cfg)
	if err != nil {
		return err
	}
	env, err := ws.ResolveEnvironment(ctx)
	if err != nil {
		return err
	}
	if err := ensureDevTools(ctx, cfg, doc, env, opts.Install, "twine"); err != nil {
		return err
	}
	if err := writeIfChanged(doc, before, cfg.logger()); err != nil {
		return err
	}
	args := append([]string{"upload", "dist/*"}, opts.Args...)
	return env.RunModule(ctx, "twine", args, ws.Root, nil)
}

// ensureDevTools installs any of the named helper tools missing from
// the environment (one batched call) and records undeclared ones in the
// dev group, pinned to the version the environment reports installed.
func ensureDevTools(ctx context.Context, cfg *Config, doc *metadata.Document, env *venv.Environment, opts venv.InstallOptions, names ...string) error {
	var missing []dependency.Dependency
	for _, name := range names {
		present, err := env.ContainsModule(name)
		if err != nil {
			return err
		}
		if !present {
			dep, err := dependency.Parse(name)
			if err != nil {
				return err
			}
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		cfg.logger().Info("installing helper tools", "count", len(missing))
		if err := env.Install(ctx, missing, opts); err != nil {
			return err
		}
	}

	installed, err := env.InstalledPackages()
	if err != nil {
		return err
	}
	for _, name := range names {
		dep, err := dependency.Parse(name)
		if err != nil {
			return err
		}
		if doc.ContainsDependencyAny(dep) {
			continue
		}
		doc.AddOptionalDependency(backfill(dep, installed), DevGroup)
	}
	return nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
