package ops

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pyrite-dev/pyrite/internal/metadata"
	"github.com/pyrite-dev/pyrite/internal/workspace"

	perr "github.com/pyrite-dev/pyrite/internal/errors"
)

// WorkspaceOptions configures Init and New.
type WorkspaceOptions struct {
	// App adds an entry point and a main module; without it the project
	// is scaffolded as a library.
	App bool
	// UseGit initializes a git repository with a default .gitignore.
	UseGit bool
}

const defaultInitFileContents = "__version__ = \"0.0.1\"\n"

const defaultMainFileContents = `def main():
    print("Hello, World!")


if __name__ == "__main__":
    main()
`

const defaultGitignoreContents = `__pycache__/
*.py[cod]
dist/
build/
*.egg-info/
.venv/
venv/
`

func defaultTestFileContents(importable string) string {
	return "from " + importable + ` import __version__


def test_version():
    __version__
`
}

// Init initializes an existing directory as a project: it writes the
// template metadata document, erroring rather than overwriting one that
// already exists.
func Init(ctx context.Context, cfg *Config, opts WorkspaceOptions) error {
	root, err := filepath.Abs(cfg.WorkspaceRoot)
	if err != nil {
		return perr.Wrap(perr.ErrCodeIO, err, "resolve %s", cfg.WorkspaceRoot)
	}
	path := filepath.Join(root, workspace.MetadataFileName)
	if _, err := os.Stat(path); err == nil {
		return perr.New(perr.ErrCodeAlreadyExists, "metadata file already exists at %s", path)
	}

	name := filepath.Base(root)
	doc := metadata.Template(path, name)
	if opts.App {
		doc.AddScript(name, metadata.DefaultEntrypoint(metadata.ImportableName(name)))
	}

	if opts.UseGit {
		if err := initGit(ctx, cfg, root); err != nil {
			return err
		}
	}
	return doc.Write()
}

// New creates a project directory from scratch: metadata document,
// src/<package> layout with a version module, and a tests directory.
// The target directory must not already exist.
func New(ctx context.Context, cfg *Config, opts WorkspaceOptions) error {
	root, err := filepath.Abs(cfg.WorkspaceRoot)
	if err != nil {
		return perr.Wrap(perr.ErrCodeIO, err, "resolve %s", cfg.WorkspaceRoot)
	}
	if _, err := os.Stat(root); err == nil {
		return perr.New(perr.ErrCodeAlreadyExists, "directory already exists: %s", root)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return perr.Wrap(perr.ErrCodeIO, err, "create %s", root)
	}

	name := filepath.Base(root)
	importable := metadata.ImportableName(name)
	pkgDir := filepath.Join(root, "src", importable)
	testsDir := filepath.Join(root, "tests")
	for _, dir := range []string{pkgDir, testsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return perr.Wrap(perr.ErrCodeIO, err, "create %s", dir)
		}
	}

	files := map[string]string{
		filepath.Join(pkgDir, "__init__.py"):       defaultInitFileContents,
		filepath.Join(testsDir, "test_version.py"): defaultTestFileContents(importable),
	}
	doc := metadata.Template(filepath.Join(root, workspace.MetadataFileName), name)
	if opts.App {
		files[filepath.Join(pkgDir, "main.py")] = defaultMainFileContents
		doc.AddScript(name, metadata.DefaultEntrypoint(importable))
	}
	for path, contents := range files {
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			return perr.Wrap(perr.ErrCodeIO, err, "write %s", path)
		}
	}

	if opts.UseGit {
		if err := initGit(ctx, cfg, root); err != nil {
			return err
		}
	}
	return doc.Write()
}

// initGit initializes a git repository at root, adding a default
// .gitignore when none exists.
func initGit(ctx context.Context, cfg *Config, root string) error {
	if _, err := os.Stat(filepath.Join(root, ".git")); err != nil {
		res, err := cfg.Runner.Run(ctx, []string{"git", "init"}, root, nil)
		if err != nil {
			return perr.Wrap(perr.ErrCodeProcess, err, "git init")
		}
		if res.ExitCode != 0 {
			return perr.New(perr.ErrCodeProcess, "git init exited with status %d", res.ExitCode)
		}
	}
	gitignore := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(gitignore); os.IsNotExist(err) {
		if err := os.WriteFile(gitignore, []byte(defaultGitignoreContents), 0o644); err != nil {
			return perr.Wrap(perr.ErrCodeIO, err, "write .gitignore")
		}
	}
	return nil
}
