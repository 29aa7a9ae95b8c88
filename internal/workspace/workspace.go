// Package workspace derives the project context for a command: the
// nearest project root and the metadata and environment belonging to
// it. Every command re-derives its workspace from the configured root;
// there is no shared mutable state beyond the filesystem itself.
package workspace

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pyrite-dev/pyrite/internal/metadata"
	"github.com/pyrite-dev/pyrite/internal/python"
	"github.com/pyrite-dev/pyrite/internal/shell"
	"github.com/pyrite-dev/pyrite/internal/venv"

	perr "github.com/pyrite-dev/pyrite/internal/errors"
)

// MetadataFileName is the canonical metadata document name.
const MetadataFileName = "pyproject.toml"

// Workspace bundles the project root with the collaborators commands
// need to operate on it.
type Workspace struct {
	Root   string // directory containing the metadata file
	Runner shell.Runner
}

// Find walks up from start to the nearest ancestor directory containing
// a metadata file. No such ancestor yields ErrCodeProjectNotFound.
func Find(start string, runner shell.Runner) (*Workspace, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return nil, perr.Wrap(perr.ErrCodeIO, err, "resolve %s", start)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, MetadataFileName)); err == nil {
			return &Workspace{Root: dir, Runner: runner}, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, perr.New(perr.ErrCodeProjectNotFound, "no %s found in %s or any parent", MetadataFileName, start)
		}
		dir = parent
	}
}

// MetadataPath returns the path of the project's metadata file.
func (w *Workspace) MetadataPath() string {
	return filepath.Join(w.Root, MetadataFileName)
}

// CurrentMetadata loads the project's metadata document.
func (w *Workspace) CurrentMetadata() (*metadata.Document, error) {
	return metadata.Load(w.MetadataPath())
}

// CurrentEnvironment returns the project's virtual environment, or an
// ErrCodeEnvironmentNotFound error when none exists.
func (w *Workspace) CurrentEnvironment() (*venv.Environment, error) {
	return venv.Find(w.Root, w.Runner)
}

// ResolveEnvironment returns the project's virtual environment,
// creating one when absent. Interpreter selection prefers the highest
// discovered interpreter satisfying a declared requires-python
// constraint, else the latest discovered one. No discoverable
// interpreter yields ErrCodePythonNotFound.
func (w *Workspace) ResolveEnvironment(ctx context.Context) (*venv.Environment, error) {
	env, err := w.CurrentEnvironment()
	if err == nil {
		return env, nil
	}
	if !perr.IsCode(err, perr.ErrCodeEnvironmentNotFound) {
		return nil, err
	}

	interpreters := python.Discover(ctx, w.Runner)
	if len(interpreters) == 0 {
		return nil, perr.New(perr.ErrCodePythonNotFound, "no python interpreter found on PATH")
	}

	interpreter, ok := w.constrainedInterpreter(interpreters)
	if !ok {
		interpreter, _ = interpreters.Latest()
	}
	return venv.Create(ctx, w.Root, interpreter.Path, w.Runner)
}

func (w *Workspace) constrainedInterpreter(interpreters python.Interpreters) (python.Interpreter, bool) {
	doc, err := w.CurrentMetadata()
	if err != nil || doc.RequiresPython() == "" {
		return python.Interpreter{}, false
	}
	return interpreters.FindSatisfying(doc.RequiresPython())
}
