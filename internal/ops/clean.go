package ops

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	perr "github.com/pyrite-dev/pyrite/internal/errors"
)

// CleanOptions configures Clean.
type CleanOptions struct {
	// Pycache removes __pycache__ directories across the workspace.
	Pycache bool
	// CompiledBytecode removes stray *.pyc files.
	CompiledBytecode bool
}

// Clean removes build artifacts from the workspace: everything under
// dist/, and optionally __pycache__ directories and compiled bytecode.
// The virtual environment is left untouched.
func Clean(cfg *Config, opts CleanOptions) error {
	ws, err := cfg.workspace()
	if err != nil {
		return err
	}

	dist := filepath.Join(ws.Root, "dist")
	entries, err := os.ReadDir(dist)
	if err == nil {
		for _, entry := range entries {
			if err := os.RemoveAll(filepath.Join(dist, entry.Name())); err != nil {
				return perr.Wrap(perr.ErrCodeIO, err, "clean dist")
			}
		}
	}

	if !opts.Pycache && !opts.CompiledBytecode {
		return nil
	}

	err = filepath.WalkDir(ws.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			switch d.Name() {
			case ".git", ".venv", "venv":
				return filepath.SkipDir
			case "__pycache__":
				if opts.Pycache {
					if err := os.RemoveAll(path); err != nil {
						return err
					}
					return filepath.SkipDir
				}
			}
			return nil
		}
		if opts.CompiledBytecode && strings.HasSuffix(d.Name(), ".pyc") {
			return os.Remove(path)
		}
		return nil
	})
	if err != nil {
		return perr.Wrap(perr.ErrCodeIO, err, "clean workspace")
	}
	return nil
}
