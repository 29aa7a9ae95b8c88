package ops

import (
	"context"
	"os"

	"github.com/pyrite-dev/pyrite/internal/python"
	"github.com/pyrite-dev/pyrite/internal/venv"

	perr "github.com/pyrite-dev/pyrite/internal/errors"
)

// ListInterpreters enumerates the Python interpreters discovered on the
// host search path, in first-found order.
func ListInterpreters(ctx context.Context, cfg *Config) python.Interpreters {
	return python.Discover(ctx, cfg.Runner)
}

// UseInterpreter switches the project to the interpreter reporting
// exactly the given version: the current virtual environment, if any,
// is destroyed and a fresh one is created with the selected
// interpreter.
func UseInterpreter(ctx context.Context, cfg *Config, version string) error {
	interpreters := python.Discover(ctx, cfg.Runner)
	interpreter, ok := interpreters.Find(version)
	if !ok {
		return perr.New(perr.ErrCodePythonNotFound, "no python %s found on PATH", version)
	}

	env, err := venv.Find(cfg.WorkspaceRoot, cfg.Runner)
	switch {
	case err == nil:
		cfg.logger().Debug("removing virtual environment", "root", env.Root)
		if err := os.RemoveAll(env.Root); err != nil {
			return perr.Wrap(perr.ErrCodeIO, err, "remove %s", env.Root)
		}
	case perr.IsCode(err, perr.ErrCodeEnvironmentNotFound):
		// Nothing to remove.
	default:
		return err
	}

	_, err = venv.Create(ctx, cfg.WorkspaceRoot, interpreter.Path, cfg.Runner)
	if err != nil {
		return err
	}
	cfg.logger().Info("using python", "version", version, "path", interpreter.Path)
	return nil
}
