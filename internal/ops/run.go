package ops

import (
	"context"

	perr "github.com/pyrite-dev/pyrite/internal/errors"
)

// Run executes a command inside the project's virtual environment
// context: the environment's executables directory leads PATH and
// VIRTUAL_ENV is set, both scoped to the spawned process. The
// environment must already exist.
func Run(ctx context.Context, cfg *Config, argv []string) error {
	if len(argv) == 0 {
		return perr.New(perr.ErrCodeParse, "no command given")
	}
	ws, err := cfg.workspace()
	if err != nil {
		return err
	}
	env, err := ws.CurrentEnvironment()
	if err != nil {
		return err
	}
	return env.Run(ctx, argv, cfg.CWD, nil)
}
