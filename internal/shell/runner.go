// Package shell runs external processes behind a narrow interface so the
// rest of the system can be tested with a scripted fake.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
)

// Result holds the outcome of a completed process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes an external command to completion.
//
// The env map contains process-scoped overrides applied on top of the
// current environment; the parent process's environment is never
// mutated. A non-nil error means the process could not be run at all;
// a non-zero exit status is reported via Result.ExitCode, not the error.
type Runner interface {
	Run(ctx context.Context, argv []string, dir string, env map[string]string) (Result, error)
}

// ExecRunner runs commands with os/exec, capturing stdout and stderr.
// If Stdout or Stderr are set, process output is additionally streamed
// to them as it is produced.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, argv []string, dir string, env map[string]string) (Result, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	if len(env) > 0 {
		environ := os.Environ()
		for k, v := range env {
			environ = append(environ, k+"="+v)
		}
		cmd.Env = environ
	}

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	if r.Stdout != nil {
		cmd.Stdout = io.MultiWriter(&out, r.Stdout)
	}
	if r.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&errBuf, r.Stderr)
	}

	err := cmd.Run()
	res := Result{Stdout: out.String(), Stderr: errBuf.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}
