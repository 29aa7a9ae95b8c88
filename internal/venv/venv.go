// Package venv locates, creates and operates on a project's Python
// virtual environment.
//
// The manager never resolves dependencies itself; every mutating
// operation is a single batched invocation of the environment's own
// installer so its constraint solver sees the full set at once and can
// reject incompatible combinations atomically. The manager's job is to
// construct correct argument vectors and scoped environment overrides,
// and to interpret exit statuses.
package venv

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pyrite-dev/pyrite/internal/dependency"
	perr "github.com/pyrite-dev/pyrite/internal/errors"
	"github.com/pyrite-dev/pyrite/internal/shell"
)

// DefaultDirName is the conventional environment directory created by
// pyrite. Find also accepts "venv" for pre-existing layouts.
const DefaultDirName = ".venv"

var dirNames = []string{DefaultDirName, "venv"}

// Package is an installed package as reported by the environment:
// normalized name plus exact version. Recomputed on every query, never
// persisted directly.
type Package struct {
	Name    string
	Version string
}

// String renders the package as a pinned requirement.
func (p Package) String() string {
	return p.Name + "==" + p.Version
}

// InstallOptions carries pass-through arguments for the installer.
type InstallOptions struct {
	Args []string
}

// Environment is a resolved virtual environment rooted inside a project.
type Environment struct {
	Root   string
	runner shell.Runner
}

// Find locates an existing environment at a project-relative
// conventional path. A missing environment yields an
// ErrCodeEnvironmentNotFound error, never a fabricated one.
func Find(projectRoot string, runner shell.Runner) (*Environment, error) {
	for _, name := range dirNames {
		root := filepath.Join(projectRoot, name)
		if _, err := os.Stat(filepath.Join(root, "pyvenv.cfg")); err == nil {
			return &Environment{Root: root, runner: runner}, nil
		}
	}
	return nil, perr.New(perr.ErrCodeEnvironmentNotFound, "no virtual environment found in %s", projectRoot)
}

// Create builds a fresh environment at <projectRoot>/.venv using the
// given interpreter and returns it.
func Create(ctx context.Context, projectRoot, interpreter string, runner shell.Runner) (*Environment, error) {
	res, err := runner.Run(ctx, []string{interpreter, "-m", "venv", DefaultDirName}, projectRoot, nil)
	if err != nil {
		return nil, perr.Wrap(perr.ErrCodeProcess, err, "create virtual environment")
	}
	if res.ExitCode != 0 {
		return nil, perr.New(perr.ErrCodeProcess, "venv creation exited with status %d: %s",
			res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return Find(projectRoot, runner)
}

// Name returns the environment's directory name.
func (e *Environment) Name() string {
	return filepath.Base(e.Root)
}

// PythonPath returns the path of the environment's interpreter.
func (e *Environment) PythonPath() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(e.ExecutablesDir(), "python.exe")
	}
	return filepath.Join(e.ExecutablesDir(), "python")
}

// ExecutablesDir returns the directory holding the environment's
// scripts and shims.
func (e *Environment) ExecutablesDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(e.Root, "Scripts")
	}
	return filepath.Join(e.Root, "bin")
}

// PythonVersion reads the interpreter version recorded in pyvenv.cfg.
func (e *Environment) PythonVersion() string {
	cfg := e.readConfig()
	if v := cfg["version"]; v != "" {
		return v
	}
	return cfg["version_info"]
}

// CommandEnv returns the process-scoped overrides that put a spawned
// process inside the environment: the executables directory prepended
// to PATH and VIRTUAL_ENV pointing at the root. The parent process's
// environment is never touched.
func (e *Environment) CommandEnv() map[string]string {
	path := e.ExecutablesDir()
	if current := os.Getenv("PATH"); current != "" {
		path += string(os.PathListSeparator) + current
	}
	return map[string]string{
		"PATH":        path,
		"VIRTUAL_ENV": e.Root,
	}
}

// Install installs the requirements with one batched installer call.
func (e *Environment) Install(ctx context.Context, deps []dependency.Dependency, opts InstallOptions) error {
	if len(deps) == 0 {
		return nil
	}
	args := append([]string{"install"}, opts.Args...)
	for _, d := range deps {
		args = append(args, d.String())
	}
	return e.pip(ctx, args)
}

// Uninstall removes the requirements with one batched installer call.
func (e *Environment) Uninstall(ctx context.Context, deps []dependency.Dependency, opts InstallOptions) error {
	if len(deps) == 0 {
		return nil
	}
	args := append([]string{"uninstall", "-y"}, opts.Args...)
	for _, d := range deps {
		args = append(args, d.NormalizedName())
	}
	return e.pip(ctx, args)
}

// Update re-installs the requirements with --upgrade so the environment
// is refreshed to the newest versions satisfying existing constraints.
func (e *Environment) Update(ctx context.Context, deps []dependency.Dependency, opts InstallOptions) error {
	if len(deps) == 0 {
		return nil
	}
	args := append([]string{"install", "--upgrade"}, opts.Args...)
	for _, d := range deps {
		args = append(args, d.String())
	}
	return e.pip(ctx, args)
}

// InstalledPackages enumerates the environment's installed set from its
// package metadata. This is the sole authority used to backfill
// version-less requirements after an install.
func (e *Environment) InstalledPackages() ([]Package, error) {
	dir, err := e.sitePackagesDir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, perr.Wrap(perr.ErrCodeIO, err, "read site-packages")
	}

	var pkgs []Package
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasSuffix(entry.Name(), ".dist-info") {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), ".dist-info")
		i := strings.Index(stem, "-")
		if i <= 0 || i == len(stem)-1 {
			continue
		}
		pkgs = append(pkgs, Package{
			Name:    dependency.Normalize(stem[:i]),
			Version: stem[i+1:],
		})
	}
	return pkgs, nil
}

// ContainsModule reports whether a package with the given name is
// installed, by identity match.
func (e *Environment) ContainsModule(name string) (bool, error) {
	pkgs, err := e.InstalledPackages()
	if err != nil {
		return false, err
	}
	want := dependency.Normalize(name)
	for _, p := range pkgs {
		if p.Name == want {
			return true, nil
		}
	}
	return false, nil
}

// ContainsPackage reports whether the exact package (name and version)
// is installed.
func (e *Environment) ContainsPackage(pkg Package) (bool, error) {
	pkgs, err := e.InstalledPackages()
	if err != nil {
		return false, err
	}
	for _, p := range pkgs {
		if p.Name == dependency.Normalize(pkg.Name) && p.Version == pkg.Version {
			return true, nil
		}
	}
	return false, nil
}

// RunModule executes "python -m <module> <args...>" inside the
// environment. extraEnv entries are layered over the environment's
// scoped overrides.
func (e *Environment) RunModule(ctx context.Context, module string, args []string, dir string, extraEnv map[string]string) error {
	argv := append([]string{e.PythonPath(), "-m", module}, args...)
	return e.Run(ctx, argv, dir, extraEnv)
}

// Run executes an arbitrary argv inside the environment.
func (e *Environment) Run(ctx context.Context, argv []string, dir string, extraEnv map[string]string) error {
	env := e.CommandEnv()
	for k, v := range extraEnv {
		env[k] = v
	}
	res, err := e.runner.Run(ctx, argv, dir, env)
	if err != nil {
		return perr.Wrap(perr.ErrCodeProcess, err, "run %s", argv[0])
	}
	if res.ExitCode != 0 {
		return perr.New(perr.ErrCodeProcess, "%s exited with status %d", filepath.Base(argv[0]), res.ExitCode)
	}
	return nil
}

func (e *Environment) pip(ctx context.Context, args []string) error {
	argv := append([]string{e.PythonPath(), "-m", "pip"}, args...)
	res, err := e.runner.Run(ctx, argv, filepath.Dir(e.Root), e.CommandEnv())
	if err != nil {
		return perr.Wrap(perr.ErrCodeProcess, err, "run pip")
	}
	if res.ExitCode != 0 {
		return perr.New(perr.ErrCodeProcess, "pip %s exited with status %d: %s",
			args[0], res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return nil
}

func (e *Environment) sitePackagesDir() (string, error) {
	if runtime.GOOS == "windows" {
		dir := filepath.Join(e.Root, "Lib", "site-packages")
		if _, err := os.Stat(dir); err == nil {
			return dir, nil
		}
	}
	lib := filepath.Join(e.Root, "lib")
	entries, err := os.ReadDir(lib)
	if err != nil {
		return "", perr.Wrap(perr.ErrCodeIO, err, "read %s", lib)
	}
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), "python") {
			dir := filepath.Join(lib, entry.Name(), "site-packages")
			if _, err := os.Stat(dir); err == nil {
				return dir, nil
			}
		}
	}
	return "", perr.New(perr.ErrCodeIO, "no site-packages directory in %s", e.Root)
}

func (e *Environment) readConfig() map[string]string {
	cfg := make(map[string]string)
	f, err := os.Open(filepath.Join(e.Root, "pyvenv.cfg"))
	if err != nil {
		return cfg
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "="); i > 0 {
			cfg[strings.TrimSpace(line[:i])] = strings.TrimSpace(line[i+1:])
		}
	}
	return cfg
}
