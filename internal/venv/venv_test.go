package venv

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyrite-dev/pyrite/internal/dependency"
	perr "github.com/pyrite-dev/pyrite/internal/errors"
	"github.com/pyrite-dev/pyrite/internal/shell"
)

// recordingRunner captures every invocation and replays scripted
// results in order, defaulting to success.
type recordingRunner struct {
	calls   [][]string
	envs    []map[string]string
	dirs    []string
	results []shell.Result
}

func (r *recordingRunner) Run(_ context.Context, argv []string, dir string, env map[string]string) (shell.Result, error) {
	r.calls = append(r.calls, argv)
	r.envs = append(r.envs, env)
	r.dirs = append(r.dirs, dir)
	if len(r.results) >= len(r.calls) {
		return r.results[len(r.calls)-1], nil
	}
	return shell.Result{}, nil
}

// scaffoldEnv lays out a minimal on-disk virtual environment and
// returns the project root.
func scaffoldEnv(t *testing.T, dirName string, installed ...string) string {
	t.Helper()
	project := t.TempDir()
	root := filepath.Join(project, dirName)

	binDir := filepath.Join(root, "bin")
	site := filepath.Join(root, "lib", "python3.12", "site-packages")
	if runtime.GOOS == "windows" {
		binDir = filepath.Join(root, "Scripts")
		site = filepath.Join(root, "Lib", "site-packages")
	}
	require.NoError(t, os.MkdirAll(binDir, 0o755))
	require.NoError(t, os.MkdirAll(site, 0o755))

	cfg := "home = /usr/bin\nversion = 3.12.1\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "pyvenv.cfg"), []byte(cfg), 0o644))

	for _, pkg := range installed {
		require.NoError(t, os.MkdirAll(filepath.Join(site, pkg+".dist-info"), 0o755))
	}
	return project
}

func TestFind(t *testing.T) {
	t.Run("default directory", func(t *testing.T) {
		project := scaffoldEnv(t, ".venv")
		env, err := Find(project, &recordingRunner{})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(project, ".venv"), env.Root)
		assert.Equal(t, ".venv", env.Name())
	})

	t.Run("legacy directory", func(t *testing.T) {
		project := scaffoldEnv(t, "venv")
		env, err := Find(project, &recordingRunner{})
		require.NoError(t, err)
		assert.Equal(t, "venv", env.Name())
	})

	t.Run("missing", func(t *testing.T) {
		_, err := Find(t.TempDir(), &recordingRunner{})
		require.Error(t, err)
		assert.True(t, perr.IsCode(err, perr.ErrCodeEnvironmentNotFound))
	})

	t.Run("directory without pyvenv.cfg is not an environment", func(t *testing.T) {
		project := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(project, ".venv"), 0o755))
		_, err := Find(project, &recordingRunner{})
		assert.True(t, perr.IsCode(err, perr.ErrCodeEnvironmentNotFound))
	})
}

func TestCreate(t *testing.T) {
	project := t.TempDir()
	runner := &recordingRunner{}

	// The runner stands in for the interpreter, so fabricate the
	// directory the real one would have produced.
	require.NoError(t, os.MkdirAll(filepath.Join(project, ".venv"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(project, ".venv", "pyvenv.cfg"), []byte("version = 3.12.1\n"), 0o644))

	env, err := Create(context.Background(), project, "/usr/bin/python3.12", runner)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(project, ".venv"), env.Root)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"/usr/bin/python3.12", "-m", "venv", ".venv"}, runner.calls[0])
	assert.Equal(t, project, runner.dirs[0])
}

func TestCreateFailure(t *testing.T) {
	runner := &recordingRunner{results: []shell.Result{{ExitCode: 1, Stderr: "Error: no venv module"}}}
	_, err := Create(context.Background(), t.TempDir(), "python3", runner)
	require.Error(t, err)
	assert.True(t, perr.IsCode(err, perr.ErrCodeProcess))
	assert.Contains(t, err.Error(), "no venv module")
}

func TestPythonVersion(t *testing.T) {
	project := scaffoldEnv(t, ".venv")
	env, err := Find(project, &recordingRunner{})
	require.NoError(t, err)
	assert.Equal(t, "3.12.1", env.PythonVersion())
}

func TestCommandEnv(t *testing.T) {
	t.Setenv("PATH", "/usr/bin")
	project := scaffoldEnv(t, ".venv")
	env, err := Find(project, &recordingRunner{})
	require.NoError(t, err)

	overrides := env.CommandEnv()
	assert.Equal(t, env.Root, overrides["VIRTUAL_ENV"])
	assert.True(t, strings.HasPrefix(overrides["PATH"], env.ExecutablesDir()))
	assert.Contains(t, overrides["PATH"], "/usr/bin")
}

func TestInstall(t *testing.T) {
	project := scaffoldEnv(t, ".venv")
	runner := &recordingRunner{}
	env, err := Find(project, runner)
	require.NoError(t, err)

	deps, err := dependency.ParseAll([]string{"requests==2.31.0", "flask>=2.0"})
	require.NoError(t, err)
	require.NoError(t, env.Install(context.Background(), deps, InstallOptions{Args: []string{"--no-cache-dir"}}))

	require.Len(t, runner.calls, 1, "the whole batch goes through one installer call")
	argv := runner.calls[0]
	assert.Equal(t, env.PythonPath(), argv[0])
	assert.Equal(t, []string{"-m", "pip", "install", "--no-cache-dir", "requests==2.31.0", "flask>=2.0"}, argv[1:])
	assert.Equal(t, env.Root, runner.envs[0]["VIRTUAL_ENV"])
	assert.Equal(t, project, runner.dirs[0])
}

func TestInstallEmptySet(t *testing.T) {
	project := scaffoldEnv(t, ".venv")
	runner := &recordingRunner{}
	env, err := Find(project, runner)
	require.NoError(t, err)

	require.NoError(t, env.Install(context.Background(), nil, InstallOptions{}))
	assert.Empty(t, runner.calls, "nothing to install must not spawn the installer")
}

func TestInstallFailure(t *testing.T) {
	project := scaffoldEnv(t, ".venv")
	runner := &recordingRunner{results: []shell.Result{{ExitCode: 1, Stderr: "ERROR: ResolutionImpossible"}}}
	env, err := Find(project, runner)
	require.NoError(t, err)

	deps, err := dependency.ParseAll([]string{"requests==1.0", "requests==2.0"})
	require.NoError(t, err)
	err = env.Install(context.Background(), deps, InstallOptions{})
	require.Error(t, err)
	assert.True(t, perr.IsCode(err, perr.ErrCodeProcess))
	assert.Contains(t, err.Error(), "ResolutionImpossible")
}

func TestUninstall(t *testing.T) {
	project := scaffoldEnv(t, ".venv")
	runner := &recordingRunner{}
	env, err := Find(project, runner)
	require.NoError(t, err)

	deps, err := dependency.ParseAll([]string{"Typing_Extensions==4.9.0"})
	require.NoError(t, err)
	require.NoError(t, env.Uninstall(context.Background(), deps, InstallOptions{}))

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"-m", "pip", "uninstall", "-y", "typing-extensions"}, runner.calls[0][1:],
		"uninstall names packages by identity, without constraints")
}

func TestUpdate(t *testing.T) {
	project := scaffoldEnv(t, ".venv")
	runner := &recordingRunner{}
	env, err := Find(project, runner)
	require.NoError(t, err)

	deps, err := dependency.ParseAll([]string{"requests", "flask>=2.0"})
	require.NoError(t, err)
	require.NoError(t, env.Update(context.Background(), deps, InstallOptions{}))

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"-m", "pip", "install", "--upgrade", "requests", "flask>=2.0"}, runner.calls[0][1:])
}

func TestInstalledPackages(t *testing.T) {
	project := scaffoldEnv(t, ".venv", "requests-2.31.0", "Typing_Extensions-4.9.0", "pip-24.0")
	env, err := Find(project, &recordingRunner{})
	require.NoError(t, err)

	pkgs, err := env.InstalledPackages()
	require.NoError(t, err)

	byName := make(map[string]string, len(pkgs))
	for _, p := range pkgs {
		byName[p.Name] = p.Version
	}
	assert.Equal(t, "2.31.0", byName["requests"])
	assert.Equal(t, "4.9.0", byName["typing-extensions"], "names are normalized")
	assert.Equal(t, "24.0", byName["pip"])
}

func TestContainsModule(t *testing.T) {
	project := scaffoldEnv(t, ".venv", "requests-2.31.0")
	env, err := Find(project, &recordingRunner{})
	require.NoError(t, err)

	ok, err := env.ContainsModule("Requests")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.ContainsModule("httpx")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestContainsPackage(t *testing.T) {
	project := scaffoldEnv(t, ".venv", "requests-2.31.0")
	env, err := Find(project, &recordingRunner{})
	require.NoError(t, err)

	ok, err := env.ContainsPackage(Package{Name: "requests", Version: "2.31.0"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.ContainsPackage(Package{Name: "requests", Version: "2.30.0"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRunModule(t *testing.T) {
	project := scaffoldEnv(t, ".venv")
	runner := &recordingRunner{}
	env, err := Find(project, runner)
	require.NoError(t, err)

	require.NoError(t, env.RunModule(context.Background(), "pytest", []string{"-x"}, project, map[string]string{"PYTHONPATH": "src"}))

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{env.PythonPath(), "-m", "pytest", "-x"}, runner.calls[0])
	assert.Equal(t, "src", runner.envs[0]["PYTHONPATH"])
	assert.Equal(t, env.Root, runner.envs[0]["VIRTUAL_ENV"])
}

func TestRunNonZeroExit(t *testing.T) {
	project := scaffoldEnv(t, ".venv")
	runner := &recordingRunner{results: []shell.Result{{ExitCode: 2}}}
	env, err := Find(project, runner)
	require.NoError(t, err)

	err = env.Run(context.Background(), []string{"ruff", "check", "."}, project, nil)
	require.Error(t, err)
	assert.True(t, perr.IsCode(err, perr.ErrCodeProcess))
}

func TestPackageString(t *testing.T) {
	assert.Equal(t, "requests==2.31.0", Package{Name: "requests", Version: "2.31.0"}.String())
}
