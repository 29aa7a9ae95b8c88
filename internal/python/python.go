// Package python discovers Python interpreters available on the host.
package python

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/pyrite-dev/pyrite/internal/shell"
	"golang.org/x/mod/semver"
)

// interpreterName matches the conventional executable names: python,
// python3, python3.12, python3.12.1, plus the .exe suffix on Windows.
var interpreterName = regexp.MustCompile(`^python([23](\.\d+){0,2})?(\.exe)?$`)

// versionProbe prints the interpreter's full reported version.
const versionProbe = "import platform; print(platform.python_version())"

// Interpreter is a discovered Python interpreter.
type Interpreter struct {
	Version string // full reported version, e.g. "3.12.1"
	Path    string
}

// Interpreters is an ordered sequence of discovered interpreters,
// preserving first-found order along the search path.
type Interpreters []Interpreter

// Discover scans every directory in PATH for executables matching the
// interpreter naming convention, invokes each to extract its reported
// version, and deduplicates by resolved real path. Finding no
// interpreter is not an error; the result is simply empty.
func Discover(ctx context.Context, runner shell.Runner) Interpreters {
	var found Interpreters
	seen := make(map[string]bool)

	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !interpreterName.MatchString(entry.Name()) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if !executable(path) {
				continue
			}
			real, err := filepath.EvalSymlinks(path)
			if err != nil {
				real = path
			}
			if seen[real] {
				continue
			}
			seen[real] = true

			version, ok := probeVersion(ctx, runner, path)
			if !ok {
				continue
			}
			found = append(found, Interpreter{Version: version, Path: path})
		}
	}
	return found
}

// Latest returns the interpreter with the highest version under
// (major, minor, patch) ordering, ties broken by first-found order.
// The second return is false when the sequence is empty.
func (ps Interpreters) Latest() (Interpreter, bool) {
	var best Interpreter
	ok := false
	for _, p := range ps {
		if !ok || semver.Compare("v"+p.Version, "v"+best.Version) > 0 {
			best = p
			ok = true
		}
	}
	return best, ok
}

// Find returns the first interpreter whose reported version matches
// exactly.
func (ps Interpreters) Find(version string) (Interpreter, bool) {
	for _, p := range ps {
		if p.Version == version {
			return p, true
		}
	}
	return Interpreter{}, false
}

// FindSatisfying returns the highest-versioned interpreter satisfying a
// requires-python style constraint, falling back over to Latest's
// ordering among the satisfying set.
func (ps Interpreters) FindSatisfying(constraint string) (Interpreter, bool) {
	var matching Interpreters
	for _, p := range ps {
		if Satisfies(p.Version, constraint) {
			matching = append(matching, p)
		}
	}
	return matching.Latest()
}

// Satisfies reports whether a version satisfies a comma-separated
// constraint such as ">=3.9" or ">=3.9,<4". Unparseable clauses fail
// the match rather than passing it silently.
func Satisfies(version, constraint string) bool {
	v := "v" + strings.TrimSpace(version)
	if !semver.IsValid(v) {
		return false
	}
	for _, clause := range strings.Split(constraint, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		if !satisfiesClause(v, clause) {
			return false
		}
	}
	return true
}

func satisfiesClause(v, clause string) bool {
	op := ""
	for _, candidate := range []string{"===", "~=", "!=", "<=", ">=", "==", "<", ">"} {
		if strings.HasPrefix(clause, candidate) {
			op = candidate
			break
		}
	}
	if op == "" {
		return false
	}
	want := strings.TrimSpace(strings.TrimPrefix(clause, op))
	// Trailing wildcards ("3.*") compare on the written prefix.
	want = strings.TrimSuffix(want, ".*")
	w := "v" + want
	if !semver.IsValid(w) {
		return false
	}

	cmp := semver.Compare(v, w)
	switch op {
	case "==", "===":
		// A written prefix only matches whole components: "3.1" must
		// not match 3.12.1.
		return cmp == 0 || strings.HasPrefix(v, w+".")
	case "!=":
		return cmp != 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	case "~=":
		// Compatible release: at least the stated version, within the
		// release series one level above the last stated component.
		if cmp < 0 {
			return false
		}
		if strings.Count(want, ".") >= 2 {
			return semver.MajorMinor(v) == semver.MajorMinor(w)
		}
		return semver.Major(v) == semver.Major(w)
	}
	return false
}

func probeVersion(ctx context.Context, runner shell.Runner, path string) (string, bool) {
	res, err := runner.Run(ctx, []string{path, "-c", versionProbe}, "", nil)
	if err != nil || res.ExitCode != 0 {
		return "", false
	}
	version := strings.TrimSpace(res.Stdout)
	if version == "" || !semver.IsValid("v"+version) {
		return "", false
	}
	return version, true
}

func executable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode()&0o111 != 0
}
