// Package metadata loads, mutates and persists a project's
// pyproject.toml document.
//
// The document is the declared source of truth for required
// dependencies and named optional-dependency groups. Mutations happen
// in memory; callers compare the live document against the snapshot
// loaded at the start of an operation and write only on change, which
// is the sole gate preventing spurious file churn.
//
// Requirement entries are stored as their original strings.  An entry
// that fails to parse is preserved verbatim on write but never matches
// a contains or remove query.
package metadata

import (
	"bytes"
	"os"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/pyrite-dev/pyrite/internal/dependency"
	perr "github.com/pyrite-dev/pyrite/internal/errors"
)

// pyproject mirrors the on-disk document. Fields the core does not own
// are carried as opaque values so they round-trip through a write.
type pyproject struct {
	BuildSystem *buildSystem           `toml:"build-system,omitempty"`
	Project     project                `toml:"project"`
	Tool        map[string]interface{} `toml:"tool,omitempty"`
}

type buildSystem struct {
	Requires     []string `toml:"requires"`
	BuildBackend string   `toml:"build-backend,omitempty"`
}

type project struct {
	Name                 string                       `toml:"name"`
	Version              string                       `toml:"version,omitempty"`
	Description          string                       `toml:"description"`
	Readme               interface{}                  `toml:"readme,omitempty"`
	RequiresPython       string                       `toml:"requires-python,omitempty"`
	License              interface{}                  `toml:"license,omitempty"`
	Keywords             []string                     `toml:"keywords,omitempty"`
	Classifiers          []string                     `toml:"classifiers,omitempty"`
	Dynamic              []string                     `toml:"dynamic,omitempty"`
	Dependencies         []string                     `toml:"dependencies"`
	Authors              interface{}                  `toml:"authors,omitempty"`
	Maintainers          interface{}                  `toml:"maintainers,omitempty"`
	Urls                 map[string]string            `toml:"urls,omitempty"`
	Scripts              map[string]string            `toml:"scripts,omitempty"`
	GuiScripts           map[string]string            `toml:"gui-scripts,omitempty"`
	EntryPoints          map[string]map[string]string `toml:"entry-points,omitempty"`
	OptionalDependencies map[string][]string          `toml:"optional-dependencies,omitempty"`
}

// Document is an in-memory pyproject.toml bound to its path.
type Document struct {
	pyproject pyproject
	path      string
}

// Load reads the document at path. A missing file yields an
// ErrCodeMetadataNotFound error.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, perr.New(perr.ErrCodeMetadataNotFound, "no metadata file at %s", path)
		}
		return nil, perr.Wrap(perr.ErrCodeIO, err, "read %s", path)
	}
	var p pyproject
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, perr.Wrap(perr.ErrCodeParse, err, "parse %s", path)
	}
	return &Document{pyproject: p, path: path}, nil
}

// Template returns the default document for a new project.
func Template(path, name string) *Document {
	return &Document{
		path: path,
		pyproject: pyproject{
			BuildSystem: &buildSystem{
				Requires:     []string{"hatchling"},
				BuildBackend: "hatchling.build",
			},
			Project: project{
				Name:         name,
				Version:      "0.0.1",
				Description:  "",
				Dependencies: []string{},
			},
		},
	}
}

// Path returns the document's on-disk location.
func (d *Document) Path() string {
	return d.path
}

// Write serializes the document back to its path as a full-file
// overwrite.
func (d *Document) Write() error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(d.pyproject); err != nil {
		return perr.Wrap(perr.ErrCodeIO, err, "encode %s", d.path)
	}
	if err := os.WriteFile(d.path, buf.Bytes(), 0o644); err != nil {
		return perr.Wrap(perr.ErrCodeIO, err, "write %s", d.path)
	}
	return nil
}

// Clone returns a deep copy used as the write-on-change snapshot.
func (d *Document) Clone() *Document {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(d.pyproject); err != nil {
		// The document came from a decode or the template; encoding it
		// back cannot fail for any value we construct.
		panic(err)
	}
	var p pyproject
	if err := toml.Unmarshal(buf.Bytes(), &p); err != nil {
		panic(err)
	}
	return &Document{pyproject: p, path: d.path}
}

// Equal reports semantic equality with another document. It is the
// signal deciding whether a write is needed.
func (d *Document) Equal(o *Document) bool {
	var a, b bytes.Buffer
	if err := toml.NewEncoder(&a).Encode(d.pyproject); err != nil {
		return false
	}
	if err := toml.NewEncoder(&b).Encode(o.pyproject); err != nil {
		return false
	}
	return bytes.Equal(a.Bytes(), b.Bytes())
}

// ProjectName returns the declared project name.
func (d *Document) ProjectName() string {
	return d.pyproject.Project.Name
}

// SetProjectName sets the declared project name.
func (d *Document) SetProjectName(name string) {
	d.pyproject.Project.Name = name
}

// ProjectVersion returns the declared project version, "" if absent.
func (d *Document) ProjectVersion() string {
	return d.pyproject.Project.Version
}

// RequiresPython returns the declared interpreter constraint, "" if
// absent.
func (d *Document) RequiresPython() string {
	return d.pyproject.Project.RequiresPython
}

// Scripts returns the declared entry points.
func (d *Document) Scripts() map[string]string {
	return d.pyproject.Project.Scripts
}

// AddScript declares a console-script entry point.
func (d *Document) AddScript(name, entrypoint string) {
	if d.pyproject.Project.Scripts == nil {
		d.pyproject.Project.Scripts = make(map[string]string)
	}
	d.pyproject.Project.Scripts[name] = entrypoint
}

// Dependencies returns the parsed required dependencies in declaration
// order.
func (d *Document) Dependencies() []dependency.Dependency {
	return parseList(d.pyproject.Project.Dependencies)
}

// OptionalDependencyGroup returns the parsed dependencies of a named
// group. The second return is false when no such group exists.
func (d *Document) OptionalDependencyGroup(group string) ([]dependency.Dependency, bool) {
	raw, ok := d.pyproject.Project.OptionalDependencies[group]
	if !ok {
		return nil, false
	}
	return parseList(raw), true
}

// Groups returns the optional-dependency group names, sorted.
func (d *Document) Groups() []string {
	groups := make([]string, 0, len(d.pyproject.Project.OptionalDependencies))
	for g := range d.pyproject.Project.OptionalDependencies {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// AddDependency declares a required dependency. An exact match is a
// no-op; an identity match under a different constraint is replaced in
// place so no two entries ever share a normalized name; otherwise the
// entry is appended preserving insertion order.
func (d *Document) AddDependency(dep dependency.Dependency) {
	d.pyproject.Project.Dependencies = addToList(d.pyproject.Project.Dependencies, dep)
}

// AddOptionalDependency declares a dependency in a named group, with
// the same replace-or-append semantics as AddDependency, scoped to the
// group.
func (d *Document) AddOptionalDependency(dep dependency.Dependency, group string) {
	if d.pyproject.Project.OptionalDependencies == nil {
		d.pyproject.Project.OptionalDependencies = make(map[string][]string)
	}
	d.pyproject.Project.OptionalDependencies[group] = addToList(d.pyproject.Project.OptionalDependencies[group], dep)
}

// RemoveDependency removes a required dependency by identity match.
// No-op when absent.
func (d *Document) RemoveDependency(dep dependency.Dependency) {
	d.pyproject.Project.Dependencies = removeFromList(d.pyproject.Project.Dependencies, dep)
}

// RemoveOptionalDependency removes a dependency from a named group by
// identity match. No-op when the group or the entry is absent. The
// group itself is kept even when emptied.
func (d *Document) RemoveOptionalDependency(dep dependency.Dependency, group string) {
	raw, ok := d.pyproject.Project.OptionalDependencies[group]
	if !ok {
		return
	}
	d.pyproject.Project.OptionalDependencies[group] = removeFromList(raw, dep)
}

// ContainsDependency reports whether the required list declares exactly
// this requirement (constraint included).
func (d *Document) ContainsDependency(dep dependency.Dependency) bool {
	return containsExact(d.pyproject.Project.Dependencies, dep)
}

// ContainsOptionalDependency reports whether the named group declares
// exactly this requirement.
func (d *Document) ContainsOptionalDependency(dep dependency.Dependency, group string) bool {
	return containsExact(d.pyproject.Project.OptionalDependencies[group], dep)
}

// ContainsDependencyAny reports whether some form of this dependency is
// declared anywhere (the required list or any group) by identity match.
func (d *Document) ContainsDependencyAny(dep dependency.Dependency) bool {
	if containsSame(d.pyproject.Project.Dependencies, dep) {
		return true
	}
	for _, raw := range d.pyproject.Project.OptionalDependencies {
		if containsSame(raw, dep) {
			return true
		}
	}
	return false
}

func parseList(raw []string) []dependency.Dependency {
	deps := make([]dependency.Dependency, 0, len(raw))
	for _, s := range raw {
		if dep, err := dependency.Parse(s); err == nil {
			deps = append(deps, dep)
		}
	}
	return deps
}

func addToList(raw []string, dep dependency.Dependency) []string {
	for i, s := range raw {
		existing, err := dependency.Parse(s)
		if err != nil || !existing.Same(dep) {
			continue
		}
		if existing.Equal(dep) {
			return raw
		}
		out := make([]string, len(raw))
		copy(out, raw)
		out[i] = dep.String()
		return out
	}
	return append(raw, dep.String())
}

func removeFromList(raw []string, dep dependency.Dependency) []string {
	out := raw[:0:0]
	for _, s := range raw {
		if existing, err := dependency.Parse(s); err == nil && existing.Same(dep) {
			continue
		}
		out = append(out, s)
	}
	if out == nil {
		return []string{}
	}
	return out
}

func containsExact(raw []string, dep dependency.Dependency) bool {
	for _, s := range raw {
		if existing, err := dependency.Parse(s); err == nil && existing.Equal(dep) {
			return true
		}
	}
	return false
}

func containsSame(raw []string, dep dependency.Dependency) bool {
	for _, s := range raw {
		if existing, err := dependency.Parse(s); err == nil && existing.Same(dep) {
			return true
		}
	}
	return false
}
