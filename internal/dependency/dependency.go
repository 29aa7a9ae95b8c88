// Package dependency parses and represents Python dependency requirements.
//
// A requirement is a package name optionally followed by a bracketed
// extras list, a version specifier (PEP 440 comparison operator plus
// version) or a direct source reference ("name @ url"), and an optional
// environment marker after ";". Markers are carried verbatim, never
// interpreted.
//
// Two notions of equality matter throughout pyrite:
//
//   - Same: identity by normalized name only (PEP 503: case-insensitive,
//     with "-", "_" and "." as equivalent separators). This is what "is
//     this dependency declared" queries use.
//   - Equal: exact match including the specifier, extras and marker.
//     This detects true no-ops when adding.
package dependency

import (
	"regexp"
	"sort"
	"strings"

	perr "github.com/pyrite-dev/pyrite/internal/errors"
)

// requirementPattern splits "name[extras]specifier" forms. The specifier
// group keeps everything after the operator verbatim so multi-clause
// constraints like ">=1.0,<2.0" survive untouched.
var requirementPattern = regexp.MustCompile(
	`^([A-Za-z0-9][A-Za-z0-9._-]*)\s*(?:\[\s*([^\]]*?)\s*\])?\s*((?:===|~=|!=|<=|>=|==|<|>).*)?$`,
)

// urlPattern matches direct references: "name[extras] @ url-or-path".
var urlPattern = regexp.MustCompile(
	`^([A-Za-z0-9][A-Za-z0-9._-]*)\s*(?:\[\s*([^\]]*?)\s*\])?\s*@\s*(\S+)$`,
)

var nameSeparators = regexp.MustCompile(`[-_.]+`)

// Dependency is an immutable parsed requirement.
type Dependency struct {
	Name      string   // name as written
	Extras    []string // bracketed extras, order preserved
	Specifier string   // version constraint including operator, "" if none
	URL       string   // direct source reference, "" if none
	Marker    string   // environment marker, carried verbatim
}

// Normalize returns the PEP 503 normalized form of a package name:
// lowercase with runs of "-", "_" and "." collapsed to a single "-".
func Normalize(name string) string {
	return nameSeparators.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// Parse parses a requirement string.
func Parse(text string) (Dependency, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Dependency{}, perr.New(perr.ErrCodeParse, "empty requirement")
	}

	var marker string
	if i := strings.Index(s, ";"); i >= 0 {
		marker = strings.TrimSpace(s[i+1:])
		s = strings.TrimSpace(s[:i])
	}

	if m := urlPattern.FindStringSubmatch(s); m != nil {
		return Dependency{
			Name:   m[1],
			Extras: splitExtras(m[2]),
			URL:    m[3],
			Marker: marker,
		}, nil
	}

	m := requirementPattern.FindStringSubmatch(s)
	if m == nil {
		return Dependency{}, perr.New(perr.ErrCodeParse, "invalid requirement: %q", text)
	}
	spec := strings.TrimSpace(m[3])
	if spec != "" && !validSpecifier(spec) {
		return Dependency{}, perr.New(perr.ErrCodeParse, "invalid version specifier in %q", text)
	}
	return Dependency{
		Name:      m[1],
		Extras:    splitExtras(m[2]),
		Specifier: spec,
		Marker:    marker,
	}, nil
}

// ParseAll parses a batch of requirement strings, aborting on the first
// malformed entry so a bad batch is never partially applied.
func ParseAll(texts []string) ([]Dependency, error) {
	deps := make([]Dependency, 0, len(texts))
	for _, t := range texts {
		d, err := Parse(t)
		if err != nil {
			return nil, err
		}
		deps = append(deps, d)
	}
	return deps, nil
}

// Pin returns an exact "==" requirement for an installed package.
func Pin(name, version string) Dependency {
	return Dependency{Name: name, Specifier: "==" + version}
}

// NormalizedName returns the identity of the dependency.
func (d Dependency) NormalizedName() string {
	return Normalize(d.Name)
}

// Same reports identity equality: the two requirements refer to the same
// package, regardless of constraints.
func (d Dependency) Same(o Dependency) bool {
	return d.NormalizedName() == o.NormalizedName()
}

// Equal reports exact equality: same package, same constraint, same
// extras and marker. Whitespace inside the specifier is insignificant.
func (d Dependency) Equal(o Dependency) bool {
	return d.Same(o) &&
		canonicalSpecifier(d.Specifier) == canonicalSpecifier(o.Specifier) &&
		d.URL == o.URL &&
		canonicalExtras(d.Extras) == canonicalExtras(o.Extras) &&
		strings.TrimSpace(d.Marker) == strings.TrimSpace(o.Marker)
}

// HasConstraint reports whether the requirement carries an explicit
// version specifier or source reference. Requirements without one are
// backfilled with the installed version after a successful install.
func (d Dependency) HasConstraint() bool {
	return d.Specifier != "" || d.URL != ""
}

// String reconstructs the requirement text.
func (d Dependency) String() string {
	var b strings.Builder
	b.WriteString(d.Name)
	if len(d.Extras) > 0 {
		b.WriteString("[")
		b.WriteString(strings.Join(d.Extras, ","))
		b.WriteString("]")
	}
	if d.URL != "" {
		b.WriteString(" @ ")
		b.WriteString(d.URL)
	} else if d.Specifier != "" {
		b.WriteString(d.Specifier)
	}
	if d.Marker != "" {
		b.WriteString("; ")
		b.WriteString(d.Marker)
	}
	return b.String()
}

func splitExtras(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	extras := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			extras = append(extras, p)
		}
	}
	return extras
}

func canonicalExtras(extras []string) string {
	if len(extras) == 0 {
		return ""
	}
	lowered := make([]string, len(extras))
	for i, e := range extras {
		lowered[i] = strings.ToLower(e)
	}
	sort.Strings(lowered)
	return strings.Join(lowered, ",")
}

func canonicalSpecifier(spec string) string {
	return strings.ReplaceAll(spec, " ", "")
}

func validSpecifier(spec string) bool {
	for _, clause := range strings.Split(spec, ",") {
		clause = strings.TrimSpace(clause)
		op := ""
		for _, candidate := range []string{"===", "~=", "!=", "<=", ">=", "==", "<", ">"} {
			if strings.HasPrefix(clause, candidate) {
				op = candidate
				break
			}
		}
		if op == "" || strings.TrimSpace(clause[len(op):]) == "" {
			return false
		}
	}
	return true
}
