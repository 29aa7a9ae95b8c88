// Package ops implements pyrite's operations against a project
// workspace: the reconciliation engine keeping the metadata document,
// the virtual environment and the in-memory view consistent across
// every mutation.
//
// Every mutating operation follows the same shape: load a snapshot of
// the metadata document, compute the candidate set of changes filtered
// against declared state, short-circuit when the set is empty, perform
// one batched environment operation, backfill version-less requirements
// from the environment's installed set, then write the document back
// only if it differs from the snapshot. Metadata is never written after
// a failed environment step, so the persisted document never claims a
// package the installer failed to provide.
package ops

import (
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pyrite-dev/pyrite/internal/dependency"
	"github.com/pyrite-dev/pyrite/internal/metadata"
	"github.com/pyrite-dev/pyrite/internal/shell"
	"github.com/pyrite-dev/pyrite/internal/venv"
	"github.com/pyrite-dev/pyrite/internal/workspace"
)

// DevGroup is the optional-dependency group that records tooling pyrite
// installs on the project's behalf.
const DevGroup = "dev"

// Config carries the per-invocation context shared by all operations.
type Config struct {
	// WorkspaceRoot is where project discovery starts; commands derive
	// the actual project root from it on every call.
	WorkspaceRoot string
	// CWD is the invoking directory, used for commands that run inside
	// the environment rather than against the project root.
	CWD    string
	Runner shell.Runner
	Logger *log.Logger
}

func (c *Config) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

func (c *Config) workspace() (*workspace.Workspace, error) {
	return workspace.Find(c.WorkspaceRoot, c.Runner)
}

// loadProject locates the workspace and loads the metadata document
// along with the snapshot used as the write-on-change gate.
func loadProject(c *Config) (*workspace.Workspace, *metadata.Document, *metadata.Document, error) {
	ws, err := c.workspace()
	if err != nil {
		return nil, nil, nil, err
	}
	doc, err := ws.CurrentMetadata()
	if err != nil {
		return nil, nil, nil, err
	}
	return ws, doc, doc.Clone(), nil
}

// writeIfChanged persists the document iff it differs from the snapshot
// taken when the operation began.
func writeIfChanged(doc, before *metadata.Document, logger *log.Logger) error {
	if doc.Equal(before) {
		return nil
	}
	if err := doc.Write(); err != nil {
		return err
	}
	logger.Debug("metadata updated", "path", doc.Path())
	return nil
}

// declaredDependencies returns the full declared set: the required list
// plus every optional group, deduplicated by identity.
func declaredDependencies(doc *metadata.Document) []dependency.Dependency {
	deps := doc.Dependencies()
	for _, group := range doc.Groups() {
		if gdeps, ok := doc.OptionalDependencyGroup(group); ok {
			deps = append(deps, gdeps...)
		}
	}
	return dedupeByIdentity(deps)
}

func dedupeByIdentity(deps []dependency.Dependency) []dependency.Dependency {
	seen := make(map[string]bool, len(deps))
	out := deps[:0:0]
	for _, d := range deps {
		name := d.NormalizedName()
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, d)
	}
	return out
}

// backfill returns the requirement to persist for dep after a
// successful install: dep itself when it carries an explicit
// constraint, else a pin synthesized from the matching installed
// package.
func backfill(dep dependency.Dependency, installed []venv.Package) dependency.Dependency {
	if dep.HasConstraint() {
		return dep
	}
	for _, pkg := range installed {
		if pkg.Name == dep.NormalizedName() {
			pinned := dependency.Pin(pkg.Name, pkg.Version)
			pinned.Extras = dep.Extras
			return pinned
		}
	}
	return dep
}

// pinnable reports whether a declared entry tracks the installed
// version: version-less or exactly pinned. Range constraints and direct
// references are user intent and stay verbatim.
func pinnable(dep dependency.Dependency) bool {
	return dep.URL == "" && (dep.Specifier == "" || strings.HasPrefix(dep.Specifier, "=="))
}
