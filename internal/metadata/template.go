package metadata

import (
	"strings"

	"github.com/pyrite-dev/pyrite/internal/dependency"
)

// ImportableName converts a distribution name into the importable
// module name: normalized, with "-" replaced by "_".
func ImportableName(name string) string {
	return strings.ReplaceAll(dependency.Normalize(name), "-", "_")
}

// DefaultEntrypoint returns the console-script entry point string for a
// new application project.
func DefaultEntrypoint(importable string) string {
	return importable + ".main:main"
}
