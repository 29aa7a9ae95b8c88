package ops

import (
	perr "github.com/pyrite-dev/pyrite/internal/errors"
)

// ProjectVersion returns the version declared in the project's metadata
// document.
func ProjectVersion(cfg *Config) (string, error) {
	ws, err := cfg.workspace()
	if err != nil {
		return "", err
	}
	doc, err := ws.CurrentMetadata()
	if err != nil {
		return "", err
	}
	if v := doc.ProjectVersion(); v != "" {
		return v, nil
	}
	return "", perr.New(perr.ErrCodePackageVersionNotFound, "no version declared in %s", doc.Path())
}
