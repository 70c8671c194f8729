// Package repo reads the configuration repository: the teams document at the
// root and the per-artifact conf documents beneath it.
package repo

import (
	"fmt"
	"strings"
)

// ConfigError reports an unusable repository input: a malformed conf path, a
// document that fails to parse, or a document missing required metadata.
type ConfigError struct {
	Path    string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ConfPath is the structured identity of a conf document, taken from the four
// trailing segments of its repo-relative path: context/confType/team/name.
type ConfPath struct {
	Context  string
	ConfType string
	Team     string
	Name     string
}

// ParseConfPath splits a repo-relative conf path into its four trailing
// segments. Paths with fewer than four segments are invalid and fail the run;
// nothing is defaulted.
func ParseConfPath(rel string) (ConfPath, error) {
	parts := strings.Split(strings.Trim(rel, "/"), "/")
	if len(parts) < 4 || parts[0] == "" {
		return ConfPath{}, &ConfigError{
			Path:    rel,
			Message: "invalid conf path, expected at least context/conf_type/team/name relative to the repo root",
		}
	}
	tail := parts[len(parts)-4:]
	return ConfPath{
		Context:  tail[0],
		ConfType: tail[1],
		Team:     tail[2],
		Name:     tail[3],
	}, nil
}
