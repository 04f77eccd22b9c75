package config

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the settings document cannot be read.
	ErrNotFound = errors.New("config not found")
	// ErrMalformed is returned when the settings document is not a valid YAML mapping.
	ErrMalformed = errors.New("malformed config document")
)

// MissingFieldError names a required key that is absent or empty.
type MissingFieldError struct {
	Path string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Path)
}

// UnresolvedEnvError names a ${VAR} reference that is not set in the environment.
type UnresolvedEnvError struct {
	Name string
	Path string // dotted location of the string that referenced it
}

func (e *UnresolvedEnvError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("unresolved environment reference: ${%s}", e.Name)
	}
	return fmt.Sprintf("unresolved environment reference: ${%s} (at %s)", e.Name, e.Path)
}
