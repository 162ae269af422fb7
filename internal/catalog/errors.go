// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrVersionNotFound is returned when no manifest has the requested version.
	ErrVersionNotFound = errors.New("version not found")
	// ErrNoVersionMatch is returned when a version pattern selects nothing.
	ErrNoVersionMatch = errors.New("no version matches")
	// ErrDuplicateVersion is returned when two manifests publish the same version.
	ErrDuplicateVersion = errors.New("duplicate version")
	// ErrNameMismatch is returned when a manifest describes a different tool.
	ErrNameMismatch = errors.New("manifest name mismatch")
	// ErrEmptyCatalog is returned when no manifests were loaded.
	ErrEmptyCatalog = errors.New("catalog is empty")
)

type (
	// VersionNotFoundError lists the versions that do exist.
	VersionNotFoundError struct {
		Version   string
		Available []string
	}

	// NoVersionMatchError reports the pattern that matched nothing.
	NoVersionMatchError struct {
		Pattern string
	}

	// DuplicateVersionError names both sources of a repeated version.
	DuplicateVersionError struct {
		Version string
		First   string
		Second  string
	}
)

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("version %q not found (available: %s)", e.Version, strings.Join(e.Available, ", "))
}

func (e *VersionNotFoundError) Unwrap() error { return ErrVersionNotFound }

func (e *NoVersionMatchError) Error() string {
	return fmt.Sprintf("no version matches pattern %q", e.Pattern)
}

func (e *NoVersionMatchError) Unwrap() error { return ErrNoVersionMatch }

func (e *DuplicateVersionError) Error() string {
	return fmt.Sprintf("version %s is defined by both %s and %s; published manifests must not be redefined",
		e.Version, e.First, e.Second)
}

func (e *DuplicateVersionError) Unwrap() error { return ErrDuplicateVersion }
