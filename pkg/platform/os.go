// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"fmt"
	"strings"
)

// OS name constants for runtime.GOOS comparisons.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

const (
	// OSDarwin is macOS.
	OSDarwin OS = Darwin
	// OSLinux is Linux.
	OSLinux OS = Linux
	// OSAny matches every operating system.
	OSAny OS = "any"
)

// ErrInvalidOS is the sentinel error wrapped by InvalidOSError.
var ErrInvalidOS = errors.New("invalid operating system")

type (
	// OS identifies the operating system half of a Platform.
	OS string

	// InvalidOSError is returned when an OS value is not recognized.
	InvalidOSError struct {
		Value string
	}
)

// Error implements the error interface.
func (e *InvalidOSError) Error() string {
	return fmt.Sprintf("invalid operating system %q (expected one of: %s)", e.Value, joinOS(OSValues()))
}

// Unwrap returns ErrInvalidOS for errors.Is() compatibility.
func (e *InvalidOSError) Unwrap() error { return ErrInvalidOS }

// OSValues returns every valid OS, wildcard last.
func OSValues() []OS {
	return []OS{OSDarwin, OSLinux, OSAny}
}

// ParseOS normalizes s into an OS. Matching is case-insensitive and accepts
// the common aliases used by package managers ("mac", "macos", "osx").
func ParseOS(s string) (OS, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "darwin", "mac", "macos", "osx":
		return OSDarwin, nil
	case "linux":
		return OSLinux, nil
	case "any", "all", "*":
		return OSAny, nil
	default:
		return "", &InvalidOSError{Value: s}
	}
}

// String returns the canonical string form.
func (o OS) String() string { return string(o) }

// IsValid returns whether the OS is one of the defined values.
func (o OS) IsValid() (bool, []error) {
	switch o {
	case OSDarwin, OSLinux, OSAny:
		return true, nil
	default:
		return false, []error{&InvalidOSError{Value: string(o)}}
	}
}

// IsAny reports whether o is the wildcard.
func (o OS) IsAny() bool { return o == OSAny }

// Label returns the human-facing name used in listings.
func (o OS) Label() string {
	switch o {
	case OSDarwin:
		return "macOS"
	case OSLinux:
		return "Linux"
	case OSAny:
		return "any"
	default:
		return string(o)
	}
}

func joinOS(values []OS) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
