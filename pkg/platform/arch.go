// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ArchAMD64 is 64-bit x86 (Homebrew: Hardware::CPU.intel?).
	ArchAMD64 Arch = "amd64"
	// ArchARM64 is 64-bit ARM (Homebrew: Hardware::CPU.arm?).
	ArchARM64 Arch = "arm64"
	// ArchAny matches every architecture.
	ArchAny Arch = "any"
)

// ErrInvalidArch is the sentinel error wrapped by InvalidArchError.
var ErrInvalidArch = errors.New("invalid architecture")

type (
	// Arch identifies the CPU architecture half of a Platform.
	Arch string

	// InvalidArchError is returned when an Arch value is not recognized.
	InvalidArchError struct {
		Value string
	}
)

// Error implements the error interface.
func (e *InvalidArchError) Error() string {
	return fmt.Sprintf("invalid architecture %q (expected one of: amd64, arm64, any)", e.Value)
}

// Unwrap returns ErrInvalidArch for errors.Is() compatibility.
func (e *InvalidArchError) Unwrap() error { return ErrInvalidArch }

// ArchValues returns every valid Arch, wildcard last.
func ArchValues() []Arch {
	return []Arch{ArchAMD64, ArchARM64, ArchAny}
}

// ParseArch normalizes s into an Arch. Matching is case-insensitive and
// accepts uname and Homebrew spellings.
func ParseArch(s string) (Arch, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "amd64", "x86_64", "x64", "intel":
		return ArchAMD64, nil
	case "arm64", "aarch64", "arm":
		return ArchARM64, nil
	case "any", "all", "*":
		return ArchAny, nil
	default:
		return "", &InvalidArchError{Value: s}
	}
}

// String returns the canonical string form.
func (a Arch) String() string { return string(a) }

// IsValid returns whether the Arch is one of the defined values.
func (a Arch) IsValid() (bool, []error) {
	switch a {
	case ArchAMD64, ArchARM64, ArchAny:
		return true, nil
	default:
		return false, []error{&InvalidArchError{Value: string(a)}}
	}
}

// IsAny reports whether a is the wildcard.
func (a Arch) IsAny() bool { return a == ArchAny }

// Label returns the Homebrew CPU family name.
func (a Arch) Label() string {
	switch a {
	case ArchAMD64:
		return "Intel"
	case ArchARM64:
		return "ARM"
	case ArchAny:
		return "any"
	default:
		return string(a)
	}
}
