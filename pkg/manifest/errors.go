// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/omtap/omtap/pkg/platform"
)

var (
	// ErrUnsupportedPlatform indicates the manifest has no variant for the
	// requested platform. Installation must abort.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrChecksumMismatch indicates downloaded content does not match the
	// recorded SHA-256 digest. Installation must abort and nothing is installed.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrInvalidChecksum is the sentinel error wrapped by InvalidChecksumError.
	ErrInvalidChecksum = errors.New("invalid checksum")

	// ErrInvalidManifest is the sentinel error wrapped by InvalidManifestError.
	ErrInvalidManifest = errors.New("invalid manifest")
)

type (
	// UnsupportedPlatformError reports the platform that failed to resolve
	// together with the platforms the manifest does provide.
	UnsupportedPlatformError struct {
		Name      string
		Version   string
		Platform  platform.Platform
		Available []platform.Platform
	}

	// ChecksumError provides details about a checksum verification failure.
	// It wraps ErrChecksumMismatch so callers can use errors.Is for classification.
	ChecksumError struct {
		Filename string
		Expected Checksum
		Got      Checksum
	}

	// InvalidChecksumError is returned when a checksum is not 64 hex characters.
	InvalidChecksumError struct {
		Value string
	}

	// InvalidManifestError collects every validation failure of one manifest.
	InvalidManifestError struct {
		Name    string
		Version string
		Errs    []error
	}
)

// Error implements the error interface.
func (e *UnsupportedPlatformError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s has no artifact for %s", e.Name, e.Version, e.Platform)
	if len(e.Available) > 0 {
		names := make([]string, len(e.Available))
		for i, p := range e.Available {
			names[i] = p.String()
		}
		fmt.Fprintf(&sb, " (available: %s)", strings.Join(names, ", "))
	}
	return sb.String()
}

// Unwrap returns ErrUnsupportedPlatform so callers can use errors.Is.
func (e *UnsupportedPlatformError) Unwrap() error { return ErrUnsupportedPlatform }

// Error returns a human-readable description of the checksum mismatch,
// showing both expected and actual digests.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum verification failed for %s\nExpected: %s\nGot:      %s", e.Filename, e.Expected, e.Got)
}

// Unwrap returns ErrChecksumMismatch so callers can use errors.Is.
func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }

// Error implements the error interface.
func (e *InvalidChecksumError) Error() string {
	return fmt.Sprintf("invalid checksum %q: must be 64 hexadecimal characters", e.Value)
}

// Unwrap returns ErrInvalidChecksum for errors.Is() compatibility.
func (e *InvalidChecksumError) Unwrap() error { return ErrInvalidChecksum }

// Error lists every validation failure on its own line.
func (e *InvalidManifestError) Error() string {
	label := strings.TrimSpace(e.Name + " " + e.Version)
	if label == "" {
		label = "<unnamed>"
	}
	if len(e.Errs) == 1 {
		return fmt.Sprintf("invalid manifest %s: %v", label, e.Errs[0])
	}
	lines := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		lines[i] = "  - " + err.Error()
	}
	return fmt.Sprintf("invalid manifest %s:\n%s", label, strings.Join(lines, "\n"))
}

// Unwrap exposes ErrInvalidManifest and each underlying failure to errors.Is/As.
func (e *InvalidManifestError) Unwrap() []error {
	return append([]error{ErrInvalidManifest}, e.Errs...)
}
