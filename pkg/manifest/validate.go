// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/omtap/omtap/pkg/platform"

	"golang.org/x/mod/semver"
)

var (
	// ErrDuplicateVariant is returned when two variants share an (OS, Arch) key.
	ErrDuplicateVariant = errors.New("duplicate platform variant")

	// ErrNoVariants is returned when a manifest declares no variants.
	ErrNoVariants = errors.New("manifest declares no variants")
)

// IsValid checks the manifest against the rules the schema cannot express
// and repeats the ones it can, so that manifests built in Go (for example
// by the formula parser) are held to the same standard.
func (m *Manifest) IsValid() (bool, []error) {
	var errs []error

	if strings.TrimSpace(m.Name) == "" {
		errs = append(errs, errors.New("name: must not be empty"))
	}
	if !isFullSemver(m.Version) {
		errs = append(errs, fmt.Errorf("version: %q is not a semantic version", m.Version))
	}
	if strings.TrimSpace(m.Install.Binary) == "" || strings.ContainsAny(m.Install.Binary, `/\`) {
		errs = append(errs, fmt.Errorf("install.binary: %q must be a bare executable name", m.Install.Binary))
	}

	if len(m.Variants) == 0 {
		errs = append(errs, ErrNoVariants)
	}

	seen := make(map[platform.Platform]int, len(m.Variants))
	for i, v := range m.Variants {
		field := fmt.Sprintf("variants[%d]", i)

		if ok, perrs := v.Platform().IsValid(); !ok {
			for _, e := range perrs {
				errs = append(errs, fmt.Errorf("%s: %w", field, e))
			}
		}
		if first, dup := seen[v.Platform()]; dup {
			errs = append(errs, fmt.Errorf("%s: %w %s (same as variants[%d])", field, ErrDuplicateVariant, v.Platform(), first))
		} else {
			seen[v.Platform()] = i
		}

		if u, err := url.Parse(v.URL); err != nil || u.Scheme != "https" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s.url: %q must be an absolute https URL", field, v.URL))
		}
		if ok, cerrs := v.SHA256.IsValid(); !ok {
			errs = append(errs, fmt.Errorf("%s.sha256: %w", field, cerrs[0]))
		}
	}

	return len(errs) == 0, errs
}

// isFullSemver reports whether version has all three numeric components.
// x/mod accepts "v7.14" as shorthand for v7.14.0; a release never does.
func isFullSemver(version string) bool {
	v := "v" + strings.TrimPrefix(version, "v")
	withoutBuild, _, _ := strings.Cut(v, "+")
	return semver.IsValid(v) && semver.Canonical(v) == withoutBuild
}

// Validate returns an *InvalidManifestError when IsValid fails.
func (m *Manifest) Validate() error {
	if ok, errs := m.IsValid(); !ok {
		return &InvalidManifestError{Name: m.Name, Version: m.Version, Errs: errs}
	}
	return nil
}
