// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"fmt"
	"net/url"
	"path"
	"slices"

	"github.com/omtap/omtap/pkg/platform"
)

// DefaultTestArgs is the smoke test argv used when a manifest omits one.
var DefaultTestArgs = []string{"--version"}

type (
	// Manifest describes one release's installable artifact set.
	Manifest struct {
		Name     string      `json:"name" yaml:"name"`
		Desc     string      `json:"desc" yaml:"desc"`
		Homepage string      `json:"homepage" yaml:"homepage"`
		Version  string      `json:"version" yaml:"version"`
		License  string      `json:"license,omitempty" yaml:"license,omitempty"`
		Variants []Variant   `json:"variants" yaml:"variants"`
		Install  InstallStep `json:"install" yaml:"install"`
		Test     TestStep    `json:"test" yaml:"test"`
	}

	// Variant maps one (OS, Arch) key to a downloadable artifact.
	Variant struct {
		OS     platform.OS   `json:"os" yaml:"os"`
		Arch   platform.Arch `json:"arch" yaml:"arch"`
		URL    string        `json:"url" yaml:"url"`
		SHA256 Checksum      `json:"sha256" yaml:"sha256"`
	}

	// InstallStep places one named executable into the bin directory.
	InstallStep struct {
		Binary string `json:"binary" yaml:"binary"`
	}

	// TestStep invokes the installed executable and expects exit status 0.
	TestStep struct {
		Args []string `json:"args" yaml:"args"`
	}
)

// Platform returns the variant's lookup key.
func (v Variant) Platform() platform.Platform {
	return platform.New(v.OS, v.Arch)
}

// ArtifactName returns the final path element of the variant URL, e.g.
// "om-linux-arm64-7.14.0.tar.gz". Query strings and fragments are ignored.
func (v Variant) ArtifactName() string {
	u, err := url.Parse(v.URL)
	if err != nil || u.Path == "" {
		return path.Base(v.URL)
	}
	return path.Base(u.Path)
}

// String returns the manifest's "name version" label.
func (m *Manifest) String() string {
	return m.Name + " " + m.Version
}

// Table returns the variants keyed by platform. When a key repeats, the first
// variant wins; IsValid reports the duplicate.
func (m *Manifest) Table() map[platform.Platform]Variant {
	table := make(map[platform.Platform]Variant, len(m.Variants))
	for _, v := range m.Variants {
		if _, exists := table[v.Platform()]; !exists {
			table[v.Platform()] = v
		}
	}
	return table
}

// Platforms returns the declared variant keys in platform order.
func (m *Manifest) Platforms() []platform.Platform {
	out := make([]platform.Platform, 0, len(m.Variants))
	for p := range m.Table() {
		out = append(out, p)
	}
	slices.SortFunc(out, comparePlatforms)
	return out
}

// Resolve selects the variant for p. The lookup tries the exact (OS, Arch)
// key, then the OS with any arch, then any OS with the arch, then the
// unconditional key. If none is present it returns an
// *UnsupportedPlatformError.
func (m *Manifest) Resolve(p platform.Platform) (Variant, error) {
	table := m.Table()
	for _, key := range p.Candidates() {
		if v, ok := table[key]; ok {
			return v, nil
		}
	}
	return Variant{}, &UnsupportedPlatformError{
		Name:      m.Name,
		Version:   m.Version,
		Platform:  p,
		Available: m.Platforms(),
	}
}

// Lookup parses loosely spelled os and arch values and resolves them. An
// unrecognized OS or architecture is reported as an unsupported platform.
func (m *Manifest) Lookup(os, arch string) (Variant, error) {
	p, err := platform.Parse(os, arch)
	if err != nil {
		return Variant{}, fmt.Errorf("%s: %w: %w", m, ErrUnsupportedPlatform, err)
	}
	return m.Resolve(p)
}

// Supports reports whether Resolve would succeed for p.
func (m *Manifest) Supports(p platform.Platform) bool {
	_, err := m.Resolve(p)
	return err == nil
}

// TestArgs returns the smoke test argv, falling back to DefaultTestArgs.
func (m *Manifest) TestArgs() []string {
	if len(m.Test.Args) == 0 {
		return slices.Clone(DefaultTestArgs)
	}
	return slices.Clone(m.Test.Args)
}

// Clone returns a deep copy. Catalog lookups hand out clones so that no
// caller can alter a published manifest.
func (m *Manifest) Clone() *Manifest {
	c := *m
	c.Variants = slices.Clone(m.Variants)
	c.Test.Args = slices.Clone(m.Test.Args)
	return &c
}

func comparePlatforms(a, b platform.Platform) int {
	switch {
	case platform.Less(a, b):
		return -1
	case platform.Less(b, a):
		return 1
	default:
		return 0
	}
}
