// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrUnsupportedHost is returned by Host when the running GOOS/GOARCH has no
// OS or Arch equivalent.
var ErrUnsupportedHost = errors.New("unsupported host platform")

var (
	//nolint:gochecknoglobals // Test seam for runtime.GOOS.
	hostOS = runtime.GOOS

	//nolint:gochecknoglobals // Test seam for runtime.GOARCH.
	hostArch = runtime.GOARCH
)

// Platform is an (OS, Arch) pair. It is comparable and used directly as a map key.
type Platform struct {
	OS   OS
	Arch Arch
}

// New returns the Platform for os and arch without validation.
func New(os OS, arch Arch) Platform {
	return Platform{OS: os, Arch: arch}
}

// Parse builds a Platform from loosely spelled os and arch values.
func Parse(os, arch string) (Platform, error) {
	o, err := ParseOS(os)
	if err != nil {
		return Platform{}, err
	}
	a, err := ParseArch(arch)
	if err != nil {
		return Platform{}, err
	}
	return Platform{OS: o, Arch: a}, nil
}

// ParsePlatform parses "os/arch" (also accepting "os-arch" and "os_arch").
func ParsePlatform(s string) (Platform, error) {
	sep := strings.IndexAny(s, "/-_")
	if sep <= 0 || sep == len(s)-1 {
		return Platform{}, fmt.Errorf("invalid platform %q: expected os/arch", s)
	}
	return Parse(s[:sep], s[sep+1:])
}

// Host returns the platform of the running process.
func Host() (Platform, error) {
	p, err := Parse(hostOS, hostArch)
	if err != nil {
		return Platform{}, fmt.Errorf("%w: %s/%s", ErrUnsupportedHost, hostOS, hostArch)
	}
	return p, nil
}

// String returns "os/arch".
func (p Platform) String() string {
	return string(p.OS) + "/" + string(p.Arch)
}

// Label returns a display name such as "macOS (ARM)".
func (p Platform) Label() string {
	if p.OS.IsAny() && p.Arch.IsAny() {
		return "all platforms"
	}
	return fmt.Sprintf("%s (%s)", p.OS.Label(), p.Arch.Label())
}

// IsValid returns whether both halves are valid.
func (p Platform) IsValid() (bool, []error) {
	var errs []error
	if ok, e := p.OS.IsValid(); !ok {
		errs = append(errs, e...)
	}
	if ok, e := p.Arch.IsValid(); !ok {
		errs = append(errs, e...)
	}
	return len(errs) == 0, errs
}

// IsConcrete reports whether neither half is a wildcard.
func (p Platform) IsConcrete() bool {
	return !p.OS.IsAny() && !p.Arch.IsAny()
}

// Candidates returns the lookup keys for p in precedence order: the exact
// pair, then OS with any arch, then any OS with the arch, then the fully
// unconditional key. Duplicates are omitted when p already holds wildcards.
func (p Platform) Candidates() []Platform {
	keys := []Platform{
		p,
		{OS: p.OS, Arch: ArchAny},
		{OS: OSAny, Arch: p.Arch},
		{OS: OSAny, Arch: ArchAny},
	}
	out := keys[:0]
	seen := make(map[Platform]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// Less orders platforms by OS then Arch using the enum declaration order,
// with wildcards last.
func Less(a, b Platform) bool {
	if a.OS != b.OS {
		return rank(a.OS) < rank(b.OS)
	}
	return archRank(a.Arch) < archRank(b.Arch)
}

func rank(o OS) int {
	for i, v := range OSValues() {
		if v == o {
			return i
		}
	}
	return len(OSValues())
}

func archRank(a Arch) int {
	for i, v := range ArchValues() {
		if v == a {
			return i
		}
	}
	return len(ArchValues())
}
