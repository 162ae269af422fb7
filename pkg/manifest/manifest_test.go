// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/omtap/omtap/pkg/platform"
)

const (
	sumDarwinAMD64 = "a3c853c998e555a5abd6e06289d54deee87d637cbd99035cb5962ac5cbfa5011"
	sumLinuxAMD64  = "18c23523a0e570b434280da747e0d550fad8822728afc15527a4108060cde792"
	sumLinuxARM64  = "b8b955c44e3886fe06524e67d9836733fcde51a7717a9a36500a0df36e46d62f"
)

const intelOnlyCUE = `
name:     "om"
desc:     "Tool for interacting with Ops Manager"
homepage: "https://github.com/pivotal-cf/om"
version:  "7.2.0"
variants: [
	{os: "darwin", arch: "amd64", url: "https://github.com/pivotal-cf/om/releases/download/7.2.0/om-darwin-amd64-7.2.0.tar.gz", sha256: "` + sumDarwinAMD64 + `"},
	{os: "linux", arch: "amd64", url: "https://github.com/pivotal-cf/om/releases/download/7.2.0/om-linux-amd64-7.2.0.tar.gz", sha256: "` + sumLinuxAMD64 + `"},
]
install: binary: "om"
`

func newTestManifest(variants ...Variant) *Manifest {
	return &Manifest{
		Name:     "om",
		Desc:     "Tool for interacting with Ops Manager",
		Homepage: "https://github.com/pivotal-cf/om",
		Version:  "7.14.0",
		Variants: variants,
		Install:  InstallStep{Binary: "om"},
	}
}

func variant(os platform.OS, arch platform.Arch, name string, sum Checksum) Variant {
	return Variant{
		OS:     os,
		Arch:   arch,
		URL:    "https://github.com/pivotal-cf/om/releases/download/7.14.0/" + name,
		SHA256: sum,
	}
}

func TestParse_IntelOnly(t *testing.T) {
	t.Parallel()

	m, err := Parse([]byte(intelOnlyCUE), "om-7.2.0.cue")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if m.Version != "7.2.0" || len(m.Variants) != 2 {
		t.Fatalf("got version %q with %d variants", m.Version, len(m.Variants))
	}
	if got := m.TestArgs(); !slices.Equal(got, []string{"--version"}) {
		t.Errorf("TestArgs() = %v, want schema default [--version]", got)
	}

	_, err = m.Resolve(platform.New(platform.OSLinux, platform.ArchARM64))
	if !errors.Is(err, ErrUnsupportedPlatform) {
		t.Fatalf("Resolve(linux/arm64) error = %v, want ErrUnsupportedPlatform", err)
	}
	var upErr *UnsupportedPlatformError
	if !errors.As(err, &upErr) {
		t.Fatalf("error is %T, want *UnsupportedPlatformError", err)
	}
	if len(upErr.Available) != 2 {
		t.Errorf("Available = %v, want 2 platforms", upErr.Available)
	}
	if !strings.Contains(err.Error(), "om 7.2.0 has no artifact for linux/arm64") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestParse_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(string) string
		wantSub string
	}{
		{
			name:    "short checksum",
			mutate:  func(s string) string { return strings.Replace(s, sumLinuxAMD64, "abc123", 1) },
			wantSub: "sha256",
		},
		{
			name:    "plain http url",
			mutate:  func(s string) string { return strings.Replace(s, "https://github.com/pivotal-cf/om/releases/download/7.2.0/om-linux", "http://example.com/om-linux", 1) },
			wantSub: "url",
		},
		{
			name:    "unknown os",
			mutate:  func(s string) string { return strings.Replace(s, `os: "linux"`, `os: "windows"`, 1) },
			wantSub: "os",
		},
		{
			name:    "bad version",
			mutate:  func(s string) string { return strings.Replace(s, `"7.2.0"`, `"seven"`, 1) },
			wantSub: "version",
		},
		{
			name:    "no variants",
			mutate:  func(s string) string { return s[:strings.Index(s, "variants:")] + "variants: []\ninstall: binary: \"om\"\n" },
			wantSub: "variants",
		},
		{
			name:    "duplicate platform",
			mutate:  func(s string) string { return strings.Replace(s, `os: "linux"`, `os: "darwin"`, 1) },
			wantSub: "duplicate platform variant",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.mutate(intelOnlyCUE)), "om-7.2.0.cue")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestResolve_ExactVariant(t *testing.T) {
	t.Parallel()

	m := newTestManifest(
		variant(platform.OSDarwin, platform.ArchAMD64, "om-darwin-amd64-7.14.0.tar.gz", sumDarwinAMD64),
		variant(platform.OSLinux, platform.ArchAMD64, "om-linux-amd64-7.14.0.tar.gz", sumLinuxAMD64),
		variant(platform.OSLinux, platform.ArchARM64, "om-linux-arm64-7.14.0.tar.gz", sumLinuxARM64),
	)

	v, err := m.Lookup("linux", "arm64")
	if err != nil {
		t.Fatalf("Lookup(linux, arm64) unexpected error: %v", err)
	}
	if v.ArtifactName() != "om-linux-arm64-7.14.0.tar.gz" {
		t.Errorf("ArtifactName() = %q", v.ArtifactName())
	}
	if v.SHA256 != sumLinuxARM64 {
		t.Errorf("SHA256 = %q, want %q", v.SHA256, sumLinuxARM64)
	}

	// uname spellings resolve to the same variant
	v2, err := m.Lookup("Linux", "aarch64")
	if err != nil || v2 != v {
		t.Errorf("Lookup(Linux, aarch64) = %v, %v; want %v", v2, err, v)
	}
}

func TestResolve_WildcardPrecedence(t *testing.T) {
	t.Parallel()

	universal := variant(platform.OSAny, platform.ArchAny, "om-universal.tar.gz", sumDarwinAMD64)
	linuxAny := variant(platform.OSLinux, platform.ArchAny, "om-linux.tar.gz", sumLinuxAMD64)
	linuxARM := variant(platform.OSLinux, platform.ArchARM64, "om-linux-arm64.tar.gz", sumLinuxARM64)

	m := newTestManifest(universal, linuxAny, linuxARM)

	tests := []struct {
		platform platform.Platform
		want     Variant
	}{
		{platform.New(platform.OSLinux, platform.ArchARM64), linuxARM},
		{platform.New(platform.OSLinux, platform.ArchAMD64), linuxAny},
		{platform.New(platform.OSDarwin, platform.ArchARM64), universal},
	}

	for _, tt := range tests {
		got, err := m.Resolve(tt.platform)
		if err != nil {
			t.Fatalf("Resolve(%s) unexpected error: %v", tt.platform, err)
		}
		if got != tt.want {
			t.Errorf("Resolve(%s) = %s, want %s", tt.platform, got.ArtifactName(), tt.want.ArtifactName())
		}
	}
}

func TestLookup_UnknownPlatformIsUnsupported(t *testing.T) {
	t.Parallel()

	m := newTestManifest(variant(platform.OSLinux, platform.ArchAMD64, "om-linux-amd64-7.14.0.tar.gz", sumLinuxAMD64))

	_, err := m.Lookup("windows", "amd64")
	if !errors.Is(err, ErrUnsupportedPlatform) {
		t.Fatalf("Lookup(windows) error = %v, want ErrUnsupportedPlatform", err)
	}
	if !errors.Is(err, platform.ErrInvalidOS) {
		t.Errorf("Lookup(windows) error = %v, want to also wrap ErrInvalidOS", err)
	}
}

func TestManifest_IsValid(t *testing.T) {
	t.Parallel()

	good := newTestManifest(variant(platform.OSLinux, platform.ArchAMD64, "om-linux-amd64-7.14.0.tar.gz", sumLinuxAMD64))
	if ok, errs := good.IsValid(); !ok {
		t.Fatalf("IsValid() = false, %v", errs)
	}

	bad := newTestManifest(
		variant(platform.OSLinux, platform.ArchAMD64, "a.tar.gz", "deadbeef"),
		variant(platform.OSLinux, platform.ArchAMD64, "b.tar.gz", sumLinuxAMD64),
	)
	bad.Install.Binary = "bin/om"

	err := bad.Validate()
	if !errors.Is(err, ErrInvalidManifest) {
		t.Fatalf("Validate() error = %v, want ErrInvalidManifest", err)
	}
	if !errors.Is(err, ErrDuplicateVariant) {
		t.Errorf("Validate() error should wrap ErrDuplicateVariant: %v", err)
	}
	if !errors.Is(err, ErrInvalidChecksum) {
		t.Errorf("Validate() error should wrap ErrInvalidChecksum: %v", err)
	}
	var ime *InvalidManifestError
	if !errors.As(err, &ime) || len(ime.Errs) != 3 {
		t.Errorf("expected 3 collected errors, got %v", err)
	}
}

func TestManifest_IsValid_Version(t *testing.T) {
	t.Parallel()

	tests := []struct {
		version string
		want    bool
	}{
		{"7.14.0", true},
		{"v7.14.0", true},
		{"8.0.0-rc.1", true},
		{"7.14.0+build.5", true},
		{"7.14", false},
		{"7", false},
		{"v7.14-rc.1", false},
		{"latest", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			t.Parallel()

			m := newTestManifest(variant(platform.OSLinux, platform.ArchAMD64, "om-linux-amd64-7.14.0.tar.gz", sumLinuxAMD64))
			m.Version = tt.version
			if ok, errs := m.IsValid(); ok != tt.want {
				t.Errorf("IsValid() with version %q = %v (%v), want %v", tt.version, ok, errs, tt.want)
			}
		})
	}
}

func TestManifest_Platforms(t *testing.T) {
	t.Parallel()

	m := newTestManifest(
		variant(platform.OSLinux, platform.ArchARM64, "c", sumLinuxARM64),
		variant(platform.OSDarwin, platform.ArchAMD64, "a", sumDarwinAMD64),
		variant(platform.OSLinux, platform.ArchAMD64, "b", sumLinuxAMD64),
	)

	want := []platform.Platform{
		platform.New(platform.OSDarwin, platform.ArchAMD64),
		platform.New(platform.OSLinux, platform.ArchAMD64),
		platform.New(platform.OSLinux, platform.ArchARM64),
	}
	if got := m.Platforms(); !slices.Equal(got, want) {
		t.Errorf("Platforms() = %v, want %v", got, want)
	}
}

func TestManifest_Clone(t *testing.T) {
	t.Parallel()

	m := newTestManifest(variant(platform.OSLinux, platform.ArchAMD64, "b", sumLinuxAMD64))
	m.Test.Args = []string{"version"}

	c := m.Clone()
	c.Variants[0].URL = "https://evil.example/om.tar.gz"
	c.Test.Args[0] = "rm"

	if m.Variants[0].URL == c.Variants[0].URL {
		t.Error("Clone shares the Variants backing array")
	}
	if m.Test.Args[0] != "version" {
		t.Error("Clone shares the Test.Args backing array")
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	m := newTestManifest(
		variant(platform.OSDarwin, platform.ArchAMD64, "om-darwin-amd64-7.14.0.tar.gz", sumDarwinAMD64),
		variant(platform.OSLinux, platform.ArchARM64, "om-linux-arm64-7.14.0.tar.gz", sumLinuxARM64),
	)
	m.License = "Apache-2.0"

	src := GenerateCUE(m)
	if !strings.Contains(src, "om 7.14.0 release manifest") {
		t.Errorf("missing header in:\n%s", src)
	}

	parsed, err := Parse([]byte(src), "generated.cue")
	if err != nil {
		t.Fatalf("Parse(GenerateCUE()) failed: %v\n%s", err, src)
	}
	if parsed.License != "Apache-2.0" || len(parsed.Variants) != 2 {
		t.Errorf("round trip lost data: %+v", parsed)
	}
	if !slices.Equal(parsed.Variants, m.Variants) {
		t.Errorf("variants = %v, want %v", parsed.Variants, m.Variants)
	}
}

func TestVariant_ArtifactName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/pivotal-cf/om/releases/download/7.14.0/om-linux-arm64-7.14.0.tar.gz", "om-linux-arm64-7.14.0.tar.gz"},
		{"https://cdn.example.com/om.tar.gz?X-Amz-Signature=abc", "om.tar.gz"},
		{"https://cdn.example.com/path/om-darwin-4.8.0.tar.gz#frag", "om-darwin-4.8.0.tar.gz"},
	}

	for _, tt := range tests {
		if got := (Variant{URL: tt.url}).ArtifactName(); got != tt.want {
			t.Errorf("ArtifactName(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
