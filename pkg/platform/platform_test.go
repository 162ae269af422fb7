// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"slices"
	"testing"
)

func TestParseOS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    OS
		wantErr bool
	}{
		{"darwin", "darwin", OSDarwin, false},
		{"mac alias", "mac", OSDarwin, false},
		{"macos mixed case", "macOS", OSDarwin, false},
		{"linux", "linux", OSLinux, false},
		{"linux with spaces", "  Linux ", OSLinux, false},
		{"wildcard", "any", OSAny, false},
		{"windows unsupported", "windows", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseOS(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidOS) {
					t.Fatalf("ParseOS(%q) error = %v, want ErrInvalidOS", tt.input, err)
				}
				var osErr *InvalidOSError
				if !errors.As(err, &osErr) || osErr.Value != tt.input {
					t.Errorf("ParseOS(%q) error = %#v, want *InvalidOSError with value", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseOS(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseOS(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseArch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Arch
		wantErr bool
	}{
		{"amd64", ArchAMD64, false},
		{"x86_64", ArchAMD64, false},
		{"intel", ArchAMD64, false},
		{"arm64", ArchARM64, false},
		{"aarch64", ArchARM64, false},
		{"ARM", ArchARM64, false},
		{"*", ArchAny, false},
		{"386", "", true},
		{"riscv64", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParseArch(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArch) {
					t.Fatalf("ParseArch(%q) error = %v, want ErrInvalidArch", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseArch(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseArch(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestOSAndArch_IsValid(t *testing.T) {
	t.Parallel()

	for _, o := range OSValues() {
		if ok, errs := o.IsValid(); !ok {
			t.Errorf("OS(%q).IsValid() = false, %v", o, errs)
		}
	}
	for _, a := range ArchValues() {
		if ok, errs := a.IsValid(); !ok {
			t.Errorf("Arch(%q).IsValid() = false, %v", a, errs)
		}
	}

	if ok, errs := OS("plan9").IsValid(); ok || len(errs) != 1 {
		t.Errorf("OS(plan9).IsValid() = %v, %v; want false with one error", ok, errs)
	}
	if ok, errs := (Platform{OS: "beos", Arch: "mips"}).IsValid(); ok || len(errs) != 2 {
		t.Errorf("Platform.IsValid() = %v, %v; want false with two errors", ok, errs)
	}
}

func TestParsePlatform(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Platform
		wantErr bool
	}{
		{"linux/arm64", Platform{OSLinux, ArchARM64}, false},
		{"darwin-amd64", Platform{OSDarwin, ArchAMD64}, false},
		{"macos_aarch64", Platform{OSDarwin, ArchARM64}, false},
		{"linux", Platform{}, true},
		{"/arm64", Platform{}, true},
		{"linux/", Platform{}, true},
		{"linux/sparc", Platform{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParsePlatform(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePlatform(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePlatform(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPlatform_String(t *testing.T) {
	t.Parallel()

	p := New(OSLinux, ArchARM64)
	if got := p.String(); got != "linux/arm64" {
		t.Errorf("String() = %q, want %q", got, "linux/arm64")
	}
	if got := p.Label(); got != "Linux (ARM)" {
		t.Errorf("Label() = %q, want %q", got, "Linux (ARM)")
	}
	if got := New(OSAny, ArchAny).Label(); got != "all platforms" {
		t.Errorf("Label() = %q, want %q", got, "all platforms")
	}
}

func TestPlatform_Candidates(t *testing.T) {
	t.Parallel()

	got := New(OSDarwin, ArchARM64).Candidates()
	want := []Platform{
		{OSDarwin, ArchARM64},
		{OSDarwin, ArchAny},
		{OSAny, ArchARM64},
		{OSAny, ArchAny},
	}
	if !slices.Equal(got, want) {
		t.Errorf("Candidates() = %v, want %v", got, want)
	}

	// A fully wildcarded platform has exactly one candidate.
	if got := New(OSAny, ArchAny).Candidates(); len(got) != 1 {
		t.Errorf("Candidates() for any/any = %v, want one entry", got)
	}
}

func TestLess(t *testing.T) {
	t.Parallel()

	ps := []Platform{
		{OSAny, ArchAny},
		{OSLinux, ArchARM64},
		{OSDarwin, ArchAny},
		{OSLinux, ArchAMD64},
		{OSDarwin, ArchAMD64},
	}
	slices.SortFunc(ps, func(a, b Platform) int {
		switch {
		case Less(a, b):
			return -1
		case Less(b, a):
			return 1
		}
		return 0
	})

	want := []Platform{
		{OSDarwin, ArchAMD64},
		{OSDarwin, ArchAny},
		{OSLinux, ArchAMD64},
		{OSLinux, ArchARM64},
		{OSAny, ArchAny},
	}
	if !slices.Equal(ps, want) {
		t.Errorf("sorted = %v, want %v", ps, want)
	}
}

func TestHost(t *testing.T) {
	// Not parallel: overrides package-level test seams (hostOS, hostArch).
	origOS, origArch := hostOS, hostArch
	t.Cleanup(func() {
		hostOS, hostArch = origOS, origArch
	})

	hostOS, hostArch = "linux", "arm64"
	p, err := Host()
	if err != nil {
		t.Fatalf("Host() unexpected error: %v", err)
	}
	if p != New(OSLinux, ArchARM64) {
		t.Errorf("Host() = %v, want linux/arm64", p)
	}

	hostOS, hostArch = "windows", "amd64"
	if _, err := Host(); !errors.Is(err, ErrUnsupportedHost) {
		t.Errorf("Host() on windows error = %v, want ErrUnsupportedHost", err)
	}
}
