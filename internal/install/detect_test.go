// SPDX-License-Identifier: MPL-2.0

package install

import (
	"errors"
	"testing"
)

func TestDetectManaged(t *testing.T) {
	// Not parallel: overrides package-level test seams.
	saved := evalSymlinks
	t.Cleanup(func() { evalSymlinks = saved })
	evalSymlinks = func(string) (string, error) { return "", errors.New("no such file") }

	tests := []struct {
		dir  string
		want Manager
	}{
		{"/opt/homebrew/bin", ManagerHomebrew},
		{"/usr/local/Cellar/om/7.14.0/bin", ManagerHomebrew},
		{"/home/linuxbrew/.linuxbrew/bin", ManagerHomebrew},
		{"/home/linuxbrew/.linuxbrew", ManagerHomebrew},
		{"/usr/local/bin", ManagerNone},
		{"/home/user/.local/bin", ManagerNone},
		{"/opt/homebrewed/bin", ManagerNone},
	}

	for _, tt := range tests {
		if got := DetectManaged(tt.dir); got != tt.want {
			t.Errorf("DetectManaged(%q) = %v, want %v", tt.dir, got, tt.want)
		}
	}
}

func TestDetectManaged_FollowsSymlinks(t *testing.T) {
	// Not parallel: overrides package-level test seams.
	saved := evalSymlinks
	t.Cleanup(func() { evalSymlinks = saved })
	evalSymlinks = func(string) (string, error) { return "/usr/local/Cellar/om/7.14.0/bin", nil }

	if got := DetectManaged("/usr/local/bin"); got != ManagerHomebrew {
		t.Errorf("DetectManaged() = %v, want homebrew via symlink", got)
	}
}

func TestManager_String(t *testing.T) {
	t.Parallel()

	if ManagerNone.String() != "none" || ManagerHomebrew.String() != "homebrew" || Manager(9).String() != "unknown" {
		t.Error("unexpected Manager.String() values")
	}
}
