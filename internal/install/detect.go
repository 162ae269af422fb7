// SPDX-License-Identifier: MPL-2.0

package install

import (
	"path/filepath"
	"strings"
)

const (
	// homebrewMacARM is the Homebrew prefix on macOS ARM (Apple Silicon).
	homebrewMacARM = "/opt/homebrew/"
	// homebrewMacIntel is the Homebrew Cellar path on macOS Intel.
	homebrewMacIntel = "/usr/local/Cellar/"
	// homebrewLinux is the Linuxbrew prefix.
	homebrewLinux = "/home/linuxbrew/.linuxbrew/"
)

const (
	// ManagerNone means no package manager owns the directory.
	ManagerNone Manager = iota
	// ManagerHomebrew means the directory belongs to a Homebrew prefix.
	ManagerHomebrew
)

//nolint:gochecknoglobals // Test seam for filepath.EvalSymlinks().
var evalSymlinks = filepath.EvalSymlinks

// Manager identifies a package manager that owns a bin directory.
type Manager int

func (m Manager) String() string {
	switch m {
	case ManagerHomebrew:
		return "homebrew"
	case ManagerNone:
		return "none"
	}
	return "unknown"
}

// DetectManaged reports which package manager, if any, owns binDir. The
// directory is resolved through symlinks first, so a link into a Homebrew
// Cellar is detected too.
func DetectManaged(binDir string) Manager {
	candidates := []string{filepath.ToSlash(filepath.Clean(binDir))}
	if resolved, err := evalSymlinks(binDir); err == nil {
		candidates = append(candidates, filepath.ToSlash(filepath.Clean(resolved)))
	}

	for _, dir := range candidates {
		dir += "/"
		if strings.HasPrefix(dir, homebrewMacARM) ||
			strings.HasPrefix(dir, homebrewMacIntel) ||
			strings.HasPrefix(dir, homebrewLinux) {
			return ManagerHomebrew
		}
	}
	return ManagerNone
}
