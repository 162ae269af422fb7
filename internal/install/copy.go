// SPDX-License-Identifier: MPL-2.0

package install

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// binaryMode is applied to every installed executable.
const binaryMode os.FileMode = 0o755

// CopyBinary installs src as binDir/name. It writes a temp file in binDir,
// makes it executable, syncs it and renames it over the destination, so
// re-running yields the same file and readers never see a partial one.
// When the destination already holds identical bytes and is executable it
// is left untouched and unchanged is true.
func CopyBinary(src, binDir, name string) (dest string, unchanged bool, err error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", false, fmt.Errorf("invalid binary name %q", name)
	}

	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return "", false, fmt.Errorf("creating bin directory: %w", err)
	}
	dest = filepath.Join(binDir, name)

	same, err := sameContent(src, dest)
	if err != nil {
		return "", false, err
	}
	if same {
		return dest, true, nil
	}

	in, err := os.Open(src)
	if err != nil {
		return "", false, fmt.Errorf("opening %s: %w", src, err)
	}
	defer func() { _ = in.Close() }() // read-only file handle

	tmp, err := os.CreateTemp(binDir, "."+name+"-install-*")
	if err != nil {
		return "", false, fmt.Errorf("creating temp file in %s: %w", binDir, err)
	}
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return "", false, fmt.Errorf("copying binary: %w", err)
	}
	if err := tmp.Chmod(binaryMode); err != nil {
		_ = tmp.Close()
		return "", false, fmt.Errorf("setting binary permissions: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", false, fmt.Errorf("syncing binary: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", false, fmt.Errorf("closing binary: %w", err)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", false, fmt.Errorf("replacing %s: %w", dest, err)
	}
	renamed = true

	return dest, false, nil
}

// sameContent reports whether dest exists as an executable regular file with
// the same bytes as src.
func sameContent(src, dest string) (bool, error) {
	destInfo, err := os.Stat(dest)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("inspecting %s: %w", dest, err)
	}
	if !destInfo.Mode().IsRegular() || destInfo.Mode().Perm() != binaryMode {
		return false, nil
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, fmt.Errorf("inspecting %s: %w", src, err)
	}
	if srcInfo.Size() != destInfo.Size() {
		return false, nil
	}

	a, err := fileDigest(src)
	if err != nil {
		return false, err
	}
	b, err := fileDigest(dest)
	if err != nil {
		return false, err
	}
	return bytes.Equal(a, b), nil
}

func fileDigest(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("hashing %s: %w", path, err)
	}
	return h.Sum(nil), nil
}
