// SPDX-License-Identifier: MPL-2.0

package artifact

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// maxBinaryBytes caps the size of an extracted executable (500 MiB) so a
// hostile archive cannot fill the disk.
const maxBinaryBytes = 500 << 20

// ErrBinaryNotFound is returned when an archive has no entry with the wanted name.
var ErrBinaryNotFound = errors.New("binary not found in archive")

// Format is the packaging of a downloaded artifact.
type Format string

const (
	FormatTarGz Format = "tar.gz"
	FormatTarXz Format = "tar.xz"
	// FormatRaw is a bare executable that is used as downloaded.
	FormatRaw Format = "raw"
)

// DetectFormat classifies name by its extension.
func DetectFormat(name string) Format {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return FormatTarGz
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		return FormatTarXz
	default:
		return FormatRaw
	}
}

// ExtractBinary pulls the entry named binaryName out of archivePath into a
// new temp file in destDir and returns its path. Entries are matched by base
// name, so both flat and nested archive layouts work. A raw artifact is
// copied as-is. The caller owns the returned file.
func ExtractBinary(archivePath, binaryName, destDir string) (_ string, err error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("opening archive: %w", err)
	}
	defer func() { _ = f.Close() }() // read-only file handle

	format := DetectFormat(archivePath)
	if format == FormatRaw {
		return writeTemp(destDir, binaryName, f)
	}

	var decompressed io.Reader
	switch format {
	case FormatTarGz:
		gz, gzErr := gzip.NewReader(f)
		if gzErr != nil {
			return "", fmt.Errorf("creating gzip reader: %w", gzErr)
		}
		defer func() { _ = gz.Close() }()
		decompressed = gz
	case FormatTarXz:
		xr, xzErr := xz.NewReader(f)
		if xzErr != nil {
			return "", fmt.Errorf("creating xz reader: %w", xzErr)
		}
		decompressed = xr
	}

	tr := tar.NewReader(decompressed)
	for {
		hdr, nextErr := tr.Next()
		if errors.Is(nextErr, io.EOF) {
			break
		}
		if nextErr != nil {
			return "", fmt.Errorf("reading tar entry: %w", nextErr)
		}
		if !hdr.FileInfo().Mode().IsRegular() || filepath.Base(hdr.Name) != binaryName {
			continue
		}
		if hdr.Size > maxBinaryBytes {
			return "", fmt.Errorf("archive entry %s is %d bytes, limit is %d", hdr.Name, hdr.Size, maxBinaryBytes)
		}
		return writeTemp(destDir, binaryName, tr)
	}

	return "", fmt.Errorf("%w: %q in %s", ErrBinaryNotFound, binaryName, filepath.Base(archivePath))
}

// writeTemp copies at most maxBinaryBytes of r into a new temp file in dir.
func writeTemp(dir, name string, r io.Reader) (_ string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating extraction directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+name+"-extract-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file for binary: %w", err)
	}
	defer func() {
		if closeErr := tmp.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	n, err := io.Copy(tmp, io.LimitReader(r, maxBinaryBytes+1))
	if err != nil {
		return "", fmt.Errorf("extracting binary: %w", err)
	}
	if n > maxBinaryBytes {
		return "", fmt.Errorf("extracted binary exceeds %d bytes", maxBinaryBytes)
	}
	return tmp.Name(), nil
}
