// SPDX-License-Identifier: MPL-2.0

package artifact

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/omtap/omtap/pkg/manifest"
)

var (
	// ErrAssetNotFound indicates the requested filename was not listed in checksums.txt.
	ErrAssetNotFound = errors.New("asset not found in checksums")

	// ErrNoChecksumEntries indicates the checksums file contained no parseable entries.
	ErrNoChecksumEntries = errors.New("no valid checksum entries found")
)

// ChecksumEntry is one line of a sha256sum-style checksums file.
type ChecksumEntry struct {
	Hash     manifest.Checksum
	Filename string
}

// ParseChecksums reads the sha256sum format: "<hex>  <filename>" with two
// spaces, or "<hex> *<filename>" for binary mode. Lines that do not fit are
// skipped; a file with no usable lines is an error.
func ParseChecksums(r io.Reader) ([]ChecksumEntry, error) {
	var entries []ChecksumEntry

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		hash, filename, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		filename = strings.TrimPrefix(strings.TrimPrefix(filename, " "), "*")
		filename = strings.TrimSpace(filename)

		sum, err := manifest.ParseChecksum(hash)
		if err != nil || filename == "" {
			continue
		}

		entries = append(entries, ChecksumEntry{Hash: sum, Filename: filename})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading checksums: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrNoChecksumEntries
	}
	return entries, nil
}

// FindChecksum returns the hash recorded for filename.
func FindChecksum(entries []ChecksumEntry, filename string) (manifest.Checksum, error) {
	for _, e := range entries {
		if e.Filename == filename {
			return e.Hash, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrAssetNotFound, filename)
}

// VerifyFile hashes the file at path and compares it with expected. An
// invalid expected checksum is rejected before the file is read.
func VerifyFile(path string, expected manifest.Checksum) error {
	if ok, errs := expected.IsValid(); !ok {
		return fmt.Errorf("verifying %s: %w", path, errs[0])
	}

	got, err := ComputeFileHash(path)
	if err != nil {
		return err
	}
	if !expected.Matches(got) {
		return &manifest.ChecksumError{Filename: path, Expected: expected.Normalize(), Got: got}
	}
	return nil
}

// ComputeFileHash streams the file at path through SHA-256.
func ComputeFileHash(path string) (manifest.Checksum, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }() // read-only file handle

	sum, err := manifest.SumReader(f)
	if err != nil {
		return "", fmt.Errorf("hashing file %s: %w", path, err)
	}
	return sum, nil
}
