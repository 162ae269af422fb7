// SPDX-License-Identifier: MPL-2.0

package artifact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/omtap/omtap/pkg/manifest"

	"github.com/schollz/progressbar/v3"
)

// PartialSuffix marks a download that has not been verified yet.
const PartialSuffix = ".partial"

// ErrMissingChecksum is returned by Fetch when no usable digest was supplied.
var ErrMissingChecksum = errors.New("refusing to download without a valid checksum")

// FetchResult describes a verified artifact on disk.
type FetchResult struct {
	Path   string
	SHA256 manifest.Checksum
	Size   int64
	// Reused is true when an already verified file was found and no request was made.
	Reused bool
}

// Fetch downloads rawURL into dir and verifies it against expected.
//
// An existing dir/<name> that already matches is reused. Otherwise the body
// is streamed to dir/<name>.partial while being hashed; on a match the
// partial file is renamed into place, on a mismatch it is removed and a
// *manifest.ChecksumError is returned. An invalid expected checksum fails
// before any request is made.
func (c *Client) Fetch(ctx context.Context, rawURL string, expected manifest.Checksum, dir string) (_ *FetchResult, err error) {
	if ok, errs := expected.IsValid(); !ok {
		return nil, fmt.Errorf("%w: %w", ErrMissingChecksum, errs[0])
	}

	name, err := fileNameFromURL(rawURL)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating download directory: %w", err)
	}

	final := filepath.Join(dir, name)
	if info, statErr := os.Stat(final); statErr == nil && info.Mode().IsRegular() {
		if VerifyFile(final, expected) == nil {
			c.logger.Debug("reusing verified artifact", "path", final)
			return &FetchResult{Path: final, SHA256: expected.Normalize(), Size: info.Size(), Reused: true}, nil
		}
		// A stale or corrupt cached file is replaced by a fresh download.
		c.logger.Debug("cached artifact failed verification, downloading again", "path", final)
	}

	body, length, err := c.Open(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }() // read-only HTTP response body

	partial := final + PartialSuffix
	out, err := os.OpenFile(partial, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", partial, err)
	}
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(partial)
		}
	}()

	h := sha256.New()
	writers := []io.Writer{out, h}
	var bar *progressbar.ProgressBar
	if c.progress != nil {
		bar = newProgressBar(c.progress, name, length)
		writers = append(writers, bar)
	}

	n, copyErr := io.Copy(io.MultiWriter(writers...), body)
	closeErr := out.Close()
	if bar != nil {
		_ = bar.Finish()
	}
	if copyErr != nil {
		return nil, fmt.Errorf("downloading %s: %w", redactURL(rawURL), copyErr)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("writing %s: %w", partial, closeErr)
	}
	if length >= 0 && n != length {
		return nil, fmt.Errorf("downloading %s: got %d bytes, want %d", redactURL(rawURL), n, length)
	}

	got := manifest.Checksum(hex.EncodeToString(h.Sum(nil)))
	if !expected.Matches(got) {
		return nil, &manifest.ChecksumError{Filename: name, Expected: expected.Normalize(), Got: got}
	}

	if err := os.Rename(partial, final); err != nil {
		return nil, fmt.Errorf("finalizing %s: %w", final, err)
	}
	renamed = true

	c.logger.Debug("fetched artifact", "url", redactURL(rawURL), "path", final, "bytes", n)
	return &FetchResult{Path: final, SHA256: got, Size: n}, nil
}

// fileNameFromURL returns the last path element of rawURL.
func fileNameFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing artifact URL %s: %w", redactURL(rawURL), err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("artifact URL %s has no file name", redactURL(rawURL))
	}
	return name, nil
}

func newProgressBar(w io.Writer, name string, size int64) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("downloading "+name),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}
