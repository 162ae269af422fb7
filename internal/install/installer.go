// SPDX-License-Identifier: MPL-2.0

package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/omtap/omtap/internal/artifact"
	"github.com/omtap/omtap/internal/receipt"
	"github.com/omtap/omtap/pkg/manifest"
	"github.com/omtap/omtap/pkg/platform"

	"github.com/charmbracelet/log"
)

//nolint:gochecknoglobals // Test seam for receipt timestamps.
var now = time.Now

type (
	// ReceiptWriter persists a record of a completed install.
	ReceiptWriter interface {
		Write(r receipt.Receipt) error
	}

	// Installer runs the install flow for one manifest at a time.
	Installer struct {
		client       *artifact.Client
		cacheDir     string
		binDir       string
		logger       *log.Logger
		receipts     ReceiptWriter
		smokeTest    bool
		smokeTimeout time.Duration
		platform     *platform.Platform
	}

	// Option configures an Installer during construction.
	Option func(*Installer)

	// Result describes a completed install.
	Result struct {
		Manifest   *manifest.Manifest
		Variant    manifest.Variant
		Platform   platform.Platform
		BinaryPath string
		// Unchanged is true when the bin directory already held this binary.
		Unchanged bool
		// Reused is true when the verified artifact came from the cache.
		Reused      bool
		SmokeOutput string
	}
)

// WithClient sets the artifact client.
func WithClient(c *artifact.Client) Option {
	return func(i *Installer) {
		i.client = c
	}
}

// WithCacheDir sets where artifacts are downloaded, one subdirectory per version.
func WithCacheDir(dir string) Option {
	return func(i *Installer) {
		i.cacheDir = dir
	}
}

// WithBinDir sets the directory the executable is installed into.
func WithBinDir(dir string) Option {
	return func(i *Installer) {
		i.binDir = dir
	}
}

// WithLogger sets the logger for fetch, extract and copy progress. The
// default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(i *Installer) {
		i.logger = l
	}
}

// WithReceipts records every successful copy.
func WithReceipts(w ReceiptWriter) Option {
	return func(i *Installer) {
		i.receipts = w
	}
}

// WithSmokeTest toggles running the manifest's test step after the copy.
func WithSmokeTest(enabled bool) Option {
	return func(i *Installer) {
		i.smokeTest = enabled
	}
}

// WithSmokeTimeout bounds the smoke test.
func WithSmokeTimeout(d time.Duration) Option {
	return func(i *Installer) {
		i.smokeTimeout = d
	}
}

// WithPlatform installs for p instead of the host platform.
func WithPlatform(p platform.Platform) Option {
	return func(i *Installer) {
		i.platform = &p
	}
}

// NewInstaller creates an Installer. binDir and cacheDir are required.
// Smoke tests are on by default.
func NewInstaller(opts ...Option) (*Installer, error) {
	i := &Installer{
		smokeTest:    true,
		smokeTimeout: DefaultSmokeTimeout,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.binDir == "" {
		return nil, errors.New("install: bin directory is required")
	}
	if i.cacheDir == "" {
		return nil, errors.New("install: cache directory is required")
	}
	if i.client == nil {
		i.client = artifact.NewClient()
	}
	if i.logger == nil {
		i.logger = log.New(io.Discard)
	}
	return i, nil
}

// Platform returns the platform the installer resolves against.
func (i *Installer) Platform() (platform.Platform, error) {
	if i.platform != nil {
		return *i.platform, nil
	}
	return platform.Host()
}

// Install resolves m for the target platform, downloads and verifies the
// artifact, extracts the binary and copies it into the bin directory.
//
// Any resolve, download or checksum failure aborts before the bin directory
// is touched. A failing smoke test returns the Result together with a
// *SmokeTestError; the binary stays installed.
func (i *Installer) Install(ctx context.Context, m *manifest.Manifest) (*Result, error) {
	if m == nil {
		return nil, errors.New("install: manifest must not be nil")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	p, err := i.Platform()
	if err != nil {
		return nil, err
	}

	variant, err := m.Resolve(p)
	if err != nil {
		return nil, err
	}
	i.logger.Debug("resolved variant", "manifest", m.String(), "platform", p.String(), "variant", variant.Platform().String())

	versionDir := filepath.Join(i.cacheDir, m.Name, m.Version)
	fetched, err := i.client.Fetch(ctx, variant.URL, variant.SHA256, versionDir)
	if err != nil {
		return nil, err
	}
	i.logger.Debug("artifact verified", "path", fetched.Path, "sha256", fetched.SHA256.Short(), "reused", fetched.Reused)

	extracted, err := artifact.ExtractBinary(fetched.Path, m.Install.Binary, versionDir)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", m.Install.Binary, err)
	}
	defer func() { _ = os.Remove(extracted) }()

	dest, unchanged, err := CopyBinary(extracted, i.binDir, m.Install.Binary)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Manifest:   m.Clone(),
		Variant:    variant,
		Platform:   p,
		BinaryPath: dest,
		Unchanged:  unchanged,
		Reused:     fetched.Reused,
	}

	if i.receipts != nil {
		r := receipt.Receipt{
			Name:        m.Name,
			Version:     m.Version,
			Platform:    p.String(),
			URL:         variant.URL,
			SHA256:      variant.SHA256.String(),
			BinaryPath:  dest,
			InstalledAt: now().UTC(),
		}
		if err := i.receipts.Write(r); err != nil {
			return res, fmt.Errorf("recording install: %w", err)
		}
	}

	if i.smokeTest {
		out, err := RunSmokeTest(ctx, dest, m.TestArgs(), i.smokeTimeout)
		res.SmokeOutput = out
		if err != nil {
			return res, err
		}
		i.logger.Debug("smoke test passed", "binary", dest)
	}

	i.logger.Info("installed", "name", m.Name, "version", m.Version, "path", dest, "unchanged", unchanged)
	return res, nil
}
