// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/omtap/omtap/internal/catalog"
	"github.com/omtap/omtap/internal/config"
	"github.com/omtap/omtap/internal/testutil"
	"github.com/omtap/omtap/pkg/manifest"
	"github.com/omtap/omtap/pkg/platform"
	"github.com/omtap/omtap/pkg/types"
)

type (
	// staticProvider returns a fixed configuration.
	staticProvider struct {
		cfg *config.Config
	}

	cliResult struct {
		stdout string
		stderr string
		err    error
	}

	// testRelease serves one om tarball over TLS.
	testRelease struct {
		srv      *httptest.Server
		hits     *atomic.Int32
		manifest *manifest.Manifest
	}
)

func (s staticProvider) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	c := *s.cfg
	return &c, nil
}

// testConfig points every directory into a fresh temp dir.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.BinDir = types.FilesystemPath(filepath.Join(root, "bin"))
	cfg.CacheDir = types.FilesystemPath(filepath.Join(root, "cache"))
	cfg.StateDir = types.FilesystemPath(filepath.Join(root, "state"))
	cfg.Install.Progress = false
	return cfg
}

// runCLI executes the command tree with --no-color prepended. Nil fields
// of deps get test defaults: a static temp-dir config and a temp config dir.
func runCLI(t *testing.T, deps Dependencies, args ...string) cliResult {
	t.Helper()

	var stdout, stderr bytes.Buffer
	deps.Stdout = &stdout
	deps.Stderr = &stderr
	if deps.Config == nil {
		deps.Config = staticProvider{cfg: testConfig(t)}
	}
	if deps.ConfigDir == "" {
		deps.ConfigDir = t.TempDir()
	}

	root := NewRootCommand(NewApp(deps))
	root.SetArgs(append([]string{"--no-color"}, args...))
	err := root.ExecuteContext(context.Background())

	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func exitCode(err error) types.ExitCode {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if err != nil {
		return -1
	}
	return types.ExitSuccess
}

func catalogOf(ms ...*manifest.Manifest) CatalogLoader {
	return func(string) (*catalog.Catalog, error) {
		return catalog.New(catalog.DefaultName, ms...)
	}
}

// newTestRelease serves a tarball holding script as "om" and describes it
// with an unconditional variant so that it resolves on any host.
func newTestRelease(t *testing.T, version, script string) *testRelease {
	t.Helper()

	body := testutil.TarGz(t, testutil.File{Name: "om", Data: []byte(script)})
	var hits atomic.Int32
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	return &testRelease{
		srv:  srv,
		hits: &hits,
		manifest: &manifest.Manifest{
			Name:     "om",
			Desc:     "Tool for interacting with Ops Manager",
			Homepage: "https://github.com/pivotal-cf/om",
			Version:  version,
			Variants: []manifest.Variant{{
				OS:     platform.OSAny,
				Arch:   platform.ArchAny,
				URL:    srv.URL + "/" + version + "/om-" + version + ".tar.gz",
				SHA256: manifest.Sum(body),
			}},
			Install: manifest.InstallStep{Binary: "om"},
			Test:    manifest.TestStep{Args: []string{"--version"}},
		},
	}
}
