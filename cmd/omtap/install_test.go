// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/omtap/omtap/pkg/manifest"
	"github.com/omtap/omtap/pkg/types"
)

const omScript = "#!/bin/sh\necho \"om version 9.0.0\"\n"

func TestInstallCommand(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("the smoke test runs a shell script")
	}

	rel := newTestRelease(t, "9.0.0", omScript)
	cfg := testConfig(t)
	deps := Dependencies{
		Config:     staticProvider{cfg: cfg},
		Catalog:    catalogOf(rel.manifest),
		HTTPClient: rel.srv.Client(),
	}

	res := runCLI(t, deps, "install")
	if res.err != nil {
		t.Fatalf("install returned error: %v\nstderr: %s", res.err, res.stderr)
	}
	binary := filepath.Join(string(cfg.BinDir), "om")
	if !strings.Contains(res.stdout, "Installed om 9.0.0 to "+binary) {
		t.Errorf("stdout:\n%s", res.stdout)
	}
	if _, err := os.Stat(binary); err != nil {
		t.Fatalf("binary not installed: %v", err)
	}

	res = runCLI(t, deps, "install", "9.0.0")
	if res.err != nil {
		t.Fatalf("second install returned error: %v", res.err)
	}
	if !strings.Contains(res.stdout, "already installed") || !strings.Contains(res.stdout, "using verified artifact from cache") {
		t.Errorf("second install should be a no-op:\n%s", res.stdout)
	}
	if rel.hits.Load() != 1 {
		t.Errorf("artifact downloaded %d times, want 1", rel.hits.Load())
	}

	res = runCLI(t, deps, "installed")
	if res.err != nil {
		t.Fatal(res.err)
	}
	if !strings.Contains(res.stdout, "om 9.0.0") || !strings.Contains(res.stdout, binary) {
		t.Errorf("installed output:\n%s", res.stdout)
	}

	res = runCLI(t, deps, "list")
	if res.err != nil {
		t.Fatal(res.err)
	}
	if !strings.Contains(res.stdout, "9.0.0 *") {
		t.Errorf("list should mark the installed version:\n%s", res.stdout)
	}
}

func TestInstallCommand_ChecksumMismatch(t *testing.T) {
	t.Parallel()

	rel := newTestRelease(t, "9.0.0", omScript)
	rel.manifest.Variants[0].SHA256 = manifest.Sum([]byte("published before the artifact changed"))
	cfg := testConfig(t)
	deps := Dependencies{
		Config:     staticProvider{cfg: cfg},
		Catalog:    catalogOf(rel.manifest),
		HTTPClient: rel.srv.Client(),
	}

	res := runCLI(t, deps, "install")
	if got := exitCode(res.err); got != types.ExitUserError {
		t.Fatalf("exit code = %d, want %d (err: %v)", got, types.ExitUserError, res.err)
	}
	if !strings.Contains(res.stderr, "Checksum mismatch") {
		t.Errorf("stderr should carry the checksum guide:\n%s", res.stderr)
	}
	if _, err := os.Stat(filepath.Join(string(cfg.BinDir), "om")); !os.IsNotExist(err) {
		t.Error("nothing may be installed after a mismatch")
	}
	if res := runCLI(t, deps, "installed"); !strings.Contains(res.stdout, "Nothing installed") {
		t.Errorf("no receipt should be written:\n%s", res.stdout)
	}
}

func TestInstallCommand_NetworkFailures(t *testing.T) {
	t.Parallel()

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		rel := newTestRelease(t, "9.0.0", omScript)
		notFound := httptest.NewTLSServer(http.NotFoundHandler())
		t.Cleanup(notFound.Close)
		rel.manifest.Variants[0].URL = notFound.URL + "/9.0.0/om-9.0.0.tar.gz"

		deps := Dependencies{Catalog: catalogOf(rel.manifest), HTTPClient: notFound.Client()}
		res := runCLI(t, deps, "install", "--skip-test")
		if got := exitCode(res.err); got != types.ExitFailure {
			t.Errorf("exit code = %d, want %d (err: %v)", got, types.ExitFailure, res.err)
		}
		if !strings.Contains(res.stderr, "404") {
			t.Errorf("stderr should report the status:\n%s", res.stderr)
		}
	})

	t.Run("connection refused", func(t *testing.T) {
		t.Parallel()

		rel := newTestRelease(t, "9.0.0", omScript)
		client := rel.srv.Client()
		rel.srv.Close()

		deps := Dependencies{Catalog: catalogOf(rel.manifest), HTTPClient: client}
		res := runCLI(t, deps, "install", "--skip-test")
		if got := exitCode(res.err); got != types.ExitFailure {
			t.Errorf("exit code = %d, want %d (err: %v)", got, types.ExitFailure, res.err)
		}
	})
}

func TestInstallCommand_HomebrewManaged(t *testing.T) {
	t.Parallel()

	rel := newTestRelease(t, "9.0.0", omScript)
	deps := Dependencies{Catalog: catalogOf(rel.manifest), HTTPClient: rel.srv.Client()}

	res := runCLI(t, deps, "install", "--bin-dir", "/opt/homebrew/bin")
	if got := exitCode(res.err); got != types.ExitUserError {
		t.Fatalf("exit code = %d, want %d (err: %v)", got, types.ExitUserError, res.err)
	}
	if !strings.Contains(res.stderr, "brew upgrade om") {
		t.Errorf("stderr should suggest Homebrew:\n%s", res.stderr)
	}
	if rel.hits.Load() != 0 {
		t.Error("no download should happen for a Homebrew-managed directory")
	}
}

func TestInstallCommand_SmokeTestFailure(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("the smoke test runs a shell script")
	}

	rel := newTestRelease(t, "9.0.0", "#!/bin/sh\nexit 1\n")
	deps := Dependencies{Catalog: catalogOf(rel.manifest), HTTPClient: rel.srv.Client()}

	res := runCLI(t, deps, "install")
	if got := exitCode(res.err); got != types.ExitFailure {
		t.Fatalf("exit code = %d, want %d (err: %v)", got, types.ExitFailure, res.err)
	}
	if !strings.Contains(res.stdout, "but its smoke test failed") {
		t.Errorf("stdout:\n%s", res.stdout)
	}

	res = runCLI(t, deps, "install", "--skip-test")
	if res.err != nil {
		t.Errorf("--skip-test install returned error: %v", res.err)
	}
}
