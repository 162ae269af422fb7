// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/omtap/omtap/internal/testutil"
	"github.com/omtap/omtap/pkg/manifest"
	"github.com/omtap/omtap/pkg/types"
)

func TestFormulaCommands(t *testing.T) {
	t.Parallel()

	rendered := runCLI(t, Dependencies{}, "formula", "render", "7.14.0")
	if rendered.err != nil {
		t.Fatalf("formula render returned error: %v", rendered.err)
	}
	if !strings.Contains(rendered.stdout, "class Om < Formula") || !strings.Contains(rendered.stdout, "on_linux do") {
		t.Fatalf("unexpected formula:\n%s", rendered.stdout)
	}

	dir := t.TempDir()
	rb := testutil.MustWriteFile(t, filepath.Join(dir, "om.rb"), []byte(rendered.stdout), 0o644)

	imported := runCLI(t, Dependencies{}, "formula", "import", rb)
	if imported.err != nil {
		t.Fatalf("formula import returned error: %v\n%s", imported.err, imported.stderr)
	}
	m, err := manifest.Parse([]byte(imported.stdout), "om.cue")
	if err != nil {
		t.Fatalf("imported CUE does not parse: %v\n%s", err, imported.stdout)
	}
	if m.Version != "7.14.0" || len(m.Variants) != 4 {
		t.Errorf("imported %+v", m)
	}

	overlay := filepath.Join(dir, "manifests")
	res := runCLI(t, Dependencies{}, "formula", "import", rb, "--dir", overlay)
	if res.err != nil {
		t.Fatalf("formula import --dir returned error: %v", res.err)
	}
	if _, err := os.Stat(filepath.Join(overlay, "om-7.14.0.cue")); err != nil {
		t.Fatalf("manifest not written: %v", err)
	}

	res = runCLI(t, Dependencies{}, "formula", "import", rb, "--dir", overlay)
	if res.err == nil || !strings.Contains(res.stderr, "never rewritten") {
		t.Errorf("existing manifest must not be overwritten (err: %v)\n%s", res.err, res.stderr)
	}
}

func TestFormulaImport_Invalid(t *testing.T) {
	t.Parallel()

	rb := testutil.MustWriteFile(t, filepath.Join(t.TempDir(), "broken.rb"), []byte("class Om < Formula\n  url \"https://x\"\n"), 0o644)

	res := runCLI(t, Dependencies{}, "formula", "import", rb)
	if got := exitCode(res.err); got != types.ExitUserError {
		t.Errorf("exit code = %d, want %d (err: %v)", got, types.ExitUserError, res.err)
	}
}
