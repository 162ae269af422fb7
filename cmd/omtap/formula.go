// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/omtap/omtap/internal/formula"
	"github.com/omtap/omtap/pkg/manifest"

	"github.com/spf13/cobra"
)

func newFormulaCommand(app *App) *cobra.Command {
	formulaCmd := &cobra.Command{
		Use:   "formula",
		Short: "Convert between manifests and Homebrew formulas",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	formulaCmd.AddCommand(newFormulaRenderCommand(app), newFormulaImportCommand(app))
	return formulaCmd
}

func newFormulaRenderCommand(app *App) *cobra.Command {
	var release releaseFlags

	cmd := &cobra.Command{
		Use:   "render [version]",
		Short: "Print the Homebrew formula for a release",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := app.loadCatalog()
			if err != nil {
				return app.fail(cmd, err)
			}
			m, err := cat.Select(release.selector(args))
			if err != nil {
				return app.fail(cmd, err)
			}
			if err := formula.Render(cmd.OutOrStdout(), m); err != nil {
				return app.fail(cmd, err)
			}
			return nil
		},
	}

	release.register(cmd)
	return cmd
}

func newFormulaImportCommand(app *App) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "import <file.rb>",
		Short: "Convert a Homebrew formula into a release manifest",
		Long: `Convert a Homebrew formula into a release manifest and print it as CUE.

The platform predicate chains (on_macos, OS.linux?, Hardware::CPU.arm?, ...)
become one variant per (OS, Arch) pair. With --dir the manifest is written
to <dir>/<name>-<version>.cue for use as a catalog overlay; an existing
manifest is never overwritten.`,
		Example: `  omtap formula import om.rb
  omtap formula import om.rb --dir ~/.config/omtap/manifests`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.runFormulaImport(cmd.OutOrStdout(), args[0], dir); err != nil {
				return app.fail(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "write the manifest into this catalog directory")
	return cmd
}

func (a *App) runFormulaImport(w io.Writer, path, dir string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }() // read-only file handle

	m, err := formula.Parse(f)
	if err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}
	content := manifest.GenerateCUE(m)

	if dir == "" {
		_, err := io.WriteString(w, content)
		return err
	}

	dest, err := writeNewManifest(dir, m, content)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s Wrote %s to %s\n", a.render(SuccessStyle, iconSuccess), m, a.render(CmdStyle, dest))
	return nil
}

// writeNewManifest creates dir/<name>-<version>.cue. Published manifests are
// immutable, so an existing file is an error.
func writeNewManifest(dir string, m *manifest.Manifest, content string) (_ string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	dest := filepath.Join(dir, m.Name+"-"+m.Version+".cue")

	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return "", fmt.Errorf("%s already exists; manifests are never rewritten", dest)
	}
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err := io.WriteString(f, content); err != nil {
		return "", err
	}
	return dest, nil
}
