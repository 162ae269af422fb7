// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/omtap/omtap/internal/catalog"
	"github.com/omtap/omtap/internal/install"
	"github.com/omtap/omtap/internal/issue"
	"github.com/omtap/omtap/pkg/types"

	"github.com/spf13/cobra"
)

// errHomebrewManaged is returned when the bin directory belongs to Homebrew
// and --force was not given.
var errHomebrewManaged = errors.New("bin directory is managed by Homebrew")

// installParams bundles the inputs of the install command so that
// runInstall can be tested without Cobra.
type installParams struct {
	stdout    io.Writer
	stderr    io.Writer
	catalog   *catalog.Catalog
	selector  catalog.Selector
	binDir    string
	cacheDir  string
	smokeTest bool
	progress  bool
	force     bool
}

func newInstallCommand(app *App) *cobra.Command {
	var (
		release  releaseFlags
		binDir   string
		cacheDir string
		skipTest bool
		progress bool
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "install [version]",
		Short: "Download, verify and install an om release",
		Long: `Download, verify and install an om release.

The artifact for this machine is downloaded into the cache directory and
checked against the manifest's SHA-256 checksum. On a mismatch nothing is
installed. The binary is then copied into the bin directory, a receipt is
written and "om --version" is run as a smoke test.

Installing the same release again leaves the binary untouched.`,
		Example: `  omtap install
  omtap install 7.9.0 --bin-dir ~/bin
  omtap install --match '^7\.9\.' --skip-test`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := app.loadCatalog()
			if err != nil {
				return app.fail(cmd, err)
			}

			cfg := app.settings.cfg
			p := installParams{
				stdout:    cmd.OutOrStdout(),
				stderr:    cmd.ErrOrStderr(),
				catalog:   cat,
				selector:  release.selector(args),
				binDir:    string(cfg.BinDir),
				cacheDir:  string(cfg.CacheDir),
				smokeTest: cfg.Install.SmokeTest && !skipTest,
				progress:  cfg.Install.Progress,
				force:     force,
			}
			if err := overridePath(&p.binDir, binDir); err != nil {
				return app.fail(cmd, err)
			}
			if err := overridePath(&p.cacheDir, cacheDir); err != nil {
				return app.fail(cmd, err)
			}
			if cmd.Flags().Changed("progress") {
				p.progress = progress
			}

			if err := app.runInstall(cmd.Context(), p); err != nil {
				return app.fail(cmd, err)
			}
			return nil
		},
	}

	release.register(cmd)
	cmd.Flags().StringVar(&binDir, "bin-dir", "", "directory to install the binary into (default from config)")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "directory for downloaded artifacts (default from config)")
	cmd.Flags().BoolVar(&skipTest, "skip-test", false, "do not run the post-install smoke test")
	cmd.Flags().BoolVar(&progress, "progress", true, "show download progress")
	cmd.Flags().BoolVar(&force, "force", false, "install into a Homebrew-managed bin directory anyway")

	return cmd
}

// overridePath replaces *dst with the tilde-expanded flag value when set.
func overridePath(dst *string, flag string) error {
	if flag == "" {
		return nil
	}
	expanded, err := types.FilesystemPath(flag).Expand()
	if err != nil {
		return err
	}
	*dst = string(expanded)
	return nil
}

// runInstall selects the release and runs the install flow.
func (a *App) runInstall(ctx context.Context, p installParams) error {
	m, err := p.catalog.Select(p.selector)
	if err != nil {
		return err
	}

	if !p.force && install.DetectManaged(p.binDir) == install.ManagerHomebrew {
		return issue.NewErrorContext().
			WithOperation("install " + m.String()).
			WithResource(p.binDir).
			WithSuggestion("Upgrade through Homebrew instead: brew upgrade " + m.Name).
			WithSuggestion("Choose another directory with --bin-dir, or pass --force").
			WithIssue(issue.HomebrewManagedId).
			Wrap(errHomebrewManaged).
			BuildError()
	}

	inst, err := install.NewInstaller(
		install.WithClient(a.newClient(p.progress)),
		install.WithBinDir(p.binDir),
		install.WithCacheDir(p.cacheDir),
		install.WithReceipts(a.receipts()),
		install.WithSmokeTest(p.smokeTest),
		install.WithLogger(a.settings.logger),
	)
	if err != nil {
		return err
	}

	target, err := inst.Platform()
	if err != nil {
		return err
	}
	fmt.Fprintf(p.stdout, "Installing %s %s\n", a.render(TitleStyle, m.String()), a.render(SubtitleStyle, "("+target.String()+")"))

	if p.catalog.PlaceholderDigests(m.Version) && p.stderr != nil {
		fmt.Fprintf(p.stderr, "%s %s: %s\n", a.render(WarningStyle, "!"), m, placeholderNotice)
	}

	res, err := inst.Install(ctx, m)
	if err != nil {
		var smokeErr *install.SmokeTestError
		if errors.As(err, &smokeErr) && res != nil {
			fmt.Fprintf(p.stdout, "%s %s installed at %s, but its smoke test failed\n",
				a.render(WarningStyle, "!"), m, res.BinaryPath)
		}
		return err
	}

	if res.Reused {
		fmt.Fprintf(p.stdout, "  %s\n", a.render(SubtitleStyle, "using verified artifact from cache"))
	}
	if res.SmokeOutput != "" && a.settings.verbose {
		fmt.Fprintf(p.stdout, "  %s\n", strings.TrimSpace(res.SmokeOutput))
	}
	if res.Unchanged {
		fmt.Fprintf(p.stdout, "%s %s is already installed at %s\n", a.render(SuccessStyle, iconSuccess), m, a.render(CmdStyle, res.BinaryPath))
		return nil
	}
	fmt.Fprintf(p.stdout, "%s Installed %s to %s\n", a.render(SuccessStyle, iconSuccess), m, a.render(CmdStyle, res.BinaryPath))
	return nil
}
