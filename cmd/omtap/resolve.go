// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/omtap/omtap/internal/catalog"
	"github.com/omtap/omtap/pkg/manifest"
	"github.com/omtap/omtap/pkg/platform"

	"github.com/spf13/cobra"
)

type (
	// releaseFlags select a release from the catalog.
	releaseFlags struct {
		match string
	}

	// platformFlags override the host platform.
	platformFlags struct {
		os   string
		arch string
	}

	// resolveParams bundles the inputs of the resolve command so that
	// runResolve can be tested without Cobra.
	resolveParams struct {
		stdout   io.Writer
		stderr   io.Writer
		catalog  *catalog.Catalog
		selector catalog.Selector
		os       string
		arch     string
	}
)

func (f *releaseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.match, "match", "", "select the newest version matching this regular expression")
}

// selector builds a catalog selector from an optional version argument.
func (f *releaseFlags) selector(args []string) catalog.Selector {
	s := catalog.Selector{Pattern: f.match}
	if len(args) > 0 {
		s.Exact = args[0]
	}
	return s
}

func (f *platformFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.os, "os", "", "target operating system (darwin, linux; default: host)")
	cmd.Flags().StringVar(&f.arch, "arch", "", "target CPU architecture (amd64, arm64; default: host)")
}

// targetPlatform parses the --os/--arch values, filling unset ones from
// the host.
func targetPlatform(osName, arch string) (platform.Platform, error) {
	if osName == "" || arch == "" {
		host, err := platform.Host()
		if err != nil {
			return platform.Platform{}, err
		}
		if osName == "" {
			osName = host.OS.String()
		}
		if arch == "" {
			arch = host.Arch.String()
		}
	}
	return platform.Parse(osName, arch)
}

func newResolveCommand(app *App) *cobra.Command {
	var (
		release releaseFlags
		target  platformFlags
	)

	cmd := &cobra.Command{
		Use:   "resolve [version]",
		Short: "Print the artifact URL and checksum for a platform",
		Long: `Print the artifact URL and SHA-256 checksum a release publishes for a
platform. The host platform is used unless --os or --arch is given.

Resolution tries the exact (OS, Arch) pair first, then the OS with any
architecture, then any OS with the architecture, then the unconditional
artifact.`,
		Example: `  # Latest release for this machine
  omtap resolve

  # ARM Linux on a release that predates ARM builds
  omtap resolve 7.2.0 --os linux --arch arm64`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := app.loadCatalog()
			if err != nil {
				return app.fail(cmd, err)
			}
			p := resolveParams{
				stdout:   cmd.OutOrStdout(),
				stderr:   cmd.ErrOrStderr(),
				catalog:  cat,
				selector: release.selector(args),
				os:       target.os,
				arch:     target.arch,
			}
			if err := app.runResolve(p); err != nil {
				return app.fail(cmd, err)
			}
			return nil
		},
	}

	release.register(cmd)
	target.register(cmd)

	return cmd
}

// runResolve prints the variant selected for the target platform. When the
// release has no matching variant, the platforms it does cover are listed
// on stderr before the error is returned.
func (a *App) runResolve(p resolveParams) error {
	m, err := p.catalog.Select(p.selector)
	if err != nil {
		return err
	}

	target, err := targetPlatform(p.os, p.arch)
	if err != nil {
		return fmt.Errorf("%w: %w", manifest.ErrUnsupportedPlatform, err)
	}

	v, err := m.Resolve(target)
	if err != nil {
		var upe *manifest.UnsupportedPlatformError
		if errors.As(err, &upe) {
			labels := make([]string, 0, len(upe.Available))
			for _, avail := range upe.Available {
				labels = append(labels, avail.String())
			}
			fmt.Fprintf(p.stderr, "%s %s publishes: %s\n",
				a.render(WarningStyle, "!"), m, strings.Join(labels, ", "))
		}
		return err
	}

	fmt.Fprintf(p.stdout, "%s %s\n", a.render(TitleStyle, m.String()), a.render(SubtitleStyle, "("+target.String()+")"))
	if v.Platform() != target {
		fmt.Fprintf(p.stdout, "variant: %s\n", v.Platform())
	}
	fmt.Fprintf(p.stdout, "url:     %s\n", a.render(CmdStyle, v.URL))
	fmt.Fprintf(p.stdout, "sha256:  %s\n", v.SHA256.Normalize())
	return nil
}
