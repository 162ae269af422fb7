// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/omtap/omtap/internal/catalog"
	"github.com/omtap/omtap/pkg/manifest"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by show.
const (
	outputText = "text"
	outputCUE  = "cue"
	outputJSON = "json"
	outputYAML = "yaml"
)

// errInvalidOutput is returned for an unknown --output value.
var errInvalidOutput = fmt.Errorf("invalid output format (expected one of: %s)",
	strings.Join([]string{outputText, outputCUE, outputJSON, outputYAML}, ", "))

func newShowCommand(app *App) *cobra.Command {
	var (
		release releaseFlags
		output  string
	)

	cmd := &cobra.Command{
		Use:   "show [version]",
		Short: "Print a release manifest",
		Example: `  omtap show 7.14.0
  omtap show 7.2.0 --output cue
  omtap show --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := app.loadCatalog()
			if err != nil {
				return app.fail(cmd, err)
			}
			m, err := cat.Select(release.selector(args))
			if err != nil {
				return app.fail(cmd, err)
			}
			if err := app.writeManifest(cmd.OutOrStdout(), cat, m, output); err != nil {
				return app.fail(cmd, err)
			}
			return nil
		},
	}

	release.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format: text, cue, json or yaml")

	return cmd
}

func (a *App) writeManifest(w io.Writer, cat *catalog.Catalog, m *manifest.Manifest, format string) error {
	switch format {
	case outputCUE:
		_, err := io.WriteString(w, manifest.GenerateCUE(m))
		return err

	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)

	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()

	case outputText, "":
		a.writeManifestText(w, cat, m)
		return nil
	}
	return fmt.Errorf("%w: %q", errInvalidOutput, format)
}

func (a *App) writeManifestText(w io.Writer, cat *catalog.Catalog, m *manifest.Manifest) {
	fmt.Fprintln(w, a.render(TitleStyle, m.String()))
	fmt.Fprintln(w, a.render(SubtitleStyle, m.Desc))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "homepage: %s\n", a.render(CmdStyle, m.Homepage))
	if m.License != "" {
		fmt.Fprintf(w, "license:  %s\n", m.License)
	}
	if src := cat.Source(m.Version); src != "" {
		fmt.Fprintf(w, "source:   %s\n", src)
	}
	if cat.PlaceholderDigests(m.Version) {
		fmt.Fprintf(w, "%s %s\n", a.render(WarningStyle, "!"), placeholderNotice)
	}
	if next, err := cat.Supersedes(m.Version); err == nil && next != "" {
		fmt.Fprintf(w, "superseded by: %s\n", a.render(WarningStyle, next))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, a.render(TitleStyle, "Variants"))
	for _, p := range m.Platforms() {
		v := m.Table()[p]
		fmt.Fprintf(w, "  %-13s %s\n", p, a.render(CmdStyle, v.URL))
		fmt.Fprintf(w, "  %-13s sha256 %s\n", "", v.SHA256.Normalize())
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "install: bin/%s\n", m.Install.Binary)
	fmt.Fprintf(w, "test:    %s %s\n", m.Install.Binary, strings.Join(m.TestArgs(), " "))
}
