// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/omtap/omtap/internal/catalog"
	"github.com/omtap/omtap/internal/receipt"
	"github.com/omtap/omtap/pkg/platform"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

const columnGap = 2

// placeholderNotice explains why an embedded release fails verification.
const placeholderNotice = "built-in releases carry placeholder sha256 digests; add real manifests with " +
	"\"omtap formula import --dir\" and catalog.dir"

func newListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List releases and the platforms each one covers",
		Long: `List every release in the catalog, newest first, with one column per
platform. A mark means "omtap install" can resolve an artifact for that
platform, either a dedicated build or an unconditional one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := app.loadCatalog()
			if err != nil {
				return app.fail(cmd, err)
			}

			installed := ""
			r, err := app.receipts().Read(cat.Name())
			switch {
			case err == nil:
				installed = r.Version
			case !errors.Is(err, receipt.ErrNoReceipt):
				app.settings.logger.Debug("reading install receipt", "error", err)
			}

			app.renderCatalogTable(cmd.OutOrStdout(), cat, installed)
			return nil
		},
	}
}

// concretePlatforms returns every (OS, Arch) pair without wildcards.
func concretePlatforms() []platform.Platform {
	var out []platform.Platform
	for _, o := range platform.OSValues() {
		for _, a := range platform.ArchValues() {
			if p := platform.New(o, a); p.IsConcrete() {
				out = append(out, p)
			}
		}
	}
	return out
}

// renderCatalogTable writes one row per release. The installed version is
// marked with "*".
func (a *App) renderCatalogTable(w io.Writer, cat *catalog.Catalog, installed string) {
	platforms := concretePlatforms()

	header := []string{"VERSION"}
	for _, p := range platforms {
		header = append(header, p.String())
	}
	header = append(header, "SOURCE")

	rows := [][]string{}
	placeholders := false
	for _, m := range cat.All() {
		version := m.Version
		if version == installed {
			version += " *"
		}
		if cat.PlaceholderDigests(m.Version) {
			placeholders = true
		}
		row := []string{version}
		for _, p := range platforms {
			if m.Supports(p) {
				row = append(row, iconSuccess)
			} else {
				row = append(row, iconMissing)
			}
		}
		rows = append(rows, append(row, cat.Source(m.Version)))
	}

	widths := make([]int, len(header))
	for _, row := range append([][]string{header}, rows...) {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	fmt.Fprintln(w, a.tableLine(header, widths, func(int, string) lipgloss.Style { return headerCellStyle }))
	for _, row := range rows {
		fmt.Fprintln(w, a.tableLine(row, widths, func(_ int, cell string) lipgloss.Style {
			switch cell {
			case iconSuccess:
				return SuccessStyle
			case iconMissing:
				return SubtitleStyle
			}
			return lipgloss.NewStyle()
		}))
	}
	if installed != "" || placeholders {
		fmt.Fprintln(w)
	}
	if installed != "" {
		fmt.Fprintln(w, a.render(SubtitleStyle, "* installed"))
	}
	if placeholders {
		fmt.Fprintln(w, a.render(WarningStyle, placeholderNotice))
	}
}

// tableLine pads each cell to its column width and styles it; padding is
// applied before styling so escape codes do not skew alignment.
func (a *App) tableLine(cells []string, widths []int, style func(col int, cell string) lipgloss.Style) string {
	var sb strings.Builder
	for i, cell := range cells {
		padded := cell
		if i < len(cells)-1 {
			padded += strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+columnGap)
		}
		sb.WriteString(a.render(style(i, cell), padded))
	}
	return strings.TrimRight(sb.String(), " ")
}
