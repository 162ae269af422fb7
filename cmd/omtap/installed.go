// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newInstalledCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "installed",
		Short: "List install receipts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := app.receipts()
			receipts, err := store.List()
			if err != nil {
				return app.fail(cmd, err)
			}

			w := cmd.OutOrStdout()
			if len(receipts) == 0 {
				fmt.Fprintf(w, "Nothing installed yet %s\n", app.render(SubtitleStyle, "(receipts: "+store.Dir+")"))
				return nil
			}
			for _, r := range receipts {
				fmt.Fprintf(w, "%s %s %s\n",
					app.render(TitleStyle, r.Name), r.Version, app.render(SubtitleStyle, "("+r.Platform+")"))
				fmt.Fprintf(w, "  path:      %s\n", app.render(CmdStyle, r.BinaryPath))
				fmt.Fprintf(w, "  sha256:    %s\n", r.SHA256)
				fmt.Fprintf(w, "  installed: %s\n", r.InstalledAt.Local().Format(time.RFC3339))
			}
			return nil
		},
	}
}
