// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/omtap/omtap/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `omtap config` command tree.
func newConfigCommand(app *App, flags *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage omtap configuration",
		Long: `Manage omtap configuration.

Configuration is stored in:
  - Linux: $XDG_CONFIG_HOME/omtap/config.cue (default ~/.config/omtap/config.cue)
  - macOS: ~/Library/Application Support/omtap/config.cue

Every key can also be set through an OMTAP_* environment variable, for
example OMTAP_BIN_DIR or OMTAP_INSTALL_SMOKE_TEST.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.showConfig(cmd.OutOrStdout(), flags.configPath); err != nil {
				return app.fail(cmd, err)
			}
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.initConfig(cmd.OutOrStdout()); err != nil {
				return app.fail(cmd, err)
			}
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.configFilePath()
			if err != nil {
				return app.fail(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config directory: %s\n", filepath.Dir(path))
			fmt.Fprintf(cmd.OutOrStdout(), "Config file: %s\n", path)
			return nil
		},
	})

	return cfgCmd
}

// configFilePath returns config.cue inside the injected or platform config
// directory.
func (a *App) configFilePath() (string, error) {
	if a.configDir != "" {
		return filepath.Join(a.configDir, config.ConfigFileName+"."+config.ConfigFileExt), nil
	}
	return config.ConfigFilePath()
}

func (a *App) showConfig(w io.Writer, explicitPath string) error {
	cfg := a.settings.cfg

	source := explicitPath
	if source == "" {
		path, err := a.configFilePath()
		if err != nil {
			return err
		}
		if _, statErr := os.Stat(path); statErr == nil {
			source = path
		}
	}

	fmt.Fprintln(w, a.render(TitleStyle, "Current Configuration"))
	fmt.Fprintln(w)
	if source != "" {
		fmt.Fprintf(w, "%s: %s\n", a.render(CmdStyle, "Config file"), source)
	} else {
		fmt.Fprintf(w, "%s: %s\n", a.render(CmdStyle, "Config file"), a.render(SubtitleStyle, "(using defaults)"))
	}
	fmt.Fprintln(w)

	value := func(key string, v any) {
		fmt.Fprintf(w, "%s: %s\n", a.render(CmdStyle, key), a.render(SuccessStyle, fmt.Sprint(v)))
	}
	catalogDir := string(cfg.Catalog.Dir)
	if catalogDir == "" {
		catalogDir = "(embedded only)"
	}

	value("bin_dir", cfg.BinDir)
	value("cache_dir", cfg.CacheDir)
	value("state_dir", cfg.StateDir)
	value("catalog.dir", catalogDir)
	value("http.user_agent", cfg.HTTP.UserAgent)
	value("http.timeout", cfg.HTTP.Timeout)
	value("install.smoke_test", cfg.Install.SmokeTest)
	value("install.progress", cfg.Install.Progress)
	value("ui.color_scheme", cfg.UI.ColorScheme)
	value("ui.verbose", cfg.UI.Verbose)
	return nil
}

func (a *App) initConfig(w io.Writer) error {
	path, created, err := config.CreateDefaultConfig(a.configDir)
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	if !created {
		fmt.Fprintf(w, "%s Configuration already exists at %s\n", a.render(WarningStyle, "!"), path)
		return nil
	}
	fmt.Fprintf(w, "%s Created default configuration at %s\n", a.render(SuccessStyle, iconSuccess), path)
	return nil
}
