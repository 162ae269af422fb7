// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/omtap/omtap/internal/config"
	"github.com/omtap/omtap/pkg/types"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlags are the persistent flags shared by every subcommand.
type rootFlags struct {
	verbose    bool
	configPath string
	noColor    bool
}

// NewRootCommand builds the omtap command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "omtap",
		Short: "Install prebuilt om releases from verified manifests",
		Long: TitleStyle.Render("omtap") + SubtitleStyle.Render(" - Install prebuilt om releases from verified manifests") + `

omtap keeps one immutable manifest per om release. Each manifest maps an
(OS, Arch) pair to a download URL and its SHA-256 checksum. Installing
resolves the variant for this machine, downloads and verifies the artifact,
copies the binary into your bin directory and runs "om --version".

` + SubtitleStyle.Render("Examples:") + `
  omtap list                          List releases and the platforms they cover
  omtap resolve 7.2.0 --os linux      Show the artifact for a platform
  omtap install                       Install the latest release
  omtap verify om.tar.gz --version 7.14.0
  omtap formula render 7.14.0         Print the Homebrew formula`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.configure(cmd.Context(), flags)
		},
	}

	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is the platform config directory's config.cue)")
	root.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newResolveCommand(app),
		newVerifyCommand(app),
		newInstallCommand(app),
		newListCommand(app),
		newShowCommand(app),
		newInstalledCommand(app),
		newFormulaCommand(app),
		newConfigCommand(app, flags),
	)

	root.SetOut(app.stdout)
	root.SetErr(app.stderr)

	return root
}

// configure loads configuration and applies the persistent flags on top of
// it. A configuration that fails to load is reported and defaults are used.
func (a *App) configure(ctx context.Context, flags *rootFlags) error {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath, ConfigDirPath: a.configDir})
	if err != nil {
		fmt.Fprintln(a.stderr, a.render(WarningStyle, "Warning: ")+formatErrorForDisplay(err, flags.verbose))
		cfg = config.DefaultConfig()
	}

	expanded, err := cfg.Expanded()
	if err != nil {
		return err
	}

	s := settings{
		cfg:     expanded,
		cfgPath: flags.configPath,
		verbose: flags.verbose || expanded.UI.Verbose,
		noColor: flags.noColor || expanded.UI.ColorScheme == config.ColorSchemeNone || os.Getenv("NO_COLOR") != "",
	}

	level := log.InfoLevel
	if s.verbose {
		level = log.DebugLevel
	}
	s.logger = log.NewWithOptions(a.stderr, log.Options{Prefix: config.AppName, Level: level})

	a.settings = s
	return nil
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the code carried by an *ExitError.
// It is called by main.main().
func Execute() {
	os.Exit(int(execute()))
}

func execute() types.ExitCode {
	app := NewApp(Dependencies{})
	root := NewRootCommand(app)

	// fang overrides root.Version, so the version is passed explicitly.
	err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	if err == nil {
		return types.ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && !exitErr.Code.IsSuccess() {
		return exitErr.Code
	}
	return types.ExitUserError
}
