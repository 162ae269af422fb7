// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/omtap/omtap/internal/artifact"
	"github.com/omtap/omtap/internal/catalog"
	"github.com/omtap/omtap/internal/config"
	"github.com/omtap/omtap/internal/receipt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

type (
	// App wires CLI services and shared dependencies. Cobra handlers receive
	// an App and never reach for package globals.
	App struct {
		Config     config.Provider
		Catalog    CatalogLoader
		HTTPClient *http.Client
		configDir  string
		stdout     io.Writer
		stderr     io.Writer

		settings settings
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config     config.Provider
		Catalog    CatalogLoader
		HTTPClient *http.Client
		// ConfigDir replaces the platform config directory when set.
		ConfigDir string
		Stdout    io.Writer
		Stderr    io.Writer
	}

	// CatalogLoader builds the release catalog, overlaying the manifests in
	// dir when it is non-empty.
	CatalogLoader func(dir string) (*catalog.Catalog, error)

	// settings holds the per-invocation state resolved by the root command
	// from flags and configuration.
	settings struct {
		cfg     config.Config
		cfgPath string
		verbose bool
		noColor bool
		logger  *log.Logger
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Catalog == nil {
		deps.Catalog = defaultCatalogLoader
	}

	return &App{
		Config:     deps.Config,
		Catalog:    deps.Catalog,
		HTTPClient: deps.HTTPClient,
		configDir:  deps.ConfigDir,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
		settings: settings{
			cfg:    *config.DefaultConfig(),
			logger: log.New(io.Discard),
		},
	}
}

func defaultCatalogLoader(dir string) (*catalog.Catalog, error) {
	return catalog.Load(catalog.WithDir(dir))
}

// loadCatalog builds the catalog using the configured overlay directory.
func (a *App) loadCatalog() (*catalog.Catalog, error) {
	cat, err := a.Catalog(string(a.settings.cfg.Catalog.Dir))
	if err != nil {
		return nil, fmt.Errorf("loading release catalog: %w", err)
	}
	return cat, nil
}

// newClient builds an artifact client from the HTTP configuration. Download
// progress goes to stderr when progress is set.
func (a *App) newClient(progress bool) *artifact.Client {
	httpClient := a.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: a.settings.cfg.HTTP.Timeout}
	}

	opts := []artifact.ClientOption{
		artifact.WithHTTPClient(httpClient),
		artifact.WithUserAgent(a.settings.cfg.HTTP.UserAgent + "/" + Version),
		artifact.WithLogger(a.settings.logger),
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		opts = append(opts, artifact.WithToken(token))
	}
	if progress {
		opts = append(opts, artifact.WithProgress(a.stderr))
	}
	return artifact.NewClient(opts...)
}

func (a *App) receipts() *receipt.Store {
	return receipt.NewStore(string(a.settings.cfg.StateDir))
}

// render applies style unless color output is disabled.
func (a *App) render(style lipgloss.Style, text string) string {
	if a.settings.noColor {
		return text
	}
	return style.Render(text)
}

// glamourStyle maps the color scheme to a glamour style name.
func (a *App) glamourStyle() string {
	if a.settings.noColor {
		return "notty"
	}
	switch a.settings.cfg.UI.ColorScheme {
	case config.ColorSchemeLight:
		return "light"
	default:
		return "dark"
	}
}
