// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/omtap/omtap/internal/issue"
	"github.com/omtap/omtap/pkg/cueutil"
	"github.com/omtap/omtap/pkg/platform"
	"github.com/omtap/omtap/pkg/types"

	"cuelang.org/go/cue"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "omtap"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. OMTAP_BIN_DIR.
	EnvPrefix = "OMTAP"
)

//go:embed config_schema.cue
var configSchema []byte

// ConfigDir returns the omtap configuration directory: ~/Library/Application
// Support on macOS and $XDG_CONFIG_HOME (defaulting to ~/.config) elsewhere.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string
	switch runtime.GOOS {
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// ConfigFilePath returns the default config.cue location.
func ConfigFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// LoadWithPath loads configuration and reports which file was used. Missing
// files fall back to defaults; only an explicit ConfigFilePath must exist.
func LoadWithPath(ctx context.Context, opts LoadOptions) (*Loaded, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := newViper()

	resolvedPath := ""
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Run 'omtap config init' to create a default configuration").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir := opts.ConfigDirPath
		if cfgDir == "" {
			var err error
			if cfgDir, err = ConfigDir(); err != nil {
				return nil, err
			}
		}
		if p := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt); fileExists(p) {
			resolvedPath = p
		}
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if valid, errs := cfg.IsValid(); !valid {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Run 'omtap config show' to see the effective values").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(errors.Join(errs...)).
			BuildError()
	}

	return &Loaded{Config: &cfg, Path: resolvedPath}, nil
}

// newViper returns a Viper instance seeded with DefaultConfig and bound to
// OMTAP_* environment variables.
func newViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("bin_dir", string(defaults.BinDir))
	v.SetDefault("cache_dir", string(defaults.CacheDir))
	v.SetDefault("state_dir", string(defaults.StateDir))
	v.SetDefault("catalog.dir", string(defaults.Catalog.Dir))
	v.SetDefault("http.user_agent", defaults.HTTP.UserAgent)
	v.SetDefault("http.timeout", defaults.HTTP.Timeout.String())
	v.SetDefault("install.smoke_test", defaults.Install.SmokeTest)
	v.SetDefault("install.progress", defaults.Install.Progress)
	v.SetDefault("ui.color_scheme", string(defaults.UI.ColorScheme))
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// loadCUEIntoViper validates a CUE file against #Config and merges it into v.
// Fields are optional, so the unified value is validated non-concretely and
// decoded into a map rather than through cueutil.ParseAndDecode.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	unified, err := cueutil.Unify(configSchema, data, "#Config", path)
	if err != nil {
		return err
	}
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes DefaultConfig to config.cue inside cfgDir, or
// inside ConfigDir when cfgDir is empty. An existing file is left alone and
// created is false.
func CreateDefaultConfig(cfgDir string) (path string, created bool, err error) {
	if cfgDir == "" {
		if cfgDir, err = ConfigDir(); err != nil {
			return "", false, err
		}
	}

	path = filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if _, statErr := os.Stat(path); statErr == nil {
		return path, false, nil
	}

	if err := Save(DefaultConfig(), path); err != nil {
		return "", false, err
	}
	return path, true, nil
}

// Save writes cfg as CUE to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateCUE renders cfg in the format accepted by config_schema.cue.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// omtap configuration file\n")
	sb.WriteString("// Every field is optional; remove a line to fall back to the default.\n\n")

	fmt.Fprintf(&sb, "bin_dir:   %q\n", cfg.BinDir)
	fmt.Fprintf(&sb, "cache_dir: %q\n", cfg.CacheDir)
	fmt.Fprintf(&sb, "state_dir: %q\n", cfg.StateDir)

	if cfg.Catalog.Dir != "" {
		sb.WriteString("\ncatalog: {\n")
		fmt.Fprintf(&sb, "\tdir: %q\n", cfg.Catalog.Dir)
		sb.WriteString("}\n")
	}

	sb.WriteString("\nhttp: {\n")
	fmt.Fprintf(&sb, "\tuser_agent: %q\n", cfg.HTTP.UserAgent)
	fmt.Fprintf(&sb, "\ttimeout:    %q\n", cfg.HTTP.Timeout.String())
	sb.WriteString("}\n")

	sb.WriteString("\ninstall: {\n")
	fmt.Fprintf(&sb, "\tsmoke_test: %v\n", cfg.Install.SmokeTest)
	fmt.Fprintf(&sb, "\tprogress:   %v\n", cfg.Install.Progress)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tverbose:      %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}

// DefaultConfig returns the configuration used when no file is present.
// Paths keep their leading "~"; call Config.Expanded before touching disk.
func DefaultConfig() *Config {
	return &Config{
		BinDir:   "~/.local/bin",
		CacheDir: defaultCacheDir(),
		StateDir: defaultStateDir(),
		HTTP: HTTPConfig{
			UserAgent: DefaultUserAgent,
			Timeout:   DefaultHTTPTimeout,
		},
		Install: InstallConfig{
			SmokeTest: true,
			Progress:  true,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}

func defaultCacheDir() types.FilesystemPath {
	if runtime.GOOS == platform.Darwin {
		return types.FilesystemPath(filepath.Join("~", "Library", "Caches", AppName))
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return types.FilesystemPath(filepath.Join(xdg, AppName))
	}
	return types.FilesystemPath(filepath.Join("~", ".cache", AppName))
}

func defaultStateDir() types.FilesystemPath {
	if runtime.GOOS == platform.Darwin {
		return types.FilesystemPath(filepath.Join("~", "Library", "Application Support", AppName, "receipts"))
	}
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return types.FilesystemPath(filepath.Join(xdg, AppName))
	}
	return types.FilesystemPath(filepath.Join("~", ".local", "state", AppName))
}
