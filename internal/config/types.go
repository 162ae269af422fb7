// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/omtap/omtap/pkg/types"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces the dark palette.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces the light palette.
	ColorSchemeLight ColorScheme = "light"
	// ColorSchemeNone disables colored output.
	ColorSchemeNone ColorScheme = "none"

	// DefaultUserAgent is sent with every artifact request.
	DefaultUserAgent = "omtap"
	// DefaultHTTPTimeout bounds a single artifact download.
	DefaultHTTPTimeout = 5 * time.Minute
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidHTTPConfig is the sentinel error wrapped by InvalidHTTPConfigError.
	ErrInvalidHTTPConfig = errors.New("invalid http config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidHTTPConfigError collects field-level errors of an HTTPConfig.
	InvalidHTTPConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig and collects errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the root omtap configuration.
	Config struct {
		// BinDir receives the installed executable.
		BinDir types.FilesystemPath `json:"bin_dir" mapstructure:"bin_dir"`
		// CacheDir holds downloaded artifacts, keyed by version.
		CacheDir types.FilesystemPath `json:"cache_dir" mapstructure:"cache_dir"`
		// StateDir holds install receipts.
		StateDir types.FilesystemPath `json:"state_dir" mapstructure:"state_dir"`
		Catalog  CatalogConfig        `json:"catalog" mapstructure:"catalog"`
		HTTP     HTTPConfig           `json:"http" mapstructure:"http"`
		Install  InstallConfig        `json:"install" mapstructure:"install"`
		UI       UIConfig             `json:"ui" mapstructure:"ui"`
	}

	// CatalogConfig points at user-supplied manifests.
	CatalogConfig struct {
		// Dir is overlaid on the embedded catalog when non-empty.
		Dir types.FilesystemPath `json:"dir" mapstructure:"dir"`
	}

	HTTPConfig struct {
		UserAgent string        `json:"user_agent" mapstructure:"user_agent"`
		Timeout   time.Duration `json:"timeout" mapstructure:"timeout"`
	}

	InstallConfig struct {
		// SmokeTest runs the manifest's test step after copying the binary.
		SmokeTest bool `json:"smoke_test" mapstructure:"smoke_test"`
		// Progress draws a byte progress bar on stderr while downloading.
		Progress bool `json:"progress" mapstructure:"progress"`
	}

	UIConfig struct {
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
	}
)

func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined schemes.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight, ColorSchemeNone:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light, none)", e.Value)
}

func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// IsValid reports an empty user agent or a non-positive timeout.
func (c HTTPConfig) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(c.UserAgent) == "" {
		errs = append(errs, errors.New("http.user_agent must be non-empty"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("http.timeout must be positive, got %s", c.Timeout))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidHTTPConfigError{FieldErrors: errs}}
	}
	return true, nil
}

func (e *InvalidHTTPConfigError) Error() string {
	return fmt.Sprintf("invalid http config: %d field error(s)", len(e.FieldErrors))
}

func (e *InvalidHTTPConfigError) Unwrap() error { return ErrInvalidHTTPConfig }

// IsValid validates every path and sub-configuration. The catalog directory
// is optional; the other directories are required.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	for _, p := range []types.FilesystemPath{c.BinDir, c.CacheDir, c.StateDir} {
		if valid, fieldErrs := p.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if valid, fieldErrs := c.HTTP.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Expanded returns a copy with "~" expanded in every path.
func (c Config) Expanded() (Config, error) {
	out := c
	for _, p := range []*types.FilesystemPath{&out.BinDir, &out.CacheDir, &out.StateDir, &out.Catalog.Dir} {
		if *p == "" {
			continue
		}
		expanded, err := p.Expand()
		if err != nil {
			return Config{}, err
		}
		*p = expanded
	}
	return out, nil
}
