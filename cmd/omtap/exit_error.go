// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/omtap/omtap/internal/artifact"
	"github.com/omtap/omtap/internal/catalog"
	"github.com/omtap/omtap/internal/formula"
	"github.com/omtap/omtap/internal/install"
	"github.com/omtap/omtap/internal/issue"
	"github.com/omtap/omtap/pkg/manifest"
	"github.com/omtap/omtap/pkg/platform"
	"github.com/omtap/omtap/pkg/types"

	"github.com/spf13/cobra"
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// classifyExitCode maps an error to the process exit code. Conditions the
// user can correct (an unsupported platform, a checksum mismatch, an unknown
// version, a bad manifest or flag value, a permission problem) use exit code
// 1; everything else, including network failures, uses exit code 2.
func classifyExitCode(err error) types.ExitCode {
	if err == nil {
		return types.ExitSuccess
	}
	userErrors := []error{
		manifest.ErrUnsupportedPlatform,
		manifest.ErrChecksumMismatch,
		manifest.ErrInvalidChecksum,
		manifest.ErrInvalidManifest,
		catalog.ErrVersionNotFound,
		catalog.ErrNoVersionMatch,
		artifact.ErrAssetNotFound,
		artifact.ErrNoChecksumEntries,
		formula.ErrSyntax,
		platform.ErrInvalidOS,
		platform.ErrInvalidArch,
		errHomebrewManaged,
		errInvalidOutput,
		os.ErrPermission,
		os.ErrNotExist,
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return types.ExitUserError
		}
	}
	return types.ExitFailure
}

// issueFor picks the issue guide that explains err, or 0 when none does.
func issueFor(err error) issue.Id {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Issue != 0 {
		return ae.Issue
	}

	var (
		statusErr    *artifact.HTTPStatusError
		rateLimitErr *artifact.RateLimitError
	)
	switch {
	case errors.Is(err, manifest.ErrUnsupportedPlatform):
		return issue.UnsupportedPlatformId
	case errors.Is(err, manifest.ErrChecksumMismatch):
		return issue.ChecksumMismatchId
	case errors.Is(err, catalog.ErrVersionNotFound), errors.Is(err, catalog.ErrNoVersionMatch):
		return issue.VersionNotFoundId
	case errors.Is(err, manifest.ErrInvalidManifest), errors.Is(err, formula.ErrSyntax):
		return issue.ManifestParseErrorId
	case errors.As(err, &statusErr), errors.As(err, &rateLimitErr):
		return issue.DownloadFailedId
	case errors.Is(err, os.ErrPermission):
		return issue.PermissionDeniedId
	case errors.Is(err, install.ErrSmokeTestFailed):
		return issue.SmokeTestFailedId
	case errors.Is(err, errHomebrewManaged):
		return issue.HomebrewManagedId
	}
	return 0
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// fail reports err on stderr together with its issue guide and returns the
// *ExitError that carries the exit code back to Execute.
func (a *App) fail(cmd *cobra.Command, err error) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	fmt.Fprintln(a.stderr, a.render(ErrorStyle, iconError)+" "+formatErrorForDisplay(err, a.settings.verbose))

	if id := issueFor(err); id != 0 {
		if guide := issue.Get(id); guide != nil {
			rendered, renderErr := guide.Render(a.glamourStyle())
			if renderErr == nil {
				fmt.Fprint(a.stderr, rendered)
			} else {
				a.settings.logger.Debug("rendering issue guide", "id", id, "error", renderErr)
			}
		}
	}

	return &ExitError{Code: classifyExitCode(err), Err: err}
}
