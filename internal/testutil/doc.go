// SPDX-License-Identifier: MPL-2.0

// Package testutil provides test helpers that fail the test on error:
// environment management (MustSetenv, SetHomeDir), filesystem setup
// (MustMkdirAll, MustWriteFile) and builders for release-style archives
// (TarGz, TarXz) used to exercise download and extraction paths.
package testutil
