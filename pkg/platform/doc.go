// SPDX-License-Identifier: MPL-2.0

// Package platform models the (operating system, CPU architecture) tuple that
// selects a release artifact.
//
// OS and Arch are closed enums. Homebrew-style spellings (mac, x86_64,
// aarch64, intel, arm) are normalized by ParseOS and ParseArch so that callers
// never branch on raw strings. The Any value of each enum marks an
// unconditional manifest branch and is never returned by Host.
package platform
