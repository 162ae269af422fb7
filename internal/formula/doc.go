// SPDX-License-Identifier: MPL-2.0

// Package formula converts between release manifests and the Homebrew
// formula dialect that release pipelines publish for prebuilt binaries.
//
// Render writes the GoReleaser layout (on_macos/on_linux blocks with
// Hardware::CPU guards). Parse reads that layout and the older
// "if OS.mac? / elsif OS.linux?" chains back into the (OS, Arch) keyed
// variant table.
package formula
