// SPDX-License-Identifier: MPL-2.0

// Package types defines small value types shared by the manifest, install,
// and CLI layers. It is a leaf dependency and imports only the standard
// library.
package types
