// SPDX-License-Identifier: MPL-2.0

// Package catalog holds the published om release manifests.
//
// Each release is an immutable manifest file; a newer release supersedes an
// older one without modifying it. The catalog embeds the known releases and
// may overlay a user directory of additional manifests. A version can be
// defined only once, except that an overlay manifest replaces a built-in
// seed whose digests are placeholders (see Catalog.PlaceholderDigests).
package catalog
