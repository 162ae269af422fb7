// SPDX-License-Identifier: MPL-2.0

// Package manifest implements the package manifest record for one release of
// a prebuilt binary: its metadata, the per-platform artifact variants, the
// install step, and the post-install test step.
//
// A manifest is immutable once generated. A new release produces a new
// manifest; it never edits an old one. Platform selection is a plain lookup
// on an (OS, Arch) key (see Manifest.Resolve), and integrity checking is a
// SHA-256 comparison that fails closed (see Verify).
//
// Manifests are stored as CUE and validated against manifest_schema.cue:
//
//	name:     "om"
//	desc:     "Tool for interacting with Ops Manager"
//	homepage: "https://github.com/pivotal-cf/om"
//	version:  "7.14.0"
//	variants: [
//		{os: "linux", arch: "arm64", url: "https://.../om-linux-arm64-7.14.0.tar.gz", sha256: "..."},
//	]
//	install: binary: "om"
//	test: args: ["--version"]
package manifest
