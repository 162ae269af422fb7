// SPDX-License-Identifier: MPL-2.0

// Package install places a verified release binary into a bin directory.
//
// The flow is resolve, fetch and verify, extract, copy, smoke test. Nothing
// is copied unless the artifact digest matches its manifest, and the copy
// itself is an atomic rename so the bin directory never holds a partially
// written executable.
package install
