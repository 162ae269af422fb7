// SPDX-License-Identifier: MPL-2.0

// Package artifact downloads release artifacts and verifies them against
// their recorded SHA-256 digests.
//
// Verification fails closed: a download is written to a ".partial" file,
// hashed as it streams, and only renamed to its final name once the digest
// matches. A mismatched or interrupted download never leaves a file that a
// later step could mistake for a verified artifact.
package artifact
