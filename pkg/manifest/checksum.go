// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// ChecksumLen is the length of a hex-encoded SHA-256 digest.
const ChecksumLen = 64

// Checksum is a hex-encoded SHA-256 digest. Either case is accepted; Normalize
// returns the lowercase form used for display and comparison.
type Checksum string

// ParseChecksum trims s and validates it.
func ParseChecksum(s string) (Checksum, error) {
	c := Checksum(strings.TrimSpace(s))
	if ok, errs := c.IsValid(); !ok {
		return "", errs[0]
	}
	return c.Normalize(), nil
}

// Sum returns the checksum of data.
func Sum(data []byte) Checksum {
	h := sha256.Sum256(data)
	return Checksum(hex.EncodeToString(h[:]))
}

// SumReader streams r through SHA-256 and returns the checksum.
func SumReader(r io.Reader) (Checksum, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hashing content: %w", err)
	}
	return Checksum(hex.EncodeToString(h.Sum(nil))), nil
}

// Verify reports whether the SHA-256 of data equals expected. Hex case is
// ignored. An expected value that is not a valid checksum never matches, so
// a manifest with a missing or truncated digest fails closed.
func Verify(data []byte, expected Checksum) bool {
	return expected.Matches(Sum(data))
}

// String returns the checksum as stored.
func (c Checksum) String() string { return string(c) }

// Normalize returns the lowercase form.
func (c Checksum) Normalize() Checksum { return Checksum(strings.ToLower(string(c))) }

// IsValid returns whether c is exactly 64 hexadecimal characters.
func (c Checksum) IsValid() (bool, []error) {
	if len(c) != ChecksumLen {
		return false, []error{&InvalidChecksumError{Value: string(c)}}
	}
	for _, r := range string(c) {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') && (r < 'A' || r > 'F') {
			return false, []error{&InvalidChecksumError{Value: string(c)}}
		}
	}
	return true, nil
}

// Matches reports whether c and other are the same valid digest, ignoring
// hex case. Invalid values never match, including two equal invalid values.
func (c Checksum) Matches(other Checksum) bool {
	if ok, _ := c.IsValid(); !ok {
		return false
	}
	if ok, _ := other.IsValid(); !ok {
		return false
	}
	a, b := c.Normalize(), other.Normalize()
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Short returns the first 12 characters for compact listings.
func (c Checksum) Short() string {
	if len(c) <= 12 {
		return string(c)
	}
	return string(c[:12])
}
