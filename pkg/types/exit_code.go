// SPDX-License-Identifier: MPL-2.0

package types

import "strconv"

// ExitCode is the process status omtap terminates with.
type ExitCode int

const (
	// ExitSuccess is returned when the command completed.
	ExitSuccess ExitCode = 0
	// ExitUserError covers conditions the user can correct: an unsupported
	// platform, a checksum mismatch, an unknown version, a bad flag.
	ExitUserError ExitCode = 1
	// ExitFailure covers unexpected or transient failures such as network
	// errors or a failing smoke test.
	ExitFailure ExitCode = 2
)

// IsSuccess reports whether c is ExitSuccess.
func (c ExitCode) IsSuccess() bool { return c == ExitSuccess }

func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
