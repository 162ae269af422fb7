// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved, and
// remediation hints. Issue holds a longer Markdown guide per failure kind
// (unsupported platform, checksum mismatch, and so on) rendered with glamour.
package issue
