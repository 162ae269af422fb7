// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the omtap command line interface.
//
// The root command wires configuration, the release catalog and the
// artifact client into subcommands that resolve, verify, install and
// render om release manifests.
package cmd
