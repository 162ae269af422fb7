// SPDX-License-Identifier: MPL-2.0

// Package config loads omtap settings using Viper with CUE as the file format.
//
// The file lives at ~/.config/omtap/config.cue on Linux (honoring
// XDG_CONFIG_HOME) and ~/Library/Application Support/omtap/config.cue on
// macOS. Every field is optional; missing values fall back to DefaultConfig.
// The file is validated against the embedded #Config schema before its
// values are merged into Viper.
package config
