// SPDX-License-Identifier: MPL-2.0

// Command omtap installs prebuilt om releases from verified manifests.
package main

import cmd "github.com/omtap/omtap/cmd/omtap"

func main() {
	cmd.Execute()
}
