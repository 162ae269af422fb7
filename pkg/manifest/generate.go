// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"fmt"
	"strings"
)

// GenerateCUE renders m as canonical CUE source accepted by Parse.
func GenerateCUE(m *Manifest) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "// %s %s release manifest.\n", m.Name, m.Version)
	sb.WriteString("// Published manifests are immutable; a new release gets a new file.\n\n")

	fmt.Fprintf(&sb, "name:     %q\n", m.Name)
	fmt.Fprintf(&sb, "desc:     %q\n", m.Desc)
	fmt.Fprintf(&sb, "homepage: %q\n", m.Homepage)
	fmt.Fprintf(&sb, "version:  %q\n", m.Version)
	if m.License != "" {
		fmt.Fprintf(&sb, "license:  %q\n", m.License)
	}

	sb.WriteString("\nvariants: [\n")
	for _, v := range m.Variants {
		sb.WriteString("\t{\n")
		fmt.Fprintf(&sb, "\t\tos:     %q\n", string(v.OS))
		fmt.Fprintf(&sb, "\t\tarch:   %q\n", string(v.Arch))
		fmt.Fprintf(&sb, "\t\turl:    %q\n", v.URL)
		fmt.Fprintf(&sb, "\t\tsha256: %q\n", string(v.SHA256))
		sb.WriteString("\t},\n")
	}
	sb.WriteString("]\n\n")

	fmt.Fprintf(&sb, "install: binary: %q\n", m.Install.Binary)

	args := m.TestArgs()
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = fmt.Sprintf("%q", a)
	}
	fmt.Fprintf(&sb, "test: args: [%s]\n", strings.Join(quoted, ", "))

	return sb.String()
}
