// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/omtap/omtap/pkg/cueutil"
)

//go:embed manifest_schema.cue
var schema []byte

// Schema returns the embedded CUE schema source.
func Schema() []byte {
	return append([]byte(nil), schema...)
}

// Parse decodes a CUE manifest, validates it against #Manifest, and applies
// the Go-side checks. filename is used in error messages.
func Parse(data []byte, filename string) (*Manifest, error) {
	res, err := cueutil.ParseAndDecode[Manifest](schema, data, "#Manifest", cueutil.WithFilename(filename))
	if err != nil {
		return nil, err
	}
	m := res.Value
	for i := range m.Variants {
		m.Variants[i].SHA256 = m.Variants[i].SHA256.Normalize()
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return m, nil
}

// ParseFile reads and parses the manifest at path.
func ParseFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(data, path)
}
