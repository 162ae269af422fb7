// SPDX-License-Identifier: MPL-2.0

package formula

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"unicode"

	"github.com/omtap/omtap/pkg/manifest"
	"github.com/omtap/omtap/pkg/platform"

	"golang.org/x/exp/slices"
)

const (
	guardIntel = "Hardware::CPU.intel?"
	guardARM   = "Hardware::CPU.arm?"
	guard64Bit = "Hardware::CPU.is_64_bit?"
	guard32Bit = "Hardware::CPU.is_32_bit?"
)

const formulaTemplate = `# typed: false
# frozen_string_literal: true

# This file was generated by omtap. DO NOT EDIT.
class {{.ClassName}} < Formula
  desc {{quote .Desc}}
  homepage {{quote .Homepage}}
  version {{quote .Version}}
{{- with .License}}
  license {{quote .}}
{{- end}}
{{- if .Top}}
{{template "branches" .Top}}
{{- end}}
{{- if .MacOS}}

  on_macos do{{template "branches" .MacOS}}
  end
{{- end}}
{{- if .Linux}}

  on_linux do{{template "branches" .Linux}}
  end
{{- end}}

  def install
    bin.install {{quote .Binary}}
  end

  test do
    system {{.TestCmd}}
  end
end
{{define "branches"}}{{range .}}{{if .Guard}}
{{.Indent}}if {{.Guard}}
{{.Indent}}  url {{quote .URL}}
{{.Indent}}  sha256 {{quote .SHA256}}
{{.Indent}}end{{else}}
{{.Indent}}url {{quote .URL}}
{{.Indent}}sha256 {{quote .SHA256}}{{end}}{{end}}{{end}}`

//nolint:gochecknoglobals // parsed once, read-only afterwards
var tmpl = template.Must(template.New("formula").
	Funcs(template.FuncMap{"quote": quote}).
	Parse(formulaTemplate))

type (
	formulaData struct {
		ClassName string
		Desc      string
		Homepage  string
		Version   string
		License   string
		Top       []branch
		MacOS     []branch
		Linux     []branch
		Binary    string
		TestCmd   string
	}

	branch struct {
		Indent string
		Guard  string
		URL    string
		SHA256 string
	}
)

// Render writes m as a Homebrew formula. The manifest is validated first;
// an invalid manifest writes nothing.
func Render(w io.Writer, m *manifest.Manifest) error {
	if m == nil {
		return fmt.Errorf("render formula: manifest must not be nil")
	}
	if err := m.Validate(); err != nil {
		return err
	}

	data := formulaData{
		ClassName: ClassName(m.Name),
		Desc:      m.Desc,
		Homepage:  m.Homepage,
		Version:   m.Version,
		License:   m.License,
		Binary:    m.Install.Binary,
		TestCmd:   testCommand(m.Install.Binary, m.TestArgs()),
	}

	variants := slices.Clone(m.Variants)
	slices.SortStableFunc(variants, func(a, b manifest.Variant) int {
		switch {
		case platform.Less(a.Platform(), b.Platform()):
			return -1
		case platform.Less(b.Platform(), a.Platform()):
			return 1
		}
		return 0
	})

	for _, v := range variants {
		b := branch{Guard: archGuard(v.Arch), URL: v.URL, SHA256: v.SHA256.Normalize().String()}
		switch v.OS {
		case platform.OSDarwin:
			b.Indent = "    "
			data.MacOS = append(data.MacOS, b)
		case platform.OSLinux:
			b.Indent = "    "
			data.Linux = append(data.Linux, b)
		default:
			b.Indent = "  "
			data.Top = append(data.Top, b)
		}
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render formula %s: %w", m, err)
	}
	return nil
}

// ClassName converts a package name to its Homebrew class name, e.g.
// "om" to "Om" and "om-cli" to "OmCli". A "+" becomes "x".
func ClassName(name string) string {
	var sb strings.Builder
	upper := true
	for _, r := range name {
		switch {
		case r == '+':
			sb.WriteRune('x')
			upper = false
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			upper = true
		case upper:
			sb.WriteRune(unicode.ToUpper(r))
			upper = false
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// packageName reverses ClassName for the common case, splitting CamelCase
// humps with hyphens: "OmCli" becomes "om-cli".
func packageName(class string) string {
	var sb strings.Builder
	for i, r := range class {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('-')
			}
			r = unicode.ToLower(r)
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func archGuard(a platform.Arch) string {
	switch a {
	case platform.ArchAMD64:
		return guardIntel
	case platform.ArchARM64:
		return guardARM
	}
	return ""
}

// testCommand renders the system call of the test block. Simple argv is
// written as one interpolated string; argv with whitespace uses one string
// per argument.
func testCommand(binary string, args []string) string {
	bin := `"#{bin}/` + escape(binary) + `"`
	for _, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			parts := []string{bin}
			for _, arg := range args {
				parts = append(parts, quote(arg))
			}
			return strings.Join(parts, ", ")
		}
	}
	if len(args) == 0 {
		return bin
	}
	return `"#{bin}/` + escape(binary) + " " + escape(strings.Join(args, " ")) + `"`
}

// quote returns s as a Ruby double-quoted string literal.
func quote(s string) string {
	return `"` + escape(s) + `"`
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `#{`, `\#{`)
	return r.Replace(s)
}
