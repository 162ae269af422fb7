// SPDX-License-Identifier: MPL-2.0

package formula

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/omtap/omtap/pkg/manifest"
	"github.com/omtap/omtap/pkg/platform"
)

// maxLineBytes bounds a single formula line.
const maxLineBytes = 64 << 10

var (
	// ErrSyntax is wrapped by SyntaxError.
	ErrSyntax = errors.New("formula syntax error")

	//nolint:gochecknoglobals // compiled once, read-only afterwards
	stringLit = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)
	//nolint:gochecknoglobals // compiled once, read-only afterwards
	classDecl = regexp.MustCompile(`^class\s+([A-Z][A-Za-z0-9]*)\s*<\s*Formula\b`)
)

// SyntaxError reports the line a formula could not be understood at.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("formula line %d: %s", e.Line, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

type (
	// frame is one open do/if/def block. Platform guards set os, arch or
	// both; other blocks only balance "end".
	frame struct {
		os   platform.OS
		arch platform.Arch
		kind frameKind
	}

	frameKind int

	parser struct {
		m       manifest.Manifest
		stack   []frame
		pending *manifest.Variant
		line    int
	}
)

const (
	frameBlock frameKind = iota
	frameGuard
	frameTest
)

// Parse reads a Homebrew formula for a prebuilt binary and returns the
// equivalent manifest. The predicate chains are flattened into one variant
// per (OS, Arch) key: on_macos and OS.mac? select darwin, on_linux and
// OS.linux? select linux, Hardware::CPU.intel? and Hardware::CPU.arm? select
// amd64 and arm64, and a missing guard selects "any". The result has passed
// Validate.
func Parse(r io.Reader) (*manifest.Manifest, error) {
	p := &parser{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineBytes)

	for sc.Scan() {
		p.line++
		if err := p.parseLine(strings.TrimSpace(sc.Text())); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading formula: %w", err)
	}

	if p.pending != nil {
		return nil, p.errorf("url %q has no sha256", p.pending.URL)
	}
	if len(p.stack) != 0 {
		return nil, p.errorf("%d block(s) not closed", len(p.stack))
	}
	if p.m.Name == "" {
		return nil, p.errorf("no formula class found")
	}

	m := p.m
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Line: p.line, Msg: fmt.Sprintf(format, args...)}
}

//nolint:gocyclo // one flat dispatch over the formula vocabulary
func (p *parser) parseLine(line string) error {
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	switch word, rest := splitWord(line); word {
	case "class":
		match := classDecl.FindStringSubmatch(line)
		if match == nil {
			return p.errorf("unsupported class declaration %q", line)
		}
		p.m.Name = packageName(match[1])
		p.push(frameBlock, "", "")
	case "desc":
		return p.stringField(rest, &p.m.Desc)
	case "homepage":
		return p.stringField(rest, &p.m.Homepage)
	case "version":
		return p.stringField(rest, &p.m.Version)
	case "license":
		return p.stringField(rest, &p.m.License)
	case "url":
		return p.url(rest)
	case "sha256":
		return p.sha256(rest)
	case "on_macos":
		p.push(frameGuard, platform.OSDarwin, "")
	case "on_linux":
		p.push(frameGuard, platform.OSLinux, "")
	case "on_intel":
		p.push(frameGuard, "", platform.ArchAMD64)
	case "on_arm":
		p.push(frameGuard, "", platform.ArchARM64)
	case "if":
		return p.pushCondition(rest)
	case "elsif":
		return p.replaceCondition(rest)
	case "else":
		return p.invertCondition()
	case "def":
		p.push(frameBlock, "", "")
	case "test":
		p.push(frameTest, "", "")
	case "end":
		if len(p.stack) == 0 {
			return p.errorf("unexpected end")
		}
		p.stack = p.stack[:len(p.stack)-1]
	case "bin.install":
		return p.binInstall(rest)
	case "system":
		if p.inTest() {
			return p.system(rest)
		}
	default:
		if _, call, ok := strings.Cut(line, "shell_output("); ok && p.inTest() {
			return p.system(call)
		}
		if strings.HasSuffix(line, " do") || strings.Contains(line, " do |") {
			p.push(frameBlock, "", "")
		}
	}
	return nil
}

func (p *parser) push(kind frameKind, os platform.OS, arch platform.Arch) {
	p.stack = append(p.stack, frame{kind: kind, os: os, arch: arch})
}

// pushCondition opens an if block. Platform guards may be combined with
// "&&", as in "OS.mac? && Hardware::CPU.arm?"; a condition without any
// platform predicate opens a plain block.
func (p *parser) pushCondition(cond string) error {
	os, arch, guard, err := parseGuard(cond)
	if err != nil {
		return p.errorf("%v", err)
	}
	if !guard {
		p.push(frameBlock, "", "")
		return nil
	}
	p.push(frameGuard, os, arch)
	return nil
}

func (p *parser) replaceCondition(cond string) error {
	top, err := p.top("elsif")
	if err != nil {
		return err
	}
	if top.kind != frameGuard {
		return nil
	}
	os, arch, guard, err := parseGuard(cond)
	if err != nil {
		return p.errorf("%v", err)
	}
	if !guard {
		return p.errorf("unsupported platform condition %q", cond)
	}
	top.os, top.arch = os, arch
	return nil
}

// invertCondition handles "else" in a two-way guard: macOS flips to Linux
// and Intel flips to ARM.
func (p *parser) invertCondition() error {
	top, err := p.top("else")
	if err != nil {
		return err
	}
	if top.kind != frameGuard {
		return nil
	}
	switch {
	case top.os != "" && top.arch != "":
		return p.errorf("else after a combined OS and CPU condition is ambiguous")
	case top.os == "" && top.arch == "":
		return p.errorf("else after a CPU word-size condition selects a 32-bit build")
	case top.os != "":
		top.os = otherOS(top.os)
	case top.arch != "":
		top.arch = otherArch(top.arch)
	}
	return nil
}

func (p *parser) top(keyword string) (*frame, error) {
	if len(p.stack) == 0 {
		return nil, p.errorf("%s outside a block", keyword)
	}
	return &p.stack[len(p.stack)-1], nil
}

// current returns the platform key selected by the open guards.
func (p *parser) current() platform.Platform {
	os, arch := platform.OSAny, platform.ArchAny
	for _, f := range p.stack {
		if f.os != "" {
			os = f.os
		}
		if f.arch != "" {
			arch = f.arch
		}
	}
	return platform.New(os, arch)
}

func (p *parser) inTest() bool {
	for _, f := range p.stack {
		if f.kind == frameTest {
			return true
		}
	}
	return false
}

func (p *parser) stringField(rest string, dst *string) error {
	s, ok := firstString(rest)
	if !ok {
		return p.errorf("expected a string literal, got %q", rest)
	}
	*dst = s
	return nil
}

func (p *parser) url(rest string) error {
	if p.pending != nil {
		return p.errorf("url %q has no sha256", p.pending.URL)
	}
	u, ok := firstString(rest)
	if !ok {
		return p.errorf("expected a url string, got %q", rest)
	}
	key := p.current()
	p.pending = &manifest.Variant{OS: key.OS, Arch: key.Arch, URL: u}
	return nil
}

func (p *parser) sha256(rest string) error {
	if p.pending == nil {
		return p.errorf("sha256 without a preceding url")
	}
	s, ok := firstString(rest)
	if !ok {
		return p.errorf("expected a sha256 string, got %q", rest)
	}
	sum, err := manifest.ParseChecksum(s)
	if err != nil {
		return p.errorf("%v", err)
	}
	p.pending.SHA256 = sum
	p.m.Variants = append(p.m.Variants, *p.pending)
	p.pending = nil
	return nil
}

// binInstall reads `bin.install "om"` and the renaming form
// `bin.install "om-darwin" => "om"`.
func (p *parser) binInstall(rest string) error {
	names := allStrings(rest)
	if len(names) == 0 {
		return p.errorf("bin.install without a file name")
	}
	p.m.Install.Binary = names[len(names)-1]
	return nil
}

// system reads `system "#{bin}/om --version"` and
// `system "#{bin}/om", "--version"`.
func (p *parser) system(rest string) error {
	parts := allStrings(rest)
	if len(parts) == 0 {
		return p.errorf("system without a command")
	}

	var argv []string
	if len(parts) == 1 {
		argv = strings.Fields(parts[0])
	} else {
		argv = parts
	}
	if len(argv) == 0 || !strings.HasPrefix(argv[0], "#{bin}/") {
		return p.errorf("test command must run the installed binary, got %q", rest)
	}
	// The executable name comes from bin.install; only the args are kept.
	p.m.Test.Args = argv[1:]
	return nil
}

// parseGuard parses one platform predicate or a "&&" conjunction of them.
// Hardware::CPU.is_64_bit? narrows nothing, since every supported
// architecture is 64-bit. guard is false when cond names no platform at all,
// as in "build.head?". A conjunction mixing platform predicates with terms
// it cannot evaluate is an error: dropping the unknown term would widen the
// branch to architectures it was never built for.
func parseGuard(cond string) (os platform.OS, arch platform.Arch, guard bool, err error) {
	var unknown []string
	for _, term := range strings.Split(cond, "&&") {
		term = strings.TrimSpace(term)
		switch term {
		case "OS.mac?":
			os = platform.OSDarwin
		case "OS.linux?":
			os = platform.OSLinux
		case guardIntel:
			arch = platform.ArchAMD64
		case guardARM:
			arch = platform.ArchARM64
		case guard64Bit:
		case guard32Bit:
			return "", "", false, fmt.Errorf("32-bit artifacts are not supported (%q)", cond)
		default:
			if strings.HasPrefix(term, "OS.") || strings.HasPrefix(term, "Hardware::CPU.") {
				return "", "", false, fmt.Errorf("unsupported platform predicate %q", term)
			}
			unknown = append(unknown, term)
			continue
		}
		guard = true
	}
	if guard && len(unknown) > 0 {
		return "", "", false, fmt.Errorf("cannot evaluate %q in platform condition %q", strings.Join(unknown, " && "), cond)
	}
	return os, arch, guard, nil
}

func otherOS(os platform.OS) platform.OS {
	if os == platform.OSDarwin {
		return platform.OSLinux
	}
	return platform.OSDarwin
}

func otherArch(arch platform.Arch) platform.Arch {
	if arch == platform.ArchAMD64 {
		return platform.ArchARM64
	}
	return platform.ArchAMD64
}

func splitWord(line string) (word, rest string) {
	word, rest, _ = strings.Cut(line, " ")
	return word, strings.TrimSpace(rest)
}

func firstString(s string) (string, bool) {
	m := stringLit.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return unescape(m[1]), true
}

func allStrings(s string) []string {
	var out []string
	for _, m := range stringLit.FindAllStringSubmatch(s, -1) {
		out = append(out, unescape(m[1]))
	}
	return out
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	escaped := false
	for _, r := range s {
		if escaped {
			sb.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
