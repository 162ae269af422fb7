// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	UnsupportedPlatformId Id = iota + 1
	ChecksumMismatchId
	VersionNotFoundId
	ManifestParseErrorId
	DownloadFailedId
	ConfigLoadFailedId
	PermissionDeniedId
	SmokeTestFailedId
	HomebrewManagedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // project documentation for this kind of failure
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	unsupportedPlatformIssue = &Issue{
		id: UnsupportedPlatformId,
		mdMsg: `
# No build for this platform!

The selected om release does not publish an artifact for your operating
system and CPU architecture. Early releases shipped Intel builds only;
ARM builds for macOS and Linux arrived later.

## Things you can try:
- List which platforms each release supports:
~~~
$ omtap list
~~~

- Install a newer release that covers your platform:
~~~
$ omtap install 7.14.0
~~~

- Resolve for a different platform explicitly (for example, to fetch an
  Intel build that runs under Rosetta):
~~~
$ omtap resolve 7.2.0 --os darwin --arch amd64
~~~`,
		docLinks: []HttpLink{"https://github.com/pivotal-cf/om/releases"},
	}

	checksumMismatchIssue = &Issue{
		id: ChecksumMismatchId,
		mdMsg: `
# Checksum mismatch!

The downloaded artifact does not match the SHA-256 digest recorded in the
release manifest. Nothing was installed and the partial download was removed.

## Common causes:
- A proxy or captive portal returned an HTML page instead of the archive
- The download was truncated
- The artifact on the server was replaced after the manifest was published

## Things you can try:
- Retry the installation; a fresh download is always made after a mismatch
- Verify a file you downloaded yourself:
~~~
$ omtap verify om-linux-amd64-7.14.0.tar.gz --version 7.14.0
~~~

- If the mismatch persists, do not bypass it. Report it upstream.`,
		extLinks: []HttpLink{"https://github.com/pivotal-cf/om/issues"},
	}

	versionNotFoundIssue = &Issue{
		id: VersionNotFoundId,
		mdMsg: `
# Version not found!

No manifest in the catalog matches the requested version.

## Things you can try:
- List the available versions:
~~~
$ omtap list
~~~

- Select the newest version matching a pattern:
~~~
$ omtap install --match '^7\.'
~~~

- Add your own manifests by pointing ` + "`catalog.dir`" + ` at a directory of CUE files:
~~~cue
catalog: dir: "~/omtap/manifests"
~~~`,
	}

	manifestParseErrorIssue = &Issue{
		id: ManifestParseErrorId,
		mdMsg: `
# Failed to parse manifest!

A release manifest contains syntax errors or violates the manifest schema.

## Common issues:
- A checksum that is not exactly 64 hexadecimal characters
- A URL that is not ` + "`https://`" + `
- Two variants for the same OS and architecture
- A version that is not a semantic version

## Example of a valid manifest:
~~~cue
name:     "om"
desc:     "Tool for interacting with Ops Manager"
homepage: "https://github.com/pivotal-cf/om"
version:  "7.14.0"
variants: [
	{os: "linux", arch: "amd64", url: "https://github.com/pivotal-cf/om/releases/download/7.14.0/om-linux-amd64-7.14.0.tar.gz", sha256: "<64 hex characters>"},
]
install: binary: "om"
test: args: ["--version"]
~~~`,
	}

	downloadFailedIssue = &Issue{
		id: DownloadFailedId,
		mdMsg: `
# Download failed!

The artifact host could not be reached or returned an error.

## Things you can try:
- Check your network connection and proxy settings
- GitHub limits anonymous downloads; set a token for authenticated access:
~~~
$ export GITHUB_TOKEN=ghp_...
~~~

- Run with verbose mode to see the request that failed:
~~~
$ omtap --verbose install
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the omtap configuration file.

## Configuration file locations:
- Linux: ~/.config/omtap/config.cue
- macOS: ~/Library/Application Support/omtap/config.cue

## Things you can try:
- Create a default configuration:
~~~
$ omtap config init
~~~

- Check the configuration syntax
- Remove the config file to use defaults

## Example configuration:
~~~cue
bin_dir:   "~/.local/bin"
cache_dir: "~/.cache/omtap"

install: {
	smoke_test: true
	progress:   true
}

ui: {
	color_scheme: "auto"
	verbose:      false
}
~~~`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

omtap could not write to the bin or cache directory.

## Things you can try:
- Install into a directory you own:
~~~
$ omtap install --bin-dir ~/.local/bin
~~~

- Set ` + "`bin_dir`" + ` in your configuration so you do not need the flag
- Avoid running omtap with sudo; it never needs root for a user bin directory`,
	}

	smokeTestFailedIssue = &Issue{
		id: SmokeTestFailedId,
		mdMsg: `
# Smoke test failed!

The binary was installed but did not run successfully with its test
arguments (usually ` + "`--version`" + `).

## Common causes:
- The artifact was built for a different CPU architecture
- The bin directory is on a filesystem mounted with noexec
- macOS Gatekeeper quarantined the binary

## Things you can try:
- Run the binary yourself to see the error:
~~~
$ ~/.local/bin/om --version
~~~

- On macOS, clear the quarantine attribute:
~~~
$ xattr -d com.apple.quarantine ~/.local/bin/om
~~~`,
	}

	homebrewManagedIssue = &Issue{
		id: HomebrewManagedId,
		mdMsg: `
# This directory is managed by Homebrew!

The target bin directory belongs to a Homebrew prefix. Files written there
are overwritten or removed by ` + "`brew`" + `.

## Things you can try:
- Use Homebrew itself:
~~~
$ brew install om
~~~

- Or install into a directory Homebrew does not manage:
~~~
$ omtap install --bin-dir ~/.local/bin
~~~`,
		extLinks: []HttpLink{"https://docs.brew.sh/FAQ"},
	}

	issues = map[Id]*Issue{
		unsupportedPlatformIssue.Id(): unsupportedPlatformIssue,
		checksumMismatchIssue.Id():    checksumMismatchIssue,
		versionNotFoundIssue.Id():     versionNotFoundIssue,
		manifestParseErrorIssue.Id():  manifestParseErrorIssue,
		downloadFailedIssue.Id():      downloadFailedIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		permissionDeniedIssue.Id():    permissionDeniedIssue,
		smokeTestFailedIssue.Id():     smokeTestFailedIssue,
		homebrewManagedIssue.Id():     homebrewManagedIssue,
	}
)

// Values returns every registered issue ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
