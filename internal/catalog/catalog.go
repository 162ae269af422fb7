// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/omtap/omtap/pkg/manifest"

	"golang.org/x/exp/slices"
	"golang.org/x/mod/semver"
)

// embeddedLabel prefixes the source of every built-in manifest.
const embeddedLabel = "embedded:"

// DefaultName is the tool every embedded manifest describes.
const DefaultName = "om"

//go:embed manifests/*.cue
var embedded embed.FS

type (
	// Catalog is an immutable, version-indexed set of manifests. Accessors
	// return clones.
	Catalog struct {
		name     string
		byVer    map[string]*manifest.Manifest
		sources  map[string]string
		versions []string // descending semver
	}

	// Option configures Load.
	Option func(*loadOptions)

	loadOptions struct {
		name     string
		dirs     []string
		embedded bool
	}

	// Selector chooses a release. Exact wins when set; otherwise the highest
	// version matching Pattern is chosen; with neither, the latest version.
	Selector struct {
		Exact   string
		Pattern string
	}
)

// WithDir overlays every *.cue manifest in dir. An empty dir is ignored.
func WithDir(dir string) Option {
	return func(o *loadOptions) {
		if dir != "" {
			o.dirs = append(o.dirs, dir)
		}
	}
}

// WithName sets the tool name manifests must carry.
func WithName(name string) Option {
	return func(o *loadOptions) {
		o.name = name
	}
}

// WithoutEmbedded skips the built-in manifests.
func WithoutEmbedded() Option {
	return func(o *loadOptions) {
		o.embedded = false
	}
}

// Load parses the embedded manifests and any overlay directories.
func Load(opts ...Option) (*Catalog, error) {
	o := loadOptions{name: DefaultName, embedded: true}
	for _, opt := range opts {
		opt(&o)
	}

	c := newCatalog(o.name)

	if o.embedded {
		if err := c.addFS(embedded, "manifests", embeddedLabel); err != nil {
			return nil, err
		}
	}
	for _, dir := range o.dirs {
		if err := c.addFS(os.DirFS(dir), ".", dir+string(filepath.Separator)); err != nil {
			return nil, err
		}
	}

	if len(c.byVer) == 0 {
		return nil, ErrEmptyCatalog
	}
	return c, nil
}

// New builds a catalog from already parsed manifests. Each manifest is
// validated and cloned.
func New(name string, ms ...*manifest.Manifest) (*Catalog, error) {
	c := newCatalog(name)
	for i, m := range ms {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if err := c.add(m.Clone(), fmt.Sprintf("manifest #%d", i)); err != nil {
			return nil, err
		}
	}
	if len(c.byVer) == 0 {
		return nil, ErrEmptyCatalog
	}
	return c, nil
}

func newCatalog(name string) *Catalog {
	return &Catalog{
		name:    name,
		byVer:   make(map[string]*manifest.Manifest),
		sources: make(map[string]string),
	}
}

func (c *Catalog) addFS(fsys fs.FS, dir, label string) error {
	files, err := fs.Glob(fsys, path.Join(dir, "*.cue"))
	if err != nil {
		return fmt.Errorf("listing manifests in %s: %w", label, err)
	}
	// Overlay directories that do not exist yet are treated as empty.
	if len(files) == 0 {
		return nil
	}
	slices.Sort(files)

	for _, f := range files {
		data, err := fs.ReadFile(fsys, f)
		if err != nil {
			return fmt.Errorf("reading manifest %s: %w", label+path.Base(f), err)
		}
		source := label + path.Base(f)
		m, err := manifest.Parse(data, source)
		if err != nil {
			return err
		}
		if err := c.add(m, source); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) add(m *manifest.Manifest, source string) error {
	if m.Name != c.name {
		return fmt.Errorf("%s: %w: got %q, want %q", source, ErrNameMismatch, m.Name, c.name)
	}
	v := canonical(m.Version)
	if first, dup := c.sources[v]; dup {
		// A seed manifest may be superseded once by a real one; anything
		// else defining a version twice is an error.
		if !strings.HasPrefix(first, embeddedLabel) || strings.HasPrefix(source, embeddedLabel) {
			return &DuplicateVersionError{Version: m.Version, First: first, Second: source}
		}
		c.byVer[v] = m
		c.sources[v] = source
		return nil
	}
	c.byVer[v] = m
	c.sources[v] = source

	c.versions = append(c.versions, m.Version)
	slices.SortFunc(c.versions, func(a, b string) int {
		return semver.Compare(canonical(b), canonical(a))
	})
	return nil
}

// canonical turns "7.14.0" or "v7.14.0" into the "v"-prefixed form x/mod expects.
func canonical(version string) string {
	return "v" + strings.TrimPrefix(strings.TrimSpace(version), "v")
}

// Name returns the tool name of every manifest in the catalog.
func (c *Catalog) Name() string {
	return c.name
}

// Len returns the number of published versions.
func (c *Catalog) Len() int {
	return len(c.versions)
}

// Versions returns every version, newest first.
func (c *Catalog) Versions() []string {
	return slices.Clone(c.versions)
}

// All returns every manifest, newest first.
func (c *Catalog) All() []*manifest.Manifest {
	out := make([]*manifest.Manifest, 0, len(c.versions))
	for _, v := range c.versions {
		out = append(out, c.byVer[canonical(v)].Clone())
	}
	return out
}

// Get returns the manifest for version; a leading "v" is accepted.
func (c *Catalog) Get(version string) (*manifest.Manifest, error) {
	m, ok := c.byVer[canonical(version)]
	if !ok {
		return nil, &VersionNotFoundError{Version: version, Available: c.Versions()}
	}
	return m.Clone(), nil
}

// Source reports where the manifest for version was loaded from.
func (c *Catalog) Source(version string) string {
	return c.sources[canonical(version)]
}

// PlaceholderDigests reports whether version comes from the built-in seed
// manifests. Their sha256 values are samples of the right shape, not the
// published digests, so installing one fails verification until the release
// is supplied again through a catalog directory.
func (c *Catalog) PlaceholderDigests(version string) bool {
	return strings.HasPrefix(c.Source(version), embeddedLabel)
}

// Latest returns the manifest with the highest version.
func (c *Catalog) Latest() *manifest.Manifest {
	return c.byVer[canonical(c.versions[0])].Clone()
}

// Select applies s; see Selector.
func (c *Catalog) Select(s Selector) (*manifest.Manifest, error) {
	if s.Exact != "" {
		return c.Get(s.Exact)
	}
	if s.Pattern == "" {
		return c.Latest(), nil
	}

	re, err := regexp.Compile(s.Pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid version pattern %q: %w", s.Pattern, err)
	}
	for _, v := range c.versions {
		if re.MatchString(v) {
			return c.Get(v)
		}
	}
	return nil, &NoVersionMatchError{Pattern: s.Pattern}
}

// Supersedes returns the next newer version than version, or "" when it is
// the latest.
func (c *Catalog) Supersedes(version string) (string, error) {
	want := canonical(version)
	if _, ok := c.byVer[want]; !ok {
		return "", &VersionNotFoundError{Version: version, Available: c.Versions()}
	}
	next := ""
	for _, v := range c.versions {
		if semver.Compare(canonical(v), want) <= 0 {
			break
		}
		next = v
	}
	return next, nil
}
