// SPDX-License-Identifier: MPL-2.0

// Package receipt records what omtap installed, one TOML file per tool.
package receipt

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const fileExt = ".toml"

var (
	// ErrNoReceipt is returned by Read when nothing was installed under the name.
	ErrNoReceipt = errors.New("no install receipt")
	// ErrInvalidName is returned for names that cannot be used as a file name.
	ErrInvalidName = errors.New("invalid receipt name")
)

type (
	// Receipt describes the most recent install of one tool.
	Receipt struct {
		Name        string    `toml:"name" json:"name" yaml:"name"`
		Version     string    `toml:"version" json:"version" yaml:"version"`
		Platform    string    `toml:"platform" json:"platform" yaml:"platform"`
		URL         string    `toml:"url" json:"url" yaml:"url"`
		SHA256      string    `toml:"sha256" json:"sha256" yaml:"sha256"`
		BinaryPath  string    `toml:"binary_path" json:"binary_path" yaml:"binary_path"`
		InstalledAt time.Time `toml:"installed_at" json:"installed_at" yaml:"installed_at"`
	}

	// Store keeps receipts in Dir as <name>.toml.
	Store struct {
		Dir string
	}
)

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

func (s *Store) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.Dir, name+fileExt), nil
}

// Write replaces the receipt for r.Name atomically.
func (s *Store) Write(r Receipt) (err error) {
	path, err := s.path(r.Name)
	if err != nil {
		return err
	}

	data, err := toml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding receipt for %s: %w", r.Name, err)
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("creating receipt directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, "."+r.Name+"-*"+fileExt)
	if err != nil {
		return fmt.Errorf("creating receipt: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing receipt: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("writing receipt: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("saving receipt: %w", err)
	}
	return nil
}

// Read returns the receipt for name, or ErrNoReceipt.
func (s *Store) Read(name string) (*Receipt, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w for %s", ErrNoReceipt, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading receipt: %w", err)
	}

	var r Receipt
	if err := toml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding receipt %s: %w", path, err)
	}
	return &r, nil
}

// List returns every receipt sorted by name. A missing directory yields none.
func (s *Store) List() ([]Receipt, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}

	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.Type().IsRegular() && strings.HasSuffix(n, fileExt) && !strings.HasPrefix(n, ".") {
			names = append(names, strings.TrimSuffix(n, fileExt))
		}
	}
	sort.Strings(names)

	out := make([]Receipt, 0, len(names))
	for _, n := range names {
		r, err := s.Read(n)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, nil
}
