// SPDX-License-Identifier: MPL-2.0

package receipt

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sample(version string) Receipt {
	return Receipt{
		Name:        "om",
		Version:     version,
		Platform:    "linux/arm64",
		URL:         "https://github.com/pivotal-cf/om/releases/download/" + version + "/om-linux-arm64-" + version + ".tar.gz",
		SHA256:      "b8b955c44e3886fe06524e67d9836733fcde51a7717a9a36500a0df36e46d62f",
		BinaryPath:  "/home/user/.local/bin/om",
		InstalledAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestStore_WriteRead(t *testing.T) {
	t.Parallel()

	s := NewStore(filepath.Join(t.TempDir(), "receipts"))
	want := sample("7.14.0")

	if err := s.Write(want); err != nil {
		t.Fatalf("Write() returned error: %v", err)
	}

	got, err := s.Read("om")
	if err != nil {
		t.Fatalf("Read() returned error: %v", err)
	}
	if got.Version != want.Version || got.Platform != want.Platform || got.SHA256 != want.SHA256 {
		t.Errorf("Read() = %+v, want %+v", got, want)
	}
	if !got.InstalledAt.Equal(want.InstalledAt) {
		t.Errorf("InstalledAt = %v, want %v", got.InstalledAt, want.InstalledAt)
	}

	data, err := os.ReadFile(filepath.Join(s.Dir, "om.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "version = '7.14.0'") && !strings.Contains(string(data), `version = "7.14.0"`) {
		t.Errorf("receipt is not TOML:\n%s", data)
	}
}

func TestStore_WriteReplaces(t *testing.T) {
	t.Parallel()

	s := NewStore(t.TempDir())
	if err := s.Write(sample("7.9.0")); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(sample("7.14.0")); err != nil {
		t.Fatal(err)
	}

	got, err := s.Read("om")
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != "7.14.0" {
		t.Errorf("Version = %q, want the latest write", got.Version)
	}

	entries, _ := os.ReadDir(s.Dir)
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want 1 (no temp files)", len(entries))
	}
}

func TestStore_ReadMissing(t *testing.T) {
	t.Parallel()

	_, err := NewStore(t.TempDir()).Read("om")
	if !errors.Is(err, ErrNoReceipt) {
		t.Errorf("Read() error = %v, want ErrNoReceipt", err)
	}
}

func TestStore_InvalidName(t *testing.T) {
	t.Parallel()

	s := NewStore(t.TempDir())
	for _, name := range []string{"", "..", "a/b", `a\b`} {
		r := sample("7.14.0")
		r.Name = name
		if err := s.Write(r); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Write(%q) error = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestStore_List(t *testing.T) {
	t.Parallel()

	s := NewStore(t.TempDir())

	empty, err := NewStore(filepath.Join(s.Dir, "absent")).List()
	if err != nil || len(empty) != 0 {
		t.Fatalf("List() on missing dir = %v, %v; want none", empty, err)
	}

	bosh := sample("1.0.0")
	bosh.Name = "bosh"
	for _, r := range []Receipt{sample("7.14.0"), bosh} {
		if err := s.Write(r); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(s.Dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	list, err := s.List()
	if err != nil {
		t.Fatalf("List() returned error: %v", err)
	}
	if len(list) != 2 || list[0].Name != "bosh" || list[1].Name != "om" {
		t.Errorf("List() = %+v, want bosh then om", list)
	}
}

func TestStore_ReadCorrupt(t *testing.T) {
	t.Parallel()

	s := NewStore(t.TempDir())
	if err := os.WriteFile(filepath.Join(s.Dir, "om.toml"), []byte("version = "), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Read("om"); err == nil || errors.Is(err, ErrNoReceipt) {
		t.Errorf("Read() error = %v, want a decode error", err)
	}
}
