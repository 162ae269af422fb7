// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"archive/tar"
	"bytes"
	"io"
	"sort"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// File is one archive entry. Mode defaults to 0o755.
type File struct {
	Name string
	Data []byte
	Mode int64
}

// TarGz returns a gzip-compressed tarball of files, in the given order.
func TarGz(t testing.TB, files ...File) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	writeTar(t, gz, files)
	if err := gz.Close(); err != nil {
		t.Fatalf("closing gzip writer: %v", err)
	}
	return buf.Bytes()
}

// TarXz returns an xz-compressed tarball of files, in the given order.
func TarXz(t testing.TB, files ...File) []byte {
	t.Helper()
	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatalf("creating xz writer: %v", err)
	}
	writeTar(t, xw, files)
	if err := xw.Close(); err != nil {
		t.Fatalf("closing xz writer: %v", err)
	}
	return buf.Bytes()
}

// Files converts a name to content map into entries sorted by name.
func Files(m map[string]string) []File {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]File, 0, len(names))
	for _, name := range names {
		out = append(out, File{Name: name, Data: []byte(m[name])})
	}
	return out
}

func writeTar(t testing.TB, w io.Writer, files []File) {
	t.Helper()
	tw := tar.NewWriter(w)
	for _, f := range files {
		mode := f.Mode
		if mode == 0 {
			mode = 0o755
		}
		hdr := &tar.Header{
			Name:     f.Name,
			Mode:     mode,
			Size:     int64(len(f.Data)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("writing tar header for %s: %v", f.Name, err)
		}
		if _, err := tw.Write(f.Data); err != nil {
			t.Fatalf("writing tar entry %s: %v", f.Name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("closing tar writer: %v", err)
	}
}
