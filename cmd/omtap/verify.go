// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/omtap/omtap/internal/artifact"
	"github.com/omtap/omtap/internal/catalog"
	"github.com/omtap/omtap/pkg/manifest"

	"github.com/spf13/cobra"
)

// verifyParams bundles the inputs of the verify command. Exactly one of
// version, sha256 and checksums names the expected digest.
type verifyParams struct {
	stdout    io.Writer
	catalog   *catalog.Catalog
	file      string
	version   string
	sha256    string
	checksums string
	os        string
	arch      string
}

func newVerifyCommand(app *App) *cobra.Command {
	var (
		p      verifyParams
		target platformFlags
	)

	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "Verify a downloaded artifact against its SHA-256 checksum",
		Long: `Verify a local artifact against the SHA-256 checksum a release manifest
records for it, against an explicit digest, or against a checksums.txt file.

With --version the variant is chosen by the artifact's file name; when the
name matches no variant, the --os/--arch (or host) platform is resolved.
A mismatch exits with status 1.`,
		Example: `  omtap verify om-linux-amd64-7.14.0.tar.gz --version 7.14.0
  omtap verify om.tar.gz --sha256 6d0f...e1
  omtap verify om-darwin-arm64-7.14.0.tar.gz --checksums checksums.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.stdout = cmd.OutOrStdout()
			p.file = args[0]
			p.os, p.arch = target.os, target.arch

			if p.version != "" {
				cat, err := app.loadCatalog()
				if err != nil {
					return app.fail(cmd, err)
				}
				p.catalog = cat
			}

			if err := app.runVerify(p); err != nil {
				return app.fail(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&p.version, "version", "", "release whose manifest records the checksum")
	cmd.Flags().StringVar(&p.sha256, "sha256", "", "expected SHA-256 digest (64 hex characters)")
	cmd.Flags().StringVar(&p.checksums, "checksums", "", "checksums.txt file listing the artifact")
	cmd.MarkFlagsMutuallyExclusive("version", "sha256", "checksums")
	cmd.MarkFlagsOneRequired("version", "sha256", "checksums")
	target.register(cmd)

	return cmd
}

// runVerify hashes p.file and compares it with the expected digest.
func (a *App) runVerify(p verifyParams) error {
	info, err := os.Stat(p.file)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", p.file)
	}

	expected, source, err := expectedChecksum(p)
	if err != nil {
		return err
	}

	if err := artifact.VerifyFile(p.file, expected); err != nil {
		return err
	}

	fmt.Fprintf(p.stdout, "%s %s: %s %s\n",
		a.render(SuccessStyle, iconSuccess), p.file,
		a.render(SuccessStyle, "OK"), a.render(SubtitleStyle, "(sha256 "+expected.Short()+" from "+source+")"))
	return nil
}

// expectedChecksum finds the digest p.file must have and describes where
// it came from.
func expectedChecksum(p verifyParams) (manifest.Checksum, string, error) {
	name := filepath.Base(p.file)

	switch {
	case p.sha256 != "":
		sum, err := manifest.ParseChecksum(p.sha256)
		if err != nil {
			return "", "", err
		}
		return sum, "--sha256", nil

	case p.checksums != "":
		f, err := os.Open(p.checksums)
		if err != nil {
			return "", "", err
		}
		defer func() { _ = f.Close() }() // read-only file handle

		entries, err := artifact.ParseChecksums(f)
		if err != nil {
			return "", "", fmt.Errorf("reading %s: %w", p.checksums, err)
		}
		sum, err := artifact.FindChecksum(entries, name)
		if err != nil {
			return "", "", err
		}
		return sum, filepath.Base(p.checksums), nil

	case p.version != "":
		if p.catalog == nil {
			return "", "", errors.New("verify: no catalog loaded")
		}
		m, err := p.catalog.Get(p.version)
		if err != nil {
			return "", "", err
		}
		for _, v := range m.Variants {
			if v.ArtifactName() == name {
				return v.SHA256, m.String() + " " + v.Platform().String(), nil
			}
		}
		target, err := targetPlatform(p.os, p.arch)
		if err != nil {
			return "", "", err
		}
		v, err := m.Resolve(target)
		if err != nil {
			return "", "", err
		}
		return v.SHA256, m.String() + " " + v.Platform().String(), nil
	}

	return "", "", errors.New("one of --version, --sha256 or --checksums is required")
}
