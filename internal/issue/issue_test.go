// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestId_Constants(t *testing.T) {
	ids := []Id{
		UnsupportedPlatformId,
		ChecksumMismatchId,
		VersionNotFoundId,
		ManifestParseErrorId,
		DownloadFailedId,
		ConfigLoadFailedId,
		PermissionDeniedId,
		SmokeTestFailedId,
		HomebrewManagedId,
	}

	seen := make(map[Id]bool)
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true
		if Get(id) == nil {
			t.Errorf("Issue with ID %d is not in the issues map", id)
		}
	}

	if UnsupportedPlatformId != 1 {
		t.Errorf("UnsupportedPlatformId = %d, want 1", UnsupportedPlatformId)
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		id       Id
		wantNil  bool
		contains string
	}{
		{UnsupportedPlatformId, false, "No build for this platform"},
		{ChecksumMismatchId, false, "Checksum mismatch"},
		{VersionNotFoundId, false, "Version not found"},
		{ManifestParseErrorId, false, "Failed to parse manifest"},
		{DownloadFailedId, false, "Download failed"},
		{ConfigLoadFailedId, false, "Failed to load configuration"},
		{PermissionDeniedId, false, "Permission denied"},
		{SmokeTestFailedId, false, "Smoke test failed"},
		{HomebrewManagedId, false, "managed by Homebrew"},
		{Id(9999), true, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			issue := Get(tt.id)

			if tt.wantNil {
				if issue != nil {
					t.Errorf("Get(%d) should return nil", tt.id)
				}
				return
			}

			if issue == nil {
				t.Fatalf("Get(%d) returned nil", tt.id)
			}
			if !strings.Contains(string(issue.MarkdownMsg()), tt.contains) {
				t.Errorf("Get(%d).MarkdownMsg() should contain %q", tt.id, tt.contains)
			}
		})
	}
}

func TestValues_SortedById(t *testing.T) {
	issues := Values()
	if len(issues) != 9 {
		t.Fatalf("Values() returned %d issues, want 9", len(issues))
	}
	for i, issue := range issues {
		if issue.Id() != Id(i+1) {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, issue.Id(), i+1)
		}
	}
}

func TestIssue_LinksAreCloned(t *testing.T) {
	issue := Get(UnsupportedPlatformId)
	links := issue.DocLinks()
	if len(links) == 0 {
		t.Fatal("expected doc links on the unsupported platform issue")
	}
	links[0] = "modified"
	if issue.DocLinks()[0] == "modified" {
		t.Error("DocLinks() should return a clone")
	}

	ext := Get(ChecksumMismatchId).ExtLinks()
	ext[0] = "modified"
	if Get(ChecksumMismatchId).ExtLinks()[0] == "modified" {
		t.Error("ExtLinks() should return a clone")
	}
}

func TestIssue_Render(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	render = func(in string, stylePath string) (string, error) {
		return in, nil
	}

	withLinks, err := Get(UnsupportedPlatformId).Render("")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if !strings.Contains(withLinks, "## See also\n- <https://github.com/pivotal-cf/om/releases>") {
		t.Errorf("Render() should append a See also list, got:\n%s", withLinks)
	}

	noLinks, err := (&Issue{id: Id(9998), mdMsg: "# Test Issue"}).Render("")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if strings.Contains(noLinks, "See also") {
		t.Error("Render() without links should not contain 'See also'")
	}
}

func TestAllIssuesAreRenderable(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	render = func(in string, stylePath string) (string, error) {
		return in, nil
	}

	for _, issue := range Values() {
		if issue.MarkdownMsg() == "" {
			t.Errorf("Issue %d has empty MarkdownMsg", issue.Id())
		}
		rendered, err := issue.Render("")
		if err != nil {
			t.Errorf("Issue %d failed to render: %v", issue.Id(), err)
		}
		if rendered == "" {
			t.Errorf("Issue %d rendered to empty string", issue.Id())
		}
	}
}

func TestIssue_RenderWithGlamour(t *testing.T) {
	out, err := Get(ChecksumMismatchId).Render("notty")
	if err != nil {
		t.Fatalf("Render(notty) returned error: %v", err)
	}
	if !strings.Contains(out, "Checksum mismatch") {
		t.Errorf("glamour output missing heading:\n%s", out)
	}
}
