package cli

import (
	"testing"

	"github.com/matzehuels/insetkit/pkg/buildinfo"
)

func TestSetVersion(t *testing.T) {
	old := [3]string{buildinfo.Version, buildinfo.Commit, buildinfo.Date}
	defer func() { buildinfo.Version, buildinfo.Commit, buildinfo.Date = old[0], old[1], old[2] }()

	SetVersion("1.0.0", "abc123", "2024-01-01")

	if buildinfo.Version != "1.0.0" {
		t.Errorf("Version = %q, want %q", buildinfo.Version, "1.0.0")
	}
	if buildinfo.Commit != "abc123" {
		t.Errorf("Commit = %q, want %q", buildinfo.Commit, "abc123")
	}
	if buildinfo.Date != "2024-01-01" {
		t.Errorf("Date = %q, want %q", buildinfo.Date, "2024-01-01")
	}
}

func TestSetVersionEmptyKeepsValues(t *testing.T) {
	old := buildinfo.Version
	defer func() { buildinfo.Version = old }()

	buildinfo.Version = "v9"
	SetVersion("", "", "")

	if buildinfo.Version != "v9" {
		t.Errorf("Version = %q, want v9", buildinfo.Version)
	}
}
