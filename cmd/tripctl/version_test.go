package main

import (
	"strings"
	"testing"
)

func TestVersionInfo(t *testing.T) {
	t.Parallel()

	if getVersion() == "" {
		t.Error("getVersion() returned empty string")
	}
	if getCommit() == "" {
		t.Error("getCommit() returned empty string")
	}
	if getDate() == "" {
		t.Error("getDate() returned empty string")
	}
	if c := getCommit(); c != "unknown" && len(c) > 7 {
		t.Errorf("commit should be shortened, got %q", c)
	}
}

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	out, _, err := executeCmd(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"tripctl version", "commit:", "built:", "go:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestVersionCmdShort(t *testing.T) {
	t.Parallel()

	out, _, err := executeCmd(t, "version", "--short")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(out); got != getVersion() {
		t.Errorf("expected %q, got %q", getVersion(), got)
	}
}

func TestCurrentBuild(t *testing.T) {
	t.Parallel()

	b := currentBuild()
	if b.Version == "" || b.Commit == "" || b.Date == "" {
		t.Errorf("incomplete build info: %+v", b)
	}
	if !strings.Contains(b.Platform, "/") || b.Go == "" {
		t.Errorf("unexpected runtime info: %+v", b)
	}
}
