package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	orig := Commit
	defer func() { Commit = orig }()

	Commit = "unknown"
	if got := Info(); got != Version {
		t.Errorf("Info() = %q, want %q", got, Version)
	}

	Commit = "0123456789abcdef"
	if got := Info(); got != Version+" (0123456)" {
		t.Errorf("Info() = %q", got)
	}
}

func TestFull(t *testing.T) {
	got := Full()
	for _, want := range []string{"govinv version", "Commit:", "Built:"} {
		if !strings.Contains(got, want) {
			t.Errorf("Full() = %q, missing %q", got, want)
		}
	}
}
