package deps

import (
	"errors"
	"testing"
)

func TestMissingFromStderr(t *testing.T) {
	tests := []struct {
		stderr string
		want   string
		ok     bool
	}{
		{"sh: 1: Rscript: not found", "Rscript", true},
		{"Error in library(remotes) : there is no package called ‘remotes’", "remotes", true},
		{"ERROR: Could not find a version that satisfies the requirement", "", false},
	}
	for _, tt := range tests {
		got, ok := MissingFromStderr(tt.stderr)
		if got != tt.want || ok != tt.ok {
			t.Errorf("MissingFromStderr(%q) = %q, %v", tt.stderr, got, ok)
		}
	}
}

func TestFailure(t *testing.T) {
	if err := failure("sh: 1: sudo: not found"); !errors.Is(err, ErrLackPrerequisite) {
		t.Errorf("expected ErrLackPrerequisite, got %v", err)
	}
	if err := failure("boom"); !errors.Is(err, ErrConfigureFailed) {
		t.Errorf("expected ErrConfigureFailed, got %v", err)
	}
}
