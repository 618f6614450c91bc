// Package main provides the entry point for the mem CLI.
package main

import (
	"reflect"
	"strings"
	"testing"

	"github.com/memcli/mem/internal/spec"
)

func TestSlugCandidates(t *testing.T) {
	tests := []struct {
		branch string
		want   []string
	}{
		{"dev-alice-rate-limiting", []string{"rate-limiting", "limiting"}},
		{"dev-test-user-foo-bar", []string{"user-foo-bar", "foo-bar", "bar"}},
		{"dev-alice-fix", []string{"fix"}},
		{"dev-alice", nil},
		{"feature-branch", nil},
		{"dev", nil},
	}
	for _, tt := range tests {
		got := slugCandidates(tt.branch)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("slugCandidates(%q) = %v, want %v", tt.branch, got, tt.want)
		}
	}
}

func TestCleanup_DeletesFinishedBranches(t *testing.T) {
	dir := initProject(t)

	mustRunMem(t, "spec", "new", "Foo Bar")
	mustRunMem(t, "spec", "new", "Ongoing Work")

	mustGit(t, dir, "branch", "dev-test-user-foo-bar")
	mustGit(t, dir, "branch", "dev-test-user-ongoing-work")

	store := spec.NewStore(dir)
	if _, err := store.MoveToCompleted("foo-bar"); err != nil {
		t.Fatal(err)
	}

	out := mustRunMem(t, "cleanup", "--dry-run", "--json")
	result := parseJSON(t, out)
	deleted := result["deleted"].([]any)
	if len(deleted) != 1 || deleted[0] != "dev-test-user-foo-bar" {
		t.Fatalf("dry-run deleted = %v, want [dev-test-user-foo-bar]", deleted)
	}
	if result["active"].(float64) != 1 {
		t.Errorf("active = %v, want 1", result["active"])
	}

	out = mustRunMem(t, "cleanup", "--json")
	result = parseJSON(t, out)
	deleted = result["deleted"].([]any)
	if len(deleted) != 1 || deleted[0] != "dev-test-user-foo-bar" {
		t.Fatalf("deleted = %v, want [dev-test-user-foo-bar]", deleted)
	}

	branches := mustGit(t, dir, "branch", "--list", "dev-*")
	if strings.Contains(branches, "dev-test-user-foo-bar") {
		t.Error("finished branch still exists")
	}
	if !strings.Contains(branches, "dev-test-user-ongoing-work") {
		t.Error("active spec branch was deleted")
	}
}

func TestCleanup_SkipsCurrentBranch(t *testing.T) {
	dir := initProject(t)

	mustRunMem(t, "spec", "new", "Foo Bar")
	store := spec.NewStore(dir)
	if _, err := store.MoveToCompleted("foo-bar"); err != nil {
		t.Fatal(err)
	}
	mustGit(t, dir, "checkout", "-b", "dev-test-user-foo-bar")

	out := mustRunMem(t, "cleanup", "--json")
	result := parseJSON(t, out)
	if len(result["deleted"].([]any)) != 0 {
		t.Errorf("deleted = %v, want none while checked out", result["deleted"])
	}
	skipped := result["skipped"].([]any)
	if len(skipped) != 1 || skipped[0] != "dev-test-user-foo-bar" {
		t.Errorf("skipped = %v, want the current branch", skipped)
	}
}
