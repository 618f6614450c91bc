// Package main provides the entry point for the mem CLI.
package main

import (
	"testing"

	"github.com/memcli/mem/internal/gh"
)

func TestClassifyPull(t *testing.T) {
	boolp := func(b bool) *bool { return &b }

	tests := []struct {
		name   string
		status gh.PullStatus
		bucket mergeBucket
		note   string
	}{
		{
			name:   "already merged",
			status: gh.PullStatus{Merged: true, MergeableState: "unknown"},
			bucket: bucketMerged,
		},
		{
			name:   "mergeable false wins over state",
			status: gh.PullStatus{Mergeable: boolp(false), MergeableState: "clean"},
			bucket: bucketConflict,
			note:   "merge conflicts with dev",
		},
		{
			name:   "clean and mergeable",
			status: gh.PullStatus{Mergeable: boolp(true), MergeableState: "clean"},
			bucket: bucketReady,
		},
		{
			name:   "clean without computed mergeability",
			status: gh.PullStatus{MergeableState: "clean"},
			bucket: bucketConflict,
			note:   "mergeability not yet computed",
		},
		{
			name:   "behind dev",
			status: gh.PullStatus{Mergeable: boolp(true), MergeableState: "behind"},
			bucket: bucketReady,
			note:   "branch is behind dev; GitHub will rebase it",
		},
		{
			name:   "dirty",
			status: gh.PullStatus{MergeableState: "dirty"},
			bucket: bucketConflict,
			note:   "state: dirty",
		},
		{
			name:   "blocked",
			status: gh.PullStatus{Mergeable: boolp(true), MergeableState: "blocked"},
			bucket: bucketConflict,
			note:   "state: blocked",
		},
		{
			name:   "unknown state",
			status: gh.PullStatus{MergeableState: "draft"},
			bucket: bucketConflict,
			note:   "unknown state: draft",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, note := classifyPull(tt.status)
			if bucket != tt.bucket {
				t.Errorf("bucket = %s, want %s", bucketName(bucket), bucketName(tt.bucket))
			}
			if note != tt.note {
				t.Errorf("note = %q, want %q", note, tt.note)
			}
		})
	}
}

func TestMerge_RequiresToken(t *testing.T) {
	initProject(t)

	_, err := runMem(t, "merge", "--json")
	if err == nil {
		t.Fatal("expected error without GITHUB_TOKEN")
	}
}
