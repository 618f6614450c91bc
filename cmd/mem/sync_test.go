// Package main provides the entry point for the mem CLI.
package main

import (
	"strings"
	"testing"
)

func TestSync_RequiresToken(t *testing.T) {
	initProject(t)

	out, err := runMem(t, "sync", "--json")
	if err == nil {
		t.Fatal("expected error without GITHUB_TOKEN")
	}
	if !strings.Contains(parseJSON(t, out)["error"].(string), "GITHUB_TOKEN") {
		t.Errorf("unexpected error: %s", out)
	}
}
