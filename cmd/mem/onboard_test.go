// Package main provides the entry point for the mem CLI.
package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOnboard_BuildsContext(t *testing.T) {
	dir := initProject(t)
	mustRunMem(t, "spec", "new", "Rate Limiting")
	mustRunMem(t, "todo", "new", "Upgrade CI runners")

	out := mustRunMem(t, "onboard", "--json")
	result := parseJSON(t, out)

	content := result["context"].(string)
	if !strings.Contains(content, "widgets") {
		t.Error("context should include the project name")
	}
	if !strings.Contains(content, "rate-limiting") {
		t.Error("context should list open specs")
	}
	if !strings.Contains(content, "Upgrade CI runners") {
		t.Error("context should list open todos")
	}

	warning, _ := result["sync_warning"].(string)
	if !strings.Contains(warning, "sync skipped") {
		t.Errorf("sync_warning = %q, want a skip notice without a token", warning)
	}

	ignore, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(ignore), ".mem/tmp/") {
		t.Error(".mem/tmp/ not added to .gitignore")
	}
}

func TestOnboard_Stdout(t *testing.T) {
	initProject(t)

	out := mustRunMem(t, "onboard", "--stdout")
	if !strings.Contains(out, "widgets") {
		t.Error("stdout mode should print the context directly")
	}
}
