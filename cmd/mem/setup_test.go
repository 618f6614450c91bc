// Package main provides the entry point for the mem CLI.
package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/memcli/mem/internal/git"
)

// initProject creates a git repo on dev with an initialized .mem tree
// and makes it the working directory for the test. GITHUB_TOKEN is
// cleared so commands never reach the network.
func initProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	mustGit(t, dir, "init")
	mustGit(t, dir, "config", "user.name", "Test User")
	mustGit(t, dir, "config", "user.email", "test@example.com")
	mustGit(t, dir, "config", "commit.gpgsign", "false")

	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# widgets\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	mustGit(t, dir, "add", ".")
	mustGit(t, dir, "commit", "-m", "initial commit")
	mustGit(t, dir, "branch", "-M", "dev")

	for _, sub := range []string{"specs", "logs", "todos"} {
		if err := os.MkdirAll(filepath.Join(dir, ".mem", sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	config := "[project]\nname = \"widgets\"\ndescription = \"A widget factory.\"\n"
	if err := os.WriteFile(filepath.Join(dir, ".mem", "config.toml"), []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Chdir(dir)
	t.Setenv("MEM_CONFIG_HOME", t.TempDir())
	t.Setenv("GITHUB_TOKEN", "")
	return dir
}

func mustGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := git.RunIn(dir, args...)
	if err != nil {
		t.Fatalf("git %v: %v", args, err)
	}
	return out
}

// runMem executes the CLI with the given args and returns stdout.
func runMem(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// mustRunMem executes the CLI and fails the test on error.
func mustRunMem(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runMem(t, args...)
	if err != nil {
		t.Fatalf("mem %v: %v\noutput: %s", args, err, out)
	}
	return out
}

// parseJSON returns the final JSON object a command wrote. Warnings in
// JSON mode are emitted as their own objects before the result, so the
// output can hold several concatenated objects.
func parseJSON(t *testing.T, out string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(out))
	var last map[string]any
	for dec.More() {
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			t.Fatalf("invalid JSON output: %v\noutput: %s", err, out)
		}
		last = m
	}
	if last == nil {
		t.Fatalf("no JSON output, got: %s", out)
	}
	return last
}
