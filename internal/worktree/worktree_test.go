package worktree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/memcli/mem/internal/git"
)

func initRepo(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	dir := filepath.Join(base, "myproject")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	run(t, dir, "init", "-b", "main")
	run(t, dir, "config", "user.name", "Test User")
	run(t, dir, "config", "user.email", "test@example.com")
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# test\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	run(t, dir, "add", ".")
	run(t, dir, "commit", "-m", "initial commit")
	return dir
}

func run(t *testing.T, dir string, args ...string) {
	t.Helper()
	if _, err := git.RunIn(dir, args...); err != nil {
		t.Fatalf("git %v: %v", args, err)
	}
}

func TestPathFor(t *testing.T) {
	got := PathFor("/home/dev/myproject", "auth-flow")
	want := filepath.Join("/home/dev", "myproject-worktrees", "auth-flow")
	if got != want {
		t.Errorf("PathFor() = %q, want %q", got, want)
	}
}

func TestAddListRemove(t *testing.T) {
	repo := initRepo(t)
	run(t, repo, "branch", "dev-alice-auth-flow")

	path, err := Add(repo, "auth-flow", "dev-alice-auth-flow")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if filepath.Base(path) != "auth-flow" {
		t.Errorf("Add() path = %q", path)
	}

	if !IsWorktree(path) {
		t.Error("IsWorktree() = false for a linked worktree")
	}
	if IsWorktree(repo) {
		t.Error("IsWorktree() = true for the main checkout")
	}

	wts, err := List(repo)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(wts) != 2 {
		t.Fatalf("List() returned %d worktrees, want 2", len(wts))
	}
	found := false
	for _, wt := range wts {
		if wt.Branch == "dev-alice-auth-flow" {
			found = true
		}
	}
	if !found {
		t.Error("List() missing the spec branch worktree")
	}

	if err := Remove(repo, "auth-flow", false); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if IsWorktree(path) {
		t.Error("IsWorktree() = true after removal")
	}
}

func TestCurrentSlug(t *testing.T) {
	repo := initRepo(t)
	run(t, repo, "branch", "dev-alice-auth-flow")

	path, err := Add(repo, "auth-flow", "dev-alice-auth-flow")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	slug, ok := CurrentSlug(path)
	if !ok || slug != "auth-flow" {
		t.Errorf("CurrentSlug() = (%q, %v), want (auth-flow, true)", slug, ok)
	}

	if _, ok := CurrentSlug(repo); ok {
		t.Error("CurrentSlug() = true for the main checkout")
	}
}

func TestLinkPaths(t *testing.T) {
	repo := initRepo(t)
	run(t, repo, "branch", "dev-alice-auth-flow")

	if err := os.WriteFile(filepath.Join(repo, ".env.local"), []byte("SECRET=1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(repo, "config", "certs"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(repo, "config", "certs", "dev.pem"), []byte("cert\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	path, err := Add(repo, "auth-flow", "dev-alice-auth-flow")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	linked, skipped := LinkPaths(repo, path, []string{".env.local", "config/certs/dev.pem", "missing.txt"})
	if len(linked) != 2 {
		t.Fatalf("linked = %v, want 2 entries", linked)
	}
	if len(skipped) != 1 || skipped[0] != "missing.txt" {
		t.Errorf("skipped = %v, want [missing.txt]", skipped)
	}

	target, err := os.Readlink(filepath.Join(path, ".env.local"))
	if err != nil {
		t.Fatalf("Readlink() error = %v", err)
	}
	if target != filepath.Join(repo, ".env.local") {
		t.Errorf("symlink target = %q, want the main checkout file", target)
	}

	data, err := os.ReadFile(filepath.Join(path, "config", "certs", "dev.pem"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "cert\n" {
		t.Errorf("linked file content = %q", data)
	}

	// Re-linking skips paths that already exist in the worktree.
	linked, skipped = LinkPaths(repo, path, []string{".env.local"})
	if len(linked) != 0 || len(skipped) != 1 {
		t.Errorf("relink = (%v, %v), want everything skipped", linked, skipped)
	}
}

func TestMainRoot(t *testing.T) {
	repo := initRepo(t)
	run(t, repo, "branch", "dev-alice-auth-flow")

	path, err := Add(repo, "auth-flow", "dev-alice-auth-flow")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	root, err := MainRoot(path)
	if err != nil {
		t.Fatalf("MainRoot() error = %v", err)
	}
	if filepath.Base(root) != "myproject" {
		t.Errorf("MainRoot() = %q, want base myproject", root)
	}
}
