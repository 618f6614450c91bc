// Package worktree manages per-spec git worktrees.
//
// Each spec being worked on gets its own checkout under a sibling
// directory of the main repository:
//
//	myproject/                    main checkout
//	myproject-worktrees/
//	  auth-flow/                  worktree on the spec's branch
//	  rate-limiter/
package worktree

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/memcli/mem/internal/git"
	"github.com/memcli/mem/internal/output"
)

const dirSuffix = "-worktrees"

// Worktree describes one entry from git worktree list.
type Worktree struct {
	Path   string
	Branch string
	HEAD   string
}

// BaseDir returns the directory that holds all worktrees for the
// project rooted at projectRoot.
func BaseDir(projectRoot string) string {
	parent := filepath.Dir(projectRoot)
	return filepath.Join(parent, filepath.Base(projectRoot)+dirSuffix)
}

// PathFor returns the worktree path for a spec slug.
func PathFor(projectRoot, slug string) string {
	return filepath.Join(BaseDir(projectRoot), slug)
}

// Add creates a worktree for the slug checked out on branch.
// The branch must already exist.
func Add(projectRoot, slug, branch string) (string, error) {
	path := PathFor(projectRoot, slug)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", output.NewSystemErrorWithCause("creating worktree directory", err)
	}
	if _, err := git.RunIn(projectRoot, "worktree", "add", path, branch); err != nil {
		return "", err
	}
	return path, nil
}

// LinkPaths symlinks configured paths from the main checkout into a
// worktree. Useful for untracked state like .env files or vendored
// dependency directories. Paths that do not exist in the main checkout
// or already exist in the worktree are skipped; the skipped paths are
// returned so callers can warn about them.
func LinkPaths(projectRoot, wtPath string, paths []string) (linked, skipped []string) {
	for _, rel := range paths {
		src := filepath.Join(projectRoot, rel)
		dst := filepath.Join(wtPath, rel)
		if _, err := os.Lstat(src); err != nil {
			skipped = append(skipped, rel)
			continue
		}
		if _, err := os.Lstat(dst); err == nil {
			skipped = append(skipped, rel)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			skipped = append(skipped, rel)
			continue
		}
		if err := os.Symlink(src, dst); err != nil {
			skipped = append(skipped, rel)
			continue
		}
		linked = append(linked, rel)
	}
	return linked, skipped
}

// Remove deletes the worktree for the slug. With force, a dirty
// worktree is removed anyway.
func Remove(projectRoot, slug string, force bool) error {
	path := PathFor(projectRoot, slug)
	args := []string{"worktree", "remove", path}
	if force {
		args = append(args, "--force")
	}
	_, err := git.RunIn(projectRoot, args...)
	return err
}

// Prune drops worktree records whose directories no longer exist.
func Prune(projectRoot string) {
	_, _ = git.RunIn(projectRoot, "worktree", "prune")
}

// List returns all worktrees of the repository at projectRoot,
// including the main checkout.
func List(projectRoot string) ([]Worktree, error) {
	out, err := git.RunIn(projectRoot, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}

	var result []Worktree
	var cur Worktree
	flush := func() {
		if cur.Path != "" {
			result = append(result, cur)
		}
		cur = Worktree{}
	}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "worktree "):
			flush()
			cur.Path = strings.TrimPrefix(line, "worktree ")
		case strings.HasPrefix(line, "HEAD "):
			cur.HEAD = strings.TrimPrefix(line, "HEAD ")
		case strings.HasPrefix(line, "branch "):
			cur.Branch = strings.TrimPrefix(strings.TrimPrefix(line, "branch "), "refs/heads/")
		}
	}
	flush()
	return result, nil
}

// IsWorktree reports whether dir is a linked worktree checkout.
// Linked worktrees have a .git file (with a gitdir pointer) instead of
// a .git directory.
func IsWorktree(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// CurrentSlug returns the spec slug when dir is (inside) a worktree
// created by mem, derived from the worktree directory name.
func CurrentSlug(dir string) (string, bool) {
	root, err := git.RepoRoot(dir)
	if err != nil {
		return "", false
	}
	if !IsWorktree(root) {
		return "", false
	}
	parent := filepath.Dir(root)
	if !strings.HasSuffix(filepath.Base(parent), dirSuffix) {
		return "", false
	}
	return filepath.Base(root), true
}

// MainRoot resolves the main repository checkout from any directory,
// following the gitdir pointer when dir is inside a linked worktree.
func MainRoot(dir string) (string, error) {
	common, err := git.RunIn(dir, "rev-parse", "--git-common-dir")
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(common) {
		root, rootErr := git.RepoRoot(dir)
		if rootErr != nil {
			return "", rootErr
		}
		common = filepath.Join(root, common)
	}
	// common dir is <main>/.git
	return filepath.Dir(common), nil
}
