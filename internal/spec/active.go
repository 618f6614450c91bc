package spec

import (
	"fmt"

	"github.com/memcli/mem/internal/git"
	"github.com/memcli/mem/internal/worktree"
)

// protectedBranches never carry an active spec.
var protectedBranches = map[string]bool{
	"dev":    true,
	"main":   true,
	"master": true,
	"test":   true,
}

// Active returns the spec currently being worked on.
//
// Detection order:
//  1. Inside a mem worktree, the slug is the worktree directory name.
//  2. Otherwise the spec whose branch field matches the current branch.
//
// Returns nil on dev/main/master/test or when nothing matches.
func (s *Store) Active() (*Spec, error) {
	if slug, ok := worktree.CurrentSlug(s.paths.Root); ok {
		if sp, err := s.Get(slug); err == nil {
			return sp, nil
		}
	}

	branch, err := git.CurrentBranch(s.paths.Root)
	if err != nil {
		return nil, nil
	}
	if protectedBranches[branch] {
		return nil, nil
	}

	specs, err := s.List("")
	if err != nil {
		return nil, err
	}
	for _, sp := range specs {
		if sp.Branch == branch {
			return sp, nil
		}
	}
	return nil, nil
}

// BranchStatus reports the current branch, the active spec if any, and
// a human warning when the two disagree. Used by onboard and status
// style views.
func (s *Store) BranchStatus() (branch string, active *Spec, warning string) {
	if slug, ok := worktree.CurrentSlug(s.paths.Root); ok {
		sp, err := s.Get(slug)
		if err != nil {
			return "worktree", nil, fmt.Sprintf("in worktree %q but spec not found", slug)
		}
		if sp.Branch != "" {
			return sp.Branch, sp, ""
		}
		return "worktree", sp, ""
	}

	branch, err := git.CurrentBranch(s.paths.Root)
	if err != nil {
		return "unknown", nil, "not in a git repository"
	}
	if protectedBranches[branch] {
		return branch, nil, ""
	}

	active, _ = s.Active()
	if active != nil {
		return branch, active, ""
	}
	return branch, nil, fmt.Sprintf("on branch %q but no spec is associated with this branch", branch)
}

// EnsureOnDevBranch switches main or test checkouts to dev.
// Feature branches and worktrees are left alone.
func (s *Store) EnsureOnDevBranch() (switched bool, message string) {
	branch, err := git.CurrentBranch(s.paths.Root)
	if err != nil {
		return false, ""
	}
	if branch != "main" && branch != "test" {
		return false, ""
	}
	if err := git.Checkout(s.paths.Root, "dev"); err != nil {
		return false, fmt.Sprintf("failed to switch to dev: %v", err)
	}
	return true, fmt.Sprintf("switched from %q to dev", branch)
}

// BranchDiffStat returns git diff --stat against dev for the current
// feature branch, or empty when not applicable.
func (s *Store) BranchDiffStat() string {
	branch, err := git.CurrentBranch(s.paths.Root)
	if err != nil || protectedBranches[branch] {
		return ""
	}
	out, err := git.RunIn(s.paths.Root, "diff", "dev", "--stat")
	if err != nil {
		return ""
	}
	return out
}
