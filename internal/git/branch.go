package git

import (
	"fmt"
	"strings"
)

// BranchExists reports whether a local branch with the given name exists in dir.
func BranchExists(dir, name string) bool {
	_, err := RunIn(dir, "rev-parse", "--verify", "refs/heads/"+name)
	return err == nil
}

// RemoteBranchExists reports whether origin has a branch with the given name.
func RemoteBranchExists(dir, name string) bool {
	out, err := RunIn(dir, "ls-remote", "--heads", "origin", name)
	return err == nil && strings.TrimSpace(out) != ""
}

// CreateBranch creates a local branch from the given start point without
// checking it out. An empty startPoint branches from HEAD.
func CreateBranch(dir, name, startPoint string) error {
	args := []string{"branch", name}
	if startPoint != "" {
		args = append(args, startPoint)
	}
	_, err := RunIn(dir, args...)
	return err
}

// Checkout switches the working tree at dir to the given branch.
func Checkout(dir, branch string) error {
	_, err := RunIn(dir, "checkout", branch)
	return err
}

// DeleteBranch deletes a local branch. With force, unmerged branches are
// deleted too.
func DeleteBranch(dir, name string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := RunIn(dir, "branch", flag, name)
	return err
}

// DeleteRemoteBranch deletes a branch on origin.
func DeleteRemoteBranch(dir, name string) error {
	_, err := RunIn(dir, "push", "origin", "--delete", name)
	return err
}

// ListBranches returns local branch names matching the given pattern
// (e.g. "dev-*"). An empty pattern lists all local branches.
func ListBranches(dir, pattern string) ([]string, error) {
	args := []string{"for-each-ref", "--format=%(refname:short)", "refs/heads"}
	if pattern != "" {
		args[2] = "refs/heads/" + pattern
	}
	out, err := RunIn(dir, args...)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// ListRemoteBranches returns origin branch names matching the pattern,
// without the "origin/" prefix.
func ListRemoteBranches(dir, pattern string) ([]string, error) {
	ref := "refs/remotes/origin"
	if pattern != "" {
		ref += "/" + pattern
	}
	out, err := RunIn(dir, "for-each-ref", "--format=%(refname:short)", ref)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, line := range splitLines(out) {
		name := strings.TrimPrefix(line, "origin/")
		if name == "HEAD" || name == line {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// MergedBranches returns local branches fully merged into the given ref.
func MergedBranches(dir, into string) ([]string, error) {
	out, err := RunIn(dir, "branch", "--merged", into, "--format=%(refname:short)")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// AheadBehind returns how many commits branch is ahead of and behind base.
func AheadBehind(dir, base, branch string) (ahead, behind int, err error) {
	out, err := RunIn(dir, "rev-list", "--left-right", "--count",
		fmt.Sprintf("%s...%s", base, branch))
	if err != nil {
		return 0, 0, err
	}
	if _, scanErr := fmt.Sscanf(out, "%d\t%d", &behind, &ahead); scanErr != nil {
		// rev-list separates with whitespace; fall back to a loose scan
		if _, scanErr = fmt.Sscan(out, &behind, &ahead); scanErr != nil {
			return 0, 0, fmt.Errorf("parsing rev-list output %q: %w", out, scanErr)
		}
	}
	return ahead, behind, nil
}

func splitLines(out string) []string {
	if strings.TrimSpace(out) == "" {
		return nil
	}
	lines := strings.Split(out, "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		if l := strings.TrimSpace(line); l != "" {
			result = append(result, l)
		}
	}
	return result
}
