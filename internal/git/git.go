// Package git provides Git operations via exec for the mem CLI.
package git

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/memcli/mem/internal/output"
)

// Run executes a git command in the current directory.
// It captures stdout and returns it as a trimmed string.
// Returns an *output.ExitError on failure with appropriate exit code.
func Run(args ...string) (string, error) {
	return RunInContext(context.Background(), "", args...)
}

// RunContext executes a git command with the given context.
func RunContext(ctx context.Context, args ...string) (string, error) {
	return RunInContext(ctx, "", args...)
}

// RunIn executes a git command in the given directory.
// An empty dir runs in the current directory.
func RunIn(dir string, args ...string) (string, error) {
	return RunInContext(context.Background(), dir, args...)
}

// RunInContext executes a git command in the given directory with a context.
// It captures stdout and returns it as a trimmed string.
// Returns an *output.ExitError on failure with appropriate exit code.
func RunInContext(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return "", output.NewSystemError("git not found: ensure git is installed and in PATH")
		}

		errMsg := strings.TrimSpace(stderr.String())
		if errMsg == "" {
			errMsg = err.Error()
		}
		return "", output.NewSystemErrorWithCause("git command failed: "+errMsg, err)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// IsRepo checks if dir is inside a git repository.
func IsRepo(dir string) bool {
	_, err := RunIn(dir, "rev-parse", "--git-dir")
	return err == nil
}

// RepoRoot returns the root directory of the repository containing dir.
// Returns an error if not in a git repository.
func RepoRoot(dir string) (string, error) {
	root, err := RunIn(dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", output.NewSystemErrorWithCause("not in a git repository", err)
	}
	return root, nil
}

// CurrentBranch returns the name of the branch checked out in dir.
// Returns an error if not in a git repository or HEAD is detached.
func CurrentBranch(dir string) (string, error) {
	branch, err := RunIn(dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", output.NewSystemErrorWithCause("failed to get current branch", err)
	}
	return branch, nil
}

// HEAD returns the full SHA of the HEAD commit in dir.
func HEAD(dir string) (string, error) {
	sha, err := RunIn(dir, "rev-parse", "HEAD")
	if err != nil {
		return "", output.NewSystemErrorWithCause("failed to get HEAD", err)
	}
	return sha, nil
}

// HasUncommittedChanges returns true if the working tree at dir has
// staged or unstaged changes.
func HasUncommittedChanges(dir string) bool {
	out, err := RunIn(dir, "status", "--porcelain")
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) != ""
}

// UserName returns the configured git user.name, or empty if unset.
func UserName(dir string) string {
	name, err := RunIn(dir, "config", "user.name")
	if err != nil {
		return ""
	}
	return name
}

// ConfigSet sets a repository-local config value.
func ConfigSet(dir, key, value string) error {
	_, err := RunIn(dir, "config", key, value)
	return err
}

// ConfigGet returns a repository-local config value, or empty if unset.
func ConfigGet(dir, key string) string {
	val, err := RunIn(dir, "config", "--get", key)
	if err != nil {
		return ""
	}
	return val
}

// RemoteURL returns the fetch URL of the origin remote.
func RemoteURL(dir string) (string, error) {
	url, err := RunIn(dir, "remote", "get-url", "origin")
	if err != nil {
		return "", output.NewSystemErrorWithCause("failed to get origin URL", err)
	}
	return url, nil
}
