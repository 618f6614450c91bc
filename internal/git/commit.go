package git

// Add stages the given paths in dir.
func Add(dir string, paths ...string) error {
	args := append([]string{"add", "--"}, paths...)
	_, err := RunIn(dir, args...)
	return err
}

// CommitAll stages everything and commits. Returns false without error
// when the tree is clean.
func CommitAll(dir, message string) (bool, error) {
	if _, err := RunIn(dir, "add", "-A"); err != nil {
		return false, err
	}
	out, err := RunIn(dir, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	if out == "" {
		return false, nil
	}
	if err := Commit(dir, message); err != nil {
		return false, err
	}
	return true, nil
}

// Commit records staged changes with the given message.
func Commit(dir, message string) error {
	_, err := RunIn(dir, "commit", "-m", message)
	return err
}

// CommitPaths stages the given paths and commits them in one step.
// Returns false without error when there is nothing to commit.
func CommitPaths(dir, message string, paths ...string) (bool, error) {
	if err := Add(dir, paths...); err != nil {
		return false, err
	}
	statusArgs := append([]string{"status", "--porcelain", "--"}, paths...)
	out, err := RunIn(dir, statusArgs...)
	if err != nil {
		return false, err
	}
	if out == "" {
		return false, nil
	}
	if err := Commit(dir, message); err != nil {
		return false, err
	}
	return true, nil
}

// Fetch updates remote tracking refs from origin, pruning removed branches.
func Fetch(dir string) error {
	_, err := RunIn(dir, "fetch", "origin", "--prune")
	return err
}

// Pull fast-forwards the current branch from its upstream.
func Pull(dir string) error {
	_, err := RunIn(dir, "pull", "--ff-only")
	return err
}

// Push pushes the given branch to origin. With setUpstream, the remote
// branch is created and tracked.
func Push(dir, branch string, setUpstream bool) error {
	args := []string{"push", "origin", branch}
	if setUpstream {
		args = []string{"push", "-u", "origin", branch}
	}
	_, err := RunIn(dir, args...)
	return err
}

// Rebase replays the current branch onto the given ref.
func Rebase(dir, onto string) error {
	_, err := RunIn(dir, "rebase", onto)
	return err
}

// RebaseAbort aborts an in-progress rebase.
func RebaseAbort(dir string) {
	_, _ = RunIn(dir, "rebase", "--abort")
}

// Merge merges the given ref into the current branch.
func Merge(dir, ref string) error {
	_, err := RunIn(dir, "merge", ref)
	return err
}
