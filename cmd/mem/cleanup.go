// Package main provides the entry point for the mem CLI.
package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/memcli/mem/internal/git"
	"github.com/memcli/mem/internal/output"
	"github.com/memcli/mem/internal/spec"
)

// slugCandidates returns the possible spec slugs embedded in a
// dev-<user>-<slug> branch name. Both the user part and the slug may
// contain hyphens, so every split point is a candidate; callers try
// them in order against the spec store.
func slugCandidates(branch string) []string {
	rest, ok := strings.CutPrefix(branch, "dev-")
	if !ok {
		return nil
	}
	var out []string
	for i := 0; i < len(rest)-1; i++ {
		if rest[i] == '-' {
			out = append(out, rest[i+1:])
		}
	}
	return out
}

// newCleanupCmd creates the cleanup command.
func newCleanupCmd() *cobra.Command {
	var dryRunFlag bool
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete branches of finished specs",
		Long: `Delete local and remote dev-* branches whose spec is completed
or abandoned.

Branches of specs still in progress are left alone. Worktree records
and remote refs are pruned afterwards.

Examples:
  mem cleanup
  mem cleanup --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCleanup(cmd, dryRunFlag)
		},
	}
	cmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Report without deleting anything")
	return cmd
}

func runCleanup(cmd *cobra.Command, dryRun bool) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))

	ws, err := openWorkspace()
	if err != nil {
		printer.Error(err)
		return err
	}
	if ws.InWorktree {
		err := output.NewUserError("run 'mem cleanup' from the main checkout, not a worktree")
		printer.Error(err)
		return err
	}

	if err := git.Fetch(ws.Root); err != nil {
		printer.Warn("git fetch failed: %v", err)
	}

	local, err := git.ListBranches(ws.Root, "dev-*")
	if err != nil {
		printer.Error(err)
		return err
	}
	remote, err := git.ListRemoteBranches(ws.Root, "dev-*")
	if err != nil {
		printer.Error(err)
		return err
	}

	localSet := make(map[string]bool, len(local))
	for _, b := range local {
		localSet[b] = true
	}
	remoteSet := make(map[string]bool, len(remote))
	all := make(map[string]bool, len(local)+len(remote))
	for _, b := range local {
		all[b] = true
	}
	for _, b := range remote {
		remoteSet[b] = true
		all[b] = true
	}

	branches := make([]string, 0, len(all))
	for b := range all {
		branches = append(branches, b)
	}
	sort.Strings(branches)

	current, _ := git.CurrentBranch(ws.Root)

	var deleted, skipped []string
	active := 0
	for _, branch := range branches {
		if branch == current {
			skipped = append(skipped, branch)
			continue
		}
		var sp *spec.Spec
		for _, slug := range slugCandidates(branch) {
			if found, err := ws.Specs.Get(slug); err == nil && found.Slug == slug {
				sp = found
				break
			}
		}
		if sp == nil {
			skipped = append(skipped, branch)
			continue
		}
		if sp.Status != spec.StatusCompleted && sp.Status != spec.StatusAbandoned {
			active++
			skipped = append(skipped, branch)
			continue
		}

		if dryRun {
			deleted = append(deleted, branch)
			continue
		}
		if localSet[branch] {
			if err := git.DeleteBranch(ws.Root, branch, true); err != nil {
				printer.Warn("could not delete local branch %s: %v", branch, err)
				continue
			}
		}
		if remoteSet[branch] {
			if err := git.DeleteRemoteBranch(ws.Root, branch); err != nil {
				printer.Warn("could not delete remote branch %s: %v", branch, err)
			}
		}
		deleted = append(deleted, branch)
	}

	if !dryRun {
		_, _ = git.RunIn(ws.Root, "remote", "prune", "origin")
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"dry_run": dryRun,
			"deleted": deleted,
			"skipped": skipped,
			"active":  active,
		})
	}

	styles := printer.Styles()
	if len(deleted) == 0 {
		printer.Println("No branches to clean up.")
	}
	for _, b := range deleted {
		if dryRun {
			printer.Println("Would delete: " + b)
		} else {
			printer.Println(styles.Success.Render("Deleted: ") + b)
		}
	}
	if active > 0 {
		noun := "branches belong"
		if active == 1 {
			noun = "branch belongs"
		}
		printer.Println(styles.Dim.Render(fmt.Sprintf("%d %s to active specs, kept", active, noun)))
	}
	return nil
}
