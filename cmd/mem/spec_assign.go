// Package main provides the entry point for the mem CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memcli/mem/internal/gh"
	"github.com/memcli/mem/internal/git"
	"github.com/memcli/mem/internal/markdown"
	"github.com/memcli/mem/internal/output"
	"github.com/memcli/mem/internal/spec"
	"github.com/memcli/mem/internal/worktree"
)

// newSpecAssignCmd creates the spec assign command.
func newSpecAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <slug> [<github-user>]",
		Short: "Assign a spec and create its worktree",
		Long: `Assign a specification to a GitHub user and set up an isolated
worktree for the work.

Creates the branch dev-<user>-<slug>, commits the assignment to .mem/,
creates the worktree at ../<project>-worktrees/<slug>, and sets the
GitHub issue assignee. The spec must already be synced to an issue.

Without a user argument, assigns to yourself (resolved from git
user.name via user_mappings.toml).

Examples:
  mem spec assign rate-limiting
  mem spec assign rate-limiting octocat`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user := ""
			if len(args) == 2 {
				user = args[1]
			}
			return runSpecAssign(cmd, args[0], user)
		},
	}
}

func runSpecAssign(cmd *cobra.Command, slugArg, user string) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))

	ws, err := openWorkspace()
	if err != nil {
		printer.Error(err)
		return err
	}

	sp, err := ws.Specs.Get(slugArg)
	if err != nil {
		err = output.NewUserError(err.Error())
		printer.Error(err)
		return err
	}

	if user == "" {
		user = ws.Username()
	}
	if user == "" {
		err := output.NewUserError("could not resolve a GitHub username. Pass one explicitly or set git user.name")
		printer.Error(err)
		return err
	}

	if !sp.Linked() {
		err := output.NewUserError(fmt.Sprintf("spec %q has no GitHub issue. Run 'mem sync' first", sp.Slug))
		printer.Error(err)
		return err
	}
	if sp.AssignedTo != "" && sp.AssignedTo != user {
		err := output.NewUserError(fmt.Sprintf(
			"spec %q is already assigned to @%s. Unassign it on GitHub first", sp.Slug, sp.AssignedTo))
		printer.Error(err)
		return err
	}

	wtPath := worktree.PathFor(ws.MainRoot, sp.Slug)
	if worktreeExists(ws.MainRoot, sp.Slug) {
		err := output.NewUserError(fmt.Sprintf("worktree already exists at %s", wtPath))
		printer.Error(err)
		return err
	}

	branch := fmt.Sprintf("dev-%s-%s", markdown.Slugify(user), sp.Slug)

	// Record the assignment before any git surgery so the branch and
	// worktree carry it.
	if err := ws.Specs.Update(sp.Slug, func(m *spec.Meta) {
		m.AssignedTo = user
		m.Branch = branch
	}); err != nil {
		printer.Error(err)
		return err
	}

	committed, err := git.CommitPaths(ws.Root, fmt.Sprintf("mem: prepare spec %s for assignment", sp.Slug), ".mem")
	if err != nil {
		printer.Error(err)
		return err
	}
	if committed {
		current, _ := git.CurrentBranch(ws.Root)
		if err := git.Push(ws.Root, current, false); err != nil {
			printer.Warn("could not push assignment commit: %v", err)
		}
	}

	if !git.BranchExists(ws.MainRoot, branch) {
		if err := git.CreateBranch(ws.MainRoot, branch, "dev"); err != nil {
			printer.Error(err)
			return err
		}
	}
	if _, err := worktree.Add(ws.MainRoot, sp.Slug, branch); err != nil {
		printer.Error(err)
		return err
	}

	cfg := ws.Config()
	linked, skipped := worktree.LinkPaths(ws.MainRoot, wtPath, cfg.Worktree.SymlinkPaths)
	for _, rel := range skipped {
		printer.Warn("could not symlink %s into worktree", rel)
	}

	if client, err := gh.Open(cmd.Context(), ws.MainRoot); err != nil {
		printer.Warn("could not set GitHub assignee: %v", err)
	} else if err := client.SetAssignees(cmd.Context(), sp.IssueID, []string{user}); err != nil {
		printer.Warn("could not set GitHub assignee: %v", err)
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"slug":          sp.Slug,
			"assigned_to":   user,
			"branch":        branch,
			"worktree":      wtPath,
			"symlink_paths": linked,
		})
	}

	styles := printer.Styles()
	printer.Println(styles.Success.Render("Assigned ") + styles.Bold.Render(sp.Slug) + " to @" + user)
	printer.Println(styles.Key.Render("  Branch:   ") + branch)
	printer.Println(styles.Key.Render("  Worktree: ") + wtPath)
	printer.Println()
	printer.Header("START A NEW SESSION IN THE WORKTREE")
	printer.Println("  cd " + wtPath)
	printer.Println("  mem onboard")
	printer.Println()
	printer.Println(styles.Warning.Render("Do not continue working in this checkout. All work for this"))
	printer.Println(styles.Warning.Render("spec happens in the worktree on branch " + branch + "."))
	return nil
}
