// Package main provides the entry point for the mem CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memcli/mem/internal/gh"
	"github.com/memcli/mem/internal/git"
	"github.com/memcli/mem/internal/output"
	"github.com/memcli/mem/internal/worktree"
)

// newSpecAbandonCmd creates the spec abandon command.
func newSpecAbandonCmd() *cobra.Command {
	var reasonFlag string
	cmd := &cobra.Command{
		Use:   "abandon <slug>",
		Short: "Abandon a specification",
		Long: `Abandon a specification.

Removes the spec's worktree, closes its PR and issue on GitHub with the
reason, moves the spec to .mem/specs/abandoned/, and commits the change.

Must be run from the main checkout, not a worktree, and not while the
spec is active on the current branch.

Examples:
  mem spec abandon rate-limiting --reason "Superseded by the proxy work"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpecAbandon(cmd, args[0], reasonFlag)
		},
	}
	cmd.Flags().StringVar(&reasonFlag, "reason", "", "Why the spec is being abandoned")
	return cmd
}

func runSpecAbandon(cmd *cobra.Command, slugArg, reason string) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))

	ws, err := openWorkspace()
	if err != nil {
		printer.Error(err)
		return err
	}
	if ws.InWorktree {
		err := output.NewUserError("run 'mem spec abandon' from the main checkout, not a worktree")
		printer.Error(err)
		return err
	}

	sp, err := ws.Specs.Get(slugArg)
	if err != nil {
		err = output.NewUserError(err.Error())
		printer.Error(err)
		return err
	}

	if active, _ := ws.Specs.Active(); active != nil && active.Slug == sp.Slug {
		err := output.NewUserError(fmt.Sprintf(
			"spec %q is active on the current branch. Switch to dev first", sp.Slug))
		printer.Error(err)
		return err
	}

	if reason == "" {
		reason = "No reason given."
	}

	if worktreeExists(ws.MainRoot, sp.Slug) {
		if err := worktree.Remove(ws.MainRoot, sp.Slug, true); err != nil {
			printer.Warn("could not remove worktree: %v", err)
		}
		worktree.Prune(ws.MainRoot)
	}

	comment := fmt.Sprintf("**Spec Abandoned**\n\n%s", reason)
	if client, clientErr := gh.Open(cmd.Context(), ws.MainRoot); clientErr != nil {
		printer.Warn("could not reach GitHub: %v", clientErr)
	} else {
		if sp.PRURL != "" {
			if err := client.ClosePull(cmd.Context(), sp.PRURL, comment); err != nil {
				printer.Warn("could not close PR: %v", err)
			}
		}
		if sp.IssueID != 0 {
			if err := client.CloseIssueWithComment(cmd.Context(), sp.IssueID, comment); err != nil {
				printer.Warn("could not close issue #%d: %v", sp.IssueID, err)
			}
		}
	}

	if _, err := ws.Specs.MoveToAbandoned(sp.Slug); err != nil {
		printer.Error(err)
		return err
	}

	if committed, err := git.CommitPaths(ws.Root, fmt.Sprintf("mem: abandon spec %s", sp.Slug), ".mem"); err != nil {
		printer.Warn("could not commit: %v", err)
	} else if committed {
		current, _ := git.CurrentBranch(ws.Root)
		if err := git.Push(ws.Root, current, false); err != nil {
			printer.Warn("could not push: %v", err)
		}
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"slug":   sp.Slug,
			"status": "abandoned",
			"reason": reason,
		})
	}

	printer.Println(printer.Styles().Success.Render("Abandoned spec: ") + sp.Slug)
	return nil
}
