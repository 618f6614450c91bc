// Package main provides the entry point for the mem CLI.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/memcli/mem/internal/gh"
	"github.com/memcli/mem/internal/git"
	"github.com/memcli/mem/internal/output"
	"github.com/memcli/mem/internal/spec"
	"github.com/memcli/mem/internal/worklog"
)

// logRecency is how fresh the latest work log must be for complete to
// accept it as covering this session.
const logRecency = 3 * time.Minute

// newSpecCompleteCmd creates the spec complete command.
func newSpecCompleteCmd() *cobra.Command {
	var noLogFlag bool
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Mark the active spec merge-ready and open a PR",
		Long: `Complete the active specification.

Requires all tasks and subtasks to be completed and a fresh work log
for the spec (written within the last 3 minutes) unless --no-log.
Marks the spec merge_ready, commits and pushes the branch, and opens a
pull request against dev.

Run from the spec's worktree or branch.

Examples:
  mem spec complete
  mem spec complete --no-log`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSpecComplete(cmd, noLogFlag)
		},
	}
	cmd.Flags().BoolVar(&noLogFlag, "no-log", false, "Skip the work log freshness check")
	return cmd
}

func runSpecComplete(cmd *cobra.Command, noLog bool) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))

	ws, err := openWorkspace()
	if err != nil {
		printer.Error(err)
		return err
	}

	// Pick up remote edits (reviews, sync from other checkouts) before
	// judging completeness.
	if err := git.Pull(ws.Root); err != nil {
		printer.Warn("git pull failed: %v", err)
	}

	sp, err := ws.Specs.Active()
	if err != nil {
		printer.Error(err)
		return err
	}
	if sp == nil {
		err := output.NewUserError("no active spec. Run this from the spec's worktree or branch")
		printer.Error(err)
		return err
	}

	if err := checkCompletable(ws, sp, noLog); err != nil {
		printer.Error(err)
		return err
	}

	if err := ws.Specs.Update(sp.Slug, func(m *spec.Meta) {
		m.Status = spec.StatusMergeReady
	}); err != nil {
		printer.Error(err)
		return err
	}

	client, clientErr := gh.Open(cmd.Context(), ws.Root)
	if clientErr == nil {
		if err := client.SyncStatusLabels(cmd.Context(), sp.IssueID, string(spec.StatusMergeReady)); err != nil {
			printer.Warn("could not update status label: %v", err)
		}
	}

	if _, err := git.CommitAll(ws.Root, fmt.Sprintf("mem: complete spec %s", sp.Slug)); err != nil {
		printer.Error(err)
		return err
	}
	if err := git.Push(ws.Root, sp.Branch, true); err != nil {
		printer.Error(err)
		return err
	}

	if clientErr != nil {
		printer.Error(clientErr)
		return clientErr
	}
	prURL, err := openCompletionPR(cmd.Context(), client, sp)
	if err != nil {
		printer.Error(err)
		return err
	}

	if err := ws.Specs.Update(sp.Slug, func(m *spec.Meta) {
		m.PRURL = prURL
	}); err != nil {
		printer.Error(err)
		return err
	}
	if _, err := git.CommitPaths(ws.Root, fmt.Sprintf("Add PR URL for %s", sp.Slug), ".mem"); err != nil {
		printer.Warn("could not commit PR URL: %v", err)
	} else if err := git.Push(ws.Root, sp.Branch, false); err != nil {
		printer.Warn("could not push PR URL commit: %v", err)
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"slug":   sp.Slug,
			"status": string(spec.StatusMergeReady),
			"pr_url": prURL,
		})
	}

	styles := printer.Styles()
	printer.Println(styles.Success.Render("Spec complete: ") + styles.Bold.Render(sp.Slug))
	printer.Println(styles.Key.Render("  PR: ") + prURL)
	printer.Println()
	printer.Println("Merge it with 'mem merge' from the main checkout once review passes.")
	return nil
}

// checkCompletable enforces the completion gates: all tasks and
// subtasks done, and a fresh work log unless waived.
func checkCompletable(ws *workspace, sp *spec.Spec, noLog bool) error {
	incomplete, err := ws.Tasks.HasIncomplete(sp.Slug)
	if err != nil {
		return err
	}
	if incomplete {
		return output.NewUserError(fmt.Sprintf(
			"spec %q has incomplete tasks or subtasks. Complete them or delete them first", sp.Slug))
	}

	if noLog {
		return nil
	}

	logs, err := ws.Logs.List(worklog.Filter{SpecSlug: sp.Slug})
	if err != nil {
		return err
	}
	if len(logs) == 0 {
		return output.NewUserError(fmt.Sprintf(
			"no work log found for spec %q. Run 'mem log' and document the session, or pass --no-log", sp.Slug))
	}

	// Logs come back newest first.
	if _, at, ok := worklog.ParseFilename(logs[0].Filename); ok {
		if worklog.Now().Sub(at) > logRecency {
			return output.NewUserError(
				"the latest work log is stale. Run 'mem log' to document this session, or pass --no-log")
		}
	}
	return nil
}

// openCompletionPR opens the pull request for a completed spec.
func openCompletionPR(ctx context.Context, client *gh.Client, sp *spec.Spec) (string, error) {
	title := fmt.Sprintf("[Complete]: %s", sp.Title)
	body := fmt.Sprintf("This PR completes the specification: %s", sp.Title)
	if sp.IssueID != 0 {
		body += fmt.Sprintf("\n\nCloses #%d", sp.IssueID)
	}
	return client.CreatePull(ctx, title, body, sp.Branch, "dev")
}
