// Package main provides the entry point for the mem CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memcli/mem/internal/gh"
	"github.com/memcli/mem/internal/output"
	"github.com/memcli/mem/internal/syncplan"
)

// newSyncCmd creates the sync command.
func newSyncCmd() *cobra.Command {
	var dryRunFlag bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync specs with GitHub issues",
		Long: `Reconcile local specs with GitHub issues, both ways.

Unsynced local specs become issues; unknown issues with the mem-spec
label become specs; content changes flow in the direction of the edit.
Specs edited on both sides are reported as conflicts and skipped.
Non-spec issues become todos. Merge-ready specs whose PR has merged are
moved to completed and their issue is closed.

Examples:
  mem sync
  mem sync --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, dryRunFlag)
		},
	}
	cmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Show the plan without applying it")
	return cmd
}

func runSync(cmd *cobra.Command, dryRun bool) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))

	ws, err := openWorkspace()
	if err != nil {
		printer.Error(err)
		return err
	}

	client, err := gh.Open(cmd.Context(), ws.Root)
	if err != nil {
		printer.Error(err)
		return err
	}

	issues, err := client.ListOpenIssues(cmd.Context())
	if err != nil {
		printer.Error(err)
		return err
	}
	localSpecs, err := ws.Specs.List("")
	if err != nil {
		printer.Error(err)
		return err
	}

	plan, err := syncplan.BuildPlan(cmd.Context(), localSpecs, ws.Todos, issues, client)
	if err != nil {
		printer.Error(err)
		return err
	}

	if dryRun {
		if printer.IsJSON() {
			return printer.Success(map[string]any{
				"dry_run": true,
				"plan":    plan,
				"total":   plan.TotalActions(),
			})
		}
		syncplan.PrintPlan(printer, plan)
		return nil
	}

	if !plan.HasChanges() {
		if printer.IsJSON() {
			return printer.Success(map[string]any{"applied": 0, "conflicts": len(plan.Conflicts)})
		}
		printer.Println("Everything is in sync.")
		return nil
	}

	executor := &syncplan.Executor{
		Specs:   ws.Specs,
		Todos:   ws.Todos,
		GitHub:  client,
		Printer: printer,
	}
	applied, err := executor.Execute(cmd.Context(), plan, issues)
	if err != nil {
		printer.Error(err)
		return err
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"applied":   applied,
			"conflicts": len(plan.Conflicts),
		})
	}

	styles := printer.Styles()
	printer.Println(styles.Success.Render("Sync complete: ") + fmt.Sprintf("%d changes applied", applied))
	if len(plan.Conflicts) > 0 {
		printer.Warn("%d specs have conflicting edits. Resolve them manually and sync again", len(plan.Conflicts))
	}
	return nil
}
