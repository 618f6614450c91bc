// Package main provides the entry point for the mem CLI.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/memcli/mem/internal/gh"
	"github.com/memcli/mem/internal/onboard"
	"github.com/memcli/mem/internal/output"
	"github.com/memcli/mem/internal/syncplan"
	"github.com/memcli/mem/internal/template"
)

// tmpFileMaxAge is how long onboard context files linger in .mem/tmp/.
const tmpFileMaxAge = time.Hour

// newOnboardCmd creates the onboard command.
func newOnboardCmd() *cobra.Command {
	var stdoutFlag bool
	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Emit project context for a coding agent",
		Long: `Emit full project context for a coding agent session.

Gathers the project description, important files, branch and worktree
state, the active spec with its tasks, recent work logs, and open
todos. Runs a quiet sync first so the context reflects GitHub. Large
output is written to .mem/tmp/ instead of stdout so it survives
terminal scrollback; --stdout forces inline output.

Run this at the start of every agent session.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnboard(cmd, stdoutFlag)
		},
	}
	cmd.Flags().BoolVar(&stdoutFlag, "stdout", false, "Always print to stdout, never to a tmp file")
	return cmd
}

func runOnboard(cmd *cobra.Command, forceStdout bool) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))

	ws, err := openWorkspace()
	if err != nil {
		printer.Error(err)
		return err
	}

	// Housekeeping: keep .mem/tmp out of the repo, drop stale context
	// files, make sure the merge rules hook is present.
	if err := onboard.EnsureGitignoreEntry(ws.Root, ".mem/tmp/", "mem onboard context files"); err != nil {
		printer.Warn("could not update .gitignore: %v", err)
	}
	onboard.PruneTmp(ws.Specs.Paths().TmpDir(), tmpFileMaxAge)
	if _, err := template.InstallPreMergeCommitHook(ws.MainRoot); err != nil {
		printer.Warn("could not install merge hook: %v", err)
	}
	if _, msg := ws.Specs.EnsureOnDevBranch(); msg != "" {
		printer.Stderr("%s\n", msg)
	}

	syncWarning := quietSync(cmd, ws)

	builder := &onboard.Builder{
		Root:   ws.Root,
		Config: ws.Config(),
		Specs:  ws.Specs,
		Tasks:  ws.Tasks,
		Logs:   ws.Logs,
		Todos:  ws.Todos,
	}
	content := builder.Build(syncWarning)

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"context":      content,
			"sync_warning": syncWarning,
		})
	}

	if forceStdout || len(content) <= onboard.MaxStdoutChars {
		printer.Print("%s", content)
		return nil
	}

	path, err := onboard.WriteTmp(ws.Specs.Paths().TmpDir(), content)
	if err != nil {
		// Better too much output than none.
		printer.Print("%s", content)
		return nil
	}
	printer.Println("Onboarding context written to:")
	printer.Println("  " + path)
	printer.Println()
	printer.Println("YOU MUST read this file in full before doing anything else.")
	return nil
}

// quietSync reconciles with GitHub without narrating. Returns a
// warning string when sync could not run or apply cleanly.
func quietSync(cmd *cobra.Command, ws *workspace) string {
	client, err := gh.Open(cmd.Context(), ws.Root)
	if err != nil {
		return fmt.Sprintf("sync skipped: %v", err)
	}
	issues, err := client.ListOpenIssues(cmd.Context())
	if err != nil {
		return fmt.Sprintf("sync failed: %v", err)
	}
	localSpecs, err := ws.Specs.List("")
	if err != nil {
		return fmt.Sprintf("sync failed: %v", err)
	}
	plan, err := syncplan.BuildPlan(cmd.Context(), localSpecs, ws.Todos, issues, client)
	if err != nil {
		return fmt.Sprintf("sync failed: %v", err)
	}
	if !plan.HasChanges() {
		return ""
	}
	executor := &syncplan.Executor{Specs: ws.Specs, Todos: ws.Todos, GitHub: client}
	if _, err := executor.Execute(cmd.Context(), plan, issues); err != nil {
		return fmt.Sprintf("sync failed: %v", err)
	}
	if len(plan.Conflicts) > 0 {
		return fmt.Sprintf("%d specs have conflicting local and remote edits", len(plan.Conflicts))
	}
	return ""
}
