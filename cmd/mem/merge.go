// Package main provides the entry point for the mem CLI.
package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/memcli/mem/internal/gh"
	"github.com/memcli/mem/internal/git"
	"github.com/memcli/mem/internal/output"
	"github.com/memcli/mem/internal/spec"
)

// mergeBucket classifies what can be done with a merge_ready spec's PR.
type mergeBucket int

const (
	bucketNoPR mergeBucket = iota
	bucketMerged
	bucketReady
	bucketConflict
)

// mergeCandidate is one merge_ready spec with its PR state.
type mergeCandidate struct {
	Spec   *spec.Spec
	Status gh.PullStatus
	Bucket mergeBucket
	Note   string
}

// classifyPull decides the bucket for a PR's merge state. GitHub's
// mergeable flag is nil while mergeability is being computed; treat
// that and any unrecognized state as a conflict so nothing merges
// blind.
func classifyPull(st gh.PullStatus) (mergeBucket, string) {
	if st.Merged {
		return bucketMerged, ""
	}
	if st.Mergeable != nil && !*st.Mergeable {
		return bucketConflict, "merge conflicts with dev"
	}
	switch st.MergeableState {
	case "clean":
		if st.Mergeable != nil && *st.Mergeable {
			return bucketReady, ""
		}
		return bucketConflict, "mergeability not yet computed"
	case "behind":
		return bucketReady, "branch is behind dev; GitHub will rebase it"
	case "dirty", "blocked":
		return bucketConflict, "state: " + st.MergeableState
	default:
		return bucketConflict, "unknown state: " + st.MergeableState
	}
}

// newMergeCmd creates the merge command.
func newMergeCmd() *cobra.Command {
	var allFlag, dryRunFlag, keepBranchesFlag bool
	cmd := &cobra.Command{
		Use:   "merge [<slug>]",
		Short: "Merge the PRs of merge-ready specs",
		Long: `Merge the pull requests of merge_ready specs into dev.

Checks mergeability of every merge_ready spec's PR, then rebase-merges
the clean ones, moves their specs to completed, and deletes the remote
branches. Specs whose PR already merged are completed locally. Specs
with conflicts are reported and skipped.

With several candidates and no --all or slug, prompts for a selection.

Examples:
  mem merge                 # interactive selection
  mem merge rate-limiting   # merge one spec
  mem merge --all           # merge everything clean
  mem merge --dry-run       # report only`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slug := ""
			if len(args) == 1 {
				slug = args[0]
			}
			return runMerge(cmd, slug, allFlag, dryRunFlag, keepBranchesFlag)
		},
	}
	cmd.Flags().BoolVar(&allFlag, "all", false, "Merge every clean candidate without prompting")
	cmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Report merge states without merging")
	cmd.Flags().BoolVar(&keepBranchesFlag, "keep-branches", false, "Do not delete remote branches after merging")
	return cmd
}

func runMerge(cmd *cobra.Command, slugArg string, all, dryRun, keepBranches bool) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))

	ws, err := openWorkspace()
	if err != nil {
		printer.Error(err)
		return err
	}
	if ws.InWorktree {
		err := output.NewUserError("run 'mem merge' from the main checkout, not a worktree")
		printer.Error(err)
		return err
	}

	client, err := gh.Open(cmd.Context(), ws.Root)
	if err != nil {
		printer.Error(err)
		return err
	}

	ready, err := ws.Specs.List(spec.StatusMergeReady)
	if err != nil {
		printer.Error(err)
		return err
	}
	if slugArg != "" {
		resolved, err := ws.Specs.Resolve(slugArg)
		if err != nil {
			err = output.NewUserError(err.Error())
			printer.Error(err)
			return err
		}
		filtered := ready[:0]
		for _, sp := range ready {
			if sp.Slug == resolved {
				filtered = append(filtered, sp)
			}
		}
		ready = filtered
		if len(ready) == 0 {
			err := output.NewUserError(fmt.Sprintf("spec %q is not merge_ready", resolved))
			printer.Error(err)
			return err
		}
	}
	if len(ready) == 0 {
		if printer.IsJSON() {
			return printer.Success(map[string]any{"merged": []string{}, "conflicts": []string{}})
		}
		printer.Println("No merge-ready specs.")
		return nil
	}

	var candidates []mergeCandidate
	for _, sp := range ready {
		c := mergeCandidate{Spec: sp}
		if sp.PRURL == "" {
			c.Bucket = bucketNoPR
			c.Note = "no PR recorded. Run 'mem spec complete' from its worktree"
		} else {
			st, err := client.PullStatusByURL(cmd.Context(), sp.PRURL)
			if err != nil {
				c.Bucket = bucketConflict
				c.Note = err.Error()
			} else {
				c.Status = st
				c.Bucket, c.Note = classifyPull(st)
			}
		}
		candidates = append(candidates, c)
	}

	if dryRun {
		return printMergeReport(printer, candidates)
	}

	var merged, completed, conflicts []string

	// Specs whose PR merged out of band just need local completion.
	for _, c := range candidates {
		if c.Bucket != bucketMerged {
			continue
		}
		if err := completeMergedSpec(cmd, ws, client, c.Spec, keepBranches, printer); err != nil {
			printer.Warn("could not complete %s: %v", c.Spec.Slug, err)
			continue
		}
		completed = append(completed, c.Spec.Slug)
	}

	mergeable := readyCandidates(candidates)
	selected := mergeable
	if !all && slugArg == "" && len(mergeable) > 1 {
		selected = selectCandidates(cmd, printer, mergeable)
	}

	for _, c := range selected {
		if c.Note != "" {
			printer.Println("  " + printer.Styles().Dim.Render(c.Note))
		}
		if err := client.MergePullRebase(cmd.Context(), c.Status.Number); err != nil {
			printer.Warn("merge failed for %s: %v", c.Spec.Slug, err)
			conflicts = append(conflicts, c.Spec.Slug)
			continue
		}
		if err := completeMergedSpec(cmd, ws, client, c.Spec, keepBranches, printer); err != nil {
			printer.Warn("merged but could not complete %s: %v", c.Spec.Slug, err)
			continue
		}
		merged = append(merged, c.Spec.Slug)
	}

	for _, c := range candidates {
		if c.Bucket == bucketConflict || c.Bucket == bucketNoPR {
			conflicts = append(conflicts, c.Spec.Slug)
		}
	}

	if len(merged)+len(completed) > 0 {
		if err := git.Pull(ws.Root); err != nil {
			printer.Warn("git pull failed: %v", err)
		}
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"merged":    merged,
			"completed": completed,
			"conflicts": conflicts,
		})
	}

	styles := printer.Styles()
	for _, slug := range merged {
		printer.Println(styles.Success.Render("Merged: ") + slug)
	}
	for _, slug := range completed {
		printer.Println(styles.Success.Render("Completed (already merged): ") + slug)
	}
	for _, c := range candidates {
		if c.Bucket == bucketConflict || c.Bucket == bucketNoPR {
			printer.Println(styles.Warning.Render("Skipped: ") + c.Spec.Slug + "  " + c.Note)
		}
	}
	if len(merged)+len(completed) == 0 && len(conflicts) == 0 {
		printer.Println("Nothing to merge.")
	}
	return nil
}

func readyCandidates(candidates []mergeCandidate) []mergeCandidate {
	var out []mergeCandidate
	for _, c := range candidates {
		if c.Bucket == bucketReady {
			out = append(out, c)
		}
	}
	return out
}

// selectCandidates prompts for which clean PRs to merge. Accepts a
// comma-separated list of numbers, "all", or "q" to abort.
func selectCandidates(cmd *cobra.Command, printer *output.Printer, mergeable []mergeCandidate) []mergeCandidate {
	printer.Println("Ready to merge:")
	for i, c := range mergeable {
		printer.Println(fmt.Sprintf("  %d. %s  %s", i+1, c.Spec.Slug, printer.Styles().Dim.Render(c.Spec.PRURL)))
	}
	printer.Print("Merge which? (numbers, 'all', or 'q'): ")

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return nil
	}
	line = strings.TrimSpace(line)
	switch line {
	case "", "q":
		return nil
	case "all":
		return mergeable
	}

	var selected []mergeCandidate
	for _, part := range strings.Split(line, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 || n > len(mergeable) {
			printer.Warn("ignoring invalid selection %q", part)
			continue
		}
		selected = append(selected, mergeable[n-1])
	}
	return selected
}

// completeMergedSpec archives a spec whose PR has merged and cleans up
// its remote branch.
func completeMergedSpec(cmd *cobra.Command, ws *workspace, client *gh.Client, sp *spec.Spec, keepBranches bool, printer *output.Printer) error {
	if _, err := ws.Specs.MoveToCompleted(sp.Slug); err != nil {
		return err
	}
	if !keepBranches && sp.Branch != "" {
		if err := client.DeleteBranch(cmd.Context(), sp.Branch); err != nil {
			printer.Warn("could not delete remote branch %s: %v", sp.Branch, err)
		}
	}
	return nil
}

func printMergeReport(printer *output.Printer, candidates []mergeCandidate) error {
	if printer.IsJSON() {
		items := make([]map[string]any, 0, len(candidates))
		for _, c := range candidates {
			items = append(items, map[string]any{
				"slug":   c.Spec.Slug,
				"pr_url": c.Spec.PRURL,
				"bucket": bucketName(c.Bucket),
				"note":   c.Note,
			})
		}
		return printer.Success(map[string]any{"dry_run": true, "candidates": items})
	}

	styles := printer.Styles()
	printer.Header("Merge report (dry-run)")
	for _, c := range candidates {
		label := bucketName(c.Bucket)
		line := fmt.Sprintf("  %-30s %-10s", c.Spec.Slug, label)
		if c.Note != "" {
			line += styles.Dim.Render(c.Note)
		}
		printer.Println(line)
	}
	return nil
}

func bucketName(b mergeBucket) string {
	switch b {
	case bucketNoPR:
		return "no-pr"
	case bucketMerged:
		return "merged"
	case bucketReady:
		return "ready"
	default:
		return "conflict"
	}
}
