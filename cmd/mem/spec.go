// Package main provides the entry point for the mem CLI.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/memcli/mem/internal/output"
	"github.com/memcli/mem/internal/spec"
	"github.com/memcli/mem/internal/template"
	"github.com/memcli/mem/internal/worktree"
)

// newSpecCmd creates the spec command group.
func newSpecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spec",
		Short: "Manage specifications",
		Long: `Manage feature specifications.

A spec is a markdown file with YAML frontmatter under .mem/specs/<slug>/.
Specs mirror to GitHub Issues via 'mem sync', get a branch and worktree
via 'mem spec assign', and turn into a PR via 'mem spec complete'.`,
	}
	cmd.AddCommand(newSpecNewCmd())
	cmd.AddCommand(newSpecListCmd())
	cmd.AddCommand(newSpecShowCmd())
	cmd.AddCommand(newSpecAssignCmd())
	cmd.AddCommand(newSpecCompleteCmd())
	cmd.AddCommand(newSpecAbandonCmd())
	return cmd
}

// newSpecNewCmd creates the spec new command.
func newSpecNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new <title>",
		Short: "Create a new specification",
		Long: `Create a new specification from the spec template.

The slug is derived from the title. Fill in the template sections, then
run 'mem sync' to mirror the spec to a GitHub issue.

Examples:
  mem spec new "Add rate limiting"
  mem spec new "Fix login flow" --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpecNew(cmd, args[0])
		},
	}
}

func runSpecNew(cmd *cobra.Command, title string) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))

	ws, err := openWorkspace()
	if err != nil {
		printer.Error(err)
		return err
	}

	sp, err := ws.Specs.Create(title, template.LoadSpec())
	if err != nil {
		err = output.NewUserError(err.Error())
		printer.Error(err)
		return err
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"slug":  sp.Slug,
			"title": sp.Title,
			"path":  ws.Specs.File(sp.Slug),
		})
	}

	styles := printer.Styles()
	printer.Println(styles.Success.Render("Created spec: ") + styles.Bold.Render(sp.Slug))
	printer.Println(styles.Dim.Render("  " + ws.Specs.File(sp.Slug)))
	printer.Println()
	printer.Println("Next steps:")
	printer.Println("  1. Edit the spec file and fill in the template sections")
	printer.Println("  2. Run 'mem sync' to create the GitHub issue")
	printer.Println("  3. Run 'mem spec assign " + sp.Slug + " <user>' to start work")
	printer.Println()
	printer.Println(styles.Warning.Render("Work happens in a worktree: do not develop on dev directly."))
	return nil
}

// newSpecListCmd creates the spec list command.
func newSpecListCmd() *cobra.Command {
	var statusFlag string
	var allFlag bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List specifications",
		Long: `List specifications.

Shows todo and merge_ready specs by default. The active spec (the one
matching the current branch or worktree) is marked with an asterisk.

Examples:
  mem spec list
  mem spec list --all
  mem spec list --status completed`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSpecList(cmd, statusFlag, allFlag)
		},
	}
	cmd.Flags().StringVar(&statusFlag, "status", "", "Filter by status (todo, merge_ready, completed, abandoned)")
	cmd.Flags().BoolVar(&allFlag, "all", false, "Include completed and abandoned specs")
	return cmd
}

func runSpecList(cmd *cobra.Command, statusFlag string, all bool) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))

	ws, err := openWorkspace()
	if err != nil {
		printer.Error(err)
		return err
	}

	var specs []*spec.Spec
	switch {
	case statusFlag != "":
		st := spec.Status(statusFlag)
		if !st.Valid() {
			err := output.NewUserError(fmt.Sprintf("unknown status %q", statusFlag))
			printer.Error(err)
			return err
		}
		specs, err = ws.Specs.List(st)
	case all:
		specs, err = ws.Specs.List("")
		if err == nil {
			for _, st := range []spec.Status{spec.StatusCompleted, spec.StatusAbandoned} {
				archived, archErr := ws.Specs.List(st)
				if archErr != nil {
					err = archErr
					break
				}
				specs = append(specs, archived...)
			}
		}
	default:
		specs, err = ws.Specs.List(spec.StatusTodo)
		if err == nil {
			ready, readyErr := ws.Specs.List(spec.StatusMergeReady)
			err = readyErr
			specs = append(specs, ready...)
		}
	}
	if err != nil {
		printer.Error(err)
		return err
	}

	active, _ := ws.Specs.Active()

	if printer.IsJSON() {
		items := make([]map[string]any, 0, len(specs))
		for _, sp := range specs {
			items = append(items, specJSON(sp, active != nil && active.Slug == sp.Slug))
		}
		return printer.Success(map[string]any{"specs": items, "count": len(specs)})
	}

	if len(specs) == 0 {
		printer.Println("No specs found. Create one with 'mem spec new <title>'.")
		return nil
	}

	styles := printer.Styles()
	for _, sp := range specs {
		marker := "  "
		if active != nil && active.Slug == sp.Slug {
			marker = styles.Accent.Render("* ")
		}
		line := fmt.Sprintf("%s%-30s %-12s", marker, sp.Slug, sp.Status)
		if sp.AssignedTo != "" {
			line += " @" + sp.AssignedTo
		}
		if sp.IssueID != 0 {
			line += styles.Dim.Render(fmt.Sprintf("  #%d", sp.IssueID))
		}
		printer.Println(line)
	}
	return nil
}

func specJSON(sp *spec.Spec, active bool) map[string]any {
	m := map[string]any{
		"slug":   sp.Slug,
		"title":  sp.Title,
		"status": string(sp.Status),
		"active": active,
	}
	if sp.AssignedTo != "" {
		m["assigned_to"] = sp.AssignedTo
	}
	if sp.IssueID != 0 {
		m["issue_id"] = sp.IssueID
		m["issue_url"] = sp.IssueURL
	}
	if sp.Branch != "" {
		m["branch"] = sp.Branch
	}
	if sp.PRURL != "" {
		m["pr_url"] = sp.PRURL
	}
	return m
}

// newSpecShowCmd creates the spec show command.
func newSpecShowCmd() *cobra.Command {
	var verboseFlag bool
	cmd := &cobra.Command{
		Use:   "show [<slug>]",
		Short: "Show a specification",
		Long: `Show a specification by slug or prefix.

Without an argument, shows the active spec. With --verbose, includes
the spec body and its tasks and subtasks.

Examples:
  mem spec show
  mem spec show rate-lim
  mem spec show rate-limiting --verbose`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpecShow(cmd, args, verboseFlag)
		},
	}
	cmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Include spec body and tasks")
	return cmd
}

func runSpecShow(cmd *cobra.Command, args []string, verbose bool) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))

	ws, err := openWorkspace()
	if err != nil {
		printer.Error(err)
		return err
	}

	var sp *spec.Spec
	if len(args) == 1 {
		sp, err = ws.Specs.Get(args[0])
		if err != nil {
			err = output.NewUserError(err.Error())
			printer.Error(err)
			return err
		}
	} else {
		sp, err = ws.Specs.Active()
		if err != nil {
			printer.Error(err)
			return err
		}
		if sp == nil {
			err := output.NewUserError("no active spec. Pass a slug or switch to a spec branch")
			printer.Error(err)
			return err
		}
	}

	active, _ := ws.Specs.Active()
	isActive := active != nil && active.Slug == sp.Slug

	if printer.IsJSON() {
		data := specJSON(sp, isActive)
		data["created_at"] = sp.CreatedAt
		data["updated_at"] = sp.UpdatedAt
		if verbose {
			data["body"] = sp.Body
			data["tasks"] = taskListJSON(ws, sp.Slug)
		}
		return printer.Success(data)
	}

	styles := printer.Styles()
	printer.Header(sp.Title)
	printer.Println(styles.Key.Render("Slug:    ") + sp.Slug)
	printer.Println(styles.Key.Render("Status:  ") + string(sp.Status))
	if sp.AssignedTo != "" {
		printer.Println(styles.Key.Render("Assignee:") + " @" + sp.AssignedTo)
	}
	if sp.IssueID != 0 {
		printer.Println(styles.Key.Render("Issue:   ") + fmt.Sprintf("#%d %s", sp.IssueID, sp.IssueURL))
	}
	if sp.Branch != "" {
		printer.Println(styles.Key.Render("Branch:  ") + sp.Branch)
	}
	if sp.PRURL != "" {
		printer.Println(styles.Key.Render("PR:      ") + sp.PRURL)
	}
	if isActive {
		printer.Println(styles.Accent.Render("This is the active spec."))
	}

	if verbose {
		printer.Println()
		printer.Println(strings.TrimSpace(sp.Body))
		printSpecTasks(printer, ws, sp.Slug)
	}
	return nil
}

func taskListJSON(ws *workspace, slug string) []map[string]any {
	tasks, err := ws.Tasks.List(slug)
	if err != nil {
		return nil
	}
	items := make([]map[string]any, 0, len(tasks))
	for _, t := range tasks {
		item := map[string]any{
			"name":   t.Filename,
			"title":  t.Title,
			"status": string(t.Status),
		}
		if len(t.Subtasks) > 0 {
			subs := make([]map[string]any, 0, len(t.Subtasks))
			for _, sub := range t.Subtasks {
				subs = append(subs, map[string]any{"title": sub.Title, "status": string(sub.Status)})
			}
			item["subtasks"] = subs
		}
		items = append(items, item)
	}
	return items
}

func printSpecTasks(printer *output.Printer, ws *workspace, slug string) {
	tasks, err := ws.Tasks.List(slug)
	if err != nil || len(tasks) == 0 {
		return
	}
	printer.Println()
	printer.Println(printer.Styles().Bold.Render("Tasks:"))
	for _, t := range tasks {
		printer.Println(fmt.Sprintf("  [%s] %s", checkbox(string(t.Status)), t.Title))
		for _, sub := range t.Subtasks {
			printer.Println(fmt.Sprintf("      [%s] %s", checkbox(string(sub.Status)), sub.Title))
		}
	}
}

func checkbox(status string) string {
	if status == "completed" {
		return "x"
	}
	return " "
}

// worktreeExists reports whether a worktree directory exists for slug.
func worktreeExists(mainRoot, slug string) bool {
	for _, wt := range listWorktrees(mainRoot) {
		if wt == worktree.PathFor(mainRoot, slug) {
			return true
		}
	}
	return false
}

func listWorktrees(mainRoot string) []string {
	wts, err := worktree.List(mainRoot)
	if err != nil {
		return nil
	}
	paths := make([]string, 0, len(wts))
	for _, wt := range wts {
		paths = append(paths, wt.Path)
	}
	return paths
}
