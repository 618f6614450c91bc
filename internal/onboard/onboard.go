// Package onboard assembles the project context handed to coding
// agents: project config, important files, the active spec with its
// tasks, recent work logs and open todos, plus workflow guidance.
package onboard

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/memcli/mem/internal/config"
	"github.com/memcli/mem/internal/spec"
	"github.com/memcli/mem/internal/task"
	"github.com/memcli/mem/internal/template"
	"github.com/memcli/mem/internal/todo"
	"github.com/memcli/mem/internal/worklog"
	"github.com/memcli/mem/internal/worktree"
)

const rule = "----------------------------------------------------------------------"

// Builder gathers everything the context needs from one project.
type Builder struct {
	Root   string
	Config *config.Local
	Specs  *spec.Store
	Tasks  *task.Store
	Logs   *worklog.Store
	Todos  *todo.Store
}

// Build returns the full onboard context. syncWarning, when non-empty,
// is embedded prominently so agents stop and fix sync first.
func (b *Builder) Build(syncWarning string) string {
	branch, active, warning := b.Specs.BranchStatus()

	var out []string
	out = append(out, b.header(branch, warning)...)
	out = append(out, b.guidelines()...)
	out = append(out, b.importantFiles()...)
	out = append(out, b.specSection(active)...)
	out = append(out, b.workLogs(active)...)
	out = append(out, b.openTodos()...)
	out = append(out, b.workflowHints(active)...)
	out = append(out, b.nextSteps(active)...)
	out = append(out, agentHalt...)
	if syncWarning != "" {
		out = append(out, syncFailureBanner(syncWarning)...)
	}
	return strings.Join(out, "\n")
}

func (b *Builder) header(branch, warning string) []string {
	out := []string{
		"======================================================================",
		"PROJECT CONTEXT (generated by mem)",
		"======================================================================",
		"",
		"## About mem",
		"",
		"mem is a CLI tool for managing project context in AI-assisted development.",
		"It uses a file-first, git-native architecture where all data is stored as",
		"markdown files with YAML frontmatter in the .mem/ directory.",
		"",
		"**Core concepts:**",
		"- **Specs**: High-level feature specifications (linked to GitHub issues)",
		"- **Tasks**: Concrete work items within a spec",
		"- **Work Logs**: Session records of what was done and what's next",
		"",
		"**Key commands:**",
		"- `mem spec new \"title\"` - Create a new spec",
		"- `mem spec assign <slug>` - Assign spec to yourself and create worktree",
		"- `mem task new \"title\" \"description\"` - Create a task for active spec",
		"- `mem task complete \"title\" \"notes\"` - Mark task done",
		"- `mem spec complete <slug> \"commit message\"` - Create PR, mark spec merge_ready",
		"- `mem merge` - Merge completed PRs and clean up worktrees",
		"- `mem log` - Create/update work log for the session",
		"- `mem sync` - Bidirectional sync with GitHub issues",
		"",
		"**Branch merge rules:**",
		"- anything -> dev (feature branches merge here)",
		"- dev or hotfix/* -> test",
		"- test -> main",
		"",
		rule,
		"PROJECT INFO",
		rule,
	}

	name := "Unknown"
	if b.Config != nil && b.Config.Project.Name != "" {
		name = b.Config.Project.Name
	}
	out = append(out, "**Project:** "+name)
	if b.Config != nil && b.Config.Project.Description != "" {
		out = append(out, "**Description:** "+strings.TrimSpace(b.Config.Project.Description))
	}
	out = append(out, "**Current Branch:** "+branch, "")

	if warning != "" {
		out = append(out, "WARNING: "+warning, "")
	}
	return out
}

// guidelines inlines the generic templates named in
// project.generic_templates from the global templates directory.
func (b *Builder) guidelines() []string {
	if b.Config == nil || len(b.Config.Project.GenericTemplates) == 0 {
		return nil
	}
	var sections []string
	for _, name := range b.Config.Project.GenericTemplates {
		content, err := template.LoadGeneric(name)
		if err != nil {
			continue
		}
		sections = append(sections, "\n## "+name+"\n", strings.TrimSpace(content), "")
	}
	if len(sections) == 0 {
		return nil
	}
	out := []string{rule, "CODING GUIDELINES", rule}
	out = append(out, sections...)
	return out
}

// importantFiles inlines every file matching the configured glob
// patterns. README contents are trimmed of install instructions.
func (b *Builder) importantFiles() []string {
	if b.Config == nil || len(b.Config.Files) == 0 {
		return nil
	}
	out := []string{rule, "IMPORTANT FILES", rule}
	found := false
	for _, entry := range b.Config.Files {
		for _, path := range b.expandPattern(entry.Path) {
			data, err := os.ReadFile(filepath.Join(b.Root, path))
			if err != nil {
				continue
			}
			found = true
			content := string(data)
			if strings.HasSuffix(strings.ToLower(path), "readme.md") {
				content = FilterReadmeSections(content)
			}
			out = append(out, "\n## "+path)
			if entry.Description != "" {
				out = append(out, "*"+entry.Description+"*\n")
			}
			out = append(out, content, "")
		}
	}
	if !found {
		return nil
	}
	return append(out, "")
}

// expandPattern resolves a files[].path entry, treating it as a
// doublestar glob relative to the project root. A plain path matches
// itself.
func (b *Builder) expandPattern(pattern string) []string {
	if pattern == "" {
		return nil
	}
	matches, err := doublestar.Glob(os.DirFS(b.Root), pattern)
	if err != nil || len(matches) == 0 {
		return []string{pattern}
	}
	sort.Strings(matches)
	return matches
}

func (b *Builder) specSection(active *spec.Spec) []string {
	out := []string{rule}
	if active != nil {
		out = append(out,
			"ACTIVE SPEC: "+active.Title,
			rule,
			"",
			"You are currently working on this spec. Complete its tasks, then run",
			fmt.Sprintf("`mem spec complete %s \"detailed commit message\"` to create a PR.", active.Slug),
			"",
		)
		if diff := b.Specs.BranchDiffStat(); diff != "" {
			out = append(out, "### Files modified in this spec (vs dev):", "```", diff, "```", "")
		}
		out = append(out, b.specDetail(active))
		return append(out, "")
	}

	out = append(out,
		"AVAILABLE SPECS",
		rule,
		"",
		"No spec is currently active. You are in the main repo.",
		"",
	)

	if wts, err := worktree.List(b.Root); err == nil {
		var lines []string
		base := worktree.BaseDir(b.Root)
		for _, wt := range wts {
			if filepath.Dir(wt.Path) != base {
				continue
			}
			lines = append(lines, fmt.Sprintf("  - %s: %s", filepath.Base(wt.Path), wt.Path))
		}
		if len(lines) > 0 {
			out = append(out, "### Active worktrees:", "Each worktree is an isolated workspace for a spec.")
			out = append(out, lines...)
			out = append(out, "", "To work on a spec, open a terminal in its worktree directory.", "")
		}
	}

	all, _ := b.Specs.List("")
	var todoSpecs, mergeReady []*spec.Spec
	for _, sp := range all {
		switch sp.Status {
		case spec.StatusMergeReady:
			mergeReady = append(mergeReady, sp)
		case spec.StatusTodo:
			todoSpecs = append(todoSpecs, sp)
		}
	}

	if len(mergeReady) > 0 {
		out = append(out, "### Specs ready to merge:")
		for _, sp := range mergeReady {
			out = append(out, fmt.Sprintf("  - %s: %s", sp.Slug, sp.Title))
			if sp.PRURL != "" {
				out = append(out, "    PR: "+sp.PRURL)
			}
		}
		out = append(out, "", "Run `mem merge` to merge these PRs.", "")
	}

	if len(todoSpecs) > 0 {
		out = append(out, "### Specs to work on:")
		for _, sp := range todoSpecs {
			out = append(out, b.specSummary(sp))
		}
	} else if len(mergeReady) == 0 {
		out = append(out, "No specs available. Create one with: mem spec new \"title\"", "")
		if completed, err := b.Specs.List(spec.StatusCompleted); err == nil && len(completed) > 0 {
			out = append(out, "### Recently completed specs:", "These were the last completed specs for context:", "")
			for i, sp := range completed {
				if i >= 2 {
					break
				}
				out = append(out, fmt.Sprintf("**%s**: %s", sp.Slug, sp.Title))
				if body := strings.TrimSpace(sp.Body); body != "" {
					out = append(out, truncate(body, 500))
				}
				out = append(out, "")
			}
		}
	}
	return append(out, "")
}

func (b *Builder) specDetail(sp *spec.Spec) string {
	var out []string
	out = append(out, "Title: "+sp.Title)
	out = append(out, "Status: "+string(sp.Status))
	branch := sp.Branch
	if branch == "" {
		branch = "N/A"
	}
	out = append(out, "Branch: "+branch)

	if body := strings.TrimSpace(sp.Body); body != "" {
		out = append(out, "\n### Details:\n", body)
	}

	if tasks, err := b.Tasks.List(sp.Slug); err == nil && len(tasks) > 0 {
		out = append(out, "\n### Tasks:")
		for _, t := range tasks {
			icon := "[ ]"
			if t.Meta.Status == task.StatusCompleted {
				icon = "[x]"
			}
			out = append(out, fmt.Sprintf("  %s %s", icon, t.Meta.Title))
		}
	}
	return strings.Join(out, "\n")
}

func (b *Builder) specSummary(sp *spec.Spec) string {
	out := []string{
		fmt.Sprintf("\n## %s (%s)", sp.Slug, sp.Status),
		"Title: " + sp.Title,
	}
	if body := strings.TrimSpace(sp.Body); body != "" {
		out = append(out, "\n"+truncate(body, 300))
	}
	if tasks, err := b.Tasks.List(sp.Slug); err == nil && len(tasks) > 0 {
		completed := 0
		for _, t := range tasks {
			if t.Meta.Status == task.StatusCompleted {
				completed++
			}
		}
		out = append(out, fmt.Sprintf("\nTasks: %d/%d completed", completed, len(tasks)))
	}
	return strings.Join(out, "\n")
}

// workLogs shows the full history for the active spec, or the three
// most recent sessions otherwise. When those three all belong to one
// spec, the third is swapped for the newest log from a different spec
// so the reader sees breadth.
func (b *Builder) workLogs(active *spec.Spec) []string {
	out := []string{
		rule,
		"RECENT WORK LOGS",
		rule,
		"",
		"Work logs capture what was accomplished in each session, blockers encountered,",
		"and suggested next steps. Review these to understand recent progress.",
		"",
	}

	var logs []*worklog.Log
	var err error
	if active != nil {
		logs, err = b.Logs.List(worklog.Filter{SpecSlug: active.Slug, Limit: 100})
	} else {
		logs, err = b.Logs.List(worklog.Filter{Limit: 3})
		if err == nil && len(logs) == 3 &&
			logs[0].Meta.SpecSlug != "" &&
			logs[0].Meta.SpecSlug == logs[1].Meta.SpecSlug &&
			logs[1].Meta.SpecSlug == logs[2].Meta.SpecSlug {
			if more, err2 := b.Logs.List(worklog.Filter{Limit: 10}); err2 == nil {
				for _, l := range more {
					if l.Meta.SpecSlug != logs[0].Meta.SpecSlug {
						logs = append(logs[:2], l)
						break
					}
				}
			}
		}
	}
	if err != nil {
		return append(out, "Could not load work logs.", "")
	}

	if len(logs) == 0 {
		if active != nil {
			out = append(out, fmt.Sprintf("No work logs for spec %q yet. Create one with: mem log", active.Slug))
		} else {
			out = append(out, "No work logs yet. Create one with: mem log")
		}
		return append(out, "")
	}

	// Oldest first so the newest session is the last thing read.
	for i := len(logs) - 1; i >= 0; i-- {
		out = append(out, formatLogEntry(logs[i]), "")
	}
	return out
}

func formatLogEntry(l *worklog.Log) string {
	border := strings.Repeat("-", 68)
	header := "  " + l.Meta.CreatedAt
	if l.Meta.Username != "" {
		header += " (" + l.Meta.Username + ")"
	}
	if l.Meta.SpecSlug != "" {
		header += " - spec: " + l.Meta.SpecSlug
	}
	out := []string{"+" + border + "+", header, "+" + border + "+"}
	if body := strings.TrimSpace(l.Body); body != "" {
		out = append(out, body)
	}
	out = append(out, "+"+border+"+")
	return strings.Join(out, "\n")
}

func (b *Builder) openTodos() []string {
	open, err := b.Todos.List(todo.StatusOpen)
	if err != nil || len(open) == 0 {
		return nil
	}
	out := []string{rule, "OPEN TODOS", rule, "", "Standalone reminders not tied to any spec:"}
	for i, t := range open {
		if i >= 5 {
			out = append(out, fmt.Sprintf("  ... and %d more", len(open)-5))
			break
		}
		out = append(out, "- "+t.Title)
	}
	return append(out, "")
}

func (b *Builder) workflowHints(active *spec.Spec) []string {
	if active == nil {
		return nil
	}
	return []string{
		rule,
		"AGENT WORKFLOW HINTS",
		rule,
		"",
		"Working with tasks:",
		"  - Create task: mem task new \"title\" \"detailed description with implementation notes if necessary\"",
		"  - Complete task: mem task complete \"title\" \"notes about what was done\"",
		"  - List tasks: mem task list",
		"",
		"Important workflow rules:",
		"  - Complete ONE task at a time, then STOP and await further instructions",
		"  - **IMPORTANT**: Mark each task complete AS SOON AS you finish it!",
		"  - Do not batch task completions - complete them one at a time",
		"  - When all tasks are done, run: mem spec complete <slug> \"detailed commit message\"",
		"",
	}
}

func (b *Builder) nextSteps(active *spec.Spec) []string {
	var steps []string
	if active != nil {
		tasks, _ := b.Tasks.List(active.Slug)
		var pending *task.Task
		for _, t := range tasks {
			if t.Meta.Status != task.StatusCompleted {
				pending = t
				break
			}
		}
		switch {
		case pending != nil:
			steps = append(steps, "Continue working on: "+pending.Meta.Title)
		case len(tasks) > 0:
			steps = append(steps, fmt.Sprintf("All tasks completed! Run: mem spec complete %s \"commit message\"", active.Slug))
		default:
			steps = append(steps, "Add tasks to spec: mem task new \"title\" \"description\"")
		}
	} else {
		steps = append(steps,
			"Create a new spec: mem spec new \"feature name\"",
			"Or assign an existing spec: mem spec assign <slug>",
		)
	}
	steps = append(steps, "Create a work log for this session: mem log")

	out := []string{rule, "SUGGESTED NEXT STEPS", rule, ""}
	for i, step := range steps {
		out = append(out, fmt.Sprintf("%d. %s", i+1, step))
	}
	return append(out, "", "Remember to create a work log at the end of your session: mem log")
}

var agentHalt = []string{
	"",
	rule,
	"[AGENT INSTRUCTION]",
	rule,
	"Your next response must:",
	"1. Briefly summarize the current state (active spec, pending tasks, etc.)",
	"2. Ask the user how they would like to proceed",
	"Do NOT call any tools. Do NOT start working on tasks yet.",
	"Wait for explicit user instruction before taking any action.",
}

func syncFailureBanner(message string) []string {
	bang := strings.Repeat("!", 70)
	return []string{
		"",
		"",
		bang,
		bang,
		"SYNC FAILED - FIX THIS BEFORE DOING ANYTHING ELSE",
		bang,
		bang,
		"",
		"Reason: " + message,
		"",
		"The sync/rebase operation failed. This means your branch is",
		"OUT OF SYNC with origin/dev and needs manual intervention.",
		"",
		"DO NOT proceed with any work until this is resolved!",
		"",
		"To fix this:",
		"  1. git fetch origin",
		"  2. git rebase origin/dev",
		"  3. Resolve any conflicts that arise",
		"  4. git rebase --continue",
		"  5. git push --force-with-lease",
		"  6. Run 'mem onboard' again to verify",
		"",
		"If the rebase is too complex, you can also:",
		"  - git rebase --abort  (to undo the rebase attempt)",
		"  - Ask for help resolving the conflicts",
		"",
		bang,
		bang,
	}
}

// FilterReadmeSections drops Installation and Prerequisites sections
// from README content before inlining it.
func FilterReadmeSections(content string) string {
	skip := map[string]bool{"installation": true, "prerequisites": true}
	var out []string
	skipping := false
	skipLevel := 0

	for _, line := range strings.Split(content, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "#") {
			level := 0
			for level < len(stripped) && stripped[level] == '#' {
				level++
			}
			heading := strings.ToLower(strings.TrimSpace(stripped[level:]))
			if skip[heading] {
				skipping = true
				skipLevel = level
				continue
			}
			if skipping && level <= skipLevel {
				skipping = false
			}
		}
		if !skipping {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
