// Package main provides the entry point for the mem CLI.
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memcli/mem/internal/output"
	"github.com/memcli/mem/internal/task"
)

// newTaskCmd creates the task command group.
func newTaskCmd() *cobra.Command {
	var specFlag string
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks of a spec",
		Long: `Manage the tasks of a specification.

Tasks are ordered markdown files under the spec's tasks/ directory.
Without --spec, commands operate on the active spec.`,
	}
	cmd.PersistentFlags().StringVar(&specFlag, "spec", "", "Spec slug (defaults to the active spec)")

	cmd.AddCommand(newTaskNewCmd(&specFlag))
	cmd.AddCommand(newTaskListCmd(&specFlag))
	cmd.AddCommand(newTaskCompleteCmd(&specFlag))
	cmd.AddCommand(newTaskAmendCmd(&specFlag))
	cmd.AddCommand(newTaskRenameCmd(&specFlag))
	cmd.AddCommand(newTaskDeleteCmd(&specFlag))
	return cmd
}

// resolveSpecSlug returns the slug to operate on: the --spec flag value
// resolved through the store, else the active spec.
func resolveSpecSlug(ws *workspace, specFlag string) (string, error) {
	if specFlag != "" {
		sp, err := ws.Specs.Get(specFlag)
		if err != nil {
			return "", output.NewUserError(err.Error())
		}
		return sp.Slug, nil
	}
	sp, err := ws.Specs.Active()
	if err != nil {
		return "", err
	}
	if sp == nil {
		return "", output.NewUserError("no active spec. Pass --spec or switch to a spec branch")
	}
	return sp.Slug, nil
}

// resolveTask finds a task by filename, name without extension, or
// title substring.
func resolveTask(ws *workspace, specSlug, ref string) (*task.Task, error) {
	t, err := ws.Tasks.Get(specSlug, ref)
	if err == nil {
		return t, nil
	}
	var notFound *task.NotFoundError
	if !errors.As(err, &notFound) {
		return nil, err
	}
	name, err := ws.Tasks.FindByTitle(specSlug, ref)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, output.NewUserError(fmt.Sprintf("no task matching %q in spec %q", ref, specSlug))
	}
	return ws.Tasks.Get(specSlug, name)
}

func newTaskNewCmd(specFlag *string) *cobra.Command {
	var descFlag string
	cmd := &cobra.Command{
		Use:   "new <title>",
		Short: "Add a task to a spec",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))
			ws, err := openWorkspace()
			if err != nil {
				printer.Error(err)
				return err
			}
			slug, err := resolveSpecSlug(ws, *specFlag)
			if err != nil {
				printer.Error(err)
				return err
			}
			t, err := ws.Tasks.Create(slug, args[0], descFlag, ws.Tasks.NextOrder(slug))
			if err != nil {
				printer.Error(err)
				return err
			}
			if printer.IsJSON() {
				return printer.Success(map[string]any{
					"spec":  slug,
					"name":  t.Filename,
					"title": t.Title,
					"order": t.Order,
				})
			}
			printer.Println(printer.Styles().Success.Render("Created task: ") + t.Filename)
			return nil
		},
	}
	cmd.Flags().StringVar(&descFlag, "description", "", "Task description body")
	return cmd
}

func newTaskListCmd(specFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the tasks of a spec",
		RunE: func(cmd *cobra.Command, _ []string) error {
			printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))
			ws, err := openWorkspace()
			if err != nil {
				printer.Error(err)
				return err
			}
			slug, err := resolveSpecSlug(ws, *specFlag)
			if err != nil {
				printer.Error(err)
				return err
			}
			if printer.IsJSON() {
				return printer.Success(map[string]any{
					"spec":  slug,
					"tasks": taskListJSON(ws, slug),
				})
			}
			tasks, err := ws.Tasks.List(slug)
			if err != nil {
				printer.Error(err)
				return err
			}
			if len(tasks) == 0 {
				printer.Println("No tasks. Add one with 'mem task new <title>'.")
				return nil
			}
			for _, t := range tasks {
				printer.Println(fmt.Sprintf("  [%s] %s  %s", checkbox(string(t.Status)), t.Filename, t.Title))
				for _, sub := range t.Subtasks {
					printer.Println(fmt.Sprintf("      [%s] %s", checkbox(string(sub.Status)), sub.Title))
				}
			}
			return nil
		},
	}
}

func newTaskCompleteCmd(specFlag *string) *cobra.Command {
	var notesFlag string
	cmd := &cobra.Command{
		Use:   "complete <task>",
		Short: "Mark a task completed",
		Long: `Mark a task completed, optionally recording completion notes.

The task is matched by filename or title substring. Completion is
blocked while the task still has open subtasks.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))
			ws, err := openWorkspace()
			if err != nil {
				printer.Error(err)
				return err
			}
			slug, err := resolveSpecSlug(ws, *specFlag)
			if err != nil {
				printer.Error(err)
				return err
			}
			t, err := resolveTask(ws, slug, args[0])
			if err != nil {
				printer.Error(err)
				return err
			}
			for _, sub := range t.Subtasks {
				if sub.Status != task.StatusCompleted {
					err := output.NewUserError(fmt.Sprintf(
						"task %q has open subtasks. Complete them first", t.Title))
					printer.Error(err)
					return err
				}
			}
			if err := ws.Tasks.Complete(slug, t.Filename, notesFlag); err != nil {
				printer.Error(err)
				return err
			}
			if printer.IsJSON() {
				return printer.Success(map[string]any{"spec": slug, "name": t.Filename, "status": "completed"})
			}
			printer.Println(printer.Styles().Success.Render("Completed task: ") + t.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&notesFlag, "notes", "", "Completion notes appended to the task")
	return cmd
}

func newTaskAmendCmd(specFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "amend <task> <notes>",
		Short: "Append notes to a task and reopen it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))
			ws, err := openWorkspace()
			if err != nil {
				printer.Error(err)
				return err
			}
			slug, err := resolveSpecSlug(ws, *specFlag)
			if err != nil {
				printer.Error(err)
				return err
			}
			t, err := resolveTask(ws, slug, args[0])
			if err != nil {
				printer.Error(err)
				return err
			}
			if err := ws.Tasks.Amend(slug, t.Filename, args[1]); err != nil {
				printer.Error(err)
				return err
			}
			if printer.IsJSON() {
				return printer.Success(map[string]any{"spec": slug, "name": t.Filename, "status": "todo"})
			}
			printer.Println(printer.Styles().Success.Render("Amended task: ") + t.Title)
			return nil
		},
	}
}

func newTaskRenameCmd(specFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <task> <new-title>",
		Short: "Rename a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))
			ws, err := openWorkspace()
			if err != nil {
				printer.Error(err)
				return err
			}
			slug, err := resolveSpecSlug(ws, *specFlag)
			if err != nil {
				printer.Error(err)
				return err
			}
			t, err := resolveTask(ws, slug, args[0])
			if err != nil {
				printer.Error(err)
				return err
			}
			if err := ws.Tasks.Rename(slug, t.Filename, args[1]); err != nil {
				printer.Error(err)
				return err
			}
			if printer.IsJSON() {
				return printer.Success(map[string]any{"spec": slug, "name": t.Filename, "title": args[1]})
			}
			printer.Println(printer.Styles().Success.Render("Renamed task to: ") + args[1])
			return nil
		},
	}
}

func newTaskDeleteCmd(specFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))
			ws, err := openWorkspace()
			if err != nil {
				printer.Error(err)
				return err
			}
			slug, err := resolveSpecSlug(ws, *specFlag)
			if err != nil {
				printer.Error(err)
				return err
			}
			t, err := resolveTask(ws, slug, args[0])
			if err != nil {
				printer.Error(err)
				return err
			}
			if err := ws.Tasks.Delete(slug, t.Filename); err != nil {
				printer.Error(err)
				return err
			}
			if printer.IsJSON() {
				return printer.Success(map[string]any{"spec": slug, "name": t.Filename, "deleted": true})
			}
			printer.Println(printer.Styles().Success.Render("Deleted task: ") + t.Title)
			return nil
		},
	}
}
