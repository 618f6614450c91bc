// Package main provides the entry point for the mem CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memcli/mem/internal/output"
)

// newSubtaskCmd creates the subtask command group. Subtasks are
// checklist items embedded in a task's frontmatter.
func newSubtaskCmd() *cobra.Command {
	var specFlag string
	cmd := &cobra.Command{
		Use:   "subtask",
		Short: "Manage subtasks of a task",
		Long: `Manage the subtask checklist of a task.

Subtasks live in the task's frontmatter. Tasks and subtasks are matched
by filename or title substring. Without --spec, commands operate on the
active spec.`,
	}
	cmd.PersistentFlags().StringVar(&specFlag, "spec", "", "Spec slug (defaults to the active spec)")

	cmd.AddCommand(newSubtaskNewCmd(&specFlag))
	cmd.AddCommand(newSubtaskListCmd(&specFlag))
	cmd.AddCommand(newSubtaskCompleteCmd(&specFlag))
	cmd.AddCommand(newSubtaskDeleteCmd(&specFlag))
	return cmd
}

// subtaskAction runs fn against the resolved spec and task, handling
// workspace setup and error printing uniformly.
func subtaskAction(cmd *cobra.Command, specFlag, taskRef string,
	fn func(ws *workspace, printer *output.Printer, specSlug, taskName string) error) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))
	ws, err := openWorkspace()
	if err != nil {
		printer.Error(err)
		return err
	}
	slug, err := resolveSpecSlug(ws, specFlag)
	if err != nil {
		printer.Error(err)
		return err
	}
	t, err := resolveTask(ws, slug, taskRef)
	if err != nil {
		printer.Error(err)
		return err
	}
	return fn(ws, printer, slug, t.Filename)
}

func newSubtaskNewCmd(specFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "new <task> <title>",
		Short: "Add a subtask to a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return subtaskAction(cmd, *specFlag, args[0],
				func(ws *workspace, printer *output.Printer, slug, name string) error {
					if err := ws.Tasks.AddSubtask(slug, name, args[1]); err != nil {
						printer.Error(err)
						return err
					}
					if printer.IsJSON() {
						return printer.Success(map[string]any{"spec": slug, "task": name, "subtask": args[1]})
					}
					printer.Println(printer.Styles().Success.Render("Added subtask: ") + args[1])
					return nil
				})
		},
	}
}

func newSubtaskListCmd(specFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list <task>",
		Short: "List the subtasks of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return subtaskAction(cmd, *specFlag, args[0],
				func(ws *workspace, printer *output.Printer, slug, name string) error {
					subs, err := ws.Tasks.ListSubtasks(slug, name)
					if err != nil {
						printer.Error(err)
						return err
					}
					if printer.IsJSON() {
						items := make([]map[string]any, 0, len(subs))
						for _, sub := range subs {
							items = append(items, map[string]any{"title": sub.Title, "status": string(sub.Status)})
						}
						return printer.Success(map[string]any{"spec": slug, "task": name, "subtasks": items})
					}
					if len(subs) == 0 {
						printer.Println("No subtasks.")
						return nil
					}
					for _, sub := range subs {
						printer.Println(fmt.Sprintf("  [%s] %s", checkbox(string(sub.Status)), sub.Title))
					}
					return nil
				})
		},
	}
}

func newSubtaskCompleteCmd(specFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <task> <subtask>",
		Short: "Mark a subtask completed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return subtaskAction(cmd, *specFlag, args[0],
				func(ws *workspace, printer *output.Printer, slug, name string) error {
					if err := ws.Tasks.CompleteSubtask(slug, name, args[1]); err != nil {
						err = output.NewUserError(err.Error())
						printer.Error(err)
						return err
					}
					if printer.IsJSON() {
						return printer.Success(map[string]any{"spec": slug, "task": name, "subtask": args[1], "status": "completed"})
					}
					printer.Println(printer.Styles().Success.Render("Completed subtask: ") + args[1])
					return nil
				})
		},
	}
}

func newSubtaskDeleteCmd(specFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task> <subtask>",
		Short: "Delete a subtask",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return subtaskAction(cmd, *specFlag, args[0],
				func(ws *workspace, printer *output.Printer, slug, name string) error {
					if err := ws.Tasks.DeleteSubtask(slug, name, args[1]); err != nil {
						err = output.NewUserError(err.Error())
						printer.Error(err)
						return err
					}
					if printer.IsJSON() {
						return printer.Success(map[string]any{"spec": slug, "task": name, "subtask": args[1], "deleted": true})
					}
					printer.Println(printer.Styles().Success.Render("Deleted subtask: ") + args[1])
					return nil
				})
		},
	}
}
