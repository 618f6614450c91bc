// Package main provides the entry point for the mem CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memcli/mem/internal/output"
	"github.com/memcli/mem/internal/todo"
)

// newTodoCmd creates the todo command group.
func newTodoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "todo",
		Short: "Manage lightweight todos",
		Long: `Manage lightweight todos.

Todos are small reminders under .mem/todos/. GitHub issues without the
spec label become todos during 'mem sync'.`,
	}
	cmd.AddCommand(newTodoNewCmd())
	cmd.AddCommand(newTodoListCmd())
	cmd.AddCommand(newTodoCompleteCmd())
	cmd.AddCommand(newTodoDeleteCmd())
	return cmd
}

func newTodoNewCmd() *cobra.Command {
	var descFlag string
	cmd := &cobra.Command{
		Use:   "new <title>",
		Short: "Create a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))
			ws, err := openWorkspace()
			if err != nil {
				printer.Error(err)
				return err
			}
			t, err := ws.Todos.Create(args[0], descFlag)
			if err != nil {
				err = output.NewUserError(err.Error())
				printer.Error(err)
				return err
			}
			if printer.IsJSON() {
				return printer.Success(map[string]any{"slug": t.Slug, "title": t.Title})
			}
			printer.Println(printer.Styles().Success.Render("Created todo: ") + t.Slug)
			return nil
		},
	}
	cmd.Flags().StringVar(&descFlag, "description", "", "Todo description body")
	return cmd
}

func newTodoListCmd() *cobra.Command {
	var allFlag bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open todos",
		RunE: func(cmd *cobra.Command, _ []string) error {
			printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))
			ws, err := openWorkspace()
			if err != nil {
				printer.Error(err)
				return err
			}
			filter := todo.StatusOpen
			if allFlag {
				filter = ""
			}
			todos, err := ws.Todos.List(filter)
			if err != nil {
				printer.Error(err)
				return err
			}
			if printer.IsJSON() {
				items := make([]map[string]any, 0, len(todos))
				for _, t := range todos {
					item := map[string]any{
						"slug":   t.Slug,
						"title":  t.Title,
						"status": string(t.Status),
					}
					if t.IssueID != 0 {
						item["issue_id"] = t.IssueID
						item["issue_url"] = t.IssueURL
					}
					items = append(items, item)
				}
				return printer.Success(map[string]any{"todos": items, "count": len(items)})
			}
			if len(todos) == 0 {
				printer.Println("No todos.")
				return nil
			}
			for _, t := range todos {
				line := fmt.Sprintf("  [%s] %-30s %s", checkbox(string(t.Status)), t.Slug, t.Title)
				if t.IssueID != 0 {
					line += printer.Styles().Dim.Render(fmt.Sprintf("  #%d", t.IssueID))
				}
				printer.Println(line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&allFlag, "all", false, "Include completed todos")
	return cmd
}

func newTodoCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <slug>",
		Short: "Mark a todo completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))
			ws, err := openWorkspace()
			if err != nil {
				printer.Error(err)
				return err
			}
			if err := ws.Todos.Complete(args[0]); err != nil {
				err = output.NewUserError(err.Error())
				printer.Error(err)
				return err
			}
			if printer.IsJSON() {
				return printer.Success(map[string]any{"slug": args[0], "status": "completed"})
			}
			printer.Println(printer.Styles().Success.Render("Completed todo: ") + args[0])
			return nil
		},
	}
}

func newTodoDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))
			ws, err := openWorkspace()
			if err != nil {
				printer.Error(err)
				return err
			}
			if err := ws.Todos.Delete(args[0]); err != nil {
				err = output.NewUserError(err.Error())
				printer.Error(err)
				return err
			}
			if printer.IsJSON() {
				return printer.Success(map[string]any{"slug": args[0], "deleted": true})
			}
			printer.Println(printer.Styles().Success.Render("Deleted todo: ") + args[0])
			return nil
		},
	}
}
