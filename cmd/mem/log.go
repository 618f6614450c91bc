// Package main provides the entry point for the mem CLI.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/memcli/mem/internal/output"
	"github.com/memcli/mem/internal/template"
	"github.com/memcli/mem/internal/worklog"
)

// newLogCmd creates the log command.
func newLogCmd() *cobra.Command {
	var specFlag string
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Create a work log for this session",
		Long: `Create a work log for this session from the log template.

The log is linked to the active spec unless --spec overrides it. Fill
in the sections before running 'mem spec complete': completion requires
a log written within the last 3 minutes.

Examples:
  mem log
  mem log --spec rate-limiting
  mem log list`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogNew(cmd, specFlag)
		},
	}
	cmd.Flags().StringVar(&specFlag, "spec", "", "Spec slug (defaults to the active spec)")
	cmd.AddCommand(newLogListCmd())
	return cmd
}

func runLogNew(cmd *cobra.Command, specFlag string) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))

	ws, err := openWorkspace()
	if err != nil {
		printer.Error(err)
		return err
	}

	specSlug := ""
	if specFlag != "" {
		sp, err := ws.Specs.Get(specFlag)
		if err != nil {
			err = output.NewUserError(err.Error())
			printer.Error(err)
			return err
		}
		specSlug = sp.Slug
	} else if sp, _ := ws.Specs.Active(); sp != nil {
		specSlug = sp.Slug
	}

	lg, err := ws.Logs.Create(specSlug, template.Log)
	if err != nil {
		printer.Error(err)
		return err
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"filename": lg.Filename,
			"spec":     specSlug,
			"username": lg.Username,
		})
	}

	styles := printer.Styles()
	printer.Println(styles.Success.Render("Created work log: ") + lg.Filename)
	if specSlug != "" {
		printer.Println(styles.Dim.Render("  linked to spec " + specSlug))
	}
	printer.Println()
	printer.Println("Fill in the sections, then run 'mem spec complete'.")
	return nil
}

func newLogListCmd() *cobra.Command {
	var specFlag string
	var limitFlag int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent work logs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))
			ws, err := openWorkspace()
			if err != nil {
				printer.Error(err)
				return err
			}
			logs, err := ws.Logs.List(worklog.Filter{SpecSlug: specFlag, Limit: limitFlag})
			if err != nil {
				printer.Error(err)
				return err
			}
			if printer.IsJSON() {
				items := make([]map[string]any, 0, len(logs))
				for _, lg := range logs {
					items = append(items, map[string]any{
						"filename": lg.Filename,
						"date":     lg.Date,
						"username": lg.Username,
						"spec":     lg.SpecSlug,
					})
				}
				return printer.Success(map[string]any{"logs": items, "count": len(items)})
			}
			if len(logs) == 0 {
				printer.Println("No work logs.")
				return nil
			}
			for _, lg := range logs {
				line := fmt.Sprintf("  %s  %s", lg.Date, lg.Username)
				if lg.SpecSlug != "" {
					line += "  " + printer.Styles().Dim.Render(lg.SpecSlug)
				}
				printer.Println(line)
				if first := firstLine(lg.Body); first != "" {
					printer.Println("      " + printer.Styles().Dim.Render(first))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&specFlag, "spec", "", "Filter by spec slug")
	cmd.Flags().IntVar(&limitFlag, "limit", 10, "Maximum number of logs to show")
	return cmd
}

func firstLine(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "# "))
		if line != "" {
			return line
		}
	}
	return ""
}
