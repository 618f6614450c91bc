// Package main provides the entry point for the mem CLI.
package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/memcli/mem/internal/config"
	"github.com/memcli/mem/internal/output"
)

// newPatchCmd creates the patch command group.
func newPatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Repair mem files after upgrades",
	}
	cmd.AddCommand(newPatchConfigCmd())
	return cmd
}

// newPatchConfigCmd creates the patch config command.
func newPatchConfigCmd() *cobra.Command {
	var dryRunFlag bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Canonicalize .mem/config.toml",
		Long: `Rewrite .mem/config.toml in canonical form.

Unknown keys (left over from older versions or typos) are removed,
missing sections are added with defaults, and known values are kept.
Running it twice changes nothing.

Examples:
  mem patch config --dry-run
  mem patch config`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPatchConfig(cmd, dryRunFlag)
		},
	}
	cmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Show what would change without writing")
	return cmd
}

func runPatchConfig(cmd *cobra.Command, dryRun bool) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))

	ws, err := openWorkspace()
	if err != nil {
		printer.Error(err)
		return err
	}
	path := ws.Specs.Paths().ConfigFile()

	rendered, removed, err := config.Canonicalize(path, filepath.Base(ws.Root))
	if err != nil {
		err = output.NewUserError(err.Error())
		printer.Error(err)
		return err
	}

	current := ""
	if data, readErr := os.ReadFile(path); readErr == nil {
		current = string(data)
	}
	changed := current != rendered

	if !dryRun && changed {
		if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
			err = output.NewSystemErrorWithCause("writing config", err)
			printer.Error(err)
			return err
		}
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"path":         path,
			"changed":      changed,
			"dry_run":      dryRun,
			"removed_keys": removed,
		})
	}

	styles := printer.Styles()
	if !changed {
		printer.Println("Config is already canonical.")
		return nil
	}
	for _, key := range removed {
		printer.Println(styles.Warning.Render("Removed unknown key: ") + key)
	}
	if dryRun {
		printer.Println("Would rewrite " + path)
	} else {
		printer.Println(styles.Success.Render("Rewrote ") + path)
	}
	return nil
}
