// Package main provides the entry point for the mem CLI.
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/memcli/mem/internal/config"
	"github.com/memcli/mem/internal/gh"
	"github.com/memcli/mem/internal/git"
	"github.com/memcli/mem/internal/output"
	"github.com/memcli/mem/internal/template"
)

// initStepResult tracks the result of one initialization step.
type initStepResult struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "skipped", "failed"
	Message string `json:"message,omitempty"`
}

// newInitCmd creates the init command.
func newInitCmd() *cobra.Command {
	var forceFlag bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize mem in the current repository",
		Long: `Initialize mem in the current repository.

Sets up everything mem needs:
  - Validates git, GITHUB_TOKEN, and GitHub API access
  - Creates the .mem/ tree with config.toml and user_mappings.toml
  - Ensures the main, test, and dev branches exist and switches to dev
  - Installs the pre-merge-commit hook enforcing branch flow
    (anything merges to dev; only dev and hotfix/* to test; only test
    to main) and sets merge.ff=false
  - Seeds the global config and templates under ~/.config/mem
  - Writes the GitHub issue template and ensures the mem labels

The command is idempotent. With an existing .mem/ it asks before
re-running unless --force.

Examples:
  mem init
  mem init --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, forceFlag)
		},
	}
	cmd.Flags().BoolVarP(&forceFlag, "force", "f", false, "Re-run without prompting")
	return cmd
}

func runInit(cmd *cobra.Command, force bool) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))

	cwd, err := os.Getwd()
	if err != nil {
		printer.Error(err)
		return err
	}
	root, err := git.RepoRoot(cwd)
	if err != nil {
		err := output.NewUserError("not in a git repository. Run 'git init' first")
		printer.Error(err)
		return err
	}
	paths := config.NewPaths(root)

	if _, statErr := os.Stat(paths.MemDir()); statErr == nil && !force {
		if !confirm(cmd, printer, ".mem already exists. Re-run init?") {
			printer.Println("Aborted.")
			return nil
		}
	}

	var steps []initStepResult
	record := func(name, status, message string) {
		steps = append(steps, initStepResult{Name: name, Status: status, Message: message})
		if printer.IsJSON() {
			return
		}
		styles := printer.Styles()
		mark := styles.Success.Render("ok     ")
		switch status {
		case "skipped":
			mark = styles.Dim.Render("skipped")
		case "failed":
			mark = styles.Error.Render("failed ")
		}
		line := fmt.Sprintf("  %s %s", mark, name)
		if message != "" {
			line += "  " + styles.Dim.Render(message)
		}
		printer.Println(line)
	}
	fail := func(name string, err error) error {
		record(name, "failed", err.Error())
		if printer.IsJSON() {
			_ = printer.WriteJSON(map[string]any{"success": false, "steps": steps})
		}
		return err
	}

	if !printer.IsJSON() {
		printer.Header("Initializing mem")
	}

	// 1. Prerequisites
	if _, err := exec.LookPath("git"); err != nil {
		return fail("prerequisites", output.NewSystemError("git not found on PATH"))
	}
	if _, err := gh.Token(); err != nil {
		return fail("prerequisites", err)
	}
	record("prerequisites", "ok", "")

	// 2. GitHub auth + repo discovery
	client, err := gh.Open(cmd.Context(), root)
	if err != nil {
		return fail("github", err)
	}
	login, err := client.AuthenticatedUser(cmd.Context())
	if err != nil {
		return fail("github", err)
	}
	record("github", "ok", fmt.Sprintf("authenticated as @%s for %s/%s", login, client.Owner(), client.Repo()))

	// 3. Git identity
	gitName := git.UserName(root)
	gitEmail := git.ConfigGet(root, "user.email")
	if gitName == "" || gitEmail == "" {
		return fail("identity", output.NewUserError(
			"git user.name and user.email must be set. Run 'git config user.name ...'"))
	}
	record("identity", "ok", gitName)

	// 4. .mem tree
	for _, dir := range []string{paths.SpecsDir(), paths.LogsDir(), paths.TodosDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fail("mem_tree", output.NewSystemErrorWithCause("creating .mem", err))
		}
	}
	record("mem_tree", "ok", paths.MemDir())

	// 5. config.toml + user_mappings.toml
	if _, err := os.Stat(paths.ConfigFile()); os.IsNotExist(err) {
		cfg := config.DefaultLocal(filepath.Base(root))
		if err := cfg.Save(paths.ConfigFile()); err != nil {
			return fail("config", err)
		}
		record("config", "ok", "wrote config.toml")
	} else {
		record("config", "skipped", "config.toml exists")
	}
	mappings, err := config.LoadUserMappings(paths.UserMappingsFile())
	if err != nil {
		return fail("user_mappings", err)
	}
	if _, ok := mappings[login]; !ok {
		mappings[login] = config.UserInfo{Name: gitName, Email: gitEmail}
		if err := mappings.Save(paths.UserMappingsFile()); err != nil {
			return fail("user_mappings", err)
		}
		record("user_mappings", "ok", fmt.Sprintf("mapped %s to @%s", gitName, login))
	} else {
		record("user_mappings", "skipped", "already mapped")
	}

	// 6. Branches: main, test, dev; finish on dev
	if err := ensureBranches(root); err != nil {
		return fail("branches", err)
	}
	record("branches", "ok", "on dev")

	// 7. Merge rules hook + merge.ff
	installed, err := template.InstallPreMergeCommitHook(root)
	if err != nil {
		return fail("merge_hook", err)
	}
	if err := git.ConfigSet(root, "merge.ff", "false"); err != nil {
		return fail("merge_hook", err)
	}
	if installed {
		record("merge_hook", "ok", "pre-merge-commit installed")
	} else {
		record("merge_hook", "skipped", "no .git/hooks directory")
	}

	// 8. Global config + templates
	if err := template.EnsureGlobal(); err != nil {
		return fail("global_templates", err)
	}
	record("global_templates", "ok", config.TemplatesDir())

	// 9. GitHub issue template
	issueDir := filepath.Join(root, ".github", "ISSUE_TEMPLATE")
	if err := os.MkdirAll(issueDir, 0o755); err != nil {
		return fail("issue_template", output.NewSystemErrorWithCause("creating .github", err))
	}
	issuePath := filepath.Join(issueDir, "mem-spec.md")
	if _, err := os.Stat(issuePath); os.IsNotExist(err) {
		if err := os.WriteFile(issuePath, []byte(template.GitHubIssueTemplate()), 0o644); err != nil {
			return fail("issue_template", err)
		}
		record("issue_template", "ok", issuePath)
	} else {
		record("issue_template", "skipped", "exists")
	}

	// 10. Labels
	if err := client.EnsureMemLabels(cmd.Context()); err != nil {
		return fail("labels", err)
	}
	record("labels", "ok", "mem-spec and mem-status:* labels ensured")

	if printer.IsJSON() {
		return printer.Success(map[string]any{"steps": steps})
	}

	printer.Println()
	printer.Println(printer.Styles().Success.Render("mem is ready."))
	printer.Println("Create a spec with 'mem spec new <title>' and run 'mem sync'.")
	return nil
}

// ensureBranches makes sure main, test, and dev exist locally and on
// origin, then checks out dev.
func ensureBranches(root string) error {
	current, err := git.CurrentBranch(root)
	if err != nil {
		return err
	}
	for _, branch := range []string{"main", "test", "dev"} {
		if git.BranchExists(root, branch) {
			continue
		}
		if git.RemoteBranchExists(root, branch) {
			if err := git.CreateBranch(root, branch, "origin/"+branch); err != nil {
				return err
			}
			continue
		}
		if err := git.CreateBranch(root, branch, current); err != nil {
			return err
		}
		// Push is best effort: repos without a remote still initialize.
		_ = git.Push(root, branch, true)
	}
	return git.Checkout(root, "dev")
}

// confirm asks a yes/no question on stdin.
func confirm(cmd *cobra.Command, printer *output.Printer, question string) bool {
	printer.Print("%s [y/N]: ", question)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
