// Package main provides the entry point for the mem CLI.
package main

import (
	"os"

	"github.com/memcli/mem/internal/config"
	"github.com/memcli/mem/internal/git"
	"github.com/memcli/mem/internal/output"
	"github.com/memcli/mem/internal/spec"
	"github.com/memcli/mem/internal/task"
	"github.com/memcli/mem/internal/todo"
	"github.com/memcli/mem/internal/worklog"
	"github.com/memcli/mem/internal/worktree"
)

// workspace bundles the stores for one checkout. Commands run against
// the checkout they are invoked from: in a worktree the .mem tree on
// the feature branch, in the main repo the tree on the current branch.
type workspace struct {
	Root       string
	MainRoot   string
	InWorktree bool

	Specs *spec.Store
	Tasks *task.Store
	Logs  *worklog.Store
	Todos *todo.Store
}

// openWorkspace resolves the repository from the working directory and
// requires an initialized .mem tree.
func openWorkspace() (*workspace, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, output.NewSystemErrorWithCause("getting working directory", err)
	}
	root, err := git.RepoRoot(cwd)
	if err != nil {
		return nil, output.NewUserError("not in a git repository")
	}
	paths := config.NewPaths(root)
	if _, err := os.Stat(paths.MemDir()); err != nil {
		return nil, output.NewUserError("no .mem directory found. Run 'mem init' first")
	}

	ws := &workspace{
		Root:     root,
		MainRoot: root,
		Specs:    spec.NewStore(root),
		Logs:     worklog.NewStore(root),
		Todos:    todo.NewStore(root),
	}
	ws.Tasks = task.NewStore(ws.Specs)

	if worktree.IsWorktree(root) {
		ws.InWorktree = true
		if main, err := worktree.MainRoot(root); err == nil {
			ws.MainRoot = main
		}
	}
	return ws, nil
}

// Config loads the merged global + local configuration.
func (ws *workspace) Config() *config.Local {
	return config.LoadMerged(ws.Specs.Paths().ConfigFile())
}

// Username resolves the GitHub username of the local git identity via
// user_mappings.toml, falling back to the git name itself.
func (ws *workspace) Username() string {
	name := git.UserName(ws.Root)
	mappings, err := config.LoadUserMappings(ws.Specs.Paths().UserMappingsFile())
	if err != nil || name == "" {
		return name
	}
	if gh := mappings.GitHubUsername(name); gh != "" {
		return gh
	}
	return name
}
