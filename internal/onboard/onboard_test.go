package onboard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memcli/mem/internal/config"
	"github.com/memcli/mem/internal/spec"
	"github.com/memcli/mem/internal/task"
	"github.com/memcli/mem/internal/todo"
	"github.com/memcli/mem/internal/worklog"
)

func newBuilder(t *testing.T) (*Builder, string) {
	t.Helper()
	root := t.TempDir()
	specs := spec.NewStore(root)
	return &Builder{
		Root: root,
		Config: &config.Local{
			Project: config.Project{Name: "widgets", Description: "A widget factory."},
		},
		Specs: specs,
		Tasks: task.NewStore(specs),
		Logs:  worklog.NewStore(root),
		Todos: todo.NewStore(root),
	}, root
}

func TestBuildWithoutSpecs(t *testing.T) {
	b, _ := newBuilder(t)
	t.Setenv("MEM_CONFIG_HOME", t.TempDir())

	out := b.Build("")
	assert.Contains(t, out, "PROJECT CONTEXT (generated by mem)")
	assert.Contains(t, out, "**Project:** widgets")
	assert.Contains(t, out, "**Description:** A widget factory.")
	assert.Contains(t, out, "AVAILABLE SPECS")
	assert.Contains(t, out, "No specs available. Create one with: mem spec new \"title\"")
	assert.Contains(t, out, "Create a new spec: mem spec new \"feature name\"")
	assert.Contains(t, out, "[AGENT INSTRUCTION]")
	assert.NotContains(t, out, "SYNC FAILED")
}

func TestBuildListsTodoAndMergeReadySpecs(t *testing.T) {
	b, _ := newBuilder(t)
	t.Setenv("MEM_CONFIG_HOME", t.TempDir())

	todoSpec, err := b.Specs.Create("Add Widgets", "widget body")
	require.NoError(t, err)
	_, err = b.Tasks.Create(todoSpec.Slug, "First Task", "", 0)
	require.NoError(t, err)

	ready, err := b.Specs.Create("Ship Gadgets", "gadget body")
	require.NoError(t, err)
	require.NoError(t, b.Specs.Update(ready.Slug, func(m *spec.Meta) {
		m.Status = spec.StatusMergeReady
		m.PRURL = "https://github.com/acme/widgets/pull/3"
	}))

	out := b.Build("")
	assert.Contains(t, out, "### Specs ready to merge:")
	assert.Contains(t, out, ready.Slug+": Ship Gadgets")
	assert.Contains(t, out, "PR: https://github.com/acme/widgets/pull/3")
	assert.Contains(t, out, "Run `mem merge` to merge these PRs.")
	assert.Contains(t, out, "### Specs to work on:")
	assert.Contains(t, out, "Tasks: 0/1 completed")
}

func TestBuildIncludesImportantFilesAndFiltersReadme(t *testing.T) {
	b, root := newBuilder(t)
	t.Setenv("MEM_CONFIG_HOME", t.TempDir())

	readme := "# Widgets\n\nIntro text.\n\n## Installation\n\nnpm install\n\n## Usage\n\nRun it.\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte(readme), 0o644))
	b.Config.Files = []config.ImportantFile{{Path: "README.md", Description: "Project readme"}}

	out := b.Build("")
	assert.Contains(t, out, "IMPORTANT FILES")
	assert.Contains(t, out, "## README.md")
	assert.Contains(t, out, "*Project readme*")
	assert.Contains(t, out, "Intro text.")
	assert.Contains(t, out, "## Usage")
	assert.NotContains(t, out, "npm install")
}

func TestBuildExpandsFileGlobs(t *testing.T) {
	b, root := newBuilder(t)
	t.Setenv("MEM_CONFIG_HOME", t.TempDir())

	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "a.md"), []byte("doc a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "b.md"), []byte("doc b"), 0o644))
	b.Config.Files = []config.ImportantFile{{Path: "docs/*.md"}}

	out := b.Build("")
	assert.Contains(t, out, "## docs/a.md")
	assert.Contains(t, out, "doc a")
	assert.Contains(t, out, "## docs/b.md")
	assert.Contains(t, out, "doc b")
}

func TestBuildSyncFailureBanner(t *testing.T) {
	b, _ := newBuilder(t)
	t.Setenv("MEM_CONFIG_HOME", t.TempDir())

	out := b.Build("rebase onto origin/dev failed")
	assert.Contains(t, out, "SYNC FAILED - FIX THIS BEFORE DOING ANYTHING ELSE")
	assert.Contains(t, out, "Reason: rebase onto origin/dev failed")
	assert.Contains(t, out, "git rebase origin/dev")
}

func TestBuildOpenTodosCapped(t *testing.T) {
	b, _ := newBuilder(t)
	t.Setenv("MEM_CONFIG_HOME", t.TempDir())

	titles := []string{"One", "Two", "Three", "Four", "Five", "Six", "Seven"}
	for _, title := range titles {
		_, err := b.Todos.Create(title, "")
		require.NoError(t, err)
	}

	out := b.Build("")
	assert.Contains(t, out, "OPEN TODOS")
	assert.Contains(t, out, "... and 2 more")
}

func TestFilterReadmeSections(t *testing.T) {
	in := "# Title\n\nkeep\n\n## Prerequisites\n\ndrop this\n\n### Sub\n\nstill dropped\n\n## Keep\n\nkept\n"
	out := FilterReadmeSections(in)
	assert.Contains(t, out, "keep")
	assert.Contains(t, out, "## Keep")
	assert.NotContains(t, out, "drop this")
	assert.NotContains(t, out, "still dropped")
}

func TestEnsureGitignoreEntry(t *testing.T) {
	root := t.TempDir()

	require.NoError(t, EnsureGitignoreEntry(root, ".mem/tmp", "mem temp artifacts"))
	data, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(data), ".mem/tmp/")
	assert.Contains(t, string(data), "# mem temp artifacts")

	// Idempotent.
	require.NoError(t, EnsureGitignoreEntry(root, ".mem/tmp/", "mem temp artifacts"))
	again, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))

	// Appends to an existing file without clobbering.
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("node_modules"), 0o644))
	require.NoError(t, EnsureGitignoreEntry(root, ".mem/tmp", "mem temp artifacts"))
	final, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(final), "node_modules\n"))
	assert.Contains(t, string(final), ".mem/tmp/")
}

func TestPruneTmp(t *testing.T) {
	tmpDir := t.TempDir()

	old := filepath.Join(tmpDir, "mem_onboard_20260101_010101.md")
	fresh := filepath.Join(tmpDir, "mem_onboard_20260829_120000.md")
	other := filepath.Join(tmpDir, "notes.md")
	for _, p := range []string{old, fresh, other} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	PruneTmp(tmpDir, time.Hour)

	_, err := os.Stat(old)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
	_, err = os.Stat(other)
	assert.NoError(t, err)
}

func TestWriteTmp(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "tmp")

	path, err := WriteTmp(tmpDir, "context body")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "mem_onboard_"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "context body", string(data))
}
