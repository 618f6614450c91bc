package template

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureGlobalAndLoadSpec(t *testing.T) {
	t.Setenv("MEM_CONFIG_HOME", t.TempDir())

	require.NoError(t, EnsureGlobal())

	assert.Equal(t, DefaultSpec, LoadSpec())

	// Running again keeps a customized template intact.
	custom := "## My Sections\n"
	dir := filepath.Dir(specTemplatePath(t))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spec.md"), []byte(custom), 0o644))
	require.NoError(t, EnsureGlobal())
	assert.Equal(t, custom, LoadSpec())
}

func specTemplatePath(t *testing.T) string {
	t.Helper()
	home := os.Getenv("MEM_CONFIG_HOME")
	require.NotEmpty(t, home)
	return filepath.Join(home, "templates", "spec.md")
}

func TestLoadSpecFallsBackToDefault(t *testing.T) {
	t.Setenv("MEM_CONFIG_HOME", t.TempDir())
	assert.Equal(t, DefaultSpec, LoadSpec())
}

func TestGitHubIssueTemplate(t *testing.T) {
	t.Setenv("MEM_CONFIG_HOME", t.TempDir())

	out := GitHubIssueTemplate()
	assert.True(t, strings.HasPrefix(out, "---\nname: mem Specification"))
	assert.Contains(t, out, "labels: mem-spec")
	assert.Contains(t, out, "title: '[Spec]: '")
	assert.True(t, strings.HasSuffix(out, DefaultSpec))
}

func TestLoadGeneric(t *testing.T) {
	home := t.TempDir()
	t.Setenv("MEM_CONFIG_HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, "templates"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, "templates", "coding-style.md"), []byte("be tidy"), 0o644))

	content, err := LoadGeneric("coding-style")
	require.NoError(t, err)
	assert.Equal(t, "be tidy", content)

	_, err = LoadGeneric("missing")
	assert.Error(t, err)
}

func TestInstallPreMergeCommitHook(t *testing.T) {
	root := t.TempDir()

	// No .git/hooks yet: skipped without error.
	installed, err := InstallPreMergeCommitHook(root)
	require.NoError(t, err)
	assert.False(t, installed)

	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git", "hooks"), 0o755))
	installed, err = InstallPreMergeCommitHook(root)
	require.NoError(t, err)
	assert.True(t, installed)

	data, err := os.ReadFile(filepath.Join(root, ".git", "hooks", "pre-merge-commit"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "#!/bin/bash"))

	info, err := os.Stat(filepath.Join(root, ".git", "hooks", "pre-merge-commit"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o100)
}
