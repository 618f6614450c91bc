package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadLocal_Valid(t *testing.T) {
	path := writeConfig(t, `
[project]
name = "myproject"
description = "A test project"
generic_templates = ["go", "general"]

[[files]]
path = "README.md"
description = "Project overview"

[worktree]
symlink_paths = [".env.local"]
`)

	result := LoadLocal(path)
	require.NoError(t, result.ValidationErr)
	require.NotNil(t, result.Config)

	assert.Equal(t, "myproject", result.Config.Project.Name)
	assert.Equal(t, []string{"go", "general"}, result.Config.Project.GenericTemplates)
	require.Len(t, result.Config.Files, 1)
	assert.Equal(t, "README.md", result.Config.Files[0].Path)
	assert.Equal(t, []string{".env.local"}, result.Config.Worktree.SymlinkPaths)
}

func TestLoadLocal_MissingFile(t *testing.T) {
	result := LoadLocal(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Nil(t, result.Config)
	assert.NoError(t, result.ValidationErr)
	assert.Empty(t, result.Raw)
}

func TestLoadLocal_MissingRequiredField(t *testing.T) {
	path := writeConfig(t, `
[project]
name = "myproject"
`)

	result := LoadLocal(path)
	assert.Nil(t, result.Config)
	assert.ErrorContains(t, result.ValidationErr, "project.description")
}

func TestUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
top_level_mystery = true

[project]
name = "myproject"
description = "desc"
weird_key = 1

[[files]]
path = "README.md"
extra_field = "x"

[worktree]
symlink_magic = true
`)

	result := LoadLocal(path)
	unknown := UnknownKeys(result.Raw)
	assert.Equal(t, []string{
		"files[0].extra_field",
		"project.weird_key",
		"top_level_mystery",
		"worktree.symlink_magic",
	}, unknown)
	assert.True(t, HasDrift(result.Raw))
}

func TestUnknownKeys_CleanConfig(t *testing.T) {
	path := writeConfig(t, `
[project]
name = "myproject"
description = "desc"
`)

	result := LoadLocal(path)
	assert.Empty(t, UnknownKeys(result.Raw))
	assert.False(t, HasDrift(result.Raw))
}

func TestRender_DropsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
[project]
name = "myproject"
description = "desc"
weird_key = 1
`)

	result := LoadLocal(path)
	require.NotNil(t, result.Config)

	rendered, err := result.Config.Render()
	require.NoError(t, err)
	assert.Contains(t, rendered, `name = "myproject"`)
	assert.NotContains(t, rendered, "weird_key")
}

func TestCanonicalize(t *testing.T) {
	path := writeConfig(t, `
[project]
name = "myproject"
description = "desc"
weird_key = 1
`)

	rendered, removed, err := Canonicalize(path, "fallback")
	require.NoError(t, err)
	assert.Equal(t, []string{"project.weird_key"}, removed)
	assert.Contains(t, rendered, `name = "myproject"`)
	assert.NotContains(t, rendered, "weird_key")
}

func TestCanonicalize_MissingFile(t *testing.T) {
	rendered, removed, err := Canonicalize(filepath.Join(t.TempDir(), "none.toml"), "seeded")
	require.NoError(t, err)
	assert.Empty(t, removed)
	assert.Contains(t, rendered, `name = "seeded"`)
}

func TestDeepMerge(t *testing.T) {
	global := map[string]any{
		"project": map[string]any{"name": "global", "description": "g"},
		"vars":    map[string]any{"global_config_dir": "/tmp/mem"},
	}
	local := map[string]any{
		"project": map[string]any{"name": "local"},
	}

	merged := DeepMerge(global, local)
	project := merged["project"].(map[string]any)
	assert.Equal(t, "local", project["name"])
	assert.Equal(t, "g", project["description"])
	assert.Equal(t, "/tmp/mem", merged["vars"].(map[string]any)["global_config_dir"])
}

func TestUserMappings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_mappings.toml")

	m := UserMappings{
		"alice-gh": {Name: "Alice Smith", Email: "alice@example.com"},
	}
	require.NoError(t, m.Save(path))

	loaded, err := LoadUserMappings(path)
	require.NoError(t, err)
	assert.Equal(t, "alice-gh", loaded.GitHubUsername("Alice Smith"))
	assert.Equal(t, "", loaded.GitHubUsername("Nobody"))
}

func TestLoadUserMappings_Missing(t *testing.T) {
	m, err := LoadUserMappings(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestDir_RespectsOverride(t *testing.T) {
	t.Setenv("MEM_CONFIG_HOME", "/custom/mem")
	assert.Equal(t, "/custom/mem", Dir())

	t.Setenv("MEM_CONFIG_HOME", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "mem"), Dir())
}
