package config

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"
)

// Local is the validated schema of .mem/config.toml.
type Local struct {
	Project  Project         `toml:"project"`
	Files    []ImportantFile `toml:"files"`
	Worktree Worktree        `toml:"worktree"`
}

// Project holds project metadata shown by mem onboard.
type Project struct {
	Name             string   `toml:"name"`
	Description      string   `toml:"description"`
	GenericTemplates []string `toml:"generic_templates"`
}

// ImportantFile is a file surfaced in onboard output.
type ImportantFile struct {
	Path        string `toml:"path"`
	Description string `toml:"description"`
}

// Worktree holds worktree behavior settings.
type Worktree struct {
	// Paths relative to the repo root to symlink into new worktrees
	// instead of copying.
	SymlinkPaths []string `toml:"symlink_paths"`
}

// LoadResult is the outcome of loading the local config. Parse and
// validation problems are reported, not thrown, so commands like
// onboard can warn and continue.
type LoadResult struct {
	Raw           map[string]any
	Config        *Local
	ValidationErr error
}

// LoadLocal reads and validates .mem/config.toml at the given path.
// A missing or unreadable file yields an empty result.
func LoadLocal(path string) LoadResult {
	raw := readRawTOML(path)
	if len(raw) == 0 {
		return LoadResult{Raw: raw}
	}

	var cfg Local
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return LoadResult{Raw: raw, ValidationErr: err}
	}
	if err := cfg.Validate(); err != nil {
		return LoadResult{Raw: raw, ValidationErr: err}
	}
	return LoadResult{Raw: raw, Config: &cfg}
}

// Validate checks required fields.
func (c *Local) Validate() error {
	if c.Project.Name == "" {
		return fmt.Errorf("project.name is required")
	}
	if c.Project.Description == "" {
		return fmt.Errorf("project.description is required")
	}
	return nil
}

// Render returns the canonical TOML form of the config. Known keys
// keep their values; unknown keys are dropped.
func (c *Local) Render() (string, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(c); err != nil {
		return "", fmt.Errorf("encoding config: %w", err)
	}
	return buf.String(), nil
}

// Save writes the canonical form to path.
func (c *Local) Save(path string) error {
	rendered, err := c.Render()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(rendered), 0o644)
}

func readRawTOML(path string) map[string]any {
	raw := map[string]any{}
	if _, err := os.Stat(path); err != nil {
		return raw
	}
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return map[string]any{}
	}
	return raw
}

// schema of known keys per table, used for drift detection
var (
	knownTopKeys      = keySet("project", "files", "worktree")
	knownProjectKeys  = keySet("name", "description", "generic_templates")
	knownFileKeys     = keySet("path", "description")
	knownWorktreeKeys = keySet("symlink_paths")
)

func keySet(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

// UnknownKeys returns dotted paths of keys in raw that are not part of
// the supported schema, e.g. "project.weird_key" or "files[0].extra".
func UnknownKeys(raw map[string]any) []string {
	var unknown []string

	unknown = append(unknown, unknownIn(raw, knownTopKeys, "")...)

	if project, ok := raw["project"].(map[string]any); ok {
		unknown = append(unknown, unknownIn(project, knownProjectKeys, "project.")...)
	}
	if wt, ok := raw["worktree"].(map[string]any); ok {
		unknown = append(unknown, unknownIn(wt, knownWorktreeKeys, "worktree.")...)
	}
	if files, ok := raw["files"].([]map[string]any); ok {
		for i, f := range files {
			unknown = append(unknown, unknownIn(f, knownFileKeys, fmt.Sprintf("files[%d].", i))...)
		}
	} else if files, ok := raw["files"].([]any); ok {
		for i, item := range files {
			if f, ok := item.(map[string]any); ok {
				unknown = append(unknown, unknownIn(f, knownFileKeys, fmt.Sprintf("files[%d].", i))...)
			}
		}
	}

	sort.Strings(unknown)
	return unknown
}

// HasDrift reports whether raw contains any keys outside the schema.
func HasDrift(raw map[string]any) bool {
	return len(UnknownKeys(raw)) > 0
}

func unknownIn(table map[string]any, known map[string]bool, prefix string) []string {
	var result []string
	for key := range table {
		if !known[key] {
			result = append(result, prefix+key)
		}
	}
	return result
}

// Canonicalize reads the config at path and returns its canonical
// rendering: unknown keys dropped, missing keys filled from the
// defaults, known values preserved. removed lists the dropped keys.
// projectName seeds the defaults when project.name is absent.
func Canonicalize(path, projectName string) (rendered string, removed []string, err error) {
	raw := readRawTOML(path)
	removed = UnknownKeys(raw)

	cfg := DefaultLocal(projectName)
	if _, statErr := os.Stat(path); statErr == nil {
		if _, decErr := toml.DecodeFile(path, cfg); decErr != nil {
			return "", nil, fmt.Errorf("parsing %s: %w", path, decErr)
		}
	}

	rendered, err = cfg.Render()
	return rendered, removed, err
}

// DefaultLocal returns the config written by mem init.
func DefaultLocal(projectName string) *Local {
	return &Local{
		Project: Project{
			Name:        projectName,
			Description: "TODO: describe this project for onboarding context",
		},
	}
}
