package config

import "path/filepath"

// Paths resolves the .mem directory layout for one project.
type Paths struct {
	Root string // project root (the main checkout or a worktree)
}

// NewPaths returns the .mem layout rooted at the given project directory.
func NewPaths(root string) Paths {
	return Paths{Root: root}
}

// MemDir is the project's .mem directory.
func (p Paths) MemDir() string { return filepath.Join(p.Root, ".mem") }

// SpecsDir holds active spec files.
func (p Paths) SpecsDir() string { return filepath.Join(p.MemDir(), "specs") }

// CompletedDir holds specs that were finished and archived.
func (p Paths) CompletedDir() string { return filepath.Join(p.SpecsDir(), "completed") }

// AbandonedDir holds specs that were dropped.
func (p Paths) AbandonedDir() string { return filepath.Join(p.SpecsDir(), "abandoned") }

// SpecDir is the directory of one spec (spec.md plus task files).
func (p Paths) SpecDir(slug string) string { return filepath.Join(p.SpecsDir(), slug) }

// LogsDir holds work log files.
func (p Paths) LogsDir() string { return filepath.Join(p.MemDir(), "logs") }

// TodosDir holds todo files.
func (p Paths) TodosDir() string { return filepath.Join(p.MemDir(), "todos") }

// TmpDir is scratch space ignored by git.
func (p Paths) TmpDir() string { return filepath.Join(p.MemDir(), "tmp") }

// ConfigFile is the project-local config.toml.
func (p Paths) ConfigFile() string { return filepath.Join(p.MemDir(), "config.toml") }

// UserMappingsFile maps git user names to GitHub usernames.
func (p Paths) UserMappingsFile() string { return filepath.Join(p.MemDir(), "user_mappings.toml") }
