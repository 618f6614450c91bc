// Package spec stores feature specifications as markdown files with
// YAML frontmatter under .mem/specs/.
//
// Layout:
//
//	.mem/specs/<slug>/spec.md        active specs (plus task files)
//	.mem/specs/completed/<slug>/     archived after merge
//	.mem/specs/abandoned/<slug>/     dropped
//
// A spec is never marked "active" in its frontmatter: the active spec
// is derived from the current worktree or branch.
package spec

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/memcli/mem/internal/config"
	"github.com/memcli/mem/internal/markdown"
)

// Status is a spec lifecycle state.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusMergeReady Status = "merge_ready"
	StatusCompleted  Status = "completed"
	StatusAbandoned  Status = "abandoned"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusMergeReady, StatusCompleted, StatusAbandoned:
		return true
	}
	return false
}

// Meta is the frontmatter of a spec.md file.
type Meta struct {
	Title      string `yaml:"title"`
	Status     Status `yaml:"status"`
	AssignedTo string `yaml:"assigned_to,omitempty"`

	// GitHub linkage
	IssueID  int    `yaml:"issue_id,omitempty"`
	IssueURL string `yaml:"issue_url,omitempty"`
	Branch   string `yaml:"branch,omitempty"`
	PRURL    string `yaml:"pr_url,omitempty"`

	CreatedAt   string `yaml:"created_at"`
	UpdatedAt   string `yaml:"updated_at"`
	CompletedAt string `yaml:"completed_at,omitempty"`

	// Sync state
	LastSyncedAt      string `yaml:"last_synced_at,omitempty"`
	LocalContentHash  string `yaml:"local_content_hash,omitempty"`
	RemoteContentHash string `yaml:"remote_content_hash,omitempty"`
}

// Spec is a stored specification with its body.
type Spec struct {
	Slug string
	Meta
	Body string
}

// Linked reports whether the spec has a GitHub issue.
func (s *Spec) Linked() bool {
	return s.IssueID != 0
}

// NotFoundError reports a slug or prefix that matched no spec.
type NotFoundError struct {
	Slug string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("spec not found: %s", e.Slug)
}

// AmbiguousError reports a prefix that matched more than one spec.
type AmbiguousError struct {
	Prefix  string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous spec prefix %q matches: %v", e.Prefix, e.Matches)
}

// ExistsError reports an attempt to create a spec that already exists.
type ExistsError struct {
	Slug string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("spec already exists: %s", e.Slug)
}

// Now returns the timestamp written to frontmatter. Overridable in tests.
var Now = func() string {
	return time.Now().Format("2006-01-02T15:04:05")
}

// Store reads and writes specs for one project.
type Store struct {
	paths config.Paths
}

// NewStore returns a spec store rooted at the given project directory.
func NewStore(root string) *Store {
	return &Store{paths: config.NewPaths(root)}
}

// Paths exposes the project's .mem layout.
func (s *Store) Paths() config.Paths {
	return s.paths
}

// Dir returns the directory of a spec, searching active, completed and
// abandoned locations. New specs default to the active location.
func (s *Store) Dir(slug string) string {
	if found := s.findDir(slug); found != "" {
		return found
	}
	return s.paths.SpecDir(slug)
}

// File returns the spec.md path for a slug.
func (s *Store) File(slug string) string {
	return filepath.Join(s.Dir(slug), "spec.md")
}

func (s *Store) findDir(slug string) string {
	for _, base := range []string{s.paths.SpecsDir(), s.paths.CompletedDir(), s.paths.AbandonedDir()} {
		dir := filepath.Join(base, slug)
		if _, err := os.Stat(filepath.Join(dir, "spec.md")); err == nil {
			return dir
		}
	}
	return ""
}

// Create writes a new spec with the given template body.
// The slug is derived from the title.
func (s *Store) Create(title, templateBody string) (*Spec, error) {
	slug := markdown.Slugify(title)
	if slug == "" {
		return nil, fmt.Errorf("title produces an empty slug: %q", title)
	}
	if s.findDir(slug) != "" {
		return nil, &ExistsError{Slug: slug}
	}

	now := Now()
	meta := Meta{
		Title:     title,
		Status:    StatusTodo,
		CreatedAt: now,
		UpdatedAt: now,
	}

	dir := s.paths.SpecDir(slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating spec directory: %w", err)
	}
	if err := markdown.WriteFile(filepath.Join(dir, "spec.md"), meta, templateBody); err != nil {
		return nil, err
	}
	return &Spec{Slug: slug, Meta: meta, Body: templateBody}, nil
}

// Resolve matches a slug or unique prefix against all spec locations.
// An exact slug match wins over prefix matches.
func (s *Store) Resolve(prefix string) (string, error) {
	if prefix == "" {
		return "", &NotFoundError{Slug: prefix}
	}

	if s.findDir(prefix) != "" {
		return prefix, nil
	}

	seen := map[string]bool{}
	var matches []string
	for _, base := range []string{s.paths.SpecsDir(), s.paths.CompletedDir(), s.paths.AbandonedDir()} {
		entries, err := os.ReadDir(base)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			slug := entry.Name()
			if !entry.IsDir() || slug == "completed" || slug == "abandoned" {
				continue
			}
			if len(slug) < len(prefix) || slug[:len(prefix)] != prefix || seen[slug] {
				continue
			}
			if _, err := os.Stat(filepath.Join(base, slug, "spec.md")); err != nil {
				continue
			}
			seen[slug] = true
			matches = append(matches, slug)
		}
	}

	sort.Strings(matches)
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", &NotFoundError{Slug: prefix}
	default:
		return "", &AmbiguousError{Prefix: prefix, Matches: matches}
	}
}

// Get reads a spec by slug or unique prefix.
func (s *Store) Get(slugOrPrefix string) (*Spec, error) {
	slug, err := s.Resolve(slugOrPrefix)
	if err != nil {
		return nil, err
	}
	return s.read(slug)
}

func (s *Store) read(slug string) (*Spec, error) {
	var meta Meta
	body, err := markdown.ReadFile(s.File(slug), &meta)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Slug: slug}
		}
		return nil, fmt.Errorf("reading spec %s: %w", slug, err)
	}
	return &Spec{Slug: slug, Meta: meta, Body: body}, nil
}

// List returns specs, optionally filtered by status, sorted by
// updated_at newest first.
//
// With an empty status, only active-location specs are listed
// (completed and abandoned are excluded). StatusCompleted and
// StatusAbandoned list their archive directories.
func (s *Store) List(status Status) ([]*Spec, error) {
	var specs []*Spec
	switch status {
	case StatusCompleted:
		specs = s.listDir(s.paths.CompletedDir(), "")
	case StatusAbandoned:
		specs = s.listDir(s.paths.AbandonedDir(), "")
	default:
		specs = s.listDir(s.paths.SpecsDir(), status)
	}

	sort.Slice(specs, func(i, j int) bool {
		return specs[i].UpdatedAt > specs[j].UpdatedAt
	})
	return specs, nil
}

func (s *Store) listDir(dir string, statusFilter Status) []*Spec {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var specs []*Spec
	for _, entry := range entries {
		slug := entry.Name()
		if !entry.IsDir() || slug == "completed" || slug == "abandoned" {
			continue
		}
		var meta Meta
		body, err := markdown.ReadFile(filepath.Join(dir, slug, "spec.md"), &meta)
		if err != nil {
			continue
		}
		if statusFilter != "" && meta.Status != statusFilter {
			continue
		}
		specs = append(specs, &Spec{Slug: slug, Meta: meta, Body: body})
	}
	return specs
}

// ByIssueID finds the active spec linked to a GitHub issue.
// Returns nil when no spec matches.
func (s *Store) ByIssueID(issueID int) (*Spec, error) {
	specs, err := s.List("")
	if err != nil {
		return nil, err
	}
	for _, sp := range specs {
		if sp.IssueID == issueID {
			return sp, nil
		}
	}
	return nil, nil
}

// Unlinked returns active specs that have no GitHub issue yet.
func (s *Store) Unlinked() ([]*Spec, error) {
	specs, err := s.List("")
	if err != nil {
		return nil, err
	}
	var result []*Spec
	for _, sp := range specs {
		if !sp.Linked() {
			result = append(result, sp)
		}
	}
	return result, nil
}

// Update applies mutate to the spec's frontmatter and bumps updated_at.
func (s *Store) Update(slug string, mutate func(*Meta)) error {
	file := s.File(slug)
	var meta Meta
	body, err := markdown.ReadFile(file, &meta)
	if err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{Slug: slug}
		}
		return fmt.Errorf("reading spec %s: %w", slug, err)
	}

	mutate(&meta)
	meta.UpdatedAt = Now()
	return markdown.WriteFile(file, meta, body)
}

// UpdateBody replaces the spec body, keeping frontmatter and bumping
// updated_at. Used by sync when the remote side changed.
func (s *Store) UpdateBody(slug, body string) error {
	file := s.File(slug)
	var meta Meta
	if _, err := markdown.ReadFile(file, &meta); err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{Slug: slug}
		}
		return fmt.Errorf("reading spec %s: %w", slug, err)
	}

	meta.UpdatedAt = Now()
	return markdown.WriteFile(file, meta, body)
}

// MarkSynced records the sync watermark after a successful exchange.
func (s *Store) MarkSynced(slug, localHash, remoteHash string) error {
	return s.Update(slug, func(m *Meta) {
		m.LastSyncedAt = Now()
		m.LocalContentHash = localHash
		m.RemoteContentHash = remoteHash
	})
}

// Delete removes a spec directory including its tasks.
func (s *Store) Delete(slug string) error {
	dir := s.findDir(slug)
	if dir == "" {
		return &NotFoundError{Slug: slug}
	}
	return os.RemoveAll(dir)
}

// MoveToCompleted archives a finished spec under specs/completed/.
func (s *Store) MoveToCompleted(slug string) (string, error) {
	return s.archive(slug, s.paths.CompletedDir(), func(m *Meta) {
		m.Status = StatusCompleted
		m.CompletedAt = Now()
	})
}

// MoveToAbandoned moves a dropped spec under specs/abandoned/.
func (s *Store) MoveToAbandoned(slug string) (string, error) {
	return s.archive(slug, s.paths.AbandonedDir(), func(m *Meta) {
		m.Status = StatusAbandoned
	})
}

func (s *Store) archive(slug, destBase string, mutate func(*Meta)) (string, error) {
	dir := s.findDir(slug)
	if dir == "" {
		return "", &NotFoundError{Slug: slug}
	}

	if err := s.Update(slug, mutate); err != nil {
		return "", err
	}

	if err := os.MkdirAll(destBase, 0o755); err != nil {
		return "", fmt.Errorf("creating archive directory: %w", err)
	}
	dest := filepath.Join(destBase, slug)
	if _, err := os.Stat(dest); err == nil {
		return "", fmt.Errorf("spec %s already archived at %s", slug, dest)
	}
	if err := os.Rename(dir, dest); err != nil {
		return "", fmt.Errorf("archiving spec %s: %w", slug, err)
	}
	return dest, nil
}
