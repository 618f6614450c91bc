// Package todo stores standalone reminders under .mem/todos/.
//
// Todos are lightweight: one markdown file per reminder, optionally
// linked to a GitHub issue. Issues without the spec label sync down
// into todos.
package todo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/memcli/mem/internal/config"
	"github.com/memcli/mem/internal/markdown"
)

// Status is a todo state.
type Status string

const (
	StatusOpen      Status = "open"
	StatusCompleted Status = "completed"
)

// Meta is the frontmatter of a todo file.
type Meta struct {
	Title       string `yaml:"title"`
	Status      Status `yaml:"status"`
	IssueID     int    `yaml:"issue_id,omitempty"`
	IssueURL    string `yaml:"issue_url,omitempty"`
	CreatedAt   string `yaml:"created_at"`
	CompletedAt string `yaml:"completed_at,omitempty"`
}

// Todo is a stored reminder.
type Todo struct {
	Slug string
	Meta
	Body string
}

// Linked reports whether the todo has a GitHub issue.
func (t *Todo) Linked() bool {
	return t.IssueID != 0
}

// NotFoundError reports a missing todo.
type NotFoundError struct {
	Slug string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("todo not found: %s", e.Slug)
}

// ExistsError reports a create that collides with an existing todo.
type ExistsError struct {
	Slug string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("todo already exists: %s", e.Slug)
}

// Now returns the timestamp written to frontmatter. Overridable in tests.
var Now = func() string {
	return time.Now().Format("2006-01-02T15:04:05")
}

// Store reads and writes todos for one project.
type Store struct {
	paths config.Paths
}

// NewStore returns a todo store rooted at the given project directory.
func NewStore(root string) *Store {
	return &Store{paths: config.NewPaths(root)}
}

func (s *Store) file(slug string) string {
	return filepath.Join(s.paths.TodosDir(), slug+".md")
}

// Create writes a new todo. The slug is derived from the title.
func (s *Store) Create(title, description string) (*Todo, error) {
	if err := os.MkdirAll(s.paths.TodosDir(), 0o755); err != nil {
		return nil, fmt.Errorf("creating todos directory: %w", err)
	}

	slug := markdown.Slugify(title)
	if slug == "" {
		return nil, fmt.Errorf("title produces an empty slug: %q", title)
	}
	path := s.file(slug)
	if _, err := os.Stat(path); err == nil {
		return nil, &ExistsError{Slug: slug}
	}

	meta := Meta{
		Title:     title,
		Status:    StatusOpen,
		CreatedAt: Now(),
	}
	if err := markdown.WriteFile(path, meta, description); err != nil {
		return nil, err
	}
	return &Todo{Slug: slug, Meta: meta, Body: description}, nil
}

// Get reads a todo by slug.
func (s *Store) Get(slug string) (*Todo, error) {
	var meta Meta
	body, err := markdown.ReadFile(s.file(slug), &meta)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Slug: slug}
		}
		return nil, fmt.Errorf("reading todo %s: %w", slug, err)
	}
	return &Todo{Slug: slug, Meta: meta, Body: body}, nil
}

// ByIssueID finds the todo linked to a GitHub issue. Returns nil when
// no todo matches.
func (s *Store) ByIssueID(issueID int) (*Todo, error) {
	todos, err := s.List("")
	if err != nil {
		return nil, err
	}
	for _, t := range todos {
		if t.IssueID == issueID {
			return t, nil
		}
	}
	return nil, nil
}

// List returns todos, optionally filtered by status, newest first.
func (s *Store) List(status Status) ([]*Todo, error) {
	entries, err := os.ReadDir(s.paths.TodosDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var todos []*Todo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		t, err := s.Get(strings.TrimSuffix(name, ".md"))
		if err != nil {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		todos = append(todos, t)
	}

	sort.Slice(todos, func(i, j int) bool {
		return todos[i].CreatedAt > todos[j].CreatedAt
	})
	return todos, nil
}

// Update applies mutate to the todo's frontmatter.
func (s *Store) Update(slug string, mutate func(*Meta)) error {
	path := s.file(slug)
	var meta Meta
	body, err := markdown.ReadFile(path, &meta)
	if err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{Slug: slug}
		}
		return fmt.Errorf("reading todo %s: %w", slug, err)
	}

	mutate(&meta)
	return markdown.WriteFile(path, meta, body)
}

// Complete marks a todo done.
func (s *Store) Complete(slug string) error {
	return s.Update(slug, func(m *Meta) {
		m.Status = StatusCompleted
		m.CompletedAt = Now()
	})
}

// LinkIssue records the GitHub issue backing this todo.
func (s *Store) LinkIssue(slug string, issueID int, issueURL string) error {
	return s.Update(slug, func(m *Meta) {
		m.IssueID = issueID
		m.IssueURL = issueURL
	})
}

// Delete removes a todo file.
func (s *Store) Delete(slug string) error {
	if err := os.Remove(s.file(slug)); err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{Slug: slug}
		}
		return err
	}
	return nil
}
