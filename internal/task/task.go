// Package task stores the work items of a spec.
//
// Tasks are markdown files under the spec directory:
//
//	.mem/specs/<spec>/tasks/01_<task-slug>.md
//	.mem/specs/<spec>/tasks/02_<task-slug>.md
//
// The numeric prefix orders the work. Subtasks are embedded in the
// parent task's frontmatter rather than stored as separate files.
package task

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/memcli/mem/internal/markdown"
	"github.com/memcli/mem/internal/spec"
)

// Status is a task or subtask state.
type Status string

const (
	StatusTodo      Status = "todo"
	StatusCompleted Status = "completed"
)

// Subtask is one checklist item inside a task.
type Subtask struct {
	Title  string `yaml:"title"`
	Status Status `yaml:"status"`
}

// Meta is the frontmatter of a task file.
type Meta struct {
	Title       string    `yaml:"title"`
	Status      Status    `yaml:"status"`
	Subtasks    []Subtask `yaml:"subtasks,omitempty"`
	CreatedAt   string    `yaml:"created_at"`
	UpdatedAt   string    `yaml:"updated_at"`
	CompletedAt string    `yaml:"completed_at,omitempty"`
}

// Task is a stored work item.
type Task struct {
	SpecSlug string
	Slug     string
	Filename string
	Order    int
	Meta
	Body string
}

// Done reports whether the task and all its subtasks are completed.
func (t *Task) Done() bool {
	if t.Status != StatusCompleted {
		return false
	}
	for _, sub := range t.Subtasks {
		if sub.Status != StatusCompleted {
			return false
		}
	}
	return true
}

// NotFoundError reports a missing task.
type NotFoundError struct {
	SpecSlug string
	Name     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task not found in spec %s: %s", e.SpecSlug, e.Name)
}

// Now returns the timestamp written to frontmatter. Overridable in tests.
var Now = func() string {
	return time.Now().Format("2006-01-02T15:04:05")
}

var filenameRe = regexp.MustCompile(`^(\d+)_(.+)\.md$`)

// ParseFilename splits a task filename like "01_setup_db.md" into its
// order and slug. ok is false for names that are not task files.
func ParseFilename(name string) (order int, slug string, ok bool) {
	m := filenameRe.FindStringSubmatch(name)
	if m == nil {
		return 0, "", false
	}
	order, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	return order, m[2], true
}

// Filename builds the stored name for a task.
func Filename(order int, slug string) string {
	return fmt.Sprintf("%02d_%s.md", order, slug)
}

// Store reads and writes the tasks of specs resolved through the spec
// store, so tasks of archived specs remain reachable.
type Store struct {
	specs *spec.Store
}

// NewStore returns a task store backed by the given spec store.
func NewStore(specs *spec.Store) *Store {
	return &Store{specs: specs}
}

func (s *Store) tasksDir(specSlug string) string {
	return filepath.Join(s.specs.Dir(specSlug), "tasks")
}

func (s *Store) taskFile(specSlug, name string) string {
	if !strings.HasSuffix(name, ".md") {
		name += ".md"
	}
	return filepath.Join(s.tasksDir(specSlug), name)
}

// NextOrder returns the next free order number for a spec's tasks.
func (s *Store) NextOrder(specSlug string) int {
	entries, err := os.ReadDir(s.tasksDir(specSlug))
	if err != nil {
		return 1
	}
	maxOrder := 0
	for _, entry := range entries {
		if order, _, ok := ParseFilename(entry.Name()); ok && order > maxOrder {
			maxOrder = order
		}
	}
	return maxOrder + 1
}

// Create writes a new task with the description as body. A zero order
// appends after the existing tasks.
func (s *Store) Create(specSlug, title, description string, order int) (*Task, error) {
	dir := s.tasksDir(specSlug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating tasks directory: %w", err)
	}

	if order <= 0 {
		order = s.NextOrder(specSlug)
	}
	taskSlug := markdown.Slugify(title)
	name := Filename(order, taskSlug)
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("task already exists: %s", name)
	}

	now := Now()
	meta := Meta{
		Title:     title,
		Status:    StatusTodo,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := markdown.WriteFile(path, meta, description); err != nil {
		return nil, err
	}
	return &Task{
		SpecSlug: specSlug,
		Slug:     taskSlug,
		Filename: name,
		Order:    order,
		Meta:     meta,
		Body:     description,
	}, nil
}

// Get reads a task by filename (with or without the .md suffix).
func (s *Store) Get(specSlug, name string) (*Task, error) {
	path := s.taskFile(specSlug, name)
	var meta Meta
	body, err := markdown.ReadFile(path, &meta)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{SpecSlug: specSlug, Name: name}
		}
		return nil, fmt.Errorf("reading task %s: %w", name, err)
	}

	base := filepath.Base(path)
	order, slug, ok := ParseFilename(base)
	if !ok {
		return nil, fmt.Errorf("not a task file: %s", base)
	}
	return &Task{
		SpecSlug: specSlug,
		Slug:     slug,
		Filename: base,
		Order:    order,
		Meta:     meta,
		Body:     body,
	}, nil
}

// List returns a spec's tasks sorted by order.
func (s *Store) List(specSlug string) ([]*Task, error) {
	entries, err := os.ReadDir(s.tasksDir(specSlug))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var tasks []*Task
	for _, entry := range entries {
		if _, _, ok := ParseFilename(entry.Name()); !ok {
			continue
		}
		t, err := s.Get(specSlug, entry.Name())
		if err != nil {
			continue
		}
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Order < tasks[j].Order })
	return tasks, nil
}

// FindByTitle locates a task by case-insensitive substring match on its
// title. Returns the filename, or empty when nothing matches.
func (s *Store) FindByTitle(specSlug, title string) (string, error) {
	tasks, err := s.List(specSlug)
	if err != nil {
		return "", err
	}
	needle := strings.ToLower(title)
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), needle) {
			return t.Filename, nil
		}
	}
	return "", nil
}

// Update applies mutate to the task's frontmatter and bumps updated_at.
func (s *Store) Update(specSlug, name string, mutate func(*Meta)) error {
	path := s.taskFile(specSlug, name)
	var meta Meta
	body, err := markdown.ReadFile(path, &meta)
	if err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{SpecSlug: specSlug, Name: name}
		}
		return fmt.Errorf("reading task %s: %w", name, err)
	}

	mutate(&meta)
	meta.UpdatedAt = Now()
	return markdown.WriteFile(path, meta, body)
}

// Complete marks a task done, appending notes as a completion section
// when provided.
func (s *Store) Complete(specSlug, name, notes string) error {
	path := s.taskFile(specSlug, name)
	var meta Meta
	body, err := markdown.ReadFile(path, &meta)
	if err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{SpecSlug: specSlug, Name: name}
		}
		return fmt.Errorf("reading task %s: %w", name, err)
	}

	if notes != "" {
		body = strings.TrimRight(body, "\n") + "\n\n## Completion Notes\n\n" + notes + "\n"
	}
	now := Now()
	meta.Status = StatusCompleted
	meta.CompletedAt = now
	meta.UpdatedAt = now
	return markdown.WriteFile(path, meta, body)
}

// Amend appends notes to a task and reopens it, clearing completed_at.
// Enables the refine loop: amendments, completion, amendments again.
func (s *Store) Amend(specSlug, name, notes string) error {
	path := s.taskFile(specSlug, name)
	var meta Meta
	body, err := markdown.ReadFile(path, &meta)
	if err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{SpecSlug: specSlug, Name: name}
		}
		return fmt.Errorf("reading task %s: %w", name, err)
	}

	body = strings.TrimRight(body, "\n") + "\n\n## Amendments\n\n" + notes + "\n"
	meta.Status = StatusTodo
	meta.CompletedAt = ""
	meta.UpdatedAt = Now()
	return markdown.WriteFile(path, meta, body)
}

// Rename updates the task title. The filename stays stable.
func (s *Store) Rename(specSlug, name, newTitle string) error {
	return s.Update(specSlug, name, func(m *Meta) {
		m.Title = newTitle
	})
}

// Delete removes a task file.
func (s *Store) Delete(specSlug, name string) error {
	path := s.taskFile(specSlug, name)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{SpecSlug: specSlug, Name: name}
		}
		return err
	}
	return nil
}

// HasIncomplete reports whether any task or subtask of the spec is
// still open. Used as a completion gate.
func (s *Store) HasIncomplete(specSlug string) (bool, error) {
	tasks, err := s.List(specSlug)
	if err != nil {
		return false, err
	}
	for _, t := range tasks {
		if !t.Done() {
			return true, nil
		}
	}
	return false, nil
}
