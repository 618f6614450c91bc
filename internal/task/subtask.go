package task

import (
	"fmt"
	"strings"
)

// AddSubtask appends a subtask to a task's checklist.
func (s *Store) AddSubtask(specSlug, name, title string) error {
	return s.Update(specSlug, name, func(m *Meta) {
		m.Subtasks = append(m.Subtasks, Subtask{Title: title, Status: StatusTodo})
	})
}

// CompleteSubtask marks a subtask done, matched case-insensitively by
// title substring.
func (s *Store) CompleteSubtask(specSlug, name, title string) error {
	return s.mutateSubtask(specSlug, name, title, func(sub *Subtask) {
		sub.Status = StatusCompleted
	})
}

// DeleteSubtask removes a subtask from the checklist.
func (s *Store) DeleteSubtask(specSlug, name, title string) error {
	found := false
	err := s.Update(specSlug, name, func(m *Meta) {
		kept := m.Subtasks[:0]
		for _, sub := range m.Subtasks {
			if !found && matchSubtask(sub, title) {
				found = true
				continue
			}
			kept = append(kept, sub)
		}
		m.Subtasks = kept
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("subtask not found: %s", title)
	}
	return nil
}

// ListSubtasks returns a task's checklist.
func (s *Store) ListSubtasks(specSlug, name string) ([]Subtask, error) {
	t, err := s.Get(specSlug, name)
	if err != nil {
		return nil, err
	}
	return t.Subtasks, nil
}

func (s *Store) mutateSubtask(specSlug, name, title string, mutate func(*Subtask)) error {
	found := false
	err := s.Update(specSlug, name, func(m *Meta) {
		for i := range m.Subtasks {
			if matchSubtask(m.Subtasks[i], title) {
				mutate(&m.Subtasks[i])
				found = true
				return
			}
		}
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("subtask not found: %s", title)
	}
	return nil
}

func matchSubtask(sub Subtask, title string) bool {
	return strings.Contains(strings.ToLower(sub.Title), strings.ToLower(title))
}
