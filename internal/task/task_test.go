package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memcli/mem/internal/spec"
)

func newStores(t *testing.T) (*spec.Store, *Store) {
	t.Helper()
	specs := spec.NewStore(t.TempDir())
	_, err := specs.Create("Auth Flow", "## Overview\n")
	require.NoError(t, err)
	return specs, NewStore(specs)
}

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name     string
		wantOrd  int
		wantSlug string
		wantOK   bool
	}{
		{"01_setup_db.md", 1, "setup_db", true},
		{"12_add-endpoint.md", 12, "add-endpoint", true},
		{"notes.md", 0, "", false},
		{"01_.md", 0, "", false},
		{"spec.md", 0, "", false},
	}

	for _, tt := range tests {
		order, slug, ok := ParseFilename(tt.name)
		assert.Equal(t, tt.wantOK, ok, tt.name)
		if ok {
			assert.Equal(t, tt.wantOrd, order, tt.name)
			assert.Equal(t, tt.wantSlug, slug, tt.name)
		}
	}
}

func TestCreateAndList_Ordered(t *testing.T) {
	_, tasks := newStores(t)

	first, err := tasks.Create("auth-flow", "Set up database", "Create the schema.", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Order)
	assert.Equal(t, "01_set-up-database.md", first.Filename)

	second, err := tasks.Create("auth-flow", "Add endpoint", "POST /login.", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Order)

	list, err := tasks.List("auth-flow")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Set up database", list[0].Title)
	assert.Equal(t, "Add endpoint", list[1].Title)
}

func TestList_EmptySpec(t *testing.T) {
	_, tasks := newStores(t)
	list, err := tasks.List("auth-flow")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFindByTitle(t *testing.T) {
	_, tasks := newStores(t)
	_, err := tasks.Create("auth-flow", "Set up database", "", 0)
	require.NoError(t, err)

	name, err := tasks.FindByTitle("auth-flow", "database")
	require.NoError(t, err)
	assert.Equal(t, "01_set-up-database.md", name)

	name, err = tasks.FindByTitle("auth-flow", "DATABASE")
	require.NoError(t, err)
	assert.Equal(t, "01_set-up-database.md", name)

	name, err = tasks.FindByTitle("auth-flow", "nothing")
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestComplete_AppendsNotes(t *testing.T) {
	_, tasks := newStores(t)
	created, err := tasks.Create("auth-flow", "Set up database", "Create the schema.", 0)
	require.NoError(t, err)

	require.NoError(t, tasks.Complete("auth-flow", created.Filename, "Used sqlite."))

	got, err := tasks.Get("auth-flow", created.Filename)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.NotEmpty(t, got.CompletedAt)
	assert.Contains(t, got.Body, "## Completion Notes")
	assert.Contains(t, got.Body, "Used sqlite.")
}

func TestAmend_ReopensTask(t *testing.T) {
	_, tasks := newStores(t)
	created, err := tasks.Create("auth-flow", "Set up database", "Create the schema.", 0)
	require.NoError(t, err)
	require.NoError(t, tasks.Complete("auth-flow", created.Filename, ""))

	require.NoError(t, tasks.Amend("auth-flow", created.Filename, "Also add an index."))

	got, err := tasks.Get("auth-flow", created.Filename)
	require.NoError(t, err)
	assert.Equal(t, StatusTodo, got.Status)
	assert.Empty(t, got.CompletedAt)
	assert.Contains(t, got.Body, "## Amendments")
}

func TestGet_WithoutSuffix(t *testing.T) {
	_, tasks := newStores(t)
	_, err := tasks.Create("auth-flow", "Set up database", "", 0)
	require.NoError(t, err)

	got, err := tasks.Get("auth-flow", "01_set-up-database")
	require.NoError(t, err)
	assert.Equal(t, "Set up database", got.Title)
}

func TestDelete(t *testing.T) {
	_, tasks := newStores(t)
	created, err := tasks.Create("auth-flow", "Throwaway", "", 0)
	require.NoError(t, err)

	require.NoError(t, tasks.Delete("auth-flow", created.Filename))

	_, err = tasks.Get("auth-flow", created.Filename)
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestSubtasks(t *testing.T) {
	_, tasks := newStores(t)
	created, err := tasks.Create("auth-flow", "Set up database", "", 0)
	require.NoError(t, err)

	require.NoError(t, tasks.AddSubtask("auth-flow", created.Filename, "Write migration"))
	require.NoError(t, tasks.AddSubtask("auth-flow", created.Filename, "Seed data"))

	subs, err := tasks.ListSubtasks("auth-flow", created.Filename)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, StatusTodo, subs[0].Status)

	require.NoError(t, tasks.CompleteSubtask("auth-flow", created.Filename, "migration"))
	subs, err = tasks.ListSubtasks("auth-flow", created.Filename)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, subs[0].Status)
	assert.Equal(t, StatusTodo, subs[1].Status)

	require.NoError(t, tasks.DeleteSubtask("auth-flow", created.Filename, "seed"))
	subs, err = tasks.ListSubtasks("auth-flow", created.Filename)
	require.NoError(t, err)
	require.Len(t, subs, 1)

	err = tasks.CompleteSubtask("auth-flow", created.Filename, "nothing")
	assert.ErrorContains(t, err, "subtask not found")
}

func TestHasIncomplete(t *testing.T) {
	_, tasks := newStores(t)
	created, err := tasks.Create("auth-flow", "Set up database", "", 0)
	require.NoError(t, err)
	require.NoError(t, tasks.AddSubtask("auth-flow", created.Filename, "Write migration"))

	// task done but subtask open
	require.NoError(t, tasks.Complete("auth-flow", created.Filename, ""))
	open, err := tasks.HasIncomplete("auth-flow")
	require.NoError(t, err)
	assert.True(t, open)

	require.NoError(t, tasks.CompleteSubtask("auth-flow", created.Filename, "migration"))
	open, err = tasks.HasIncomplete("auth-flow")
	require.NoError(t, err)
	assert.False(t, open)
}
