package spec

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const templateBody = "## Overview\n\nDetails.\n"

func newStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir())
}

func mustCreate(t *testing.T, s *Store, title string) *Spec {
	t.Helper()
	sp, err := s.Create(title, templateBody)
	require.NoError(t, err)
	return sp
}

func TestCreateAndGet(t *testing.T) {
	s := newStore(t)

	sp := mustCreate(t, s, "Auth Flow")
	assert.Equal(t, "auth-flow", sp.Slug)
	assert.Equal(t, StatusTodo, sp.Status)
	assert.NotEmpty(t, sp.CreatedAt)

	got, err := s.Get("auth-flow")
	require.NoError(t, err)
	assert.Equal(t, "Auth Flow", got.Title)
	assert.Equal(t, templateBody, got.Body)
	assert.False(t, got.Linked())
}

func TestCreate_Duplicate(t *testing.T) {
	s := newStore(t)
	mustCreate(t, s, "Auth Flow")

	_, err := s.Create("Auth Flow", templateBody)
	var exists *ExistsError
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, "auth-flow", exists.Slug)
}

func TestResolve(t *testing.T) {
	s := newStore(t)
	mustCreate(t, s, "Auth Flow")
	mustCreate(t, s, "Auth Tokens")
	mustCreate(t, s, "Rate Limiter")

	t.Run("exact match wins", func(t *testing.T) {
		slug, err := s.Resolve("auth-flow")
		require.NoError(t, err)
		assert.Equal(t, "auth-flow", slug)
	})

	t.Run("unique prefix", func(t *testing.T) {
		slug, err := s.Resolve("rate")
		require.NoError(t, err)
		assert.Equal(t, "rate-limiter", slug)
	})

	t.Run("ambiguous prefix", func(t *testing.T) {
		_, err := s.Resolve("auth")
		var ambiguous *AmbiguousError
		require.ErrorAs(t, err, &ambiguous)
		assert.Equal(t, []string{"auth-flow", "auth-tokens"}, ambiguous.Matches)
	})

	t.Run("no match", func(t *testing.T) {
		_, err := s.Resolve("zzz")
		var notFound *NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("empty prefix", func(t *testing.T) {
		_, err := s.Resolve("")
		assert.Error(t, err)
	})
}

func TestResolve_FindsArchivedSpecs(t *testing.T) {
	s := newStore(t)
	mustCreate(t, s, "Old Feature")

	_, err := s.MoveToCompleted("old-feature")
	require.NoError(t, err)

	slug, err := s.Resolve("old")
	require.NoError(t, err)
	assert.Equal(t, "old-feature", slug)

	got, err := s.Get("old-feature")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.NotEmpty(t, got.CompletedAt)
}

func TestList(t *testing.T) {
	s := newStore(t)
	mustCreate(t, s, "First")
	mustCreate(t, s, "Second")
	require.NoError(t, s.Update("second", func(m *Meta) {
		m.Status = StatusMergeReady
	}))

	all, err := s.List("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mergeReady, err := s.List(StatusMergeReady)
	require.NoError(t, err)
	require.Len(t, mergeReady, 1)
	assert.Equal(t, "second", mergeReady[0].Slug)
}

func TestList_ExcludesArchived(t *testing.T) {
	s := newStore(t)
	mustCreate(t, s, "Active One")
	mustCreate(t, s, "Done One")
	_, err := s.MoveToCompleted("done-one")
	require.NoError(t, err)

	active, err := s.List("")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "active-one", active[0].Slug)

	completed, err := s.List(StatusCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "done-one", completed[0].Slug)
}

func TestUpdate_BumpsUpdatedAt(t *testing.T) {
	s := newStore(t)
	mustCreate(t, s, "Auth Flow")

	restore := Now
	defer func() { Now = restore }()
	Now = func() string { return "2026-08-30T12:00:00" }

	require.NoError(t, s.Update("auth-flow", func(m *Meta) {
		m.AssignedTo = "alice-gh"
	}))

	got, err := s.Get("auth-flow")
	require.NoError(t, err)
	assert.Equal(t, "alice-gh", got.AssignedTo)
	assert.Equal(t, "2026-08-30T12:00:00", got.UpdatedAt)
}

func TestUpdateBody_KeepsMeta(t *testing.T) {
	s := newStore(t)
	mustCreate(t, s, "Auth Flow")
	require.NoError(t, s.Update("auth-flow", func(m *Meta) {
		m.IssueID = 42
		m.IssueURL = "https://github.com/acme/proj/issues/42"
	}))

	require.NoError(t, s.UpdateBody("auth-flow", "New body from issue.\n"))

	got, err := s.Get("auth-flow")
	require.NoError(t, err)
	assert.Equal(t, 42, got.IssueID)
	assert.Equal(t, "New body from issue.\n", got.Body)
}

func TestByIssueIDAndUnlinked(t *testing.T) {
	s := newStore(t)
	mustCreate(t, s, "Linked Spec")
	mustCreate(t, s, "Unlinked Spec")
	require.NoError(t, s.Update("linked-spec", func(m *Meta) {
		m.IssueID = 7
	}))

	found, err := s.ByIssueID(7)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "linked-spec", found.Slug)

	missing, err := s.ByIssueID(999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	unlinked, err := s.Unlinked()
	require.NoError(t, err)
	require.Len(t, unlinked, 1)
	assert.Equal(t, "unlinked-spec", unlinked[0].Slug)
}

func TestMarkSynced(t *testing.T) {
	s := newStore(t)
	mustCreate(t, s, "Auth Flow")

	require.NoError(t, s.MarkSynced("auth-flow", "localhash", "remotehash"))

	got, err := s.Get("auth-flow")
	require.NoError(t, err)
	assert.Equal(t, "localhash", got.LocalContentHash)
	assert.Equal(t, "remotehash", got.RemoteContentHash)
	assert.NotEmpty(t, got.LastSyncedAt)
}

func TestDelete(t *testing.T) {
	s := newStore(t)
	sp := mustCreate(t, s, "Throwaway")

	// tasks live inside the spec dir and go with it
	taskPath := filepath.Join(s.Dir(sp.Slug), "01_setup.md")
	require.NoError(t, os.WriteFile(taskPath, []byte("---\ntitle: Setup\n---\n"), 0o644))

	require.NoError(t, s.Delete("throwaway"))

	_, err := s.Get("throwaway")
	var notFound *NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestMoveToAbandoned(t *testing.T) {
	s := newStore(t)
	mustCreate(t, s, "Dead End")

	dest, err := s.MoveToAbandoned("dead-end")
	require.NoError(t, err)
	assert.Contains(t, dest, filepath.Join("specs", "abandoned", "dead-end"))

	got, err := s.Get("dead-end")
	require.NoError(t, err)
	assert.Equal(t, StatusAbandoned, got.Status)
	assert.Empty(t, got.CompletedAt)
}
