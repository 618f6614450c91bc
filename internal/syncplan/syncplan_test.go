package syncplan

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memcli/mem/internal/gh"
	"github.com/memcli/mem/internal/spec"
	"github.com/memcli/mem/internal/todo"
)

type fakeGitHub struct {
	merged        map[string]bool
	comments      map[int][]gh.Comment
	nextNumber    int
	created       []gh.Issue
	updatedBodies map[int]string
	statusLabels  map[int]string
	closed        map[int]string
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{
		merged:        map[string]bool{},
		comments:      map[int][]gh.Comment{},
		nextNumber:    100,
		updatedBodies: map[int]string{},
		statusLabels:  map[int]string{},
		closed:        map[int]string{},
	}
}

func (f *fakeGitHub) IsPullMerged(_ context.Context, prURL string) (bool, error) {
	return f.merged[prURL], nil
}

func (f *fakeGitHub) CreateIssue(_ context.Context, title, body string, labels, _ []string) (gh.Issue, error) {
	f.nextNumber++
	issue := gh.Issue{
		Number:  f.nextNumber,
		Title:   title,
		Body:    body,
		State:   "open",
		Labels:  labels,
		HTMLURL: fmt.Sprintf("https://github.com/acme/widgets/issues/%d", f.nextNumber),
	}
	f.created = append(f.created, issue)
	return issue, nil
}

func (f *fakeGitHub) UpdateIssueBody(_ context.Context, number int, body string) error {
	f.updatedBodies[number] = body
	return nil
}

func (f *fakeGitHub) Comments(_ context.Context, number int) ([]gh.Comment, error) {
	return f.comments[number], nil
}

func (f *fakeGitHub) SyncStatusLabels(_ context.Context, issueNumber int, status string) error {
	f.statusLabels[issueNumber] = status
	return nil
}

func (f *fakeGitHub) CloseIssueWithComment(_ context.Context, number int, comment string) error {
	f.closed[number] = comment
	return nil
}

func newStores(t *testing.T) (*spec.Store, *todo.Store) {
	t.Helper()
	root := t.TempDir()
	return spec.NewStore(root), todo.NewStore(root)
}

func linkedSpec(t *testing.T, specs *spec.Store, title string, issueID int, body string) *spec.Spec {
	t.Helper()
	sp, err := specs.Create(title, "")
	require.NoError(t, err)
	require.NoError(t, specs.UpdateBody(sp.Slug, body))
	require.NoError(t, specs.Update(sp.Slug, func(m *spec.Meta) {
		m.IssueID = issueID
		m.IssueURL = "https://github.com/acme/widgets/issues/1"
	}))
	out, err := specs.Get(sp.Slug)
	require.NoError(t, err)
	return out
}

func TestHash(t *testing.T) {
	assert.Equal(t, Hash("hello"), Hash("hello"))
	assert.NotEqual(t, Hash("hello"), Hash("world"))
	assert.Len(t, Hash(""), 64)
}

func TestDiffers(t *testing.T) {
	assert.True(t, Differs("", "abc"))
	assert.True(t, Differs("abc", ""))
	assert.True(t, Differs("abc", "def"))
	assert.False(t, Differs("abc", "abc"))
}

func TestExtractBody(t *testing.T) {
	assert.Equal(t, "main content", ExtractBody("main content"))
	assert.Equal(t, "main content", ExtractBody("main content"+Separator+"### Comment by @a on x\n\nhi"))
	assert.Equal(t, "trimmed", ExtractBody("\n\ntrimmed\n"))
}

func TestBodyWithComments(t *testing.T) {
	assert.Equal(t, "body", BodyWithComments("body", nil))

	out := BodyWithComments("body", []gh.Comment{
		{User: "alice", CreatedAt: "2026-01-02T10:00:00", Body: "first"},
		{User: "bob", CreatedAt: "2026-01-02T11:00:00", Body: "second"},
	})
	assert.True(t, strings.HasPrefix(out, "body"+Separator))
	assert.Contains(t, out, "### Comment by @alice on 2026-01-02T10:00:00\n\nfirst")
	assert.Contains(t, out, "### Comment by @bob on 2026-01-02T11:00:00\n\nsecond")
	assert.Equal(t, "body", ExtractBody(out))
}

func TestBuildPlanBuckets(t *testing.T) {
	specs, todos := newStores(t)
	ctx := context.Background()
	fake := newFakeGitHub()

	// In sync with issue 1: no action expected.
	inSync := linkedSpec(t, specs, "In Sync Spec", 1, "stable body")
	require.NoError(t, specs.MarkSynced(inSync.Slug, Hash("stable body"), Hash("stable body")))

	// Remote edited issue 2 since last sync.
	remoteEdit := linkedSpec(t, specs, "Remote Edit Spec", 2, "old body")
	require.NoError(t, specs.MarkSynced(remoteEdit.Slug, Hash("old body"), Hash("old body")))

	// Local edited since last sync with issue 3.
	localEdit := linkedSpec(t, specs, "Local Edit Spec", 3, "old body")
	require.NoError(t, specs.MarkSynced(localEdit.Slug, Hash("old body"), Hash("unchanged remote")))
	require.NoError(t, specs.UpdateBody(localEdit.Slug, "edited locally"))

	// Both sides moved on issue 4.
	conflicted := linkedSpec(t, specs, "Conflicted Spec", 4, "old body")
	require.NoError(t, specs.MarkSynced(conflicted.Slug, Hash("old body"), Hash("old body")))
	require.NoError(t, specs.UpdateBody(conflicted.Slug, "local change"))

	// Never pushed to GitHub.
	unlinked, err := specs.Create("Unlinked Spec", "fresh idea")
	require.NoError(t, err)

	// Merged PR waiting to be archived.
	mergeReady := linkedSpec(t, specs, "Merge Ready Spec", 8, "done body")
	require.NoError(t, specs.MarkSynced(mergeReady.Slug, Hash("done body"), Hash("done body")))
	require.NoError(t, specs.Update(mergeReady.Slug, func(m *spec.Meta) {
		m.Status = spec.StatusMergeReady
		m.PRURL = "https://github.com/acme/widgets/pull/12"
	}))
	fake.merged["https://github.com/acme/widgets/pull/12"] = true

	// A todo already tracking issue 7.
	tracked, err := todos.Create("Known Issue", "")
	require.NoError(t, err)
	require.NoError(t, todos.LinkIssue(tracked.Slug, 7, ""))

	issues := []gh.Issue{
		{Number: 1, Title: "[Spec]: In Sync Spec", Body: "stable body", Labels: []string{gh.SpecLabel, "mem-status:todo"}},
		{Number: 2, Title: "[Spec]: Remote Edit Spec", Body: "remote rewrote this", Labels: []string{gh.SpecLabel, "mem-status:todo"}},
		{Number: 3, Title: "[Spec]: Local Edit Spec", Body: "unchanged remote", Labels: []string{gh.SpecLabel, "mem-status:todo"}},
		{Number: 4, Title: "[Spec]: Conflicted Spec", Body: "remote change", Labels: []string{gh.SpecLabel, "mem-status:todo"}},
		{Number: 5, Title: "[Spec]: Brand New Idea", Body: "from github", Labels: []string{gh.SpecLabel}},
		{Number: 6, Title: "Fix flaky CI", Body: "it flakes", Labels: []string{"bug"}, HTMLURL: "https://github.com/acme/widgets/issues/6"},
		{Number: 7, Title: "Known Issue", Body: "", Labels: nil},
		{Number: 8, Title: "[Spec]: Merge Ready Spec", Body: "done body", Labels: []string{gh.SpecLabel, "mem-status:merge-ready"}},
	}

	all, err := specs.List("")
	require.NoError(t, err)
	plan, err := BuildPlan(ctx, all, todos, issues, fake)
	require.NoError(t, err)

	require.Len(t, plan.InboundCreates, 1)
	assert.Equal(t, 5, plan.InboundCreates[0].IssueNumber)
	assert.Equal(t, "Brand New Idea", plan.InboundCreates[0].Title)

	require.Len(t, plan.InboundUpdates, 1)
	assert.Equal(t, remoteEdit.Slug, plan.InboundUpdates[0].SpecSlug)

	require.Len(t, plan.OutboundUpdates, 1)
	assert.Equal(t, localEdit.Slug, plan.OutboundUpdates[0].SpecSlug)

	require.Len(t, plan.Conflicts, 1)
	assert.Equal(t, conflicted.Slug, plan.Conflicts[0].SpecSlug)

	require.Len(t, plan.OutboundCreates, 1)
	assert.Equal(t, unlinked.Slug, plan.OutboundCreates[0].SpecSlug)

	require.Len(t, plan.TodosToCreate, 1)
	assert.Equal(t, "Fix flaky CI", plan.TodosToCreate[0].Title)
	assert.Equal(t, 6, plan.TodosToCreate[0].IssueNumber)

	require.Len(t, plan.SpecsToComplete, 1)
	assert.Equal(t, mergeReady.Slug, plan.SpecsToComplete[0])

	// Local status is todo on every linked spec, matching the labels,
	// except the merge-ready pair where local still wins outbound.
	for _, a := range plan.StatusSyncs {
		assert.Equal(t, Outbound, a.Direction)
	}

	assert.True(t, plan.HasChanges())
}

func TestBuildPlanNoChanges(t *testing.T) {
	specs, todos := newStores(t)
	sp := linkedSpec(t, specs, "Steady State", 1, "body")
	require.NoError(t, specs.MarkSynced(sp.Slug, Hash("body"), Hash("body")))

	all, err := specs.List("")
	require.NoError(t, err)
	plan, err := BuildPlan(context.Background(), all, todos, []gh.Issue{
		{Number: 1, Title: "[Spec]: Steady State", Body: "body", Labels: []string{gh.SpecLabel, "mem-status:todo"}},
	}, nil)
	require.NoError(t, err)

	assert.False(t, plan.HasChanges())
	assert.Equal(t, 0, plan.TotalActions())
}

func TestExecuteOutboundCreate(t *testing.T) {
	specs, todos := newStores(t)
	fake := newFakeGitHub()
	ctx := context.Background()

	sp, err := specs.Create("Fresh Spec", "the plan")
	require.NoError(t, err)

	exec := &Executor{Specs: specs, Todos: todos, GitHub: fake}
	plan := &Plan{OutboundCreates: []Action{{Direction: Outbound, Type: "create", SpecSlug: sp.Slug, Title: "Fresh Spec"}}}

	n, err := exec.Execute(ctx, plan, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, fake.created, 1)
	assert.Equal(t, "[Spec]: Fresh Spec", fake.created[0].Title)
	assert.Contains(t, fake.created[0].Labels, gh.SpecLabel)
	assert.Contains(t, fake.created[0].Labels, "mem-status:todo")

	after, err := specs.Get(sp.Slug)
	require.NoError(t, err)
	assert.Equal(t, fake.created[0].Number, after.IssueID)
	assert.NotEmpty(t, after.LocalContentHash)
	assert.NotEmpty(t, after.RemoteContentHash)
	assert.NotEmpty(t, after.LastSyncedAt)
}

func TestExecuteInboundCreateWithComments(t *testing.T) {
	specs, todos := newStores(t)
	fake := newFakeGitHub()
	fake.comments[5] = []gh.Comment{{User: "alice", CreatedAt: "2026-02-01T09:00:00", Body: "looks good"}}
	ctx := context.Background()

	issue := gh.Issue{
		Number:   5,
		Title:    "[Spec]: Brand New Idea",
		Body:     "from github",
		Labels:   []string{gh.SpecLabel, "mem-status:todo"},
		Assignee: "alice",
		HTMLURL:  "https://github.com/acme/widgets/issues/5",
	}

	exec := &Executor{Specs: specs, Todos: todos, GitHub: fake}
	plan := &Plan{InboundCreates: []Action{{Direction: Inbound, Type: "create", IssueNumber: 5, Title: "Brand New Idea"}}}

	n, err := exec.Execute(ctx, plan, []gh.Issue{issue})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	sp, err := specs.Get("brand-new-idea")
	require.NoError(t, err)
	assert.Equal(t, "Brand New Idea", sp.Title)
	assert.Equal(t, 5, sp.IssueID)
	assert.Equal(t, "alice", sp.AssignedTo)
	assert.Equal(t, spec.StatusTodo, sp.Status)
	assert.Contains(t, sp.Body, "from github")
	assert.Contains(t, sp.Body, "### Comment by @alice")
	assert.Equal(t, "from github", ExtractBody(sp.Body))
	assert.Equal(t, Hash("from github"), sp.LocalContentHash)
	assert.Equal(t, Hash("from github"), sp.RemoteContentHash)
}

func TestExecuteOutboundUpdateStripsComments(t *testing.T) {
	specs, todos := newStores(t)
	fake := newFakeGitHub()
	ctx := context.Background()

	sp := linkedSpec(t, specs, "Synced Spec", 9, "edited body"+Separator+"### Comment by @bob on x\n\nhi")

	exec := &Executor{Specs: specs, Todos: todos, GitHub: fake}
	plan := &Plan{OutboundUpdates: []Action{{Direction: Outbound, Type: "update", SpecSlug: sp.Slug, IssueNumber: 9}}}

	n, err := exec.Execute(ctx, plan, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "edited body", fake.updatedBodies[9])
}

func TestExecuteTodoCreateAndSkipExisting(t *testing.T) {
	specs, todos := newStores(t)
	fake := newFakeGitHub()
	ctx := context.Background()

	_, err := todos.Create("Already There", "")
	require.NoError(t, err)

	exec := &Executor{Specs: specs, Todos: todos, GitHub: fake}
	plan := &Plan{TodosToCreate: []TodoCreate{
		{Title: "Fix flaky CI", Body: "it flakes", IssueNumber: 6, IssueURL: "https://github.com/acme/widgets/issues/6"},
		{Title: "Already There", Body: "dup"},
	}}

	n, err := exec.Execute(ctx, plan, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	created, err := todos.Get("fix-flaky-ci")
	require.NoError(t, err)
	assert.Equal(t, 6, created.IssueID)
	assert.Equal(t, "https://github.com/acme/widgets/issues/6", created.IssueURL)
}

func TestExecuteCompleteMerged(t *testing.T) {
	specs, todos := newStores(t)
	fake := newFakeGitHub()
	ctx := context.Background()

	sp := linkedSpec(t, specs, "Shipped Spec", 8, "done")
	require.NoError(t, specs.Update(sp.Slug, func(m *spec.Meta) {
		m.Status = spec.StatusMergeReady
		m.PRURL = "https://github.com/acme/widgets/pull/12"
	}))

	exec := &Executor{Specs: specs, Todos: todos, GitHub: fake}
	plan := &Plan{SpecsToComplete: []string{sp.Slug}}

	n, err := exec.Execute(ctx, plan, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	archived, err := specs.List(spec.StatusCompleted)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, sp.Slug, archived[0].Slug)
	assert.Equal(t, "Completed via PR: https://github.com/acme/widgets/pull/12", fake.closed[8])
}

func TestExecuteCompleteMerged_FailureContinues(t *testing.T) {
	specs, todos := newStores(t)
	fake := newFakeGitHub()
	ctx := context.Background()

	sp := linkedSpec(t, specs, "Shipped Spec", 8, "done")
	require.NoError(t, specs.Update(sp.Slug, func(m *spec.Meta) {
		m.Status = spec.StatusMergeReady
		m.PRURL = "https://github.com/acme/widgets/pull/12"
	}))

	exec := &Executor{Specs: specs, Todos: todos, GitHub: fake}
	plan := &Plan{SpecsToComplete: []string{"vanished-spec", sp.Slug}}

	// A spec that cannot be completed is reported, not fatal
	n, err := exec.Execute(ctx, plan, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	archived, err := specs.List(spec.StatusCompleted)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, sp.Slug, archived[0].Slug)
}
