package syncplan

import (
	"context"

	"github.com/memcli/mem/internal/gh"
	"github.com/memcli/mem/internal/markdown"
	"github.com/memcli/mem/internal/output"
	"github.com/memcli/mem/internal/spec"
	"github.com/memcli/mem/internal/todo"
)

// GitHub is the remote surface the executor needs. *gh.Client
// implements it; tests substitute a fake.
type GitHub interface {
	PullChecker
	CreateIssue(ctx context.Context, title, body string, labels, assignees []string) (gh.Issue, error)
	UpdateIssueBody(ctx context.Context, number int, body string) error
	Comments(ctx context.Context, number int) ([]gh.Comment, error)
	SyncStatusLabels(ctx context.Context, issueNumber int, status string) error
	CloseIssueWithComment(ctx context.Context, number int, comment string) error
}

// Executor applies a sync plan against the local stores and GitHub.
type Executor struct {
	Specs   *spec.Store
	Todos   *todo.Store
	GitHub  GitHub
	Printer *output.Printer
}

func (e *Executor) say(format string, args ...any) {
	if e.Printer != nil {
		e.Printer.Print("   "+format+"\n", args...)
	}
}

// Execute runs the plan and returns the number of actions applied.
// Conflicts are never executed. Issues is the snapshot the plan was
// built from, used to look up bodies and assignees.
func (e *Executor) Execute(ctx context.Context, plan *Plan, issues []gh.Issue) (int, error) {
	byNumber := make(map[int]gh.Issue, len(issues))
	for _, issue := range issues {
		byNumber[issue.Number] = issue
	}

	done := 0

	for _, action := range plan.OutboundCreates {
		if err := e.outboundCreate(ctx, action.SpecSlug); err != nil {
			return done, err
		}
		done++
	}

	for _, action := range plan.OutboundUpdates {
		if err := e.outboundUpdate(ctx, action.SpecSlug); err != nil {
			return done, err
		}
		done++
	}

	for _, action := range plan.InboundCreates {
		issue, ok := byNumber[action.IssueNumber]
		if !ok {
			continue
		}
		if err := e.inboundCreate(ctx, issue); err != nil {
			return done, err
		}
		done++
	}

	for _, action := range plan.InboundUpdates {
		issue, ok := byNumber[action.IssueNumber]
		if !ok {
			continue
		}
		if err := e.inboundUpdate(ctx, issue, action.SpecSlug); err != nil {
			return done, err
		}
		done++
	}

	for _, action := range plan.StatusSyncs {
		issue, ok := byNumber[action.IssueNumber]
		if !ok {
			continue
		}
		if err := e.statusSync(ctx, action, issue); err != nil {
			return done, err
		}
		done++
	}

	for _, tc := range plan.TodosToCreate {
		t, err := e.Todos.Create(tc.Title, tc.Body)
		if err != nil {
			if _, ok := err.(*todo.ExistsError); ok {
				e.say("todo %q already exists, skipping", markdown.Slugify(tc.Title))
				continue
			}
			return done, err
		}
		if tc.IssueNumber != 0 {
			if err := e.Todos.LinkIssue(t.Slug, tc.IssueNumber, tc.IssueURL); err != nil {
				return done, err
			}
		}
		e.say("created todo %q", t.Slug)
		done++
	}

	for _, slug := range plan.SpecsToComplete {
		if err := e.completeMerged(ctx, slug); err != nil {
			if e.Printer != nil {
				e.Printer.Warn("could not complete spec %q: %v", slug, err)
			}
			continue
		}
		done++
	}

	return done, nil
}

// outboundCreate opens a GitHub issue for an unlinked spec and records
// the linkage and watermarks.
func (e *Executor) outboundCreate(ctx context.Context, slug string) error {
	sp, err := e.Specs.Get(slug)
	if err != nil {
		return err
	}
	body := ExtractBody(sp.Body)

	labels := []string{gh.SpecLabel}
	if name := gh.StatusLabelName(string(sp.Status)); name != "" {
		labels = append(labels, name)
	}

	issue, err := e.GitHub.CreateIssue(ctx, "[Spec]: "+sp.Title, body, labels, nil)
	if err != nil {
		return err
	}
	if err := e.Specs.Update(slug, func(m *spec.Meta) {
		m.IssueID = issue.Number
		m.IssueURL = issue.HTMLURL
	}); err != nil {
		return err
	}
	if err := e.Specs.MarkSynced(slug, Hash(body), Hash(issue.Body)); err != nil {
		return err
	}
	e.say("created issue #%d for spec %q", issue.Number, slug)
	return nil
}

// outboundUpdate pushes a locally edited body to the linked issue.
func (e *Executor) outboundUpdate(ctx context.Context, slug string) error {
	sp, err := e.Specs.Get(slug)
	if err != nil {
		return err
	}
	body := ExtractBody(sp.Body)

	if err := e.GitHub.UpdateIssueBody(ctx, sp.IssueID, body); err != nil {
		return err
	}
	if err := e.Specs.MarkSynced(slug, Hash(body), Hash(body)); err != nil {
		return err
	}
	e.say("updated issue #%d from spec %q", sp.IssueID, slug)
	return nil
}

// inboundCreate materializes a local spec from a labeled issue,
// including its comments behind the separator.
func (e *Executor) inboundCreate(ctx context.Context, issue gh.Issue) error {
	title := markdown.StripSpecPrefix(issue.Title)
	slug := markdown.Slugify(title)

	if existing, _ := e.Specs.Get(slug); existing != nil {
		e.say("spec %q already exists, skipping create", slug)
		return nil
	}

	sp, err := e.Specs.Create(title, "")
	if err != nil {
		return err
	}
	slug = sp.Slug

	comments, err := e.GitHub.Comments(ctx, issue.Number)
	if err != nil {
		return err
	}
	if err := e.Specs.UpdateBody(slug, BodyWithComments(issue.Body, comments)); err != nil {
		return err
	}

	remoteStatus := gh.StatusFromLabels(issue.Labels)
	if err := e.Specs.Update(slug, func(m *spec.Meta) {
		m.IssueID = issue.Number
		m.IssueURL = issue.HTMLURL
		if issue.Assignee != "" {
			m.AssignedTo = issue.Assignee
		}
		if remoteStatus != "" && spec.Status(remoteStatus).Valid() {
			m.Status = spec.Status(remoteStatus)
		}
	}); err != nil {
		return err
	}

	bodyHash := Hash(issue.Body)
	if err := e.Specs.MarkSynced(slug, bodyHash, bodyHash); err != nil {
		return err
	}
	e.say("created spec %q from issue #%d", slug, issue.Number)
	return nil
}

// inboundUpdate refreshes a local spec from its issue.
func (e *Executor) inboundUpdate(ctx context.Context, issue gh.Issue, slug string) error {
	title := markdown.StripSpecPrefix(issue.Title)

	comments, err := e.GitHub.Comments(ctx, issue.Number)
	if err != nil {
		return err
	}
	if err := e.Specs.UpdateBody(slug, BodyWithComments(issue.Body, comments)); err != nil {
		return err
	}

	if err := e.Specs.Update(slug, func(m *spec.Meta) {
		if issue.Assignee != "" {
			m.AssignedTo = issue.Assignee
		}
		if m.Title != title {
			m.Title = title
		}
	}); err != nil {
		return err
	}

	bodyHash := Hash(issue.Body)
	if err := e.Specs.MarkSynced(slug, bodyHash, bodyHash); err != nil {
		return err
	}
	e.say("updated spec %q from issue #%d", slug, issue.Number)
	return nil
}

func (e *Executor) statusSync(ctx context.Context, action Action, issue gh.Issue) error {
	if action.Direction == Inbound {
		remoteStatus := gh.StatusFromLabels(issue.Labels)
		if remoteStatus == "" || !spec.Status(remoteStatus).Valid() {
			return nil
		}
		if err := e.Specs.Update(action.SpecSlug, func(m *spec.Meta) {
			m.Status = spec.Status(remoteStatus)
		}); err != nil {
			return err
		}
		e.say("set spec %q status to %q", action.SpecSlug, remoteStatus)
		return nil
	}

	sp, err := e.Specs.Get(action.SpecSlug)
	if err != nil {
		return err
	}
	if err := e.GitHub.SyncStatusLabels(ctx, issue.Number, string(sp.Status)); err != nil {
		return err
	}
	e.say("updated issue #%d labels to %q", issue.Number, sp.Status)
	return nil
}

// completeMerged archives a spec whose PR has merged and closes its
// issue. A close failure is reported but does not abort the run.
func (e *Executor) completeMerged(ctx context.Context, slug string) error {
	sp, err := e.Specs.Get(slug)
	if err != nil {
		return err
	}
	if _, err := e.Specs.MoveToCompleted(slug); err != nil {
		return err
	}
	e.say("moved %q to completed/", slug)

	if sp.IssueID != 0 {
		comment := "Completed and merged."
		if sp.PRURL != "" {
			comment = "Completed via PR: " + sp.PRURL
		}
		if err := e.GitHub.CloseIssueWithComment(ctx, sp.IssueID, comment); err != nil {
			if e.Printer != nil {
				e.Printer.Warn("could not close issue #%d: %v", sp.IssueID, err)
			}
		} else {
			e.say("closed issue #%d", sp.IssueID)
		}
	}
	return nil
}
