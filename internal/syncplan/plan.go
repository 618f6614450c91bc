// Package syncplan plans and executes the bidirectional exchange
// between local specs and GitHub issues. Planning is pure: it compares
// snapshots and produces actions, so it can run as a dry run or be
// tested without the network.
package syncplan

import (
	"context"
	"fmt"

	"github.com/memcli/mem/internal/gh"
	"github.com/memcli/mem/internal/markdown"
	"github.com/memcli/mem/internal/spec"
	"github.com/memcli/mem/internal/todo"
)

// Direction says which way an action moves content.
type Direction string

const (
	Inbound  Direction = "inbound"  // GitHub to local
	Outbound Direction = "outbound" // local to GitHub
	Conflict Direction = "conflict" // both sides changed
)

// Action is one planned sync operation.
type Action struct {
	Direction   Direction `json:"direction"`
	Type        string    `json:"type"` // create, update, status, conflict
	SpecSlug    string    `json:"spec_slug,omitempty"`
	IssueNumber int       `json:"issue_number,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
}

// TodoCreate is a non-spec issue that should become a local todo.
type TodoCreate struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	IssueNumber int    `json:"issue_number"`
	IssueURL    string `json:"issue_url"`
}

// Plan holds every action a sync run would perform.
type Plan struct {
	InboundCreates  []Action     `json:"inbound_creates,omitempty"`
	InboundUpdates  []Action     `json:"inbound_updates,omitempty"`
	OutboundCreates []Action     `json:"outbound_creates,omitempty"`
	OutboundUpdates []Action     `json:"outbound_updates,omitempty"`
	StatusSyncs     []Action     `json:"status_syncs,omitempty"`
	Conflicts       []Action     `json:"conflicts,omitempty"`
	TodosToCreate   []TodoCreate `json:"todos_to_create,omitempty"`
	SpecsToComplete []string     `json:"specs_to_complete,omitempty"`
}

// HasChanges reports whether the plan does anything at all.
func (p *Plan) HasChanges() bool {
	return p.TotalActions() > 0 || len(p.Conflicts) > 0
}

// TotalActions counts the actions that would execute. Conflicts are
// excluded because they are skipped, not executed.
func (p *Plan) TotalActions() int {
	return len(p.InboundCreates) + len(p.InboundUpdates) +
		len(p.OutboundCreates) + len(p.OutboundUpdates) +
		len(p.StatusSyncs) + len(p.TodosToCreate) + len(p.SpecsToComplete)
}

// PullChecker answers whether a pull request has merged.
type PullChecker interface {
	IsPullMerged(ctx context.Context, prURL string) (bool, error)
}

// BuildPlan compares local specs against open GitHub issues and
// decides what moves where. Content changes are detected by comparing
// current hashes against the watermarks stored at last sync; when both
// sides moved, the pair is a conflict and is left alone. Status always
// flows outbound when both sides have one. Open issues without the
// spec label become todos. A nil pulls checker skips the merged-PR
// completion scan.
func BuildPlan(ctx context.Context, localSpecs []*spec.Spec, todos *todo.Store, issues []gh.Issue, pulls PullChecker) (*Plan, error) {
	plan := &Plan{}

	if pulls != nil {
		for _, sp := range localSpecs {
			if sp.Status != spec.StatusMergeReady || sp.PRURL == "" {
				continue
			}
			merged, err := pulls.IsPullMerged(ctx, sp.PRURL)
			if err != nil {
				return nil, err
			}
			if merged {
				plan.SpecsToComplete = append(plan.SpecsToComplete, sp.Slug)
			}
		}
	}

	byIssueID := make(map[int]*spec.Spec)
	for _, sp := range localSpecs {
		if sp.IssueID != 0 {
			byIssueID[sp.IssueID] = sp
		}
	}

	for _, issue := range issues {
		title := markdown.StripSpecPrefix(issue.Title)

		if !gh.HasSpecLabel(issue.Labels) {
			existing, err := todos.ByIssueID(issue.Number)
			if err != nil {
				return nil, err
			}
			if existing == nil {
				if t, _ := todos.Get(markdown.Slugify(issue.Title)); t == nil {
					plan.TodosToCreate = append(plan.TodosToCreate, TodoCreate{
						Title:       issue.Title,
						Body:        issue.Body,
						IssueNumber: issue.Number,
						IssueURL:    issue.HTMLURL,
					})
				}
			}
			continue
		}

		sp, ok := byIssueID[issue.Number]
		if !ok {
			plan.InboundCreates = append(plan.InboundCreates, Action{
				Direction:   Inbound,
				Type:        "create",
				IssueNumber: issue.Number,
				Title:       title,
				Description: fmt.Sprintf("create local spec from issue #%d", issue.Number),
			})
			continue
		}

		remoteHash := Hash(issue.Body)
		localHash := Hash(ExtractBody(sp.Body))
		localChanged := Differs(localHash, sp.LocalContentHash)
		remoteChanged := Differs(remoteHash, sp.RemoteContentHash)

		switch {
		case localChanged && remoteChanged:
			plan.Conflicts = append(plan.Conflicts, Action{
				Direction:   Conflict,
				Type:        "conflict",
				SpecSlug:    sp.Slug,
				IssueNumber: issue.Number,
				Title:       title,
				Description: fmt.Sprintf("both local and remote changed for spec %q", sp.Slug),
			})
			continue
		case remoteChanged:
			plan.InboundUpdates = append(plan.InboundUpdates, Action{
				Direction:   Inbound,
				Type:        "update",
				SpecSlug:    sp.Slug,
				IssueNumber: issue.Number,
				Title:       title,
				Description: fmt.Sprintf("update local spec %q from issue #%d", sp.Slug, issue.Number),
			})
		case localChanged:
			plan.OutboundUpdates = append(plan.OutboundUpdates, Action{
				Direction:   Outbound,
				Type:        "update",
				SpecSlug:    sp.Slug,
				IssueNumber: issue.Number,
				Title:       title,
				Description: fmt.Sprintf("update issue #%d from spec %q", issue.Number, sp.Slug),
			})
		}

		remoteStatus := gh.StatusFromLabels(issue.Labels)
		localStatus := string(sp.Status)
		if localStatus != "" && localStatus != remoteStatus {
			plan.StatusSyncs = append(plan.StatusSyncs, Action{
				Direction:   Outbound,
				Type:        "status",
				SpecSlug:    sp.Slug,
				IssueNumber: issue.Number,
				Title:       title,
				Description: fmt.Sprintf("update issue #%d labels to %q", issue.Number, localStatus),
			})
		} else if remoteStatus != "" && localStatus == "" {
			plan.StatusSyncs = append(plan.StatusSyncs, Action{
				Direction:   Inbound,
				Type:        "status",
				SpecSlug:    sp.Slug,
				IssueNumber: issue.Number,
				Title:       title,
				Description: fmt.Sprintf("set local status of %q to %q", sp.Slug, remoteStatus),
			})
		}
	}

	for _, sp := range localSpecs {
		if sp.IssueID != 0 {
			continue
		}
		plan.OutboundCreates = append(plan.OutboundCreates, Action{
			Direction:   Outbound,
			Type:        "create",
			SpecSlug:    sp.Slug,
			Title:       sp.Title,
			Description: fmt.Sprintf("create GitHub issue from spec %q", sp.Slug),
		})
	}

	return plan, nil
}
