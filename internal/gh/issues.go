package gh

import (
	"context"

	"github.com/google/go-github/v68/github"
)

// Issue is a flattened GitHub issue snapshot.
type Issue struct {
	Number    int
	Title     string
	Body      string
	State     string
	Labels    []string
	Assignee  string
	HTMLURL   string
	UpdatedAt string
}

// Comment is one issue comment.
type Comment struct {
	User      string
	Body      string
	CreatedAt string
}

func flattenIssue(issue *github.Issue) Issue {
	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}
	var assignee string
	if issue.Assignee != nil {
		assignee = issue.Assignee.GetLogin()
	}
	return Issue{
		Number:    issue.GetNumber(),
		Title:     issue.GetTitle(),
		Body:      issue.GetBody(),
		State:     issue.GetState(),
		Labels:    labels,
		Assignee:  assignee,
		HTMLURL:   issue.GetHTMLURL(),
		UpdatedAt: issue.GetUpdatedAt().Format("2006-01-02T15:04:05"),
	}
}

// ListOpenIssues returns all open issues, excluding pull requests.
func (c *Client) ListOpenIssues(ctx context.Context) ([]Issue, error) {
	opts := &github.IssueListByRepoOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var result []Issue
	for {
		issues, resp, err := c.api.Issues.ListByRepo(ctx, c.owner, c.repo, opts)
		if err != nil {
			return nil, apiErr("listing issues", err)
		}
		for _, issue := range issues {
			if issue.IsPullRequest() {
				continue
			}
			result = append(result, flattenIssue(issue))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return result, nil
}

// GetIssue fetches one issue by number.
func (c *Client) GetIssue(ctx context.Context, number int) (Issue, error) {
	issue, _, err := c.api.Issues.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return Issue{}, apiErr("getting issue", err)
	}
	return flattenIssue(issue), nil
}

// CreateIssue opens a new issue.
func (c *Client) CreateIssue(ctx context.Context, title, body string, labels, assignees []string) (Issue, error) {
	req := &github.IssueRequest{
		Title: github.String(title),
		Body:  github.String(body),
	}
	if len(labels) > 0 {
		req.Labels = &labels
	}
	if len(assignees) > 0 {
		req.Assignees = &assignees
	}

	issue, _, err := c.api.Issues.Create(ctx, c.owner, c.repo, req)
	if err != nil {
		return Issue{}, apiErr("creating issue", err)
	}
	return flattenIssue(issue), nil
}

// UpdateIssueBody replaces an issue's body.
func (c *Client) UpdateIssueBody(ctx context.Context, number int, body string) error {
	_, _, err := c.api.Issues.Edit(ctx, c.owner, c.repo, number, &github.IssueRequest{
		Body: github.String(body),
	})
	if err != nil {
		return apiErr("updating issue body", err)
	}
	return nil
}

// SetAssignees replaces an issue's assignees.
func (c *Client) SetAssignees(ctx context.Context, number int, assignees []string) error {
	_, _, err := c.api.Issues.Edit(ctx, c.owner, c.repo, number, &github.IssueRequest{
		Assignees: &assignees,
	})
	if err != nil {
		return apiErr("updating issue assignees", err)
	}
	return nil
}

// Comments returns all comments on an issue.
func (c *Client) Comments(ctx context.Context, number int) ([]Comment, error) {
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var result []Comment
	for {
		comments, resp, err := c.api.Issues.ListComments(ctx, c.owner, c.repo, number, opts)
		if err != nil {
			return nil, apiErr("listing comments", err)
		}
		for _, comment := range comments {
			result = append(result, Comment{
				User:      comment.GetUser().GetLogin(),
				Body:      comment.GetBody(),
				CreatedAt: comment.GetCreatedAt().Format("2006-01-02T15:04:05"),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return result, nil
}

// AddComment posts a comment to an issue.
func (c *Client) AddComment(ctx context.Context, number int, body string) error {
	_, _, err := c.api.Issues.CreateComment(ctx, c.owner, c.repo, number, &github.IssueComment{
		Body: github.String(body),
	})
	if err != nil {
		return apiErr("adding comment", err)
	}
	return nil
}

// CloseIssueWithComment comments on an issue and closes it.
func (c *Client) CloseIssueWithComment(ctx context.Context, number int, comment string) error {
	if comment != "" {
		if err := c.AddComment(ctx, number, comment); err != nil {
			return err
		}
	}
	_, _, err := c.api.Issues.Edit(ctx, c.owner, c.repo, number, &github.IssueRequest{
		State: github.String("closed"),
	})
	if err != nil {
		return apiErr("closing issue", err)
	}
	return nil
}
