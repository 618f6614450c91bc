package gh

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/go-github/v68/github"

	"github.com/memcli/mem/internal/output"
)

// PullStatus describes the merge state of a pull request. Mergeable is
// nil while GitHub is still computing mergeability.
type PullStatus struct {
	Number         int
	Merged         bool
	Mergeable      *bool
	MergeableState string
}

// PullNumberFromURL extracts the PR number from a GitHub pull request URL.
func PullNumberFromURL(prURL string) (int, error) {
	trimmed := strings.TrimRight(prURL, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return 0, output.NewUserError(fmt.Sprintf("invalid pull request URL: %s", prURL))
	}
	n, err := strconv.Atoi(trimmed[idx+1:])
	if err != nil || n <= 0 {
		return 0, output.NewUserError(fmt.Sprintf("invalid pull request URL: %s", prURL))
	}
	return n, nil
}

// CreatePull opens a pull request from head into base.
func (c *Client) CreatePull(ctx context.Context, title, body, head, base string) (string, error) {
	pr, _, err := c.api.PullRequests.Create(ctx, c.owner, c.repo, &github.NewPullRequest{
		Title: github.String(title),
		Body:  github.String(body),
		Head:  github.String(head),
		Base:  github.String(base),
	})
	if err != nil {
		return "", apiErr("creating pull request", err)
	}
	return pr.GetHTMLURL(), nil
}

// PullStatusByURL fetches the current merge state of a pull request.
func (c *Client) PullStatusByURL(ctx context.Context, prURL string) (PullStatus, error) {
	number, err := PullNumberFromURL(prURL)
	if err != nil {
		return PullStatus{}, err
	}
	pr, _, err := c.api.PullRequests.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return PullStatus{}, apiErr("getting pull request", err)
	}
	return PullStatus{
		Number:         number,
		Merged:         pr.GetMerged(),
		Mergeable:      pr.Mergeable,
		MergeableState: pr.GetMergeableState(),
	}, nil
}

// IsPullMerged reports whether the pull request behind prURL has merged.
func (c *Client) IsPullMerged(ctx context.Context, prURL string) (bool, error) {
	status, err := c.PullStatusByURL(ctx, prURL)
	if err != nil {
		return false, err
	}
	return status.Merged, nil
}

// MergePullRebase merges a pull request using the rebase method.
func (c *Client) MergePullRebase(ctx context.Context, number int) error {
	result, _, err := c.api.PullRequests.Merge(ctx, c.owner, c.repo, number, "", &github.PullRequestOptions{
		MergeMethod: "rebase",
	})
	if err != nil {
		return apiErr("merging pull request", err)
	}
	if !result.GetMerged() {
		return output.NewConflictError(fmt.Sprintf("pull request #%d was not merged: %s", number, result.GetMessage()))
	}
	return nil
}

// ClosePull leaves a comment on the pull request and closes it without
// merging.
func (c *Client) ClosePull(ctx context.Context, prURL, comment string) error {
	number, err := PullNumberFromURL(prURL)
	if err != nil {
		return err
	}
	if comment != "" {
		if err := c.AddComment(ctx, number, comment); err != nil {
			return err
		}
	}
	_, _, err = c.api.PullRequests.Edit(ctx, c.owner, c.repo, number, &github.PullRequest{
		State: github.String("closed"),
	})
	if err != nil {
		return apiErr("closing pull request", err)
	}
	return nil
}

// DeleteBranch removes a remote branch via the git refs API.
func (c *Client) DeleteBranch(ctx context.Context, branch string) error {
	_, err := c.api.Git.DeleteRef(ctx, c.owner, c.repo, "heads/"+branch)
	if err != nil {
		return apiErr("deleting branch "+branch, err)
	}
	return nil
}
