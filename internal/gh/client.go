// Package gh wraps the GitHub REST API for mem.
//
// It exposes the narrow surface sync and merge need: issues with
// mem labels, status label reconciliation, and pull requests. All
// calls authenticate with GITHUB_TOKEN.
package gh

import (
	"context"
	"fmt"
	"os"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/memcli/mem/internal/git"
	"github.com/memcli/mem/internal/output"
)

// Client talks to one GitHub repository.
type Client struct {
	api   *github.Client
	owner string
	repo  string
}

// Token returns the GitHub token from the environment.
func Token() (string, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return "", output.NewUserError(
			"GITHUB_TOKEN is not set. Create a personal access token with repo scope " +
				"and export it, or add it to .env.local")
	}
	return token, nil
}

// NewClient builds an authenticated client for the given repository.
func NewClient(ctx context.Context, owner, repo string) (*Client, error) {
	token, err := Token()
	if err != nil {
		return nil, err
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Client{
		api:   github.NewClient(oauth2.NewClient(ctx, ts)),
		owner: owner,
		repo:  repo,
	}, nil
}

// Open discovers the GitHub repository from the origin remote of the
// checkout at dir and returns an authenticated client for it.
func Open(ctx context.Context, dir string) (*Client, error) {
	url, err := git.RemoteURL(dir)
	if err != nil {
		return nil, err
	}
	owner, repo, ok := ParseRepoURL(url)
	if !ok {
		return nil, output.NewUserError(fmt.Sprintf(
			"origin is not a GitHub repository: %s", url))
	}
	return NewClient(ctx, owner, repo)
}

// Owner returns the repository owner.
func (c *Client) Owner() string { return c.owner }

// Repo returns the repository name.
func (c *Client) Repo() string { return c.repo }

// AuthenticatedUser returns the login of the token's user.
func (c *Client) AuthenticatedUser(ctx context.Context) (string, error) {
	user, _, err := c.api.Users.Get(ctx, "")
	if err != nil {
		return "", output.NewSystemErrorWithCause("GitHub authentication failed", err)
	}
	return user.GetLogin(), nil
}

func apiErr(action string, err error) error {
	return output.NewSystemErrorWithCause("GitHub: "+action, err)
}
