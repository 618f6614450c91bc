package gh

import (
	"context"
	"strings"

	"github.com/google/go-github/v68/github"
)

// SpecLabel marks issues that mirror a mem spec. Issues without it
// sync down as todos instead.
const SpecLabel = "mem-spec"

// SpecLabelColor is the hex color (without #) for the spec label.
const SpecLabelColor = "0E8A16"

const statusLabelPrefix = "mem-status:"

// StatusLabel describes one mem-status:* label.
type StatusLabel struct {
	Name        string
	Color       string
	Description string
}

// StatusLabels maps spec statuses to their GitHub labels.
var StatusLabels = map[string]StatusLabel{
	"todo":        {Name: "mem-status:todo", Color: "6B7280", Description: "Spec not yet started"},
	"active":      {Name: "mem-status:active", Color: "22C55E", Description: "Spec currently being worked on"},
	"inactive":    {Name: "mem-status:inactive", Color: "EAB308", Description: "Spec paused"},
	"completed":   {Name: "mem-status:completed", Color: "3B82F6", Description: "Spec completed"},
	"merge_ready": {Name: "mem-status:merge-ready", Color: "8B5CF6", Description: "Spec ready to merge"},
	"archived":    {Name: "mem-status:archived", Color: "374151", Description: "Spec archived"},
}

// StatusLabelName returns the label for a spec status, or empty for an
// unknown status.
func StatusLabelName(status string) string {
	if l, ok := StatusLabels[status]; ok {
		return l.Name
	}
	return ""
}

// StatusFromLabels extracts the spec status from issue label names.
// Returns empty when no mem-status:* label is present.
func StatusFromLabels(labels []string) string {
	for _, label := range labels {
		for status, l := range StatusLabels {
			if label == l.Name {
				return status
			}
		}
	}
	return ""
}

// HasSpecLabel reports whether the label set marks a spec issue.
func HasSpecLabel(labels []string) bool {
	for _, label := range labels {
		if label == SpecLabel {
			return true
		}
	}
	return false
}

// EnsureLabel creates a label when it does not exist yet.
func (c *Client) EnsureLabel(ctx context.Context, name, color, description string) error {
	_, resp, err := c.api.Issues.GetLabel(ctx, c.owner, c.repo, name)
	if err == nil {
		return nil
	}
	if resp == nil || resp.StatusCode != 404 {
		return apiErr("getting label "+name, err)
	}

	_, _, err = c.api.Issues.CreateLabel(ctx, c.owner, c.repo, &github.Label{
		Name:        github.String(name),
		Color:       github.String(color),
		Description: github.String(description),
	})
	if err != nil {
		return apiErr("creating label "+name, err)
	}
	return nil
}

// EnsureMemLabels creates the spec label and all status labels.
func (c *Client) EnsureMemLabels(ctx context.Context) error {
	if err := c.EnsureLabel(ctx, SpecLabel, SpecLabelColor, "Managed by mem"); err != nil {
		return err
	}
	for _, l := range StatusLabels {
		if err := c.EnsureLabel(ctx, l.Name, l.Color, l.Description); err != nil {
			return err
		}
	}
	return nil
}

// SyncStatusLabels replaces any mem-status:* label on the issue with
// the label for the new status.
func (c *Client) SyncStatusLabels(ctx context.Context, issueNumber int, status string) error {
	issue, _, err := c.api.Issues.Get(ctx, c.owner, c.repo, issueNumber)
	if err != nil {
		return apiErr("getting issue", err)
	}

	var labels []string
	for _, l := range issue.Labels {
		if !strings.HasPrefix(l.GetName(), statusLabelPrefix) {
			labels = append(labels, l.GetName())
		}
	}
	if name := StatusLabelName(status); name != "" {
		labels = append(labels, name)
	}

	_, _, err = c.api.Issues.Edit(ctx, c.owner, c.repo, issueNumber, &github.IssueRequest{
		Labels: &labels,
	})
	if err != nil {
		return apiErr("updating issue labels", err)
	}
	return nil
}
