// Package template holds the markdown scaffolding mem writes into new
// projects: the spec body template, the work log skeleton, the GitHub
// issue template and the merge rules hook. The global spec template
// under ~/.config/mem/templates/ overrides the built-in one.
package template

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/memcli/mem/internal/config"
)

// DefaultSpec is the body written into a fresh spec.md when no global
// template exists.
const DefaultSpec = `## Overview

{Describe the feature or change}

## Goals

- {Goal 1}
- {Goal 2}

## Technical Approach

{How to implement this}

## Success Criteria

- {Criterion 1}
- {Criterion 2}

## Notes

{Additional context}
`

// Log is the body of a new work log session file.
const Log = `## Overarching Goals

{What this session is working toward}

## What Was Accomplished

-

## Key Files Affected

-

## What Comes Next

-
`

// issueTemplateHeader configures the GitHub issue form so new issues
// arrive pre-labeled for sync.
const issueTemplateHeader = `---
name: mem Specification
about: Create a new specification
title: '[Spec]: '
labels: mem-spec
---

`

// EnsureGlobal creates the global config directory and writes the
// default spec template if none exists yet.
func EnsureGlobal() error {
	dir := config.TemplatesDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating templates directory: %w", err)
	}

	specPath := filepath.Join(dir, "spec.md")
	if _, err := os.Stat(specPath); os.IsNotExist(err) {
		if err := os.WriteFile(specPath, []byte(DefaultSpec), 0o644); err != nil {
			return fmt.Errorf("writing default spec template: %w", err)
		}
	}
	return nil
}

// LoadSpec returns the spec body template, preferring the global one.
func LoadSpec() string {
	if data, err := os.ReadFile(filepath.Join(config.TemplatesDir(), "spec.md")); err == nil {
		return string(data)
	}
	return DefaultSpec
}

// LoadGeneric reads a named template from the global templates
// directory, used by onboard for project.generic_templates.
func LoadGeneric(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(config.TemplatesDir(), name+".md"))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GitHubIssueTemplate renders the issue template from the spec body
// template.
func GitHubIssueTemplate() string {
	return issueTemplateHeader + LoadSpec()
}
