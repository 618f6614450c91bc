// Package markdown reads and writes markdown documents with YAML frontmatter.
//
// Every record mem keeps (specs, tasks, work logs, todos) is a markdown
// file whose metadata lives in a leading frontmatter block:
//
//	---
//	title: Auth flow
//	status: todo
//	---
//
//	Body text.
package markdown

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// Split separates a document into its raw YAML frontmatter and body.
// A document without a frontmatter block returns an empty frontmatter
// and the full content as body.
func Split(content string) (frontmatter, body string) {
	if !strings.HasPrefix(content, delimiter+"\n") && content != delimiter {
		return "", content
	}

	rest := strings.TrimPrefix(content, delimiter+"\n")
	idx := strings.Index(rest, "\n"+delimiter)
	if idx < 0 {
		return "", content
	}

	frontmatter = rest[:idx]
	body = rest[idx+len("\n"+delimiter):]
	body = strings.TrimPrefix(body, "\n")
	return frontmatter, body
}

// Join renders a document from marshaled frontmatter and a body.
func Join(frontmatter []byte, body string) string {
	var b strings.Builder
	b.WriteString(delimiter + "\n")
	b.Write(frontmatter)
	if len(frontmatter) > 0 && frontmatter[len(frontmatter)-1] != '\n' {
		b.WriteString("\n")
	}
	b.WriteString(delimiter + "\n")
	if body != "" {
		b.WriteString("\n")
		b.WriteString(body)
	}
	if !strings.HasSuffix(b.String(), "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

// Decode parses a document, unmarshaling the frontmatter into meta
// and returning the body. A document without frontmatter, or with a
// frontmatter block that is not valid YAML, leaves meta untouched and
// returns the full content as body.
func Decode(content string, meta any) (string, error) {
	fm, body := Split(content)
	if fm == "" {
		return body, nil
	}
	if err := yaml.Unmarshal([]byte(fm), meta); err != nil {
		return content, nil
	}
	return body, nil
}

// Encode renders meta and body into a single document.
func Encode(meta any, body string) (string, error) {
	raw, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encoding frontmatter: %w", err)
	}
	return Join(raw, body), nil
}

// ReadFile reads a markdown file, unmarshaling its frontmatter into meta.
// Returns the body.
func ReadFile(path string, meta any) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Decode(string(raw), meta)
}

// WriteFile writes a markdown file with meta as frontmatter.
func WriteFile(path string, meta any, body string) error {
	content, err := Encode(meta, body)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

var (
	specPrefixRe  = regexp.MustCompile(`(?i)^\[spec\]:?\s*`)
	nonSlugRe     = regexp.MustCompile(`[^a-z0-9]+`)
	multiHyphenRe = regexp.MustCompile(`-{2,}`)
)

// StripSpecPrefix removes a leading "[Spec]:" marker from an issue title.
func StripSpecPrefix(title string) string {
	return strings.TrimSpace(specPrefixRe.ReplaceAllString(title, ""))
}

// Slugify converts free text into a filesystem and branch safe slug:
// lowercase, alphanumerics with single hyphens, no leading or trailing
// hyphens. A "[Spec]:" title prefix is stripped first.
func Slugify(text string) string {
	s := strings.ToLower(StripSpecPrefix(text))
	s = nonSlugRe.ReplaceAllString(s, "-")
	s = multiHyphenRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
