// Package worklog stores per-session work logs.
//
// Logs are markdown files under .mem/logs/ named
//
//	{username}_{YYYYMMDD}_{HHMMSS}_session.md
//
// so multiple sessions per day coexist. A legacy date-only form
// ({username}_{YYYYMMDD}_session.md) is still read.
package worklog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/memcli/mem/internal/config"
	"github.com/memcli/mem/internal/git"
	"github.com/memcli/mem/internal/markdown"
)

const suffix = "_session.md"

// Meta is the frontmatter of a log file.
type Meta struct {
	CreatedAt string `yaml:"created_at"`
	Username  string `yaml:"username"`
	SpecSlug  string `yaml:"spec_slug,omitempty"`
}

// Log is a stored work log.
type Log struct {
	Filename string
	Date     string // YYYY-MM-DD, from the filename
	Meta
	Body string
}

// NotFoundError reports a missing log file.
type NotFoundError struct {
	Filename string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("log not found: %s", e.Filename)
}

// Now returns the current time. Overridable in tests.
var Now = time.Now

// Store reads and writes work logs for one project.
type Store struct {
	paths config.Paths
}

// NewStore returns a log store rooted at the given project directory.
func NewStore(root string) *Store {
	return &Store{paths: config.NewPaths(root)}
}

// CurrentUsername resolves the log author: git user.name reverse-mapped
// through user_mappings.toml to a GitHub login, slugified. Falls back
// to the slugified git name, then "unknown".
func (s *Store) CurrentUsername() string {
	gitName := git.UserName(s.paths.Root)
	if gitName == "" {
		return "unknown"
	}

	mappings, err := config.LoadUserMappings(s.paths.UserMappingsFile())
	if err == nil {
		if login := mappings.GitHubUsername(gitName); login != "" {
			return markdown.Slugify(login)
		}
	}
	return markdown.Slugify(gitName)
}

// FilenameFor builds a log filename for a user and time.
func FilenameFor(username string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s%s", username, at.Format("20060102"), at.Format("150405"), suffix)
}

// ParseFilename extracts the username and timestamp from a log
// filename. Supports the legacy date-only form.
func ParseFilename(name string) (username string, at time.Time, ok bool) {
	if !strings.HasSuffix(name, suffix) {
		return "", time.Time{}, false
	}
	base := strings.TrimSuffix(name, suffix)

	// {username}_{YYYYMMDD}_{HHMMSS}
	if idx := lastN(base, '_', 2); idx >= 0 {
		stamp := base[idx+1:]
		if at, err := time.ParseInLocation("20060102_150405", stamp, time.Local); err == nil {
			return base[:idx], at, true
		}
	}

	// legacy: {username}_{YYYYMMDD}
	if idx := strings.LastIndexByte(base, '_'); idx >= 0 {
		if at, err := time.ParseInLocation("20060102", base[idx+1:], time.Local); err == nil {
			return base[:idx], at, true
		}
	}

	return "", time.Time{}, false
}

// lastN returns the index of the n-th underscore from the right.
func lastN(s string, sep byte, n int) int {
	idx := len(s)
	for ; n > 0; n-- {
		idx = strings.LastIndexByte(s[:idx], sep)
		if idx < 0 {
			return -1
		}
	}
	return idx
}

// Create writes a new log for the current user with the template body.
// Returns the created log.
func (s *Store) Create(specSlug, templateBody string) (*Log, error) {
	dir := s.paths.LogsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating logs directory: %w", err)
	}

	now := Now()
	username := s.CurrentUsername()
	name := FilenameFor(username, now)

	meta := Meta{
		CreatedAt: now.Format("2006-01-02T15:04:05"),
		Username:  username,
		SpecSlug:  specSlug,
	}
	if err := markdown.WriteFile(filepath.Join(dir, name), meta, templateBody); err != nil {
		return nil, err
	}
	return &Log{
		Filename: name,
		Date:     now.Format("2006-01-02"),
		Meta:     meta,
		Body:     templateBody,
	}, nil
}

// Get reads a log by filename.
func (s *Store) Get(name string) (*Log, error) {
	username, at, ok := ParseFilename(name)
	if !ok {
		return nil, &NotFoundError{Filename: name}
	}

	var meta Meta
	body, err := markdown.ReadFile(filepath.Join(s.paths.LogsDir(), name), &meta)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Filename: name}
		}
		return nil, fmt.Errorf("reading log %s: %w", name, err)
	}

	if meta.Username == "" {
		meta.Username = username
	}
	if meta.CreatedAt == "" {
		meta.CreatedAt = at.Format("2006-01-02T15:04:05")
	}
	return &Log{
		Filename: name,
		Date:     at.Format("2006-01-02"),
		Meta:     meta,
		Body:     body,
	}, nil
}

// Filter narrows List results.
type Filter struct {
	Limit    int    // 0 means no limit
	SpecSlug string // filter by spec
	Username string // filter by author (filename username)
}

// List returns logs newest first.
func (s *Store) List(f Filter) ([]*Log, error) {
	entries, err := os.ReadDir(s.paths.LogsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var logs []*Log
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		username, _, ok := ParseFilename(entry.Name())
		if !ok {
			continue
		}
		if f.Username != "" && username != f.Username {
			continue
		}
		log, err := s.Get(entry.Name())
		if err != nil {
			continue
		}
		if f.SpecSlug != "" && log.SpecSlug != f.SpecSlug {
			continue
		}
		logs = append(logs, log)
	}

	sort.Slice(logs, func(i, j int) bool {
		return logs[i].CreatedAt > logs[j].CreatedAt
	})
	if f.Limit > 0 && len(logs) > f.Limit {
		logs = logs[:f.Limit]
	}
	return logs, nil
}

// Latest returns the newest log, optionally for one user.
func (s *Store) Latest(username string) (*Log, error) {
	logs, err := s.List(Filter{Limit: 1, Username: username})
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, nil
	}
	return logs[0], nil
}

// UpdateBody replaces a log's body.
func (s *Store) UpdateBody(name, body string) error {
	path := filepath.Join(s.paths.LogsDir(), name)
	var meta Meta
	if _, err := markdown.ReadFile(path, &meta); err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{Filename: name}
		}
		return fmt.Errorf("reading log %s: %w", name, err)
	}
	return markdown.WriteFile(path, meta, body)
}

// AppendToSection appends content under a "## section" heading,
// creating the section at the end when missing.
func (s *Store) AppendToSection(name, section, content string) error {
	path := filepath.Join(s.paths.LogsDir(), name)
	var meta Meta
	body, err := markdown.ReadFile(path, &meta)
	if err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{Filename: name}
		}
		return fmt.Errorf("reading log %s: %w", name, err)
	}

	heading := "## " + section
	idx := strings.Index(body, heading)
	if idx < 0 {
		body = strings.TrimRight(body, "\n") + "\n\n" + heading + "\n\n" + content + "\n"
		return markdown.WriteFile(path, meta, body)
	}

	// insert before the next heading, or at the end
	rest := body[idx+len(heading):]
	next := strings.Index(rest, "\n## ")
	if next < 0 {
		body = strings.TrimRight(body, "\n") + "\n\n" + content + "\n"
	} else {
		insertAt := idx + len(heading) + next
		body = strings.TrimRight(body[:insertAt], "\n") + "\n\n" + content + "\n" + body[insertAt:]
	}
	return markdown.WriteFile(path, meta, body)
}
