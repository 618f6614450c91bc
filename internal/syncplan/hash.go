package syncplan

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/memcli/mem/internal/gh"
)

// Separator divides a spec body from the mirrored GitHub comments
// section. Everything after it is local display only and never syncs
// back to the issue.
const Separator = "\n\n===\n***\n===\n\n"

// Hash returns the hex SHA-256 of content, used as the sync watermark.
func Hash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Differs reports whether two content hashes differ. An empty hash
// means the side has never synced, which counts as changed.
func Differs(a, b string) bool {
	if a == "" || b == "" {
		return true
	}
	return a != b
}

// ExtractBody strips the mirrored comments section from a spec body,
// leaving the content that belongs on the GitHub issue.
func ExtractBody(body string) string {
	if idx := strings.Index(body, Separator); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

// BodyWithComments appends issue comments to a body behind the
// separator so they read inline in the local file.
func BodyWithComments(body string, comments []gh.Comment) string {
	if len(comments) == 0 {
		return body
	}
	formatted := make([]string, 0, len(comments))
	for _, c := range comments {
		formatted = append(formatted, fmt.Sprintf("### Comment by @%s on %s\n\n%s", c.User, c.CreatedAt, c.Body))
	}
	return body + Separator + strings.Join(formatted, "\n\n")
}
