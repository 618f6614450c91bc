package onboard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MaxStdoutChars is the threshold above which onboard context goes to
// a temp file instead of stdout.
const MaxStdoutChars = 14000

// tmpFilePrefix names onboard artifacts in .mem/tmp/.
const tmpFilePrefix = "mem_onboard_"

// Now is the clock used for temp file naming and pruning. Overridable
// in tests.
var Now = time.Now

// EnsureGitignoreEntry adds a directory entry to the project's
// .gitignore if missing. Onboard output lives in .mem/tmp/ so agents
// with project-scoped permissions can read it, but it must never be
// committed.
func EnsureGitignoreEntry(projectRoot, entry, comment string) error {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return nil
	}
	if !strings.HasSuffix(entry, "/") {
		entry += "/"
	}

	path := filepath.Join(projectRoot, ".gitignore")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return os.WriteFile(path, []byte(fmt.Sprintf("# %s\n%s\n", comment, entry)), 0o644)
	}
	if err != nil {
		return err
	}

	content := string(data)
	if strings.Contains(content, entry) {
		return nil
	}

	var b strings.Builder
	b.WriteString(content)
	if content != "" && !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n# %s\n%s\n", comment, entry)
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// PruneTmp deletes onboard temp files older than maxAge.
func PruneTmp(tmpDir string, maxAge time.Duration) {
	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return
	}
	cutoff := Now().Add(-maxAge)
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, tmpFilePrefix) || !strings.HasSuffix(name, ".md") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(tmpDir, name))
		}
	}
}

// WriteTmp writes the onboard context to a timestamped file under
// tmpDir and returns its path.
func WriteTmp(tmpDir, content string) (string, error) {
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("creating tmp directory: %w", err)
	}
	path := filepath.Join(tmpDir, tmpFilePrefix+Now().Format("20060102_150405")+".md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing onboard context: %w", err)
	}
	return path, nil
}
