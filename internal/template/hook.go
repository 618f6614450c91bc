package template

import (
	"fmt"
	"os"
	"path/filepath"
)

// PreMergeCommitHook enforces the branch promotion rules: anything
// merges into dev, only dev and hotfix/* merge into test, only test
// merges into main.
const PreMergeCommitHook = `#!/bin/bash
# mem: git merge rules enforcement
# Rules:
#   - Anything can merge into dev
#   - Only dev and hotfix/* can merge into test
#   - Only test can merge into main

TARGET_BRANCH=$(git rev-parse --abbrev-ref HEAD)
# Use name-rev to get branch name from MERGE_HEAD (rev-parse returns literal "MERGE_HEAD")
SOURCE_BRANCH=$(git name-rev --name-only MERGE_HEAD 2>/dev/null | sed 's|remotes/origin/||')

# If we can't determine source branch, allow (might be a commit merge)
if [ -z "$SOURCE_BRANCH" ]; then
    exit 0
fi

case "$TARGET_BRANCH" in
    dev)
        # Anything can merge into dev
        exit 0
        ;;
    test)
        # Only dev and hotfix/* can merge into test
        if [ "$SOURCE_BRANCH" = "dev" ] || [[ "$SOURCE_BRANCH" == hotfix/* ]]; then
            exit 0
        fi
        echo "ERROR: Cannot merge '$SOURCE_BRANCH' into 'test'"
        echo "Only 'dev' and 'hotfix/*' branches can merge into 'test'"
        exit 1
        ;;
    main)
        # Only test can merge into main
        if [ "$SOURCE_BRANCH" = "test" ]; then
            exit 0
        fi
        echo "ERROR: Cannot merge '$SOURCE_BRANCH' into 'main'"
        echo "Only 'test' branch can merge into 'main'"
        exit 1
        ;;
    *)
        # Other branches: allow
        exit 0
        ;;
esac
`

// InstallPreMergeCommitHook writes the hook into .git/hooks. Returns
// false without error when the hooks directory does not exist.
func InstallPreMergeCommitHook(projectRoot string) (bool, error) {
	hooksDir := filepath.Join(projectRoot, ".git", "hooks")
	if _, err := os.Stat(hooksDir); err != nil {
		return false, nil
	}
	hookFile := filepath.Join(hooksDir, "pre-merge-commit")
	if err := os.WriteFile(hookFile, []byte(PreMergeCommitHook), 0o755); err != nil {
		return false, fmt.Errorf("writing pre-merge-commit hook: %w", err)
	}
	return true, nil
}
