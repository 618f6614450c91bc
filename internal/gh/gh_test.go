package gh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		owner string
		repo  string
		ok    bool
	}{
		{"https", "https://github.com/acme/widgets", "acme", "widgets", true},
		{"https with .git", "https://github.com/acme/widgets.git", "acme", "widgets", true},
		{"https with token", "https://x-token@github.com/acme/widgets.git", "acme", "widgets", true},
		{"ssh", "git@github.com:acme/widgets.git", "acme", "widgets", true},
		{"ssh without .git", "git@github.com:acme/widgets", "acme", "widgets", true},
		{"not github", "https://gitlab.com/acme/widgets", "", "", false},
		{"garbage", "not a url", "", "", false},
		{"empty", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, ok := ParseRepoURL(tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.owner, owner)
			assert.Equal(t, tt.repo, repo)
		})
	}
}

func TestPullNumberFromURL(t *testing.T) {
	n, err := PullNumberFromURL("https://github.com/acme/widgets/pull/42")
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	n, err = PullNumberFromURL("https://github.com/acme/widgets/pull/7/")
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = PullNumberFromURL("https://github.com/acme/widgets/pull/abc")
	assert.Error(t, err)

	_, err = PullNumberFromURL("")
	assert.Error(t, err)
}

func TestStatusLabels(t *testing.T) {
	assert.Equal(t, "mem-status:merge-ready", StatusLabelName("merge_ready"))
	assert.Equal(t, "mem-status:todo", StatusLabelName("todo"))
	assert.Equal(t, "", StatusLabelName("bogus"))

	assert.Equal(t, "active", StatusFromLabels([]string{"bug", "mem-status:active"}))
	assert.Equal(t, "merge_ready", StatusFromLabels([]string{"mem-status:merge-ready"}))
	assert.Equal(t, "", StatusFromLabels([]string{"bug", "enhancement"}))
	assert.Equal(t, "", StatusFromLabels(nil))
}

func TestHasSpecLabel(t *testing.T) {
	assert.True(t, HasSpecLabel([]string{"bug", "mem-spec"}))
	assert.False(t, HasSpecLabel([]string{"bug"}))
	assert.False(t, HasSpecLabel(nil))
}
