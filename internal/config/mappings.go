package config

import (
	"bytes"
	"os"

	"github.com/BurntSushi/toml"
)

// UserInfo describes one entry in user_mappings.toml, keyed by GitHub
// username.
type UserInfo struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// UserMappings maps GitHub usernames to git identities. It is the
// bridge between git config user.name and GitHub logins for log file
// naming and branch ownership.
type UserMappings map[string]UserInfo

// LoadUserMappings reads user_mappings.toml. A missing file yields an
// empty mapping.
func LoadUserMappings(path string) (UserMappings, error) {
	if _, err := os.Stat(path); err != nil {
		return UserMappings{}, nil
	}
	m := UserMappings{}
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Save writes the mappings to path.
func (m UserMappings) Save(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// GitHubUsername does a reverse lookup from git user.name to GitHub
// username. Returns empty when no mapping matches.
func (m UserMappings) GitHubUsername(gitName string) string {
	for login, info := range m {
		if info.Name == gitName {
			return login
		}
	}
	return ""
}
