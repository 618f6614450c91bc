// Package config provides mem's configuration: the global config
// directory, the project-local .mem layout, the validated
// .mem/config.toml schema, and the user mappings file.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Dir returns the mem global configuration directory.
//
// Resolution:
//   - $MEM_CONFIG_HOME if set (explicit override)
//   - $XDG_CONFIG_HOME/mem if set (respects XDG on any platform)
//   - %AppData%/mem on Windows
//   - ~/.config/mem on macOS and Linux
func Dir() string {
	// Explicit override
	if dir := os.Getenv("MEM_CONFIG_HOME"); dir != "" {
		return dir
	}

	// XDG override (works on any platform)
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mem")
	}

	// Windows: use AppData
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "mem")
		}
	}

	// macOS and Linux: ~/.config/mem
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mem")
}

// GlobalConfigFile returns the path of the global config.toml.
func GlobalConfigFile() string {
	return filepath.Join(Dir(), "config.toml")
}

// TemplatesDir returns the directory holding shared onboarding templates.
func TemplatesDir() string {
	return filepath.Join(Dir(), "templates")
}
