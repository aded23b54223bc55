package config

import (
	"os"
	"path/filepath"
	"strings"
)

// findUserConfigFile returns the user-level config file if it exists.
func findUserConfigFile() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	candidate := filepath.Join(configDir, "taskvault", "taskvault.toml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

// findProjectConfigFile returns the project-level config file in the
// current directory, if any. taskvault.toml wins over .taskvault.toml.
func findProjectConfigFile() string {
	for _, name := range []string{"taskvault.toml", ".taskvault.toml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// expandPath expands a ~/ prefix and environment variables in paths.
func expandPath(p string) string {
	if p == "" {
		return p
	}
	expanded := os.ExpandEnv(p)
	if expanded == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return expanded
	}
	if strings.HasPrefix(expanded, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, expanded[2:])
		}
	}
	return expanded
}
