// Package taskdir provides constants and helpers for the ~/.tasklist
// directory layout.
package taskdir

import (
	"os"
	"path/filepath"
)

const (
	// Dir is the name of the per-user tasklist directory.
	Dir = ".tasklist"

	// ConfigFile is the config file name inside Dir.
	ConfigFile = "tasklist.toml"

	// DatabaseFile is the sqlite database name inside Dir.
	DatabaseFile = "tasklist.db"

	// LogsDir is the run log directory inside Dir.
	LogsDir = "logs"
)

// Under returns "~/.tasklist/<name>" for use as an unexpanded default.
// An empty name returns "~/.tasklist".
func Under(name string) string {
	if name == "" {
		return "~/" + Dir
	}
	return "~/" + Dir + "/" + name
}

// Home returns the absolute tasklist directory under the user's home.
func Home() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, Dir), nil
}

// ConfigPath returns the absolute path of the user config file.
func ConfigPath() (string, error) {
	dir, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFile), nil
}

// AppConfigPath returns the config file path inside an OS config directory
// such as $XDG_CONFIG_HOME.
func AppConfigPath(configDir string) string {
	return filepath.Join(configDir, "tasklist", ConfigFile)
}
