package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/nibzard/tasklist/internal/taskdir"
)

// findConfigFile returns the config file to load. An explicit path from the
// -config flag or TASKLIST_CONFIG wins, otherwise the user config file is
// used when it exists.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return expandPath(explicit)
	}
	if v := os.Getenv("TASKLIST_CONFIG"); v != "" {
		return expandPath(v)
	}
	return findUserConfigFile()
}

// findUserConfigFile looks for a user-level config file.
// Checks ~/.tasklist/tasklist.toml first, then falls back to OS-specific
// config directories if ~/.tasklist doesn't have one.
func findUserConfigFile() string {
	if userConfigPath, err := taskdir.ConfigPath(); err == nil {
		if _, err := os.Stat(userConfigPath); err == nil {
			return userConfigPath
		}
	}

	if cfgDir := osUserConfigDir(); cfgDir != "" {
		userConfigPath := taskdir.AppConfigPath(cfgDir)
		if _, err := os.Stat(userConfigPath); err == nil {
			return userConfigPath
		}
	}

	return ""
}

// osUserConfigDir returns the OS-specific user config directory.
// Returns empty string if the directory cannot be determined.
func osUserConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		if appdata := os.Getenv("APPDATA"); appdata != "" {
			return appdata
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, "Library", "Application Support")
		}
	case "linux", "openbsd", "freebsd", "netbsd":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return xdg
		}
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, ".config")
		}
	}
	return ""
}

// configFlagValue scans args for -config/--config ahead of flag parsing,
// since the file has to be read before flags override it.
func configFlagValue(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return ""
		}
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		name := strings.TrimLeft(arg, "-")
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(name, "config=") {
			return strings.TrimPrefix(name, "config=")
		}
	}
	return ""
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.Storage = StorageConfig{
		Backend:    DefaultBackend,
		Key:        DefaultStorageKey,
		Dir:        DefaultDataDir,
		SQLitePath: DefaultSQLitePath,
	}
	cfg.Remote = RemoteConfig{URL: DefaultRemoteURL}
	cfg.Hook = HookConfig{TimeoutSeconds: DefaultHookTimeout}
	cfg.StatusSeconds = DefaultStatusSeconds
	cfg.DefaultFilter = DefaultFilter
	cfg.LogDir = DefaultLogDir
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
}

// configFields returns the configurable field names used for source tracking.
func configFields() []string {
	return []string{
		"storage.backend",
		"storage.key",
		"storage.dir",
		"storage.sqlite_path",
		"storage.redis_addr",
		"storage.redis_password",
		"storage.redis_db",
		"remote.url",
		"remote.timeout_seconds",
		"hook.command",
		"hook.timeout_seconds",
		"status_seconds",
		"default_filter",
		"log_dir",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
	}
}
