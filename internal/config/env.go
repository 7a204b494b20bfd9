package config

import (
	"fmt"
	"os"
	"strings"
)

// loadFromEnv overrides config from environment variables. If sources is
// non-nil, it tracks the source of each value.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) {
	set := func(field string) {
		if sources != nil {
			sources[field] = SourceEnv
		}
	}
	str := func(name, field string, target *string) {
		if v := os.Getenv(name); v != "" {
			*target = v
			set(field)
		}
	}
	num := func(name, field string, target *int) {
		if v := os.Getenv(name); v != "" {
			var i int
			if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
				*target = i
				set(field)
			}
		}
	}
	flag := func(name, field string, target *bool) {
		if v := os.Getenv(name); v != "" {
			*target = boolFromString(v)
			set(field)
		}
	}

	str("TASKLIST_STORAGE", "storage.backend", &cfg.Storage.Backend)
	str("TASKLIST_STORAGE_KEY", "storage.key", &cfg.Storage.Key)
	str("TASKLIST_DATA_DIR", "storage.dir", &cfg.Storage.Dir)
	str("TASKLIST_SQLITE_PATH", "storage.sqlite_path", &cfg.Storage.SQLitePath)
	str("TASKLIST_REDIS_ADDR", "storage.redis_addr", &cfg.Storage.RedisAddr)
	str("TASKLIST_REDIS_PASSWORD", "storage.redis_password", &cfg.Storage.RedisPassword)
	num("TASKLIST_REDIS_DB", "storage.redis_db", &cfg.Storage.RedisDB)

	str("TASKLIST_REMOTE_URL", "remote.url", &cfg.Remote.URL)
	num("TASKLIST_REMOTE_TIMEOUT", "remote.timeout_seconds", &cfg.Remote.TimeoutSeconds)
	str("TASKLIST_HOOK", "hook.command", &cfg.Hook.Command)
	num("TASKLIST_HOOK_TIMEOUT", "hook.timeout_seconds", &cfg.Hook.TimeoutSeconds)
	num("TASKLIST_STATUS_SECONDS", "status_seconds", &cfg.StatusSeconds)
	str("TASKLIST_FILTER", "default_filter", &cfg.DefaultFilter)

	// Logging configuration
	str("TASKLIST_LOG_DIR", "log_dir", &cfg.LogDir)
	str("TASKLIST_LOG_LEVEL", "log_level", &cfg.LogLevel)
	str("TASKLIST_LOG_FORMAT", "log_format", &cfg.LogFormat)
	flag("TASKLIST_LOG_TIMESTAMPS", "log_timestamps", &cfg.LogTimestamps)
	flag("TASKLIST_LOG_CALLER", "log_caller", &cfg.LogCaller)
}

// boolFromString parses a boolean from a string.
func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
