package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasklist/internal/taskdir"
	"github.com/nibzard/tasklist/internal/todo"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault ConfigSource = "default"
	SourceFile    ConfigSource = "file"
	SourceEnv     ConfigSource = "environment"
	SourceFlag    ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
}

// Default values.
const (
	DefaultBackend       = "file"
	DefaultStorageKey    = "todos"
	DefaultRemoteURL     = "https://my-json-server.typicode.com/typicode/demo/posts"
	DefaultStatusSeconds = 3
	DefaultHookTimeout   = 10
	DefaultFilter        = "all"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
)

// Default locations under ~/.tasklist, expanded at load time.
var (
	DefaultDataDir    = taskdir.Under("")
	DefaultSQLitePath = taskdir.Under(taskdir.DatabaseFile)
	DefaultLogDir     = taskdir.Under(taskdir.LogsDir)
)

var validBackends = []string{"file", "sqlite", "redis", "memory"}

// Config holds the full configuration for tasklist.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Remote  RemoteConfig  `toml:"remote"`
	Hook    HookConfig    `toml:"hook"`

	// Seconds a status message stays on screen
	StatusSeconds int `toml:"status_seconds"`

	// Filter shown when the TUI starts (all, done, open)
	DefaultFilter string `toml:"default_filter"`

	// Logging configuration
	LogDir        string `toml:"log_dir"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// File the config was read from, empty when none (computed)
	ConfigFile string `toml:"-"`
}

// StorageConfig selects where the task list is persisted.
type StorageConfig struct {
	Backend       string `toml:"backend"`
	Key           string `toml:"key"`
	Dir           string `toml:"dir"`
	SQLitePath    string `toml:"sqlite_path"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// RemoteConfig points at the remote task source.
type RemoteConfig struct {
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// HookConfig names a command run after every saved change.
type HookConfig struct {
	Command        string `toml:"command"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// HookTimeout returns the limit for one hook run, zero for none.
func (c *Config) HookTimeout() time.Duration {
	if c.Hook.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Hook.TimeoutSeconds) * time.Second
}

// StatusTTL returns how long status messages stay visible.
func (c *Config) StatusTTL() time.Duration {
	if c.StatusSeconds <= 0 {
		return DefaultStatusSeconds * time.Second
	}
	return time.Duration(c.StatusSeconds) * time.Second
}

// RemoteTimeout returns the HTTP timeout for remote fetches, zero for none.
func (c *Config) RemoteTimeout() time.Duration {
	if c.Remote.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Remote.TimeoutSeconds) * time.Second
}

// Filter returns the configured start-up filter.
func (c *Config) Filter() todo.Filter {
	f, err := todo.ParseFilter(c.DefaultFilter)
	if err != nil {
		return todo.FilterAll
	}
	return f
}

// Validate checks values that cannot be fixed up silently.
func (c *Config) Validate() error {
	if !isValidBackend(c.Storage.Backend) {
		return fmt.Errorf("storage.backend %q: expected one of %s", c.Storage.Backend, strings.Join(validBackends, ", "))
	}
	if c.Storage.Backend == "redis" && strings.TrimSpace(c.Storage.RedisAddr) == "" {
		return fmt.Errorf("storage.redis_addr is required for the redis backend")
	}
	if c.Storage.RedisDB < 0 {
		return fmt.Errorf("storage.redis_db must not be negative")
	}
	if c.StatusSeconds < 0 {
		return fmt.Errorf("status_seconds must not be negative")
	}
	if c.Remote.TimeoutSeconds < 0 {
		return fmt.Errorf("remote.timeout_seconds must not be negative")
	}
	if c.Hook.TimeoutSeconds < 0 {
		return fmt.Errorf("hook.timeout_seconds must not be negative")
	}
	if _, err := todo.ParseFilter(c.DefaultFilter); err != nil {
		return fmt.Errorf("default_filter: %w", err)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("log_format %q: expected text, json, or logfmt", c.LogFormat)
	}
	return nil
}

func isValidBackend(b string) bool {
	for _, v := range validBackends {
		if b == v {
			return true
		}
	}
	return false
}
