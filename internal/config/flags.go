package config

import (
	"flag"
)

// flagFields maps flag names to the field names used for source tracking.
var flagFields = map[string]string{
	"storage":        "storage.backend",
	"storage-key":    "storage.key",
	"data-dir":       "storage.dir",
	"sqlite-path":    "storage.sqlite_path",
	"redis-addr":     "storage.redis_addr",
	"remote-url":     "remote.url",
	"hook":           "hook.command",
	"filter":         "default_filter",
	"log-dir":        "log_dir",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"log-timestamps": "log_timestamps",
	"log-caller":     "log_caller",
}

// parseFlags defines the global flags on fs and parses args. Flags are bound
// directly to cfg, so their defaults are whatever earlier layers produced.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("tasklist", flag.ContinueOnError)
	}

	// Consumed before parsing by configFlagValue.
	var configFile string
	fs.StringVar(&configFile, "config", "", "Path to config file")

	// Storage
	fs.StringVar(&cfg.Storage.Backend, "storage", cfg.Storage.Backend, "Storage backend (file, sqlite, redis, memory)")
	fs.StringVar(&cfg.Storage.Key, "storage-key", cfg.Storage.Key, "Storage slot key")
	fs.StringVar(&cfg.Storage.Dir, "data-dir", cfg.Storage.Dir, "Directory for the file backend")
	fs.StringVar(&cfg.Storage.SQLitePath, "sqlite-path", cfg.Storage.SQLitePath, "Database path for the sqlite backend")
	fs.StringVar(&cfg.Storage.RedisAddr, "redis-addr", cfg.Storage.RedisAddr, "Address for the redis backend")

	// Remote
	fs.StringVar(&cfg.Remote.URL, "remote-url", cfg.Remote.URL, "Remote task source URL")

	// Hook
	fs.StringVar(&cfg.Hook.Command, "hook", cfg.Hook.Command, "Command run after every saved change")

	// View
	fs.StringVar(&cfg.DefaultFilter, "filter", cfg.DefaultFilter, "Initial filter (all, done, open)")

	// Logging
	fs.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Log directory")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&cfg.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Show timestamps in logs")
	fs.BoolVar(&cfg.LogCaller, "log-caller", cfg.LogCaller, "Show caller location in logs")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if sources != nil {
		fs.Visit(func(f *flag.Flag) {
			if field, ok := flagFields[f.Name]; ok {
				sources[field] = SourceFlag
			}
		})
	}
	return nil
}
