package config

import (
	"flag"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. Config file
// 3. Environment variables
// 4. CLI flags
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cws, err := LoadWithSources(fs, args)
	if err != nil {
		return nil, err
	}
	return cws.Config, nil
}

// LoadWithSources loads configuration and tracks the source of each value.
// Returns ConfigWithSources containing the config and a map of field names to their sources.
func LoadWithSources(fs *flag.FlagSet, args []string) (*ConfigWithSources, error) {
	sources := make(map[string]ConfigSource)
	cfg := &Config{}

	// 1. Set defaults
	setDefaults(cfg)
	for _, field := range configFields() {
		sources[field] = SourceDefault
	}

	// 2. Config file
	if path := findConfigFile(configFlagValue(args)); path != "" {
		if err := loadConfigFile(cfg, path, sources); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
	}

	// 3. Override from environment
	loadFromEnv(cfg, sources)

	// 4. Parse CLI flags (they override everything)
	if err := parseFlags(cfg, fs, args, sources); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	// 5. Compute derived values
	if err := finalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}

	return &ConfigWithSources{
		Config:  cfg,
		Sources: sources,
	}, nil
}

// loadConfigFile decodes TOML from path over cfg. Keys present in the file
// are recorded in sources; unknown keys are rejected.
func loadConfigFile(cfg *Config, path string, sources map[string]ConfigSource) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	for _, k := range md.Keys() {
		if sources == nil {
			break
		}
		if _, tracked := sources[k.String()]; tracked {
			sources[k.String()] = SourceFile
		}
	}
	return nil
}

// finalizeConfig computes derived values and validates the result.
func finalizeConfig(cfg *Config) error {
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultBackend
	}
	if strings.TrimSpace(cfg.Storage.Key) == "" {
		cfg.Storage.Key = DefaultStorageKey
	}
	if strings.TrimSpace(cfg.Remote.URL) == "" {
		cfg.Remote.URL = DefaultRemoteURL
	}
	cfg.DefaultFilter = strings.ToLower(strings.TrimSpace(cfg.DefaultFilter))

	// Expand ~ in paths
	cfg.Storage.Dir = expandPath(cfg.Storage.Dir)
	cfg.Storage.SQLitePath = expandPath(cfg.Storage.SQLitePath)
	cfg.LogDir = expandPath(cfg.LogDir)
	cfg.Hook.Command = expandPath(strings.TrimSpace(cfg.Hook.Command))

	return cfg.Validate()
}
