package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/nibzard/todo-go/internal/kv"
	"github.com/nibzard/todo-go/internal/logging"
	"github.com/nibzard/todo-go/internal/persist"
)

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file (~/.todo/todo.toml or OS-specific config dir)
// 3. Project config file (todo.toml or .todo.toml in current directory)
// 4. .env file in current directory (fills unset variables only)
// 5. Environment variables
// 6. CLI flags
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
	var files []string

	// 1. Set defaults (all fields start with default source)
	setDefaults(cfg)
	for _, field := range configFields() {
		sources[field] = SourceDefault
	}

	// 2. Try to load from user config file
	if userConfigFile := findUserConfigFile(); userConfigFile != "" {
		if err := loadConfigFile(cfg, userConfigFile, sources, SourceUserFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", userConfigFile, err)
		}
		files = append(files, userConfigFile)
	}

	// 3. Try to load from project config file (overrides user config)
	if projectConfigFile := findProjectConfigFile(); projectConfigFile != "" {
		if err := loadConfigFile(cfg, projectConfigFile, sources, SourceProjFile); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", projectConfigFile, err)
		}
		files = append(files, projectConfigFile)
	}

	// 4. Fill the environment from .env without overriding it
	fromDotEnv, found, err := loadDotEnv(DotEnvFile)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", DotEnvFile, err)
	}
	if found {
		files = append(files, DotEnvFile)
	}

	// 5. Override from environment
	loadFromEnv(cfg, sources)
	for _, b := range envBindings() {
		if fromDotEnv[EnvPrefix+b.name] && sources[b.field] == SourceEnv {
			sources[b.field] = SourceDotEnv
		}
	}

	// 6. Parse CLI flags (they override everything)
	if err := parseFlags(cfg, fs, args, sources); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	// 7. Compute derived values
	if err := finalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}

	return &ConfigWithSources{
		Config:  cfg,
		Sources: sources,
		Files:   files,
	}, nil
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"backend",
		"data_dir",
		"key",
		"codec",
		"nats.url",
		"nats.bucket",
		"mysql.dsn",
		"mysql.table",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
		"metrics_addr",
	}
}

// loadConfigFile decodes the TOML file at path over cfg and marks every key
// it defines with source. sources may be nil.
func loadConfigFile(cfg *Config, path string, sources map[string]ConfigSource, source ConfigSource) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	if sources == nil {
		return nil
	}
	for _, field := range configFields() {
		if md.IsDefined(strings.Split(field, ".")...) {
			sources[field] = source
		}
	}
	return nil
}

// loadDotEnv copies the variables in path into the process environment when
// they are unset or empty, and returns the names it set. A missing file is
// not an error.
func loadDotEnv(path string) (map[string]bool, bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, false, err
	}
	set := make(map[string]bool)
	for k, v := range vars {
		if os.Getenv(k) != "" {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return nil, false, err
		}
		set[k] = true
	}
	return set, true, nil
}

// finalizeConfig computes derived values and validates the result.
func finalizeConfig(cfg *Config) error {
	dataDir, err := resolveDir(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("resolving data dir: %w", err)
	}
	cfg.DataDir = dataDir

	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.Codec = strings.ToLower(strings.TrimSpace(cfg.Codec))

	return cfg.Validate()
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if !kv.IsBackend(c.Backend) {
		return fmt.Errorf("backend %q must be one of: %s", c.Backend, strings.Join(kv.Backends, ", "))
	}
	if _, err := persist.CodecByName(c.Codec); err != nil {
		return err
	}
	if err := kv.ValidateKey(c.Key); err != nil {
		return err
	}
	switch c.Backend {
	case kv.BackendFile:
		if c.DataDir == "" {
			return errors.New("data_dir is required for the file backend")
		}
	case kv.BackendNATS:
		if c.NATS.URL == "" && c.DataDir == "" {
			return errors.New("data_dir is required for the embedded NATS server")
		}
		if c.NATS.Bucket == "" {
			return errors.New("nats.bucket must not be empty")
		}
	case kv.BackendMySQL:
		if c.MySQL.DSN == "" {
			return errors.New("mysql.dsn is required for the mysql backend")
		}
	}
	if !logging.ValidLogLevel(c.LogLevel) {
		return fmt.Errorf("log_level %q must be one of: debug, info, warn, error, fatal", c.LogLevel)
	}
	if !logging.ValidLogFormat(c.LogFormat) {
		return fmt.Errorf("log_format %q must be one of: text, json, logfmt", c.LogFormat)
	}
	return nil
}
