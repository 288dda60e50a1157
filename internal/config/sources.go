package config

import (
	"os"
	"path/filepath"
)

// findProjectConfigFile looks for a config file in the current directory.
func findProjectConfigFile() string {
	names := []string{"todo.toml", ".todo.toml"}
	for _, name := range names {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// userConfigFiles lists the user-level config locations in the order they
// are tried: ~/.todo/todo.toml, then todo/todo.toml under the OS config
// directory ($XDG_CONFIG_HOME, ~/Library/Application Support, %AppData%).
func userConfigFiles() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".todo", "todo.toml"))
	}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "todo", "todo.toml"))
	}
	return paths
}

// findUserConfigFile returns the first user-level config file that exists.
func findUserConfigFile() string {
	for _, path := range userConfigFiles() {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.Backend = DefaultBackend
	cfg.DataDir = DefaultDataDir
	cfg.Key = DefaultKey
	cfg.Codec = DefaultCodec
	cfg.NATS.Bucket = DefaultNATSBucket
	cfg.MySQL.Table = DefaultMySQLTable
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
}

// Defaults returns a config holding only the built-in defaults, with paths
// expanded.
func Defaults() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	if dir, err := resolveDir(cfg.DataDir); err == nil {
		cfg.DataDir = dir
	}
	return cfg
}

// GetConfigFile returns the highest-priority config file that was read, or
// "" if none was.
func (cws *ConfigWithSources) GetConfigFile() string {
	for i := len(cws.Files) - 1; i >= 0; i-- {
		if cws.Files[i] != DotEnvFile {
			return cws.Files[i]
		}
	}
	return ""
}
