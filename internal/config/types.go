// Package config handles configuration loading and defaults.
package config

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceDotEnv   ConfigSource = ".env"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
	// Files lists the config files that were read, lowest priority first.
	Files []string
}

// Default values.
const (
	DefaultBackend    = "file"
	DefaultDataDir    = "~/.todo"
	DefaultKey        = "tasks"
	DefaultCodec      = "json"
	DefaultNATSBucket = "todo"
	DefaultMySQLTable = "todo_kv"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	EnvPrefix         = "TODO_"
	DotEnvFile        = ".env"
)

// Config holds the full configuration for todo.
type Config struct {
	// Storage
	Backend string `toml:"backend"`
	DataDir string `toml:"data_dir"`
	Key     string `toml:"key"`
	Codec   string `toml:"codec"`

	NATS  NATSConfig  `toml:"nats"`
	MySQL MySQLConfig `toml:"mysql"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Address for the Prometheus /metrics listener; empty disables it.
	MetricsAddr string `toml:"metrics_addr"`
}

// NATSConfig configures the JetStream key-value backend.
type NATSConfig struct {
	// URL of the server. Empty runs an embedded server under data_dir.
	URL    string `toml:"url"`
	Bucket string `toml:"bucket"`
}

// MySQLConfig configures the SQL key-value backend.
type MySQLConfig struct {
	DSN   string `toml:"dsn"`
	Table string `toml:"table"`
}
