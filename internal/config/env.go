package config

import (
	"os"
	"strings"
)

// envBinding maps one TODO_* variable to a config field.
type envBinding struct {
	name  string
	field string
	apply func(cfg *Config, v string)
}

func envBindings() []envBinding {
	return []envBinding{
		{"BACKEND", "backend", func(c *Config, v string) { c.Backend = v }},
		{"DATA_DIR", "data_dir", func(c *Config, v string) { c.DataDir = v }},
		{"KEY", "key", func(c *Config, v string) { c.Key = v }},
		{"CODEC", "codec", func(c *Config, v string) { c.Codec = v }},
		{"NATS_URL", "nats.url", func(c *Config, v string) { c.NATS.URL = v }},
		{"NATS_BUCKET", "nats.bucket", func(c *Config, v string) { c.NATS.Bucket = v }},
		{"MYSQL_DSN", "mysql.dsn", func(c *Config, v string) { c.MySQL.DSN = v }},
		{"MYSQL_TABLE", "mysql.table", func(c *Config, v string) { c.MySQL.Table = v }},
		{"LOG_LEVEL", "log_level", func(c *Config, v string) { c.LogLevel = v }},
		{"LOG_FORMAT", "log_format", func(c *Config, v string) { c.LogFormat = v }},
		{"LOG_TIMESTAMPS", "log_timestamps", func(c *Config, v string) { c.LogTimestamps = boolFromString(v) }},
		{"LOG_CALLER", "log_caller", func(c *Config, v string) { c.LogCaller = boolFromString(v) }},
		{"METRICS_ADDR", "metrics_addr", func(c *Config, v string) { c.MetricsAddr = v }},
	}
}

// EnvVar returns the environment variable name for a config field, or ""
// if the field has none.
func EnvVar(field string) string {
	for _, b := range envBindings() {
		if b.field == field {
			return EnvPrefix + b.name
		}
	}
	return ""
}

// loadFromEnv overrides config from TODO_* environment variables. If
// sources is non-nil, it tracks the source of each value.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) {
	for _, b := range envBindings() {
		v := os.Getenv(EnvPrefix + b.name)
		if v == "" {
			continue
		}
		b.apply(cfg, v)
		if sources != nil {
			sources[b.field] = SourceEnv
		}
	}
}

// boolFromString parses the usual spellings of true. Everything else is false.
func boolFromString(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
