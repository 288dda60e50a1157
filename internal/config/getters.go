package config

import (
	"path/filepath"

	"github.com/nibzard/todo-go/internal/kv"
	"github.com/nibzard/todo-go/internal/logging"
)

// KVOptions returns the options for opening the configured backend.
func (c *Config) KVOptions() kv.Options {
	return kv.Options{
		Backend:    c.Backend,
		Dir:        c.DataDir,
		NATSURL:    c.NATS.URL,
		NATSBucket: c.NATS.Bucket,
		MySQLDSN:   c.MySQL.DSN,
		MySQLTable: c.MySQL.Table,
	}
}

// LogFile returns the path of the log file under the data directory.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, logging.FileName)
}

// Values returns every setting keyed by its source field name, with the
// MySQL DSN password masked.
func (c *Config) Values() map[string]string {
	return map[string]string{
		"backend":        c.Backend,
		"data_dir":       c.DataDir,
		"key":            c.Key,
		"codec":          c.Codec,
		"nats.url":       c.NATS.URL,
		"nats.bucket":    c.NATS.Bucket,
		"mysql.dsn":      kv.RedactDSN(c.MySQL.DSN),
		"mysql.table":    c.MySQL.Table,
		"log_level":      c.LogLevel,
		"log_format":     c.LogFormat,
		"log_timestamps": formatBool(c.LogTimestamps),
		"log_caller":     formatBool(c.LogCaller),
		"metrics_addr":   c.MetricsAddr,
	}
}

// Fields returns the source field names in display order.
func Fields() []string {
	return configFields()
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
