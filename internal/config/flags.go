package config

import (
	"flag"
)

// flagFields maps flag names to source field names.
var flagFields = map[string]string{
	"backend":        "backend",
	"data-dir":       "data_dir",
	"key":            "key",
	"codec":          "codec",
	"nats-url":       "nats.url",
	"nats-bucket":    "nats.bucket",
	"mysql-dsn":      "mysql.dsn",
	"mysql-table":    "mysql.table",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"log-timestamps": "log_timestamps",
	"log-caller":     "log_caller",
	"metrics-addr":   "metrics_addr",
}

// parseFlags defines the global flags on fs, bound to cfg, and parses args.
// Flags that are not given keep the value from earlier layers. If sources is
// non-nil, it tracks the source of each value that was set.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("todo", flag.ContinueOnError)
	}

	// Storage
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "Storage backend (memory, file, nats, mysql)")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Data directory for files, embedded NATS and logs")
	fs.StringVar(&cfg.Key, "key", cfg.Key, "Key the task collection is stored under")
	fs.StringVar(&cfg.Codec, "codec", cfg.Codec, "Stored format (json, yaml)")
	fs.StringVar(&cfg.NATS.URL, "nats-url", cfg.NATS.URL, "NATS server URL (empty runs an embedded server)")
	fs.StringVar(&cfg.NATS.Bucket, "nats-bucket", cfg.NATS.Bucket, "JetStream key-value bucket")
	fs.StringVar(&cfg.MySQL.DSN, "mysql-dsn", cfg.MySQL.DSN, "MySQL DSN (user:pass@tcp(host:3306)/db)")
	fs.StringVar(&cfg.MySQL.Table, "mysql-table", cfg.MySQL.Table, "MySQL table for key-value rows")

	// Logging
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&cfg.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Show timestamps in logs")
	fs.BoolVar(&cfg.LogCaller, "log-caller", cfg.LogCaller, "Show caller location in logs")

	// Metrics
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Serve Prometheus metrics on this address")

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
