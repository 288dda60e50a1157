package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# todo configuration file
# Values can be overridden by .env, TODO_* environment variables or CLI flags

# Storage backend: memory, file, nats or mysql
backend = "file"

# Data directory for the file backend, the embedded NATS server and todo.log
# (supports ~ expansion and %VAR% on Windows)
data_dir = "~/.todo"

# Key the task collection is stored under
key = "tasks"

# Stored format: json or yaml
codec = "json"

# Logging
log_level = "info"     # debug, info, warn, error
log_format = "text"    # text, json, logfmt
log_timestamps = false
log_caller = false

# Serve Prometheus metrics, e.g. "127.0.0.1:9464"
# metrics_addr = ""

[nats]
# Leave url empty to run an embedded server under data_dir/nats
# url = "nats://127.0.0.1:4222"
bucket = "todo"

[mysql]
# dsn = "todo:secret@tcp(127.0.0.1:3306)/todo"
table = "todo_kv"
`
}
