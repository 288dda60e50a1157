// Package logging builds the operational logger and manages the log file.
package logging

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// FileName is the log file written under the data directory while the
// terminal UI owns stdout.
const FileName = "todo.log"

// Prefix is stamped on every line of the application logger.
const Prefix = "todo"

var levels = map[string]log.Level{
	"debug":   log.DebugLevel,
	"info":    log.InfoLevel,
	"warn":    log.WarnLevel,
	"warning": log.WarnLevel,
	"error":   log.ErrorLevel,
	"fatal":   log.FatalLevel,
}

var formatters = map[string]log.Formatter{
	"text":   log.TextFormatter,
	"json":   log.JSONFormatter,
	"logfmt": log.LogfmtFormatter,
}

// NewFromConfig creates the application logger from the log_* settings.
// Unknown level or format names fall back to info and text.
func NewFromConfig(w io.Writer, level, format string, timestamps, caller bool) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           ParseLogLevel(level),
		Formatter:       ParseLogFormatter(format),
		ReportTimestamp: timestamps,
		ReportCaller:    caller,
		Prefix:          Prefix,
	})
}

// NewTest creates an unprefixed debug-level text logger for assertions on
// its output.
func NewTest(w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{Level: log.DebugLevel})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// ParseLogLevel maps a level name to a charmbracelet/log Level.
func ParseLogLevel(level string) log.Level {
	if l, ok := levels[normalize(level)]; ok {
		return l
	}
	return log.InfoLevel
}

// ParseLogFormatter maps a format name to a charmbracelet/log Formatter.
func ParseLogFormatter(format string) log.Formatter {
	if f, ok := formatters[normalize(format)]; ok {
		return f
	}
	return log.TextFormatter
}

// ValidLogLevel reports whether level is a recognized level name.
func ValidLogLevel(level string) bool {
	_, ok := levels[normalize(level)]
	return ok
}

// ValidLogFormat reports whether format is a recognized formatter name.
func ValidLogFormat(format string) bool {
	_, ok := formatters[normalize(format)]
	return ok
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// OpenFile opens (creating if needed) the append-only log file in dir.
func OpenFile(dir string) (*os.File, error) {
	if dir == "" {
		return nil, fmt.Errorf("log dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	path := filepath.Join(dir, FileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}

// TailLog writes the last n lines of the log file at path to w. With n <= 0
// the whole file is written. With follow set it keeps polling for new data
// until ctx is done.
func TailLog(ctx context.Context, w io.Writer, path string, n int, follow bool) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if n > 0 {
		if err := writeLastLines(w, file, n); err != nil {
			return err
		}
	} else if _, err := io.Copy(w, file); err != nil {
		return err
	}

	if !follow {
		return nil
	}
	return tailFollow(ctx, w, file)
}

// writeLastLines keeps a ring of the last n lines read from r.
func writeLastLines(w io.Writer, r io.Reader, n int) error {
	ring := make([]string, n)
	count := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		ring[count%n] = scanner.Text()
		count++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read log file: %w", err)
	}

	start := 0
	if count > n {
		start = count - n
	}
	for i := start; i < count; i++ {
		if _, err := fmt.Fprintln(w, ring[i%n]); err != nil {
			return err
		}
	}
	return nil
}

// tailFollow follows a file like tail -f.
func tailFollow(ctx context.Context, w io.Writer, file *os.File) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		if _, err := io.Copy(w, file); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
