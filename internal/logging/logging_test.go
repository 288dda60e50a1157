// Package logging provides tests for logger construction and log tailing.
package logging

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  log.Level
	}{
		{"debug", log.DebugLevel},
		{"info", log.InfoLevel},
		{"warn", log.WarnLevel},
		{"warning", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"fatal", log.FatalLevel},
		{"", log.InfoLevel},
		{"verbose", log.InfoLevel},
		{" WARN ", log.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLogLevel(tt.input); got != tt.want {
				t.Errorf("ParseLogLevel(%q): got %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseLogFormatter(t *testing.T) {
	tests := []struct {
		input string
		want  log.Formatter
	}{
		{"json", log.JSONFormatter},
		{"logfmt", log.LogfmtFormatter},
		{"text", log.TextFormatter},
		{"", log.TextFormatter},
		{"JSON", log.JSONFormatter},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLogFormatter(tt.input); got != tt.want {
				t.Errorf("ParseLogFormatter(%q): got %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidNames(t *testing.T) {
	if !ValidLogLevel("warn") || ValidLogLevel("loud") {
		t.Error("ValidLogLevel gave the wrong answer")
	}
	if !ValidLogFormat("logfmt") || ValidLogFormat("xml") {
		t.Error("ValidLogFormat gave the wrong answer")
	}
}

func TestNewFromConfig(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFromConfig(&buf, "warn", "json", false, false)

	logger.Info("hidden")
	logger.Warn("persist failed", "key", "tasks")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"key":"tasks"`) {
		t.Errorf("expected json field in output, got %s", out)
	}
}

func TestNewTest(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTest(&buf)
	logger.Debug("hydrated", "tasks", 3)

	out := buf.String()
	if !strings.Contains(out, "DEBU") || !strings.Contains(out, "tasks=3") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestOpenFile(t *testing.T) {
	t.Run("creates directory and appends", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested")

		for _, line := range []string{"first\n", "second\n"} {
			f, err := OpenFile(dir)
			if err != nil {
				t.Fatalf("OpenFile failed: %v", err)
			}
			if _, err := f.WriteString(line); err != nil {
				t.Fatalf("write failed: %v", err)
			}
			f.Close()
		}

		data, err := os.ReadFile(filepath.Join(dir, FileName))
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if string(data) != "first\nsecond\n" {
			t.Errorf("content: got %q", data)
		}
	})

	t.Run("empty dir returns error", func(t *testing.T) {
		if _, err := OpenFile(""); err == nil {
			t.Fatal("expected error for empty dir")
		}
	})
}

func TestTailLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	var content strings.Builder
	for i := 1; i <= 10; i++ {
		fmt.Fprintf(&content, "line %d\n", i)
	}
	if err := os.WriteFile(path, []byte(content.String()), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	tests := []struct {
		name string
		n    int
		want string
	}{
		{"last three", 3, "line 8\nline 9\nline 10\n"},
		{"more than file", 50, content.String()},
		{"whole file", 0, content.String()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := TailLog(context.Background(), &buf, path, tt.n, false); err != nil {
				t.Fatalf("TailLog failed: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("TailLog(n=%d): got %q, want %q", tt.n, buf.String(), tt.want)
			}
		})
	}

	t.Run("follow stops with context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		var buf bytes.Buffer
		if err := TailLog(ctx, &buf, path, 1, true); err != nil {
			t.Fatalf("TailLog failed: %v", err)
		}
		if buf.String() != "line 10\n" {
			t.Errorf("got %q, want last line", buf.String())
		}
	})

	t.Run("missing file", func(t *testing.T) {
		var buf bytes.Buffer
		if err := TailLog(context.Background(), &buf, filepath.Join(t.TempDir(), "nope.log"), 1, false); err == nil {
			t.Error("expected error for missing file")
		}
	})
}
