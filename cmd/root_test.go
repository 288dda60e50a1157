// Package cmd provides tests for CLI command handlers.
package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nibzard/todo-go/internal/config"
	"github.com/nibzard/todo-go/internal/todo"
)

// setup isolates the config layers, points the file backend at a temp dir
// and captures command output.
func setup(t *testing.T) (dataDir string, out *bytes.Buffer) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, field := range config.Fields() {
		t.Setenv(config.EnvVar(field), "")
	}
	t.Chdir(t.TempDir())

	dataDir = filepath.Join(home, "data")
	t.Setenv("TODO_DATA_DIR", dataDir)
	t.Setenv("TODO_LOG_LEVEL", "error")

	out = &bytes.Buffer{}
	prev := stdout
	stdout = out
	t.Cleanup(func() { stdout = prev })
	return dataDir, out
}

func run(t *testing.T, out *bytes.Buffer, args ...string) string {
	t.Helper()
	out.Reset()
	if err := Run(context.Background(), args); err != nil {
		t.Fatalf("Run(%v): %v", args, err)
	}
	return out.String()
}

func listJSON(t *testing.T, out *bytes.Buffer, args ...string) []todo.Task {
	t.Helper()
	data := run(t, out, append([]string{"ls", "-json"}, args...)...)
	var tasks []todo.Task
	if err := json.Unmarshal([]byte(data), &tasks); err != nil {
		t.Fatalf("ls -json output is not JSON: %v\n%s", err, data)
	}
	return tasks
}

// TestRun tests the main Run function.
func TestRun(t *testing.T) {
	setup(t)
	ctx := context.Background()

	for _, args := range [][]string{{"--help"}, {"-h"}, {"help"}, {"--version"}, {"-v"}, {"version"}} {
		if err := Run(ctx, args); err != nil {
			t.Errorf("Run(%v): expected no error, got %v", args, err)
		}
	}

	t.Run("unknown command returns error", func(t *testing.T) {
		err := Run(ctx, []string{"unknown-command"})
		if err == nil || !strings.Contains(err.Error(), "unknown command") {
			t.Errorf("expected 'unknown command' error, got %v", err)
		}
	})

	t.Run("invalid backend is rejected", func(t *testing.T) {
		err := Run(ctx, []string{"-backend", "redis", "ls"})
		if err == nil || !strings.Contains(err.Error(), "loading config") {
			t.Errorf("expected config error, got %v", err)
		}
	})
}

func TestVersion(t *testing.T) {
	_, out := setup(t)
	if got := run(t, out, "version"); got != "todo version dev\n" {
		t.Errorf("version: got %q", got)
	}
}

func TestTaskLifecycle(t *testing.T) {
	dataDir, out := setup(t)

	if got := run(t, out, "add", "Buy", "milk", "-d", "2 litres"); !strings.HasPrefix(got, "Created [ ] ") {
		t.Errorf("add: got %q", got)
	}
	run(t, out, "add", "Call mom")
	run(t, out, "add", "--", "-dash title")

	tasks := listJSON(t, out)
	if len(tasks) != 3 {
		t.Fatalf("tasks: got %d, want 3", len(tasks))
	}
	if tasks[0].Title != "Buy milk" || tasks[0].Description != "2 litres" {
		t.Errorf("first task: got %+v", tasks[0])
	}
	if tasks[2].Title != "-dash title" {
		t.Errorf("title after --: got %q", tasks[2].Title)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "tasks.kv")); err != nil {
		t.Errorf("file backend did not write: %v", err)
	}

	milk, mom := tasks[0].ID, tasks[1].ID

	if got := run(t, out, "done", milk[:8]); !strings.Contains(got, "Completed [x]") {
		t.Errorf("done: got %q", got)
	}
	if got := listJSON(t, out, "completed"); len(got) != 1 || got[0].ID != milk {
		t.Errorf("ls completed: got %+v", got)
	}
	if got := listJSON(t, out, "-filter", "pending", "-q", "MOM"); len(got) != 1 || got[0].ID != mom {
		t.Errorf("ls pending -q MOM: got %+v", got)
	}

	run(t, out, "edit", milk, "Buy", "oat", "milk")
	tasks = listJSON(t, out)
	if tasks[0].Title != "Buy oat milk" || tasks[0].Description != "2 litres" || !tasks[0].Completed {
		t.Errorf("edit should keep description and state: got %+v", tasks[0])
	}
	run(t, out, "edit", milk, "Buy oat milk", "-d", "")
	if tasks = listJSON(t, out); tasks[0].Description != "" {
		t.Errorf("edit -d should replace the description: got %q", tasks[0].Description)
	}

	if got := run(t, out, "rm", mom); got != "Deleted "+todo.ShortID(mom)+"\n" {
		t.Errorf("rm: got %q", got)
	}
	if got := run(t, out); !strings.Contains(got, "1 pending, 1 completed") {
		t.Errorf("default ls: got %q", got)
	}
}

func TestCommandErrors(t *testing.T) {
	_, out := setup(t)
	run(t, out, "add", "one")
	ctx := context.Background()

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"add"}, "usage: todo add"},
		{[]string{"add", "   "}, "usage: todo add"},
		{[]string{"edit", "abcdef"}, "usage: todo edit"},
		{[]string{"done"}, "usage: todo done"},
		{[]string{"rm"}, "usage: todo rm"},
		{[]string{"ls", "sideways"}, "invalid filter"},
		{[]string{"ls", "pending", "extra"}, "unexpected arguments"},
		{[]string{"export", "-format", "xml"}, "xml"},
		{[]string{"shell", "extra"}, "unexpected arguments"},
	}
	for _, tt := range tests {
		err := Run(ctx, tt.args)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("Run(%v): got %v, want error containing %q", tt.args, err, tt.want)
		}
	}

	if err := Run(ctx, []string{"done", "zzzzzz"}); !errors.Is(err, todo.ErrNotFound) {
		t.Errorf("done unknown id: got %v, want ErrNotFound", err)
	}
}

func TestExportCommand(t *testing.T) {
	_, out := setup(t)
	run(t, out, "add", "Buy milk", "-d", "2 litres")
	run(t, out, "add", "Call mom")

	path := filepath.Join(t.TempDir(), "tasks.csv")
	if got := run(t, out, "export", "-format", "csv", "-o", path); !strings.Contains(got, "Exported 2 tasks") {
		t.Errorf("export: got %q", got)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("export is not CSV: %v", err)
	}
	if len(rows) != 3 || rows[1][1] != "Buy milk" || rows[1][2] != "2 litres" {
		t.Errorf("rows: got %v", rows)
	}

	if got := run(t, out, "export", "-format", "yaml"); !strings.Contains(got, "title: Call mom") {
		t.Errorf("yaml export: got %q", got)
	}
}

func TestConfigCommand(t *testing.T) {
	dataDir, out := setup(t)
	t.Setenv("TODO_MYSQL_DSN", "user:secret@tcp(localhost:3306)/todo")

	got := run(t, out, "-key", "work", "config")
	for _, want := range []string{
		"Config files: (none)",
		dataDir,
		"[environment]",
		"work",
		"[flag]",
		"[default]",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("config output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "secret") {
		t.Errorf("config output leaks the DSN password:\n%s", got)
	}

	if got := run(t, out, "config", "-example"); got != config.ExampleConfig() {
		t.Errorf("config -example: got %q", got)
	}
}

func TestLogCommand(t *testing.T) {
	dataDir, out := setup(t)
	if got := run(t, out, "log"); !strings.Contains(got, "No log file") {
		t.Errorf("log without file: got %q", got)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "todo.log"), []byte("one\ntwo\nthree\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := run(t, out, "log", "-n", "2"); got != "two\nthree\n" {
		t.Errorf("log -n 2: got %q", got)
	}
}

func TestTUIRequiresTTY(t *testing.T) {
	setup(t)
	err := Run(context.Background(), []string{"tui"})
	if err == nil || !strings.Contains(err.Error(), "TTY") {
		t.Errorf("tui without a terminal: got %v", err)
	}
}

func TestTUIThemeFlags(t *testing.T) {
	setup(t)
	err := Run(context.Background(), []string{"tui", "-light", "-dark"})
	if err == nil || !strings.Contains(err.Error(), "mutually exclusive") {
		t.Errorf("tui -light -dark: got %v", err)
	}
}

func TestParseInterspersed(t *testing.T) {
	tests := []struct {
		args     []string
		wantPos  []string
		wantDesc string
	}{
		{[]string{"Buy", "milk"}, []string{"Buy", "milk"}, ""},
		{[]string{"Buy", "-d", "x", "milk"}, []string{"Buy", "milk"}, "x"},
		{[]string{"-d=x", "Buy"}, []string{"Buy"}, "x"},
		{[]string{"Buy", "--", "-d", "x"}, []string{"Buy", "-d", "x"}, ""},
		{nil, nil, ""},
	}
	for _, tt := range tests {
		fs := newDescFlagSet()
		desc := fs.Lookup("d")
		got, err := parseInterspersed(fs, tt.args)
		if err != nil {
			t.Fatalf("parseInterspersed(%v): %v", tt.args, err)
		}
		if strings.Join(got, "|") != strings.Join(tt.wantPos, "|") {
			t.Errorf("parseInterspersed(%v): got %v, want %v", tt.args, got, tt.wantPos)
		}
		if desc.Value.String() != tt.wantDesc {
			t.Errorf("parseInterspersed(%v): -d got %q, want %q", tt.args, desc.Value.String(), tt.wantDesc)
		}
	}
}

func newDescFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.String("d", "", "description")
	return fs
}
