package shell

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nibzard/todo-go/internal/todo"
)

func newTestShell(t *testing.T, ids ...string) (*Shell, *todo.Store, *bytes.Buffer) {
	t.Helper()
	next := 0
	store := todo.NewStore(todo.WithIDGenerator(func() string {
		if next >= len(ids) {
			t.Fatalf("ran out of test ids")
		}
		id := ids[next]
		next++
		return id
	}))
	var out bytes.Buffer
	return New(store, &out), store, &out
}

func TestSplitTitle(t *testing.T) {
	tests := []struct {
		input     string
		wantTitle string
		wantDesc  string
	}{
		{"Buy milk", "Buy milk", ""},
		{"Buy milk | 2 litres", "Buy milk", "2 litres"},
		{"  Buy milk|2 litres | skimmed ", "Buy milk", "2 litres | skimmed"},
		{"| only description", "", "only description"},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			title, desc := SplitTitle(tt.input)
			if title != tt.wantTitle || desc != tt.wantDesc {
				t.Errorf("SplitTitle(%q): got (%q, %q), want (%q, %q)", tt.input, title, desc, tt.wantTitle, tt.wantDesc)
			}
		})
	}
}

func TestFormatTask(t *testing.T) {
	tests := []struct {
		task todo.Task
		want string
	}{
		{todo.Task{ID: "5f0c2a1e-8d4b", Title: "Buy milk"}, "[ ] 5f0c2a1e  Buy milk"},
		{todo.Task{ID: "abc", Title: "Report", Completed: true}, "[x] abc  Report"},
		{todo.Task{ID: "abc", Title: "Call", Description: "mom\nand dad"}, "[ ] abc  Call  - mom ..."},
	}
	for _, tt := range tests {
		if got := FormatTask(tt.task); got != tt.want {
			t.Errorf("FormatTask(%+v): got %q, want %q", tt.task, got, tt.want)
		}
	}
}

func TestExecSession(t *testing.T) {
	sh, store, out := newTestShell(t, "aaaaaa-1111", "bbbbbb-2222", "cccccc-3333")

	lines := []string{
		"add Buy milk | 2 litres",
		"add Write report",
		"ADD Call mom",
		"done bbbbbb",
		"edit aaaaaa Buy oat milk | 1 litre",
		"rm cccccc-3333",
	}
	for _, line := range lines {
		if sh.Exec(line) {
			t.Fatalf("Exec(%q) ended the session", line)
		}
	}

	want := []todo.Task{
		{ID: "aaaaaa-1111", Title: "Buy oat milk", Description: "1 litre"},
		{ID: "bbbbbb-2222", Title: "Write report", Completed: true},
	}
	got := store.Snapshot()
	if len(got) != len(want) {
		t.Fatalf("tasks: got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("task %d: got %+v, want %+v", i, got[i], want[i])
		}
	}

	for _, msg := range []string{"Created [ ] aaaaaa-1  Buy milk", "Completed [x] bbbbbb-2", "Updated", "Deleted cccccc-3"} {
		if !strings.Contains(out.String(), msg) {
			t.Errorf("output missing %q:\n%s", msg, out.String())
		}
	}
}

func TestExecList(t *testing.T) {
	sh, store, out := newTestShell(t, "aaaaaa-1111", "bbbbbb-2222", "cccccc-3333")
	store.Create("Buy milk", "")
	b, _ := store.Create("Buy bread", "milk inside")
	store.Create("Call mom", "")
	if _, err := store.Complete(b.ID); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		line    string
		want    []string
		notWant []string
	}{
		{"ls", []string{"Buy milk", "Buy bread", "Call mom", "3 shown"}, nil},
		{"ls pending", []string{"Buy milk", "Call mom"}, []string{"Buy bread"}},
		{"ls completed", []string{"Buy bread", "1 shown: 0 pending, 1 completed"}, []string{"Buy milk"}},
		{"ls MILK", []string{"Buy milk", "1 shown"}, []string{"Buy bread"}},
		{"list pending buy", []string{"Buy milk"}, []string{"Buy bread", "Call mom"}},
		{"ls completed call", []string{"No tasks"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			out.Reset()
			sh.Exec(tt.line)
			for _, w := range tt.want {
				if !strings.Contains(out.String(), w) {
					t.Errorf("%q output missing %q:\n%s", tt.line, w, out.String())
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out.String(), w) {
					t.Errorf("%q output should not contain %q:\n%s", tt.line, w, out.String())
				}
			}
		})
	}
}

func TestExecErrors(t *testing.T) {
	sh, store, out := newTestShell(t, "abcdef-1", "abcdef-2")
	store.Create("one", "")
	store.Create("two", "")

	tests := []struct {
		line string
		want string
	}{
		{"add", "Usage: add"},
		{"add    | just a description", "Usage: add"},
		{"done", "Usage: done"},
		{"done abcdef", "Ambiguous id"},
		{"done zzzzzz", "No task with id"},
		{"rm", "Usage: rm"},
		{"edit abcdef-1", "nothing changed"},
		{"edit", "Usage: edit"},
		{"frobnicate", "Unknown command: frobnicate"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			out.Reset()
			if sh.Exec(tt.line) {
				t.Fatalf("Exec(%q) ended the session", tt.line)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("Exec(%q): output %q does not contain %q", tt.line, out.String(), tt.want)
			}
		})
	}

	if store.Len() != 2 {
		t.Errorf("errors must not change the collection, got %d tasks", store.Len())
	}
	for _, task := range store.Snapshot() {
		if task.Completed {
			t.Errorf("task %s completed by a failed command", task.ID)
		}
	}
}

func TestExecQuitAndComments(t *testing.T) {
	sh, _, out := newTestShell(t)
	for _, line := range []string{"", "   ", "# a comment"} {
		if sh.Exec(line) {
			t.Errorf("Exec(%q) ended the session", line)
		}
	}
	if out.Len() != 0 {
		t.Errorf("blank and comment lines should print nothing, got %q", out.String())
	}
	for _, line := range []string{"quit", "exit", "Q"} {
		if !sh.Exec(line) {
			t.Errorf("Exec(%q) should end the session", line)
		}
	}
}

func TestHelpListsCommands(t *testing.T) {
	sh, _, out := newTestShell(t)
	sh.Exec("help")
	for _, cmd := range sh.Commands() {
		if !strings.Contains(out.String(), cmd.Usage) {
			t.Errorf("help is missing %q", cmd.Usage)
		}
	}
}

func TestRegisterReplaces(t *testing.T) {
	sh, _, out := newTestShell(t)
	before := len(sh.Commands())
	sh.Register(&Command{
		Name:  "help",
		Usage: "help",
		Handler: func(s *Shell, args string) bool {
			s.printf("custom help\n")
			return false
		},
	})
	if len(sh.Commands()) != before {
		t.Errorf("Commands: got %d, want %d after replacing", len(sh.Commands()), before)
	}
	sh.Exec("help")
	if out.String() != "custom help\n" {
		t.Errorf("got %q, want custom help", out.String())
	}
}
