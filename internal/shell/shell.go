// Package shell is an interactive line-oriented front end for the task
// collection.
//
// Each line is a command followed by its arguments:
//
//	add Buy milk | 2 litres
//	edit 5f0c2a1e Buy oat milk | 2 litres
//	done 5f0c2a1e
//	rm 5f0c2a1e
//	ls pending milk
//
// Task ids may be given in full or as a unique prefix of at least six
// characters.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/chzyer/readline"

	"github.com/nibzard/todo-go/internal/todo"
)

// Prompt is shown before each line.
const Prompt = "todo> "

// Command is one shell command.
type Command struct {
	Name        string
	Aliases     []string
	Usage       string
	Description string
	// Handler runs the command with the raw text after the name. It returns
	// true to end the session.
	Handler func(s *Shell, args string) bool
}

// Shell runs commands against a store.
type Shell struct {
	store       *todo.Store
	out         io.Writer
	historyFile string
	commands    map[string]*Command
	ordered     []*Command
}

// Option configures a Shell.
type Option func(*Shell)

// WithHistoryFile keeps line history in path across sessions.
func WithHistoryFile(path string) Option {
	return func(s *Shell) {
		s.historyFile = path
	}
}

// New creates a shell writing to out.
func New(store *todo.Store, out io.Writer, opts ...Option) *Shell {
	s := &Shell{
		store:    store,
		out:      out,
		commands: make(map[string]*Command),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, cmd := range builtins() {
		s.Register(cmd)
	}
	return s
}

// Register adds a command, replacing any with the same name or alias.
func (s *Shell) Register(cmd *Command) {
	s.commands[strings.ToLower(cmd.Name)] = cmd
	for _, alias := range cmd.Aliases {
		s.commands[strings.ToLower(alias)] = cmd
	}
	for i, c := range s.ordered {
		if c.Name == cmd.Name {
			s.ordered[i] = cmd
			return
		}
	}
	s.ordered = append(s.ordered, cmd)
}

// Commands returns the registered commands in registration order.
func (s *Shell) Commands() []*Command {
	return append([]*Command(nil), s.ordered...)
}

// Exec runs one input line and reports whether the session should end.
// Blank lines and lines starting with # are ignored.
func (s *Shell) Exec(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return false
	}

	name, args, _ := strings.Cut(line, " ")
	cmd, ok := s.commands[strings.ToLower(name)]
	if !ok {
		s.printf("Unknown command: %s. Type help for available commands.\n", name)
		return false
	}
	return cmd.Handler(s, strings.TrimSpace(args))
}

// Run reads lines until quit, EOF, ctx is done, or an interrupt on an empty
// line.
func (s *Shell) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          Prompt,
		HistoryFile:     s.historyFile,
		AutoComplete:    s.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		Stdout:          s.out,
	})
	if err != nil {
		return fmt.Errorf("start line editor: %w", err)
	}
	defer rl.Close()

	stop := context.AfterFunc(ctx, func() { _ = rl.Close() })
	defer stop()

	s.printf("Type help for available commands.\n")
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read line: %w", err)
		}
		if s.Exec(line) {
			return nil
		}
	}
}

func (s *Shell) completer() *readline.PrefixCompleter {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]readline.PrefixCompleterInterface, 0, len(names))
	for _, name := range names {
		if name == "ls" || name == "list" {
			items = append(items, readline.PcItem(name,
				readline.PcItem(string(todo.FilterAll)),
				readline.PcItem(string(todo.FilterCompleted)),
				readline.PcItem(string(todo.FilterPending)),
			))
			continue
		}
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

// SplitTitle splits "title | description" at the first '|'. Both parts are
// trimmed.
func SplitTitle(text string) (title, description string) {
	title, description, _ = strings.Cut(text, "|")
	return strings.TrimSpace(title), strings.TrimSpace(description)
}

// FormatTask renders a task as one list line.
func FormatTask(t todo.Task) string {
	mark := "[ ]"
	if t.Completed {
		mark = "[x]"
	}
	line := fmt.Sprintf("%s %s  %s", mark, todo.ShortID(t.ID), t.Title)
	if t.Description != "" {
		line += "  - " + firstLine(t.Description)
	}
	return line
}

func firstLine(s string) string {
	first, _, more := strings.Cut(s, "\n")
	if more {
		return first + " ..."
	}
	return first
}
