package shell

import (
	"errors"
	"strings"

	"github.com/nibzard/todo-go/internal/todo"
)

func builtins() []*Command {
	return []*Command{
		{
			Name:        "add",
			Aliases:     []string{"a", "new"},
			Usage:       "add <title> [| description]",
			Description: "Create a pending task",
			Handler:     cmdAdd,
		},
		{
			Name:        "edit",
			Aliases:     []string{"e"},
			Usage:       "edit <id> <title> [| description]",
			Description: "Replace a task's title and description",
			Handler:     cmdEdit,
		},
		{
			Name:        "done",
			Aliases:     []string{"complete", "c"},
			Usage:       "done <id>",
			Description: "Mark a task as completed",
			Handler:     cmdDone,
		},
		{
			Name:        "rm",
			Aliases:     []string{"delete", "del", "d"},
			Usage:       "rm <id>",
			Description: "Delete a task",
			Handler:     cmdRemove,
		},
		{
			Name:        "ls",
			Aliases:     []string{"list", "l"},
			Usage:       "ls [all|completed|pending] [search]",
			Description: "List tasks, optionally filtered and searched by title",
			Handler:     cmdList,
		},
		{
			Name:        "help",
			Aliases:     []string{"?", "h"},
			Usage:       "help",
			Description: "Show this help message",
			Handler:     cmdHelp,
		},
		{
			Name:        "quit",
			Aliases:     []string{"exit", "q"},
			Usage:       "quit",
			Description: "Leave the shell",
			Handler: func(s *Shell, args string) bool {
				return true
			},
		},
	}
}

func cmdAdd(s *Shell, args string) bool {
	title, description := SplitTitle(args)
	task, ok := s.store.Create(title, description)
	if !ok {
		s.printf("Usage: add <title> [| description]\n")
		return false
	}
	s.printf("Created %s\n", FormatTask(task))
	return false
}

func cmdEdit(s *Shell, args string) bool {
	ref, rest, _ := strings.Cut(args, " ")
	if ref == "" {
		s.printf("Usage: edit <id> <title> [| description]\n")
		return false
	}
	id, ok := s.resolve(ref)
	if !ok {
		return false
	}
	title, description := SplitTitle(rest)
	task, changed, err := s.store.Update(id, title, description)
	if err != nil {
		s.printf("Error: %v\n", err)
		return false
	}
	if !changed {
		s.printf("Title must not be blank; nothing changed.\n")
		return false
	}
	s.printf("Updated %s\n", FormatTask(task))
	return false
}

func cmdDone(s *Shell, args string) bool {
	if args == "" {
		s.printf("Usage: done <id>\n")
		return false
	}
	id, ok := s.resolve(args)
	if !ok {
		return false
	}
	task, err := s.store.Complete(id)
	if err != nil {
		s.printf("Error: %v\n", err)
		return false
	}
	s.printf("Completed %s\n", FormatTask(task))
	return false
}

func cmdRemove(s *Shell, args string) bool {
	if args == "" {
		s.printf("Usage: rm <id>\n")
		return false
	}
	id, ok := s.resolve(args)
	if !ok {
		return false
	}
	if err := s.store.Delete(id); err != nil {
		s.printf("Error: %v\n", err)
		return false
	}
	s.printf("Deleted %s\n", todo.ShortID(id))
	return false
}

func cmdList(s *Shell, args string) bool {
	filter := todo.FilterAll
	query := args
	first, rest, _ := strings.Cut(args, " ")
	if f, err := todo.ParseFilter(first); err == nil && first != "" {
		filter = f
		query = strings.TrimSpace(rest)
	}

	tasks := s.store.List(filter, query)
	if len(tasks) == 0 {
		s.printf("No tasks. Add one with: add <title>\n")
		return false
	}
	for _, t := range tasks {
		s.printf("%s\n", FormatTask(t))
	}
	pending, completed := todo.CountByState(tasks)
	s.printf("%d shown: %d pending, %d completed\n", len(tasks), pending, completed)
	return false
}

func cmdHelp(s *Shell, args string) bool {
	s.printf("Available commands:\n")
	for _, cmd := range s.ordered {
		s.printf("  %-38s %s\n", cmd.Usage, cmd.Description)
	}
	s.printf("Ids can be shortened to a unique prefix of at least %d characters.\n", todo.MinPrefixLen)
	return false
}

// resolve maps a user-supplied id or prefix to a full id, printing why it
// could not.
func (s *Shell) resolve(ref string) (string, bool) {
	id, err := s.store.Resolve(ref)
	switch {
	case err == nil:
		return id, true
	case errors.Is(err, todo.ErrAmbiguous):
		s.printf("Ambiguous id %q; type more characters.\n", ref)
	default:
		s.printf("No task with id %q.\n", ref)
	}
	return "", false
}
