// Package cmd implements the CLI command structure for todo.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nibzard/todo-go/internal/app"
	"github.com/nibzard/todo-go/internal/config"
	"github.com/nibzard/todo-go/internal/export"
	"github.com/nibzard/todo-go/internal/logging"
	"github.com/nibzard/todo-go/internal/persist"
	"github.com/nibzard/todo-go/internal/shell"
	"github.com/nibzard/todo-go/internal/todo"
	"github.com/nibzard/todo-go/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// closeTimeout bounds how long a command waits for pending writes on exit.
const closeTimeout = 10 * time.Second

// historyFile is the shell history file under the data directory.
const historyFile = "history"

// stdout is where command output goes.
var stdout io.Writer = os.Stdout

// Run executes the todo CLI.
func Run(ctx context.Context, args []string) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("todo", flag.ContinueOnError)
	fs.Usage = func() {
		printUsage(fs, os.Stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := cws.Config
	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	// With no subcommand, list the tasks
	subcommand := "ls"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	switch subcommand {
	case "add":
		return addCommand(ctx, cfg, remainingArgs)
	case "edit":
		return editCommand(ctx, cfg, remainingArgs)
	case "done", "complete":
		return doneCommand(ctx, cfg, remainingArgs)
	case "rm", "delete":
		return rmCommand(ctx, cfg, remainingArgs)
	case "ls", "list":
		return lsCommand(ctx, cfg, remainingArgs)
	case "export":
		return exportCommand(ctx, cfg, remainingArgs)
	case "tui":
		return tuiCommand(ctx, cfg, remainingArgs)
	case "shell":
		return shellCommand(ctx, cfg, remainingArgs)
	case "config":
		return configCommand(cws, remainingArgs)
	case "log":
		return logCommand(ctx, cfg, remainingArgs)
	case "version":
		return versionCommand()
	case "help":
		printUsage(fs, stdout)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, os.Stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// withApp opens the configured store, runs fn and closes the store, waiting
// for pending writes even when ctx is already cancelled.
func withApp(ctx context.Context, cfg *config.Config, fn func(a *app.App) error, opts ...app.Option) (err error) {
	a, err := app.Open(ctx, cfg, opts...)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if cerr := a.Close(closeCtx); cerr != nil && err == nil {
			err = fmt.Errorf("closing store: %w", cerr)
		}
	}()
	return fn(a)
}

// addCommand creates a task from its title words.
func addCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("todo add", flag.ContinueOnError)
	description := fs.String("d", "", "Task description")

	words, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	title := strings.Join(words, " ")
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("usage: todo add <title> [-d description]")
	}

	return withApp(ctx, cfg, func(a *app.App) error {
		task, ok := a.Store().Create(title, *description)
		if !ok {
			return fmt.Errorf("title must not be blank")
		}
		fmt.Fprintf(stdout, "Created %s\n", shell.FormatTask(task))
		return nil
	})
}

// editCommand replaces a task's title. The description is kept unless -d is
// given.
func editCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("todo edit", flag.ContinueOnError)
	description := fs.String("d", "", "New task description")

	words, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(words) < 2 {
		return fmt.Errorf("usage: todo edit <id> <title> [-d description]")
	}
	setDescription := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "d" {
			setDescription = true
		}
	})

	return withApp(ctx, cfg, func(a *app.App) error {
		store := a.Store()
		id, err := store.Resolve(words[0])
		if err != nil {
			return err
		}
		desc := *description
		if !setDescription {
			current, err := store.Get(id)
			if err != nil {
				return err
			}
			desc = current.Description
		}
		task, ok, err := store.Update(id, strings.Join(words[1:], " "), desc)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("title must not be blank")
		}
		fmt.Fprintf(stdout, "Updated %s\n", shell.FormatTask(task))
		return nil
	})
}

// doneCommand marks each named task as completed.
func doneCommand(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: todo done <id>...")
	}
	return withApp(ctx, cfg, func(a *app.App) error {
		for _, ref := range args {
			id, err := a.Store().Resolve(ref)
			if err != nil {
				return err
			}
			task, err := a.Store().Complete(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Completed %s\n", shell.FormatTask(task))
		}
		return nil
	})
}

// rmCommand deletes each named task.
func rmCommand(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: todo rm <id>...")
	}
	return withApp(ctx, cfg, func(a *app.App) error {
		for _, ref := range args {
			id, err := a.Store().Resolve(ref)
			if err != nil {
				return err
			}
			if err := a.Store().Delete(id); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Deleted %s\n", todo.ShortID(id))
		}
		return nil
	})
}

// lsCommand lists tasks, optionally filtered by state and title.
func lsCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("todo ls", flag.ContinueOnError)
	filterName := fs.String("filter", "", "Filter by state (all|completed|pending)")
	query := fs.String("q", "", "Only tasks whose title contains this text")
	asJSON := fs.Bool("json", false, "Print the tasks as JSON")
	verbose := fs.Bool("v", false, "Show full ids and descriptions")

	remaining, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(remaining) > 1 {
		return fmt.Errorf("unexpected arguments: %v", remaining[1:])
	}
	if len(remaining) == 1 && *filterName == "" {
		*filterName = remaining[0]
	}
	filter, err := todo.ParseFilter(*filterName)
	if err != nil {
		return err
	}

	return withApp(ctx, cfg, func(a *app.App) error {
		tasks := a.Store().List(filter, *query)
		if *asJSON {
			data, err := persist.JSONCodec{}.Encode(tasks)
			if err != nil {
				return err
			}
			_, err = stdout.Write(data)
			return err
		}
		printTaskList(tasks, *verbose)
		return nil
	})
}

// exportCommand writes a projection of the collection to a file or stdout.
func exportCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("todo export", flag.ContinueOnError)
	format := fs.String("format", "json", "Output format ("+strings.Join(export.Formats, "|")+")")
	output := fs.String("o", "", "Output file (default stdout)")
	filterName := fs.String("filter", "", "Filter by state (all|completed|pending)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	filter, err := todo.ParseFilter(*filterName)
	if err != nil {
		return err
	}
	if *format == "pdf" && *output == "" && ui.IsTTY(stdout) {
		return fmt.Errorf("refusing to write PDF to a terminal; use -o <file>")
	}

	return withApp(ctx, cfg, func(a *app.App) error {
		tasks := a.Store().List(filter, "")
		data, err := export.Export(tasks, *format)
		if err != nil {
			return err
		}
		if *output == "" {
			_, err = stdout.Write(data)
			return err
		}
		if err := os.WriteFile(*output, data, 0o644); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		fmt.Fprintf(stdout, "Exported %d tasks to %s\n", len(tasks), *output)
		return nil
	})
}

// tuiCommand launches the to-do screen. Logs go to the log file while it runs.
func tuiCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("todo tui", flag.ContinueOnError)
	light := fs.Bool("light", false, "Start with the light theme instead of the terminal's")
	dark := fs.Bool("dark", false, "Start with the dark theme instead of the terminal's")
	filterName := fs.String("filter", "", "Initial filter (all|completed|pending)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	filter, err := todo.ParseFilter(*filterName)
	if err != nil {
		return err
	}
	if *light && *dark {
		return fmt.Errorf("-light and -dark are mutually exclusive")
	}
	opts := []ui.TUIOption{ui.WithFilter(filter)}
	switch {
	case *light:
		opts = append(opts, ui.WithDarkTheme(false))
	case *dark:
		opts = append(opts, ui.WithDarkTheme(true))
	}
	if !ui.IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	logFile, err := logging.OpenFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer logFile.Close()

	return withApp(ctx, cfg, func(a *app.App) error {
		return ui.RunTUI(ctx, a.Store(), opts...)
	}, app.WithLogOutput(logFile))
}

// shellCommand starts the interactive shell.
func shellCommand(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	return withApp(ctx, cfg, func(a *app.App) error {
		var opts []shell.Option
		if cfg.DataDir != "" {
			if err := os.MkdirAll(cfg.DataDir, 0o755); err == nil {
				opts = append(opts, shell.WithHistoryFile(filepath.Join(cfg.DataDir, historyFile)))
			}
		}
		return shell.New(a.Store(), stdout, opts...).Run(ctx)
	})
}

// configCommand prints the effective configuration and where each value
// came from.
func configCommand(cws *config.ConfigWithSources, args []string) error {
	fs := flag.NewFlagSet("todo config", flag.ContinueOnError)
	example := fs.Bool("example", false, "Print an example config file")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *example {
		fmt.Fprint(stdout, config.ExampleConfig())
		return nil
	}

	if len(cws.Files) == 0 {
		fmt.Fprintln(stdout, "Config files: (none)")
	} else {
		fmt.Fprintf(stdout, "Config files: %s\n", strings.Join(cws.Files, ", "))
	}
	fmt.Fprintln(stdout)

	values := cws.Config.Values()
	for _, field := range config.Fields() {
		value := values[field]
		if value == "" {
			value = "(empty)"
		}
		fmt.Fprintf(stdout, "  %-15s %-40s [%s]\n", field, value, cws.Sources[field])
	}
	return nil
}

// logCommand prints the log file.
func logCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("todo log", flag.ContinueOnError)
	follow := fs.Bool("f", false, "Follow the log (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the log (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	path := cfg.LogFile()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(stdout, "No log file at %s.\n", path)
		return nil
	}
	if *follow {
		fmt.Fprintln(stdout, "(Ctrl+C to stop)")
	}

	err := logging.TailLog(ctx, stdout, path, *n, *follow)
	if *follow && errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// versionCommand prints version information.
func versionCommand() error {
	fmt.Fprintf(stdout, "todo version %s\n", Version)
	return nil
}

// parseInterspersed parses flags that may appear between positional
// arguments and returns the positional arguments. Everything after "--" is
// positional.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		consumed := len(args) - len(rest)
		if consumed > 0 && args[consumed-1] == "--" {
			return append(positional, rest...), nil
		}
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

// printTaskList prints tasks followed by a count line.
func printTaskList(tasks []todo.Task, verbose bool) {
	if len(tasks) == 0 {
		fmt.Fprintln(stdout, "No tasks found.")
		return
	}
	for _, t := range tasks {
		if !verbose {
			fmt.Fprintln(stdout, shell.FormatTask(t))
			continue
		}
		mark := "[ ]"
		if t.Completed {
			mark = "[x]"
		}
		fmt.Fprintf(stdout, "%s %s  %s\n", mark, t.ID, t.Title)
		if t.Description != "" {
			for _, line := range strings.Split(t.Description, "\n") {
				fmt.Fprintf(stdout, "      %s\n", line)
			}
		}
	}
	pending, completed := todo.CountByState(tasks)
	fmt.Fprintf(stdout, "\n%d pending, %d completed\n", pending, completed)
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Todo - a small task list backed by a key-value store")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  todo [global options] [command] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  add <title> [-d desc]        Create a pending task")
	fmt.Fprintln(w, "  edit <id> <title> [-d desc]  Change a task's title (and description)")
	fmt.Fprintln(w, "  done <id>...                 Mark tasks as completed")
	fmt.Fprintln(w, "  rm <id>...                   Delete tasks")
	fmt.Fprintln(w, "  ls [filter]                  List tasks (default command)")
	fmt.Fprintln(w, "  export [-format f] [-o file] Write the tasks as "+strings.Join(export.Formats, ", "))
	fmt.Fprintln(w, "  tui                          Launch the terminal UI")
	fmt.Fprintln(w, "  shell                        Start the interactive shell")
	fmt.Fprintln(w, "  config [-example]            Show the effective configuration")
	fmt.Fprintln(w, "  log [-f] [-n N]              Print the log file")
	fmt.Fprintln(w, "  version                      Show version information")
	fmt.Fprintln(w, "  help                         Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Ids may be shortened to a unique prefix of at least %d characters.\n", todo.MinPrefixLen)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	for _, field := range config.Fields() {
		if name := config.EnvVar(field); name != "" {
			fmt.Fprintf(w, "  %-22s %s\n", name, field)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ls Options (use with 'ls' command):")
	fmt.Fprintln(w, "  -filter string")
	fmt.Fprintln(w, "        Filter by state (all|completed|pending)")
	fmt.Fprintln(w, "  -q string")
	fmt.Fprintln(w, "        Only tasks whose title contains this text")
	fmt.Fprintln(w, "  -json Print the tasks as JSON")
	fmt.Fprintln(w, "  -v    Show full ids and descriptions")
}
