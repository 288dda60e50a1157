// Package ui provides the interactive terminal to-do screen.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/nibzard/todo-go/internal/todo"
)

// TUIOption configures the TUI behavior.
type TUIOption func(*Model)

// WithDarkTheme selects the initial theme.
func WithDarkTheme(dark bool) TUIOption {
	return func(m *Model) {
		m.dark = dark
	}
}

// hasDarkBackground asks the terminal for its background colour.
var hasDarkBackground = lipgloss.HasDarkBackground

// WithTerminalTheme picks the theme matching the terminal background.
func WithTerminalTheme() TUIOption {
	return func(m *Model) {
		m.dark = hasDarkBackground()
	}
}

// WithFilter selects the initial filter.
func WithFilter(f todo.Filter) TUIOption {
	return func(m *Model) {
		m.filter = f
	}
}

// RunTUI shows the to-do screen for store until the user quits or ctx is
// done.
func RunTUI(ctx context.Context, store *todo.Store, opts ...TUIOption) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}
	opts = append([]TUIOption{WithTerminalTheme()}, opts...)
	program := tea.NewProgram(NewModel(store, opts...), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

// mode is what the keyboard is currently driving.
type mode int

const (
	modeList mode = iota
	modeSearch
	modeEdit
	modeHelp
)

// Model is the bubbletea model of the to-do screen.
type Model struct {
	store   *todo.Store
	filter  todo.Filter
	query   []rune
	mode    mode
	cursor  int
	visible []todo.Task
	editor  *editor
	dark    bool
	status  string
	width   int
}

// editor is the add/edit modal. An empty id means a new task.
type editor struct {
	id     string
	fields [2][]rune
	focus  int
}

const (
	fieldTitle = iota
	fieldDescription
)

// NewModel creates the screen model over store.
func NewModel(store *todo.Store, opts ...TUIOption) *Model {
	m := &Model{
		store:  store,
		filter: todo.FilterAll,
		dark:   true,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.refresh()
	return m
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeEdit:
			return m.updateEditor(msg)
		case modeHelp:
			m.mode = modeList
			return m, nil
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		if len(m.query) > 0 {
			m.query = nil
			m.refresh()
		}
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = max(len(m.visible)-1, 0)
	case "1":
		m.setFilter(todo.FilterAll)
	case "2":
		m.setFilter(todo.FilterCompleted)
	case "3":
		m.setFilter(todo.FilterPending)
	case "/":
		m.mode = modeSearch
	case "a":
		m.editor = &editor{}
		m.mode = modeEdit
	case "e", "enter":
		if t, ok := m.selected(); ok {
			m.editor = &editor{id: t.ID, fields: [2][]rune{[]rune(t.Title), []rune(t.Description)}}
			m.mode = modeEdit
		}
	case "c", "x":
		if t, ok := m.selected(); ok && !t.Completed {
			if _, err := m.store.Complete(t.ID); err != nil {
				m.status = err.Error()
			} else {
				m.status = "Completed: " + t.Title
			}
			m.afterMutation()
		}
	case "d", "delete":
		if t, ok := m.selected(); ok {
			if err := m.store.Delete(t.ID); err != nil {
				m.status = err.Error()
			} else {
				m.status = "Deleted: " + t.Title
			}
			m.afterMutation()
		}
	case "t":
		m.dark = !m.dark
	case "?", "h":
		m.mode = modeHelp
	}
	return m, nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.mode = modeList
	case tea.KeyEsc:
		m.query = nil
		m.mode = modeList
		m.refresh()
	default:
		if editRunes(&m.query, msg) {
			m.cursor = 0
			m.refresh()
		}
	}
	return m, nil
}

func (m *Model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ed := m.editor
	switch msg.Type {
	case tea.KeyEsc:
		m.closeEditor()
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		ed.focus = 1 - ed.focus
	case tea.KeyEnter:
		m.save()
	default:
		editRunes(&ed.fields[ed.focus], msg)
	}
	return m, nil
}

// save applies the editor. A blank title leaves the editor open.
func (m *Model) save() {
	ed := m.editor
	title := string(ed.fields[fieldTitle])
	description := string(ed.fields[fieldDescription])

	if ed.id == "" {
		t, ok := m.store.Create(title, description)
		if !ok {
			m.status = "Title must not be blank"
			return
		}
		m.status = "Added: " + t.Title
	} else {
		t, ok, err := m.store.Update(ed.id, title, description)
		switch {
		case err != nil:
			m.status = err.Error()
		case !ok:
			m.status = "Title must not be blank"
			return
		default:
			m.status = "Saved: " + t.Title
		}
	}
	m.closeEditor()
	m.afterMutation()
	if ed.id == "" {
		m.cursor = max(len(m.visible)-1, 0)
	}
}

func (m *Model) closeEditor() {
	m.editor = nil
	m.mode = modeList
}

// editRunes applies a text-editing key to buf and reports whether buf changed.
func editRunes(buf *[]rune, msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyRunes:
		*buf = append(*buf, msg.Runes...)
		return true
	case tea.KeySpace:
		*buf = append(*buf, ' ')
		return true
	case tea.KeyBackspace:
		if len(*buf) == 0 {
			return false
		}
		*buf = (*buf)[:len(*buf)-1]
		return true
	case tea.KeyCtrlU:
		if len(*buf) == 0 {
			return false
		}
		*buf = nil
		return true
	}
	return false
}

func (m *Model) setFilter(f todo.Filter) {
	m.filter = f
	m.cursor = 0
	m.refresh()
}

func (m *Model) afterMutation() {
	if err := m.store.PersistErr(); err != nil {
		m.status = "Not saved: " + err.Error()
	}
	m.refresh()
}

// refresh recomputes the visible tasks and keeps the cursor in range.
func (m *Model) refresh() {
	m.visible = m.store.List(m.filter, string(m.query))
	if m.cursor >= len(m.visible) {
		m.cursor = max(len(m.visible)-1, 0)
	}
}

func (m *Model) selected() (todo.Task, bool) {
	if len(m.visible) == 0 {
		return todo.Task{}, false
	}
	return m.visible[m.cursor], true
}

// Visible returns the tasks currently listed.
func (m *Model) Visible() []todo.Task {
	return append([]todo.Task(nil), m.visible...)
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
