package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/todo-go/internal/todo"
)

type theme struct {
	title    lipgloss.Style
	tab      lipgloss.Style
	tabOn    lipgloss.Style
	cursor   lipgloss.Style
	done     lipgloss.Style
	dim      lipgloss.Style
	status   lipgloss.Style
	modal    lipgloss.Style
	fieldOn  lipgloss.Style
	fieldOff lipgloss.Style
}

func newTheme(dark bool) theme {
	fg, accent, muted, ok := lipgloss.Color("252"), lipgloss.Color("212"), lipgloss.Color("243"), lipgloss.Color("42")
	if !dark {
		fg, accent, muted, ok = lipgloss.Color("235"), lipgloss.Color("125"), lipgloss.Color("246"), lipgloss.Color("28")
	}
	return theme{
		title:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		tab:      lipgloss.NewStyle().Foreground(muted),
		tabOn:    lipgloss.NewStyle().Bold(true).Underline(true).Foreground(fg),
		cursor:   lipgloss.NewStyle().Bold(true).Foreground(accent),
		done:     lipgloss.NewStyle().Strikethrough(true).Foreground(muted),
		dim:      lipgloss.NewStyle().Foreground(muted),
		status:   lipgloss.NewStyle().Foreground(ok),
		modal:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(0, 1),
		fieldOn:  lipgloss.NewStyle().Foreground(fg),
		fieldOff: lipgloss.NewStyle().Foreground(muted),
	}
}

var filterLabels = map[todo.Filter]string{
	todo.FilterAll:       "1 All",
	todo.FilterCompleted: "2 Completed",
	todo.FilterPending:   "3 Pending",
}

func (m *Model) View() string {
	th := newTheme(m.dark)
	var b strings.Builder

	b.WriteString(th.title.Render("Todo") + "\n\n")

	if m.mode == modeHelp {
		writeHelp(&b)
		b.WriteString(th.dim.Render("Press any key to go back") + "\n")
		return b.String()
	}

	writeTabs(&b, th, m.filter)
	m.writeSearch(&b, th)
	m.writeList(&b, th)

	if m.mode == modeEdit && m.editor != nil {
		b.WriteString("\n" + m.editorView(th) + "\n")
	}

	if m.status != "" {
		b.WriteString("\n" + th.status.Render(m.status) + "\n")
	}
	b.WriteString("\n" + th.dim.Render(m.footer()) + "\n")
	return b.String()
}

func writeTabs(b *strings.Builder, th theme, active todo.Filter) {
	tabs := make([]string, 0, len(todo.Filters))
	for _, f := range todo.Filters {
		style := th.tab
		if f == active {
			style = th.tabOn
		}
		tabs = append(tabs, style.Render(filterLabels[f]))
	}
	b.WriteString(strings.Join(tabs, "   ") + "\n\n")
}

func (m *Model) writeSearch(b *strings.Builder, th theme) {
	switch {
	case m.mode == modeSearch:
		b.WriteString("Search: " + string(m.query) + "_\n\n")
	case len(m.query) > 0:
		b.WriteString(th.dim.Render(fmt.Sprintf("Search: %s (esc to clear)", string(m.query))) + "\n\n")
	}
}

func (m *Model) writeList(b *strings.Builder, th theme) {
	if len(m.visible) == 0 {
		if m.store.Len() == 0 {
			b.WriteString(th.dim.Render("  No tasks yet. Press a to add one.") + "\n")
		} else {
			b.WriteString(th.dim.Render("  No matching tasks.") + "\n")
		}
		return
	}

	for i, t := range m.visible {
		pointer := "  "
		if i == m.cursor {
			pointer = th.cursor.Render("> ")
		}
		mark := "[ ]"
		title := t.Title
		if t.Completed {
			mark = "[x]"
			title = th.done.Render(title)
		}
		line := fmt.Sprintf("%s%s %s", pointer, mark, title)
		if i == m.cursor && t.Description != "" {
			line += "\n      " + th.dim.Render(truncate(t.Description, m.descWidth()))
		}
		b.WriteString(line + "\n")
	}

	pending, completed := todo.CountByState(m.visible)
	b.WriteString("\n" + th.dim.Render(fmt.Sprintf("%d pending, %d completed", pending, completed)) + "\n")
}

func (m *Model) editorView(th theme) string {
	ed := m.editor
	heading := "Add task"
	if ed.id != "" {
		heading = "Edit task"
	}

	labels := [2]string{"Title", "Description"}
	var b strings.Builder
	b.WriteString(th.title.Render(heading) + "\n\n")
	for i, label := range labels {
		style := th.fieldOff
		cursor := ""
		if i == ed.focus {
			style = th.fieldOn
			cursor = "_"
		}
		b.WriteString(style.Render(fmt.Sprintf("%-12s %s%s", label+":", string(ed.fields[i]), cursor)) + "\n")
	}
	b.WriteString("\n" + th.dim.Render("tab switch field, enter save, esc cancel"))
	return th.modal.Render(b.String())
}

// footer lists the keys that do something right now. Complete is offered
// only for a pending selection.
func (m *Model) footer() string {
	switch m.mode {
	case modeSearch:
		return "type to search titles, enter keep, esc clear"
	case modeEdit:
		return "tab switch field, enter save, esc cancel"
	}

	keys := []string{"a add"}
	if t, ok := m.selected(); ok {
		keys = append(keys, "e edit")
		if !t.Completed {
			keys = append(keys, "c complete")
		}
		keys = append(keys, "d delete")
	}
	keys = append(keys, "/ search", "1-3 filter", "t theme", "? help", "q quit")
	return strings.Join(keys, " | ")
}

func (m *Model) descWidth() int {
	if m.width <= 10 {
		return 60
	}
	return m.width - 8
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  up/k, down/j   Move selection\n")
	b.WriteString("  a              Add a task\n")
	b.WriteString("  e, enter       Edit the selected task\n")
	b.WriteString("  c, x           Complete the selected task\n")
	b.WriteString("  d, delete      Delete the selected task\n")
	b.WriteString("  /              Search titles\n")
	b.WriteString("  1              Show all tasks\n")
	b.WriteString("  2              Show completed tasks\n")
	b.WriteString("  3              Show pending tasks\n")
	b.WriteString("  t              Toggle light/dark theme\n")
	b.WriteString("  ?, h           Toggle this help screen\n")
	b.WriteString("  q, ctrl+c      Quit\n\n")
}
