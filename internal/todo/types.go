// Package todo holds the task collection and every operation on it.
package todo

import (
	"errors"
	"fmt"
	"strings"
)

// MinPrefixLen is the shortest id prefix Resolve will match.
const MinPrefixLen = 6

var (
	// ErrNotFound reports an id that is not in the collection.
	ErrNotFound = errors.New("task not found")
	// ErrAmbiguous reports an id prefix that matches more than one task.
	ErrAmbiguous = errors.New("ambiguous task id")
)

// Task represents a single to-do item.
type Task struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Completed   bool   `json:"completed" yaml:"completed"`
}

// IsZero returns true if the task is empty (has no ID).
func (t *Task) IsZero() bool {
	return t.ID == ""
}

// Filter selects tasks by completion state.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterCompleted Filter = "completed"
	FilterPending   Filter = "pending"
)

// Filters lists every valid filter in display order.
var Filters = []Filter{FilterAll, FilterCompleted, FilterPending}

// ParseFilter parses a filter name case-insensitively. An empty string is FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "completed", "done":
		return FilterCompleted, nil
	case "pending", "todo":
		return FilterPending, nil
	default:
		return "", fmt.Errorf("invalid filter %q, must be one of: all, completed, pending", s)
	}
}

// Keep reports whether a task passes the filter.
func (f Filter) Keep(t Task) bool {
	switch f {
	case FilterCompleted:
		return t.Completed
	case FilterPending:
		return !t.Completed
	default:
		return true
	}
}

// MatchTitle reports whether the title contains query, ignoring case.
// A blank query matches everything. A non-blank query is matched as typed,
// surrounding spaces included.
func MatchTitle(t Task, query string) bool {
	if strings.TrimSpace(query) == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), strings.ToLower(query))
}

// ValidateTasks checks the collection invariants: non-empty unique ids and
// non-blank titles. It returns the first violation found.
func ValidateTasks(tasks []Task) error {
	seen := make(map[string]int, len(tasks))
	for i, t := range tasks {
		if t.ID == "" {
			return fmt.Errorf("tasks[%d].id: missing required field", i)
		}
		if strings.TrimSpace(t.Title) == "" {
			return fmt.Errorf("tasks[%d].title: must not be blank", i)
		}
		if j, ok := seen[t.ID]; ok {
			return fmt.Errorf("tasks[%d].id: duplicate of tasks[%d] (%s)", i, j, t.ID)
		}
		seen[t.ID] = i
	}
	return nil
}

// CountByState returns the number of pending and completed tasks.
func CountByState(tasks []Task) (pending, completed int) {
	for _, t := range tasks {
		if t.Completed {
			completed++
		} else {
			pending++
		}
	}
	return pending, completed
}

// ShortIDLen is the id length shown in lists.
const ShortIDLen = 8

// ShortID returns the leading ShortIDLen characters of id, which Resolve
// accepts while they stay unique.
func ShortID(id string) string {
	if len(id) <= ShortIDLen {
		return id
	}
	return id[:ShortIDLen]
}
