package todo

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Persister receives a full snapshot of the collection after each mutation.
// Implementations must not block on storage.
type Persister interface {
	Persist(tasks []Task) error
}

// Option configures a Store.
type Option func(*Store)

// WithTasks seeds the store with an existing collection, such as one read
// back at startup. The slice is copied.
func WithTasks(tasks []Task) Option {
	return func(s *Store) {
		s.tasks = append(make([]Task, 0, len(tasks)), tasks...)
	}
}

// WithPersister sets the persister notified after every mutation.
func WithPersister(p Persister) Option {
	return func(s *Store) {
		s.persister = p
	}
}

// WithIDGenerator overrides the id source. The default is uuid.NewString.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// Store owns the task collection. It is safe for concurrent use; mutations
// are applied one at a time.
type Store struct {
	mu        sync.RWMutex
	tasks     []Task
	persister Persister
	newID     func() string
	// persistErr holds the last error returned by the persister, for callers
	// that want to surface it.
	persistErr error
}

// NewStore creates a store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		tasks: make([]Task, 0),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create appends a new pending task. A title that is blank after trimming is
// rejected: the collection is left unchanged and ok is false.
func (s *Store) Create(title, description string) (Task, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Task{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task := Task{
		ID:          s.uniqueIDLocked(),
		Title:       title,
		Description: description,
	}
	s.tasks = append(s.tasks, task)
	s.persistLocked()
	return task, true
}

// Update replaces the title and description of a task, keeping its id and
// completion state. A blank title is a no-op (ok is false, err is nil) and
// is checked before the id is looked up.
func (s *Store) Update(id, title, description string) (Task, bool, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Task{}, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return Task{}, false, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.tasks[i].Title = title
	s.tasks[i].Description = description
	s.persistLocked()
	return s.tasks[i], true, nil
}

// Complete marks a task as completed. Completing an already completed task
// succeeds without changing anything.
func (s *Store) Complete(id string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if s.tasks[i].Completed {
		return s.tasks[i], nil
	}
	s.tasks[i].Completed = true
	s.persistLocked()
	return s.tasks[i], nil
}

// Delete removes a task, keeping the relative order of the others.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	s.persistLocked()
	return nil
}

// List returns the tasks that pass the filter and whose title contains query
// (case-insensitive), in insertion order. The description is not searched.
// The result is a fresh slice and never nil.
func (s *Store) List(filter Filter, query string) []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !filter.Keep(t) {
			continue
		}
		if !MatchTitle(t, query) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Get returns a task by id.
func (s *Store) Get(id string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.tasks[i], nil
}

// Resolve maps an exact id or a unique id prefix (at least MinPrefixLen
// characters) to a full id.
func (s *Store) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.indexLocked(ref) >= 0 {
		return ref, nil
	}
	if len(ref) < MinPrefixLen {
		return "", fmt.Errorf("%w: %s", ErrNotFound, ref)
	}

	var matches []string
	for _, t := range s.tasks {
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %s matches %d tasks", ErrAmbiguous, ref, len(matches))
	}
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Snapshot returns a copy of the whole collection.
func (s *Store) Snapshot() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// PersistErr returns the error from the most recent persist call, if any.
func (s *Store) PersistErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persistErr
}

func (s *Store) snapshotLocked() []Task {
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *Store) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) uniqueIDLocked() string {
	for {
		id := s.newID()
		if id != "" && s.indexLocked(id) < 0 {
			return id
		}
	}
}

// persistLocked must be called with s.mu held so snapshots reach the
// persister in mutation order.
func (s *Store) persistLocked() {
	if s.persister == nil {
		return
	}
	s.persistErr = s.persister.Persist(s.snapshotLocked())
}
