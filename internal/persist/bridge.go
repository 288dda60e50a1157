package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/todo-go/internal/kv"
	"github.com/nibzard/todo-go/internal/logging"
	"github.com/nibzard/todo-go/internal/metrics"
	"github.com/nibzard/todo-go/internal/todo"
)

// DefaultKey is the key the collection is stored under.
const DefaultKey = "tasks"

var (
	// ErrNotReady is returned by Persist before Hydrate has run.
	ErrNotReady = errors.New("persistence not ready: hydrate has not run")
	// ErrClosed is returned by Persist after Close.
	ErrClosed = errors.New("persistence closed")
)

// State is the lifecycle state of a Bridge.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithKey sets the storage key.
func WithKey(key string) Option {
	return func(b *Bridge) {
		if key != "" {
			b.key = key
		}
	}
}

// WithCodec sets the stored format. The default is JSONCodec.
func WithCodec(c Codec) Option {
	return func(b *Bridge) {
		if c != nil {
			b.codec = c
		}
	}
}

// WithLogger sets the logger for write and load failures.
func WithLogger(logger *log.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics sets the collectors updated by the writer.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bridge) {
		b.metrics = m
	}
}

// Bridge keeps a kv.Store in sync with the task collection. Snapshots handed
// to Persist are written by a single background writer in the order they
// were handed over. When the writer falls behind, only the newest pending
// snapshot is kept.
type Bridge struct {
	store   kv.Store
	key     string
	codec   Codec
	logger  *log.Logger
	metrics *metrics.Metrics

	mu        sync.Mutex
	state     State
	hydrating bool
	pending   []byte
	pendingN  int
	queued    bool
	enqueued  uint64 // sequence of the newest snapshot handed to Persist
	written   uint64 // sequence of the newest snapshot the writer finished
	progress  chan struct{}

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
}

// NewBridge creates a bridge over store. Call Hydrate before Persist.
func NewBridge(store kv.Store, opts ...Option) *Bridge {
	b := &Bridge{
		store:    store,
		key:      DefaultKey,
		codec:    JSONCodec{},
		logger:   logging.Discard(),
		progress: make(chan struct{}),
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Key returns the storage key.
func (b *Bridge) Key() string { return b.key }

// Codec returns the stored format.
func (b *Bridge) Codec() Codec { return b.codec }

// State returns the current lifecycle state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Hydrate reads the stored collection and moves the bridge to ready. It never
// fails: a missing, empty, unreadable or invalid value yields an empty
// collection, and anything other than a missing or empty value is logged.
// Only the first call loads; later calls return nil.
func (b *Bridge) Hydrate(ctx context.Context) []todo.Task {
	b.mu.Lock()
	if b.state != StateUninitialized || b.hydrating {
		b.mu.Unlock()
		b.logger.Warn("hydrate called more than once; ignoring", "key", b.key)
		return nil
	}
	b.hydrating = true
	b.mu.Unlock()

	tasks, outcome := b.load(ctx)
	b.metrics.Hydrated(outcome, len(tasks))

	b.mu.Lock()
	b.hydrating = false
	if b.state == StateUninitialized {
		b.state = StateReady
		go b.run()
	}
	b.mu.Unlock()

	b.logger.Debug("hydrated tasks", "key", b.key, "tasks", len(tasks), "outcome", outcome)
	return tasks
}

func (b *Bridge) load(ctx context.Context) ([]todo.Task, string) {
	data, err := b.store.Get(ctx, b.key)
	if errors.Is(err, kv.ErrNotFound) {
		return []todo.Task{}, metrics.HydrateEmpty
	}
	if err != nil {
		b.logger.Error("read stored tasks failed; starting empty", "key", b.key, "err", err)
		return []todo.Task{}, metrics.HydrateFallback
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []todo.Task{}, metrics.HydrateEmpty
	}

	tasks, err := Decode(b.codec, data)
	if err != nil {
		b.logger.Error("stored tasks are invalid; starting empty",
			"key", b.key, "codec", b.codec.Name(), "bytes", len(data), "err", err)
		return []todo.Task{}, metrics.HydrateFallback
	}
	return tasks, metrics.HydrateLoaded
}

// Persist hands a snapshot of the full collection to the writer and returns
// without waiting for storage. It implements todo.Persister.
func (b *Bridge) Persist(tasks []todo.Task) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateUninitialized:
		return ErrNotReady
	case StateClosed:
		return ErrClosed
	}

	data, err := b.codec.Encode(tasks)
	if err != nil {
		b.logger.Error("encode tasks failed", "key", b.key, "tasks", len(tasks), "err", err)
		return err
	}

	if b.queued {
		b.metrics.Coalesced()
	}
	b.pending = data
	b.pendingN = len(tasks)
	b.queued = true
	b.enqueued++

	select {
	case b.wake <- struct{}{}:
	default:
	}
	return nil
}

// Flush waits until every snapshot handed to Persist before the call has
// been written or has failed, or until ctx is done.
func (b *Bridge) Flush(ctx context.Context) error {
	b.mu.Lock()
	target := b.enqueued
	b.mu.Unlock()

	for {
		b.mu.Lock()
		if b.written >= target {
			b.mu.Unlock()
			return nil
		}
		ch := b.progress
		b.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close rejects further snapshots, waits for pending writes and stops the
// writer. It does not close the underlying store. Closing twice is a no-op.
func (b *Bridge) Close(ctx context.Context) error {
	b.mu.Lock()
	prev := b.state
	b.state = StateClosed
	b.mu.Unlock()

	if prev == StateClosed {
		return nil
	}
	if prev == StateUninitialized {
		// The writer starts in Hydrate; if Hydrate is in flight it sees the
		// closed state and never starts it.
		return nil
	}

	err := b.Flush(ctx)
	close(b.quit)
	select {
	case <-b.done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

func (b *Bridge) run() {
	defer close(b.done)
	for {
		select {
		case <-b.wake:
		case <-b.quit:
			b.drain()
			return
		}
		b.drain()
	}
}

// drain writes the pending snapshot, if any.
func (b *Bridge) drain() {
	b.mu.Lock()
	if !b.queued {
		b.mu.Unlock()
		return
	}
	data, n, seq := b.pending, b.pendingN, b.enqueued
	b.pending = nil
	b.queued = false
	b.mu.Unlock()

	b.write(data, n)

	b.mu.Lock()
	b.written = seq
	close(b.progress)
	b.progress = make(chan struct{})
	b.mu.Unlock()
}

func (b *Bridge) write(data []byte, n int) {
	start := time.Now()
	err := b.store.Set(context.Background(), b.key, data)
	elapsed := time.Since(start)
	if err != nil {
		b.metrics.WriteFailed(elapsed)
		b.logger.Error("persist tasks failed", "key", b.key, "tasks", n, "err", err)
		return
	}
	b.metrics.WriteOK(n, elapsed)
	b.logger.Debug("persisted tasks", "key", b.key, "tasks", n, "bytes", len(data), "took", elapsed)
}
