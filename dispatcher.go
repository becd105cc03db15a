package difftrack

import (
	"github.com/veltrix-labs/difftrack/internal/logging"
)

// DefaultMaxReentrantDepth bounds how many nested Emit frames a re-entrant
// listener may open before the dispatcher aborts.
const DefaultMaxReentrantDepth = 10

type settings struct {
	maxReentrantDepth int
	log               *logging.Logger
}

// Option tunes dispatcher construction.
type Option func(*settings)

// WithMaxReentrantDepth overrides the re-entrant emit depth limit.
func WithMaxReentrantDepth(limit int) Option {
	return func(s *settings) {
		if limit > 0 {
			s.maxReentrantDepth = limit
		}
	}
}

// WithLogger routes dispatcher diagnostics to the given logger instead of
// the process-wide default.
func WithLogger(logger *logging.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.log = logger
		}
	}
}

// Dispatcher serializes edit emission and fans every admitted diff out to
// all attached listeners in registration order. It is the shared core of
// ListDispatcher and DictDispatcher.
//
// A listener invoked during delivery may itself call Emit. Such nested edits
// are enqueued and drained after the current delivery completes, so every
// listener observes every diff in the same global order. The dispatcher is
// not safe for concurrent use.
type Dispatcher[K comparable, V any] struct {
	listeners  []Listener[K, V]
	finalizers []func()

	queue          []Diff[K, V]
	depth          int
	maxDepth       int
	active         bool
	shouldFinalize bool
	log            *logging.Logger
}

func newDispatcher[K comparable, V any](opts []Option) Dispatcher[K, V] {
	cfg := settings{maxReentrantDepth: DefaultMaxReentrantDepth, log: logging.L()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return Dispatcher[K, V]{maxDepth: cfg.maxReentrantDepth, log: cfg.log}
}

// AddListener attaches a listener. Every listener must be attached before
// the first edit is emitted; attaching one later panics with
// ErrListenerAfterEmit. Listeners are never removed.
func (d *Dispatcher[K, V]) AddListener(l Listener[K, V]) {
	if d.active {
		d.log.Error("listener attached after first emit")
		panic(ErrListenerAfterEmit)
	}
	d.listeners = append(d.listeners, l)
	if finalizer, ok := l.(BatchFinalizer); ok {
		d.finalizers = append(d.finalizers, finalizer.FinalizeBatch)
	}
	d.log.Debug("listener attached", logging.Int("listeners", len(d.listeners)))
}

// Emit admits one diff and delivers it to every listener before the next
// diff is admitted. When called re-entrantly from a listener the diff is
// queued and the outermost frame delivers it, preserving the global order.
// Exceeding the re-entrant depth limit indicates a feedback loop and panics
// with ErrReentrantOverflow.
func (d *Dispatcher[K, V]) Emit(kind Kind, index K, payload V) {
	if d.depth >= d.maxDepth {
		d.log.Error("re-entrant emit depth exceeded", logging.Int("depth", d.depth))
		panic(ErrReentrantOverflow)
	}
	d.queue = append(d.queue, Diff[K, V]{Kind: kind, Index: index, Payload: payload})
	d.depth++
	if d.depth > 1 {
		d.log.Debug("re-entrant diff queued", logging.Int("depth", d.depth), logging.Int("queued", len(d.queue)))
		return
	}

	d.active = true
	d.shouldFinalize = true
	for len(d.queue) > 0 {
		next := d.queue[0]
		d.queue = d.queue[1:]
		for _, l := range d.listeners {
			l.OnDiff(next)
		}
	}
	d.depth = 0
}

// FinalizeBatch notifies every listener that advertises the BatchFinalizer
// capability, but only if at least one edit was admitted since the previous
// finalization.
func (d *Dispatcher[K, V]) FinalizeBatch() {
	if !d.shouldFinalize {
		return
	}
	for _, finalize := range d.finalizers {
		finalize()
	}
	d.shouldFinalize = false
}

// Batch runs fn as one edit scope and finalizes the batch on exit, even if
// fn panics. Finalization only fires if fn admitted at least one edit.
func (d *Dispatcher[K, V]) Batch(fn func()) {
	d.shouldFinalize = false
	defer d.FinalizeBatch()
	fn()
}

// ListDispatcher emits sequence diffs.
type ListDispatcher[V any] struct {
	Dispatcher[int, V]
}

// NewListDispatcher returns a dispatcher for an observable ordered sequence.
func NewListDispatcher[V any](opts ...Option) *ListDispatcher[V] {
	return &ListDispatcher[V]{Dispatcher: newDispatcher[int, V](opts)}
}

// Insert emits an Insert of value at the given position.
func (d *ListDispatcher[V]) Insert(index int, value V) {
	d.Emit(KindInsert, index, value)
}

// Assign emits a Replace overwriting the given position.
func (d *ListDispatcher[V]) Assign(index int, value V) {
	d.Emit(KindReplace, index, value)
}

// Erase emits a Delete removing the given position.
func (d *ListDispatcher[V]) Erase(index int) {
	var zero V
	d.Emit(KindDelete, index, zero)
}

// DictDispatcher emits mapping diffs.
type DictDispatcher[K comparable, V any] struct {
	Dispatcher[K, V]
}

// NewDictDispatcher returns a dispatcher for an observable mapping.
func NewDictDispatcher[K comparable, V any](opts ...Option) *DictDispatcher[K, V] {
	return &DictDispatcher[K, V]{Dispatcher: newDispatcher[K, V](opts)}
}

// Assign emits a Set binding key to value.
func (d *DictDispatcher[K, V]) Assign(key K, value V) {
	d.Emit(KindSet, key, value)
}

// Erase emits a Delete removing the given key.
func (d *DictDispatcher[K, V]) Erase(key K) {
	var zero V
	d.Emit(KindDelete, key, zero)
}
