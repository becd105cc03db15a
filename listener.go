package difftrack

import (
	"fmt"
	"iter"
	"slices"
)

// Listener consumes diffs delivered by a dispatcher.
type Listener[K comparable, V any] interface {
	OnDiff(Diff[K, V])
}

// ListenerFunc adapts a plain function to the Listener interface.
type ListenerFunc[K comparable, V any] func(Diff[K, V])

// OnDiff invokes the function with the diff.
func (f ListenerFunc[K, V]) OnDiff(d Diff[K, V]) { f(d) }

// BatchFinalizer is the optional capability a listener advertises to receive
// end-of-batch notifications from the dispatcher.
type BatchFinalizer interface {
	FinalizeBatch()
}

// ListListener accumulates sequence diffs and materializes them into an
// ordered snapshot on demand. Diffs are buffered on receipt and applied only
// when TakePending or StreamPending consumes them, so Snapshot keeps
// reporting the state prior to any yet-unconsumed edits.
type ListListener[V any] struct {
	// OnChange, when set, fires synchronously for every received diff,
	// after the diff has been buffered.
	OnChange func(Diff[int, V])
	// OnFinalizeBatch, when set, fires when the dispatcher finalizes a batch.
	OnFinalizeBatch func()

	data    []V
	pending []Diff[int, V]
}

// NewListListener returns an empty sequence listener.
func NewListListener[V any]() *ListListener[V] {
	return &ListListener[V]{data: []V{}}
}

// OnDiff buffers the diff without touching the snapshot.
func (l *ListListener[V]) OnDiff(d Diff[int, V]) {
	l.pending = append(l.pending, d)
	if l.OnChange != nil {
		l.OnChange(d)
	}
}

// Snapshot returns the listener's applied view. The returned slice is the
// live backing store, not a copy; callers must not mutate it.
func (l *ListListener[V]) Snapshot() []V {
	return l.data
}

// HasChanged reports whether any diffs are buffered but not yet applied.
func (l *ListListener[V]) HasChanged() bool {
	return len(l.pending) > 0
}

// TakePending returns the buffered diffs and applies them to the snapshot,
// in order. This guarantees that the following two call sequences produce an
// equivalent result:
//
//  1. snapshot := l.Snapshot(); diffs := l.TakePending(); replay diffs over snapshot
//  2. l.TakePending() // discard the result
//     result := l.Snapshot()
//
// Once returned the diffs are forgotten.
func (l *ListListener[V]) TakePending() []Diff[int, V] {
	diffs := l.pending
	l.pending = nil
	for _, d := range diffs {
		l.apply(d)
	}
	return diffs
}

// StreamPending yields buffered diffs one at a time, applying each to the
// snapshot immediately before yielding it. Mid-iteration Snapshot reads
// therefore reflect the prefix consumed so far, and diffs received while the
// iteration is suspended are picked up by the same iterator.
func (l *ListListener[V]) StreamPending() iter.Seq[Diff[int, V]] {
	return func(yield func(Diff[int, V]) bool) {
		for len(l.pending) > 0 {
			d := l.pending[0]
			l.pending = l.pending[1:]
			l.apply(d)
			if !yield(d) {
				return
			}
		}
	}
}

// FinalizeBatch invokes the configured batch callback, if any.
func (l *ListListener[V]) FinalizeBatch() {
	if l.OnFinalizeBatch != nil {
		l.OnFinalizeBatch()
	}
}

func (l *ListListener[V]) apply(d Diff[int, V]) {
	switch d.Kind {
	case KindInsert:
		l.data = slices.Insert(l.data, d.Index, d.Payload)
	case KindReplace:
		l.data[d.Index] = d.Payload
	case KindDelete:
		l.data = slices.Delete(l.data, d.Index, d.Index+1)
	}
}

// DictListener accumulates mapping diffs and materializes them into a keyed
// snapshot on demand, with the same deferred-application contract as
// ListListener.
type DictListener[K comparable, V any] struct {
	// OnChange, when set, fires synchronously for every received diff,
	// after the diff has been buffered.
	OnChange func(Diff[K, V])
	// OnFinalizeBatch, when set, fires when the dispatcher finalizes a batch.
	OnFinalizeBatch func()

	data    map[K]V
	pending []Diff[K, V]
}

// NewDictListener returns an empty mapping listener.
func NewDictListener[K comparable, V any]() *DictListener[K, V] {
	return &DictListener[K, V]{data: make(map[K]V)}
}

// OnDiff buffers the diff without touching the snapshot.
func (l *DictListener[K, V]) OnDiff(d Diff[K, V]) {
	l.pending = append(l.pending, d)
	if l.OnChange != nil {
		l.OnChange(d)
	}
}

// Snapshot returns the listener's applied view. The returned map is the live
// backing store, not a copy; callers must not mutate it.
func (l *DictListener[K, V]) Snapshot() map[K]V {
	if l.data == nil {
		l.data = make(map[K]V)
	}
	return l.data
}

// HasChanged reports whether any diffs are buffered but not yet applied.
func (l *DictListener[K, V]) HasChanged() bool {
	return len(l.pending) > 0
}

// TakePending returns the buffered diffs and applies them to the snapshot in
// order. The buffer is cleared even on failure; the returned error reports
// the first Delete aimed at an absent key and leaves later diffs unapplied.
func (l *DictListener[K, V]) TakePending() ([]Diff[K, V], error) {
	diffs := l.pending
	l.pending = nil
	for _, d := range diffs {
		if err := l.apply(d); err != nil {
			return diffs, err
		}
	}
	return diffs, nil
}

// StreamPending yields buffered diffs one at a time, applying each to the
// snapshot immediately before yielding it. A Delete aimed at an absent key
// yields the offending diff together with the error and ends the iteration.
func (l *DictListener[K, V]) StreamPending() iter.Seq2[Diff[K, V], error] {
	return func(yield func(Diff[K, V], error) bool) {
		for len(l.pending) > 0 {
			d := l.pending[0]
			l.pending = l.pending[1:]
			err := l.apply(d)
			if !yield(d, err) || err != nil {
				return
			}
		}
	}
}

// FinalizeBatch invokes the configured batch callback, if any.
func (l *DictListener[K, V]) FinalizeBatch() {
	if l.OnFinalizeBatch != nil {
		l.OnFinalizeBatch()
	}
}

func (l *DictListener[K, V]) apply(d Diff[K, V]) error {
	if l.data == nil {
		l.data = make(map[K]V)
	}
	switch d.Kind {
	case KindSet:
		l.data[d.Index] = d.Payload
	case KindDelete:
		if _, ok := l.data[d.Index]; !ok {
			return fmt.Errorf("%w: %v", ErrKeyNotFound, d.Index)
		}
		delete(l.data, d.Index)
	}
	return nil
}
