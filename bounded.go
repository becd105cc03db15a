package difftrack

import "slices"

// BoundedPrefix proxies sequence diffs to an inner listener while ensuring
// its materialized length never exceeds maxSize. It keeps a private shadow
// copy of the entire sequence and forwards only the diffs that touch the
// visible window, synthesizing a trimming Delete when an Insert would
// overflow the window and a re-exposing Insert when a Delete shrinks it
// while the shadow still holds enough elements.
type BoundedPrefix[V any] struct {
	inner   Listener[int, V]
	maxSize int

	full []V
	// innerLen is a running sum of the Insert/Delete diffs forwarded to the
	// inner listener, synthetic ones included, because the inner listener
	// does not apply its buffer immediately.
	innerLen int
	finalize func()
}

// NewBoundedPrefix wraps inner so it only ever materializes the first
// maxSize elements of the tracked sequence. maxSize must be positive.
func NewBoundedPrefix[V any](inner Listener[int, V], maxSize int) *BoundedPrefix[V] {
	if maxSize < 1 {
		panic(ErrInvalidBound)
	}
	b := &BoundedPrefix[V]{inner: inner, maxSize: maxSize}
	if finalizer, ok := inner.(BatchFinalizer); ok {
		b.finalize = finalizer.FinalizeBatch
	}
	return b
}

// OnDiff applies the diff to the shadow copy and forwards it inward when it
// falls inside the visible window, plus any trim or re-expose diff needed to
// keep the inner length at min(len(shadow), maxSize).
func (b *BoundedPrefix[V]) OnDiff(d Diff[int, V]) {
	switch d.Kind {
	case KindInsert:
		b.full = slices.Insert(b.full, d.Index, d.Payload)
	case KindReplace:
		b.full[d.Index] = d.Payload
	case KindDelete:
		b.full = slices.Delete(b.full, d.Index, d.Index+1)
	}

	if d.Index >= b.maxSize {
		return
	}
	b.inner.OnDiff(d)

	switch d.Kind {
	case KindInsert:
		b.innerLen++
		if b.innerLen > b.maxSize {
			// The insertion grew the bounded view over the limit. Trim.
			var zero V
			b.inner.OnDiff(Diff[int, V]{Kind: KindDelete, Index: b.maxSize, Payload: zero})
			b.innerLen--
		}
	case KindDelete:
		b.innerLen--
		if b.innerLen < b.maxSize && b.maxSize <= len(b.full) {
			// The deletion made the bounded view too short and the shadow
			// still holds the element that moved into the window.
			b.inner.OnDiff(Diff[int, V]{Kind: KindInsert, Index: b.maxSize - 1, Payload: b.full[b.maxSize-1]})
			b.innerLen++
		}
	}
}

// FinalizeBatch forwards batch finalization to the inner listener when it
// supports the capability.
func (b *BoundedPrefix[V]) FinalizeBatch() {
	if b.finalize != nil {
		b.finalize()
	}
}
