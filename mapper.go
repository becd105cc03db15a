package difftrack

// DataMapper returns a decorator that rewrites every payload with mapper
// before handing the diff to the wrapped listener. The mapper must be pure;
// it also receives the zero payload carried by Delete diffs. The decorator
// does not buffer, and it forwards batch finalization when the wrapped
// listener supports it.
func DataMapper[K comparable, V any](mapper func(V) V) func(Listener[K, V]) Listener[K, V] {
	return func(inner Listener[K, V]) Listener[K, V] {
		mapped := mappedListener[K, V]{inner: inner, mapper: mapper}
		if finalizer, ok := inner.(BatchFinalizer); ok {
			return &mappedFinalizingListener[K, V]{mappedListener: mapped, finalize: finalizer.FinalizeBatch}
		}
		return &mapped
	}
}

type mappedListener[K comparable, V any] struct {
	inner  Listener[K, V]
	mapper func(V) V
}

func (m *mappedListener[K, V]) OnDiff(d Diff[K, V]) {
	d.Payload = m.mapper(d.Payload)
	m.inner.OnDiff(d)
}

// mappedFinalizingListener is returned when the wrapped listener advertises
// BatchFinalizer, so the decorator stays transparent to the dispatcher's
// capability probe.
type mappedFinalizingListener[K comparable, V any] struct {
	mappedListener[K, V]
	finalize func()
}

func (m *mappedFinalizingListener[K, V]) FinalizeBatch() {
	m.finalize()
}
