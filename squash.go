package difftrack

import "iter"

// RangeOp is one run of contiguous same-kind sequence diffs produced by
// SquashSequence. For an Insert run the Stop bound is inclusive; for Replace
// and Delete runs it is exclusive. Delete runs carry an empty payload.
type RangeOp[V any] struct {
	Kind    Kind
	Start   int
	Stop    int
	Payload []V
}

// NewRangeOp builds a RangeOp, panicking with ErrInvalidRangeKind when kind
// is not a sequence kind.
func NewRangeOp[V any](kind Kind, start, stop int, payload []V) RangeOp[V] {
	if !kind.isSequence() {
		panic(ErrInvalidRangeKind)
	}
	return RangeOp[V]{Kind: kind, Start: start, Stop: stop, Payload: payload}
}

// SquashSequence merges consecutive sequence diffs of identical kind and
// contiguous indices into RangeOp records. Inserts and replaces chain when
// each index is one past the previous; deletes chain when the index repeats,
// since the sequence shrinks underneath a run of deletes. Any other
// neighbour flushes the current run. Empty input yields nothing.
func SquashSequence[V any](diffs []Diff[int, V]) iter.Seq[RangeOp[V]] {
	return func(yield func(RangeOp[V]) bool) {
		if len(diffs) == 0 {
			return
		}
		batch := []Diff[int, V]{diffs[0]}
		for _, d := range diffs[1:] {
			prev := batch[len(batch)-1]
			mergeable := false
			if d.Kind == prev.Kind {
				switch d.Kind {
				case KindInsert, KindReplace:
					mergeable = prev.Index+1 == d.Index
				case KindDelete:
					mergeable = prev.Index == d.Index
				}
			}
			if mergeable {
				batch = append(batch, d)
				continue
			}
			if !yield(mergeRun(batch)) {
				return
			}
			batch = []Diff[int, V]{d}
		}
		yield(mergeRun(batch))
	}
}

// mergeRun folds one contiguous run into its range record.
func mergeRun[V any](batch []Diff[int, V]) RangeOp[V] {
	kind := batch[0].Kind
	start := batch[0].Index
	switch kind {
	case KindInsert:
		payload := make([]V, 0, len(batch))
		for _, d := range batch {
			payload = append(payload, d.Payload)
		}
		return NewRangeOp(kind, start, start+len(payload)-1, payload)
	case KindReplace:
		payload := make([]V, 0, len(batch))
		for _, d := range batch {
			payload = append(payload, d.Payload)
		}
		return NewRangeOp(kind, start, start+len(payload), payload)
	default:
		return NewRangeOp(kind, start, start+len(batch), []V{})
	}
}
