package difftrack

import (
	"slices"
	"sort"
)

// CompactMapping reduces a list of mapping diffs to at most one surviving
// diff per key:
//
//	[SET(x)_0, SET(x)_1, ... SET(x)_n] -> [SET(x)_n]
//	[SET(x)_0, ... SET(x)_n, DELETE(x)] -> [DELETE(x)]
//
// Output preserves the order in which keys were first touched. A Set+Delete
// pair collapses to a lone Delete even when the initial mapping never held
// the key; replaying such output surfaces ErrKeyNotFound from the listener.
func CompactMapping[K comparable, V any](diffs []Diff[K, V]) []Diff[K, V] {
	type slot struct {
		value     V
		tombstone bool
	}
	order := make([]K, 0, len(diffs))
	slots := make(map[K]*slot, len(diffs))
	for _, d := range diffs {
		entry, ok := slots[d.Index]
		if !ok {
			entry = &slot{}
			slots[d.Index] = entry
			order = append(order, d.Index)
		}
		switch d.Kind {
		case KindSet:
			entry.value = d.Payload
			entry.tombstone = false
		case KindDelete:
			var zero V
			entry.value = zero
			entry.tombstone = true
		}
	}

	compacted := make([]Diff[K, V], 0, len(order))
	for _, key := range order {
		entry := slots[key]
		if entry.tombstone {
			compacted = append(compacted, Diff[K, V]{Kind: KindDelete, Index: key})
		} else {
			compacted = append(compacted, Diff[K, V]{Kind: KindSet, Index: key, Payload: entry.value})
		}
	}
	return compacted
}

// CompactSequence reduces a list of sequence diffs to an equivalent shorter
// list: replaying either list against the same starting sequence yields the
// same final sequence. Pairs targeting the same element reduce as
//
//	[INSERT, REPLACE]  -> [INSERT]
//	[REPLACE, REPLACE] -> [REPLACE]
//	[INSERT, DELETE]   -> []
//	[REPLACE, DELETE]  -> [DELETE]
//
// while a DELETE followed by anything at the same position never reduces.
// Output order is not generally input order: a pair cancellation leaves
// later diffs in place. The tracked sequence must be valid for the diff
// list, and diffs referencing positions that never existed stay unpaired.
func CompactSequence[V any](diffs []Diff[int, V]) []Diff[int, V] {
	c := sequenceCompactor[V]{positions: make(map[int]int)}
	for _, d := range diffs {
		switch d.Kind {
		case KindInsert:
			c.appendOp(d)
		case KindReplace:
			c.replace(d)
		case KindDelete:
			c.erase(d)
		}
	}
	return c.out
}

// sequenceCompactor walks the input left to right, maintaining the output
// list and a map from current effective producer position to the output slot
// of the diff that produced the element now living there. Inserts and
// deletes in the input shift the positional meaning of earlier map entries,
// so the map is rewritten before each new key is bound.
type sequenceCompactor[V any] struct {
	out       []Diff[int, V]
	positions map[int]int
}

// appendOp records a diff that could not be paired with an earlier output
// entry, retargeting the position map for the shift the diff imposes.
func (c *sequenceCompactor[V]) appendOp(d Diff[int, V]) {
	switch d.Kind {
	case KindDelete:
		// A delete slides every later-recorded position left by one.
		for _, key := range c.sortedPositions() {
			if key <= d.Index {
				continue
			}
			c.positions[key-1] = c.positions[key]
			delete(c.positions, key)
		}
	case KindInsert:
		// An insert slides positions at and after its index right by one.
		keys := c.sortedPositions()
		for i := len(keys) - 1; i >= 0; i-- {
			key := keys[i]
			if key < d.Index {
				break
			}
			c.positions[key+1] = c.positions[key]
			delete(c.positions, key)
		}
	}
	c.positions[d.Index] = len(c.out)
	c.out = append(c.out, d)
}

// replace folds [INSERT, ..., REPLACE] and [REPLACE, ..., REPLACE] pairs
// into the earlier output entry.
func (c *sequenceCompactor[V]) replace(d Diff[int, V]) {
	pos, ok := c.positions[d.Index]
	if !ok {
		c.appendOp(d)
		return
	}
	target := c.out[pos]
	if target.Kind == KindDelete {
		c.appendOp(d)
		return
	}
	c.out[pos] = Diff[int, V]{Kind: target.Kind, Index: target.Index, Payload: d.Payload}
}

// erase folds [INSERT, ..., DELETE] and [REPLACE, ..., DELETE] pairs.
func (c *sequenceCompactor[V]) erase(d Diff[int, V]) {
	pos, ok := c.positions[d.Index]
	if !ok {
		// Unpaired delete: nothing to compact.
		c.appendOp(d)
		return
	}

	target := c.out[pos]
	switch target.Kind {
	case KindDelete:
		// A run of unpaired deletes at the same position: nothing to compact.
		c.appendOp(d)
	case KindReplace:
		// [REPLACE, ..., DELETE]: drop the replace, keep the delete.
		c.removeOutput(pos)
		delete(c.positions, d.Index)
		c.appendOp(d)
	default:
		// [INSERT, ..., DELETE]: both vanish. Later output entries were
		// recorded at indices reflecting the cancelled insert's shift, so
		// that shift must be undone before the insert is dropped.
		c.unwindInsert(target.Index, pos)
		c.removeOutput(pos)
		delete(c.positions, d.Index)
		for _, key := range c.sortedPositions() {
			if key > d.Index {
				c.positions[key-1] = c.positions[key]
				delete(c.positions, key)
			}
		}
	}
}

// removeOutput drops the output entry at pos and renumbers the map slots
// that pointed past it.
func (c *sequenceCompactor[V]) removeOutput(pos int) {
	c.out = slices.Delete(c.out, pos, pos+1)
	for key, slot := range c.positions {
		if slot >= pos {
			c.positions[key] = slot - 1
		}
	}
}

// unwindInsert walks the output entries recorded after the cancelled insert
// and decrements the index of every entry that the insert had shifted. The
// insert's effective index at the moment each later entry was recorded is
// reconstructed by following the inserts and deletes between them, not by a
// blind subtract-one.
func (c *sequenceCompactor[V]) unwindInsert(insertIndex, pos int) {
	effective := insertIndex
	for i := pos + 1; i < len(c.out); i++ {
		entry := c.out[i]
		if entry.Kind == KindInsert && entry.Index <= effective {
			effective++
		} else if entry.Kind == KindDelete && entry.Index < effective {
			effective--
		}
		if entry.Index >= effective {
			c.out[i].Index--
		}
	}
}

func (c *sequenceCompactor[V]) sortedPositions() []int {
	keys := make([]int, 0, len(c.positions))
	for key := range c.positions {
		keys = append(keys, key)
	}
	sort.Ints(keys)
	return keys
}
