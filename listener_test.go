package difftrack

import (
	"errors"
	"iter"
	"reflect"
	"slices"
	"testing"
)

func TestListListenerDeferredApplicationEquivalence(t *testing.T) {
	dispatcher := NewListDispatcher[string]()
	observed := NewListListener[string]()
	drained := NewListListener[string]()
	dispatcher.AddListener(observed)
	dispatcher.AddListener(drained)

	dispatcher.Insert(0, "AAA")
	dispatcher.Insert(0, "BBB")
	dispatcher.Erase(1)
	dispatcher.Assign(0, "CCC")

	//1.- Route one: read the snapshot, take the pending diffs, replay externally.
	external := slices.Clone(observed.Snapshot())
	for _, d := range observed.TakePending() {
		switch d.Kind {
		case KindInsert:
			external = slices.Insert(external, d.Index, d.Payload)
		case KindReplace:
			external[d.Index] = d.Payload
		case KindDelete:
			external = slices.Delete(external, d.Index, d.Index+1)
		}
	}

	//2.- Route two: take pending, discard, and read the snapshot.
	drained.TakePending()
	if got := drained.Snapshot(); !reflect.DeepEqual(got, external) {
		t.Fatalf("deferred application mismatch: external replay %v, snapshot %v", external, got)
	}
}

func TestDictListenerStreamPendingAppliesLazily(t *testing.T) {
	dispatcher := NewDictDispatcher[string, int]()
	listener := NewDictListener[string, int]()
	dispatcher.AddListener(listener)

	dispatcher.Assign("x", 123)
	dispatcher.Assign("y", 456)

	//1.- Nothing is applied until the stream is advanced.
	next, stop := iter.Pull2(listener.StreamPending())
	defer stop()
	if got := listener.Snapshot(); len(got) != 0 {
		t.Fatalf("diffs must not be applied until StreamPending is advanced, got %v", got)
	}

	//2.- Each advance applies exactly one diff before yielding it.
	d, err, ok := next()
	if !ok || err != nil {
		t.Fatalf("expected first diff, got ok=%v err=%v", ok, err)
	}
	if want := (Diff[string, int]{Kind: KindSet, Index: "x", Payload: 123}); d != want {
		t.Fatalf("expected %v, got %v", want, d)
	}
	if got := listener.Snapshot(); !reflect.DeepEqual(got, map[string]int{"x": 123}) {
		t.Fatalf("expected snapshot {x:123}, got %v", got)
	}

	d, err, ok = next()
	if !ok || err != nil {
		t.Fatalf("expected second diff, got ok=%v err=%v", ok, err)
	}
	if want := (Diff[string, int]{Kind: KindSet, Index: "y", Payload: 456}); d != want {
		t.Fatalf("expected %v, got %v", want, d)
	}

	//3.- Diffs emitted mid-iteration are picked up by the same stream.
	dispatcher.Assign("y", 9999)
	dispatcher.Erase("x")
	d, err, ok = next()
	if !ok || err != nil {
		t.Fatalf("expected third diff, got ok=%v err=%v", ok, err)
	}
	if want := (Diff[string, int]{Kind: KindSet, Index: "y", Payload: 9999}); d != want {
		t.Fatalf("expected %v, got %v", want, d)
	}
	d, err, ok = next()
	if !ok || err != nil {
		t.Fatalf("expected fourth diff, got ok=%v err=%v", ok, err)
	}
	if want := (Diff[string, int]{Kind: KindDelete, Index: "x"}); d != want {
		t.Fatalf("expected %v, got %v", want, d)
	}
	if got := listener.Snapshot(); !reflect.DeepEqual(got, map[string]int{"y": 9999}) {
		t.Fatalf("expected snapshot {y:9999}, got %v", got)
	}
}

func TestListListenerStreamPendingAppliesPrefix(t *testing.T) {
	listener := NewListListener[string]()
	listener.OnDiff(Diff[int, string]{Kind: KindInsert, Index: 0, Payload: "AAA"})
	listener.OnDiff(Diff[int, string]{Kind: KindInsert, Index: 0, Payload: "BBB"})

	//1.- Mid-iteration snapshot reads must reflect prefix application.
	var seen []Diff[int, string]
	for d := range listener.StreamPending() {
		seen = append(seen, d)
		if len(seen) == 1 {
			if got := listener.Snapshot(); !reflect.DeepEqual(got, []string{"AAA"}) {
				t.Fatalf("expected snapshot [AAA] after first yield, got %v", got)
			}
		}
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 streamed diffs, got %d", len(seen))
	}
	if got := listener.Snapshot(); !reflect.DeepEqual(got, []string{"BBB", "AAA"}) {
		t.Fatalf("expected snapshot [BBB AAA], got %v", got)
	}
	if listener.HasChanged() {
		t.Fatal("expected no pending diffs after the stream is drained")
	}
}

func TestOnChangeFiresPerDiff(t *testing.T) {
	//1.- The per-diff callback sees the diff synchronously on receipt.
	var calls []Diff[string, int]
	listener := NewDictListener[string, int]()
	listener.OnChange = func(d Diff[string, int]) { calls = append(calls, d) }

	listener.OnDiff(Diff[string, int]{Kind: KindSet, Index: "x", Payload: 123})
	want := []Diff[string, int]{{Kind: KindSet, Index: "x", Payload: 123}}
	if !reflect.DeepEqual(calls, want) {
		t.Fatalf("expected callback calls %v, got %v", want, calls)
	}
}

func TestHasChangedTracksBuffer(t *testing.T) {
	listener := NewListListener[string]()
	if listener.HasChanged() {
		t.Fatal("fresh listener must report no changes")
	}
	listener.OnDiff(Diff[int, string]{Kind: KindInsert, Index: 0, Payload: "AAA"})
	if !listener.HasChanged() {
		t.Fatal("buffered diff must be reported")
	}
	listener.TakePending()
	if listener.HasChanged() {
		t.Fatal("drained listener must report no changes")
	}
}

func TestDictListenerDeleteMissingKey(t *testing.T) {
	listener := NewDictListener[string, int]()
	listener.OnDiff(Diff[string, int]{Kind: KindDelete, Index: "ghost"})

	//1.- Applying a delete for a key that never existed surfaces the error.
	_, err := listener.TakePending()
	if !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}
