package difftrack

import (
	"reflect"
	"strings"
	"testing"
)

func TestDataMapperRewritesPayloads(t *testing.T) {
	dispatcher := NewListDispatcher[string]()
	listener := NewListListener[string]()
	dispatcher.AddListener(DataMapper[int](strings.ToLower)(listener))

	dispatcher.Insert(0, "AAA")
	dispatcher.Insert(0, "BBB")

	want := []Diff[int, string]{
		{Kind: KindInsert, Index: 0, Payload: "aaa"},
		{Kind: KindInsert, Index: 0, Payload: "bbb"},
	}
	if got := listener.TakePending(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected pending %v, got %v", want, got)
	}
	if got := listener.Snapshot(); !reflect.DeepEqual(got, []string{"bbb", "aaa"}) {
		t.Fatalf("expected snapshot [bbb aaa], got %v", got)
	}
}

func TestDataMapperKeepsFinalizeCapability(t *testing.T) {
	//1.- Wrapping a listener with a finalize hook keeps the hook reachable.
	finalized := 0
	listener := NewListListener[string]()
	listener.OnFinalizeBatch = func() { finalized++ }
	mapped := DataMapper[int](strings.ToLower)(listener)

	finalizer, ok := mapped.(BatchFinalizer)
	if !ok {
		t.Fatal("expected the mapper to advertise batch finalization")
	}
	finalizer.FinalizeBatch()
	if finalized != 1 {
		t.Fatalf("expected one forwarded finalization, got %d", finalized)
	}
}

func TestDataMapperWithoutFinalizeCapability(t *testing.T) {
	//1.- A bare function listener has no finalize hook; the mapper must not
	// invent one.
	var received []Diff[int, string]
	inner := ListenerFunc[int, string](func(d Diff[int, string]) {
		received = append(received, d)
	})
	mapped := DataMapper[int](strings.ToUpper)(inner)
	if _, ok := mapped.(BatchFinalizer); ok {
		t.Fatal("mapper must not advertise batch finalization its listener lacks")
	}

	//2.- Payloads are still rewritten on the way through, and a batch scope
	// around such a listener finalizes as a no-op.
	dispatcher := NewListDispatcher[string]()
	dispatcher.AddListener(mapped)
	dispatcher.Batch(func() {
		dispatcher.Insert(0, "aaa")
		dispatcher.Insert(1, "bbb")
	})
	want := []Diff[int, string]{
		{Kind: KindInsert, Index: 0, Payload: "AAA"},
		{Kind: KindInsert, Index: 1, Payload: "BBB"},
	}
	if !reflect.DeepEqual(received, want) {
		t.Fatalf("expected forwarded diffs %v, got %v", want, received)
	}
}
