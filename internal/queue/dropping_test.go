package queue

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestDroppingEvictsOldest(t *testing.T) {
	q := NewDropping[int](2)
	if q.Push(1) || q.Push(2) {
		t.Fatal("push into non-full queue evicted")
	}
	if !q.Push(3) {
		t.Fatal("push into full queue did not evict")
	}
	if q.Len() != 2 {
		t.Fatalf("len = %d, want 2", q.Len())
	}
	for _, want := range []int{2, 3} {
		got, ok := q.TryPop()
		if !ok || got != want {
			t.Fatalf("pop = %d, %v; want %d", got, ok, want)
		}
	}
	if _, ok := q.TryPop(); ok {
		t.Fatal("queue not empty")
	}
	if q.Dropped() != 1 {
		t.Fatalf("dropped = %d, want 1", q.Dropped())
	}
}

func TestDroppingCapacityOne(t *testing.T) {
	q := NewDropping[string](0)
	if q.Cap() != 1 {
		t.Fatalf("cap = %d, want 1", q.Cap())
	}
	q.Push("a")
	q.Push("b")
	if got, _ := q.TryPop(); got != "b" {
		t.Fatalf("pop = %q, want newest", got)
	}
}

func TestDroppingPopHonoursContext(t *testing.T) {
	q := NewDropping[int](1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, ok := q.Pop(ctx); ok {
		t.Fatal("pop on empty queue returned an item")
	}
}

func TestDroppingConcurrentProducersNeverBlock(t *testing.T) {
	q := NewDropping[int](2)
	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				q.Push(i)
			}
		}()
	}
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("producers blocked on a full queue")
	}
	if q.Len() != 2 {
		t.Fatalf("len = %d, want 2", q.Len())
	}
}
