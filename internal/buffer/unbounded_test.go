package buffer

import (
	"testing"
	"time"
)

func TestOrderPreserved(t *testing.T) {
	in, out := Unbounded[int](4, 1000)

	const n = 500
	go func() {
		for i := 0; i < n; i++ {
			in <- i
		}
	}()

	for i := 0; i < n; i++ {
		select {
		case got := <-out:
			if got != i {
				t.Fatalf("item %d arrived as %d", i, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out at item %d", i)
		}
	}
}

func TestProducerNeverBlocks(t *testing.T) {
	in, _ := Unbounded[string](4, 100000)

	done := make(chan struct{})
	go func() {
		// Nobody reads; all of these must still be accepted.
		for i := 0; i < 10000; i++ {
			in <- "x"
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer blocked with no consumer")
	}
}

func TestCloseFlushesQueue(t *testing.T) {
	in, out := Unbounded[int](4, 1000)

	for i := 0; i < 50; i++ {
		in <- i
	}
	close(in)

	got := 0
	for range out {
		got++
	}
	if got != 50 {
		t.Fatalf("flushed %d items, want 50", got)
	}
}

func TestHardLimitDropsOldest(t *testing.T) {
	before := Dropped.Load()
	in, out := Unbounded[int](4, 10)

	// Overfill without draining. The in channel itself buffers a few, so
	// push well past the limit.
	for i := 0; i < 100; i++ {
		in <- i
	}
	close(in)

	var items []int
	for v := range out {
		items = append(items, v)
	}

	if Dropped.Load() == before {
		t.Fatal("expected drops past the hard limit")
	}
	// Whatever survived must still be in order and end with the newest item.
	for i := 1; i < len(items); i++ {
		if items[i] <= items[i-1] {
			t.Fatalf("order violated: %v", items)
		}
	}
	if len(items) == 0 || items[len(items)-1] != 99 {
		t.Fatalf("newest item missing, got %v", items)
	}
}
