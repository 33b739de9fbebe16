package jobs

import (
	"testing"
	"time"

	"github.com/drake/relay/chat"
)

// collect drains events until the predicate says stop or the deadline hits.
func collect(t *testing.T, events <-chan chat.Event, stop func([]chat.Event) bool) []chat.Event {
	t.Helper()
	var got []chat.Event
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			got = append(got, ev)
			if stop(got) {
				return got
			}
		case <-deadline:
			t.Fatalf("timed out waiting for events, got %d so far", len(got))
		}
	}
}

// countType counts events of one type.
func countType(events []chat.Event, typ chat.EventType) int {
	n := 0
	for _, ev := range events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func TestContinuationDeliveredExactlyOnce(t *testing.T) {
	events := make(chan chat.Event, 64)
	q := New(events)
	q.Start()
	defer q.Close()

	ran := 0
	q.Enqueue(Normal, func() func() {
		return func() { ran++ }
	})

	got := collect(t, events, func(evs []chat.Event) bool {
		return countType(evs, chat.EventJobResult) == 1
	})

	for _, ev := range got {
		if ev.Type == chat.EventJobResult {
			ev.Callback()
		}
	}
	if ran != 1 {
		t.Fatalf("continuation ran %d times, want 1", ran)
	}
	if q.Executed() != 1 {
		t.Fatalf("executed = %d, want 1", q.Executed())
	}
}

func TestNilContinuationProducesNoResultEvent(t *testing.T) {
	events := make(chan chat.Event, 64)
	q := New(events)
	q.Start()
	defer q.Close()

	done := make(chan struct{})
	q.Enqueue(Normal, func() func() {
		close(done)
		return nil
	})
	<-done

	// Busy then idle, but never a job result.
	got := collect(t, events, func(evs []chat.Event) bool {
		return countType(evs, chat.EventWorkerBusy) >= 1 &&
			evs[len(evs)-1].Type == chat.EventWorkerIdle
	})
	if countType(got, chat.EventJobResult) != 0 {
		t.Fatalf("got a job result for a nil continuation")
	}
}

func TestPreemptRunsBeforeNormal(t *testing.T) {
	events := make(chan chat.Event, 64)
	q := New(events)

	// Hold the worker so both jobs queue up before anything runs.
	gate := make(chan struct{})
	q.Enqueue(Normal, func() func() {
		<-gate
		return nil
	})
	q.Start()
	defer q.Close()

	var order []string
	q.Enqueue(Normal, func() func() {
		order = append(order, "normal")
		return nil
	})
	q.EnqueueDedupe("p", Preempt, func() func() {
		order = append(order, "preempt")
		return nil
	})
	close(gate)

	collect(t, events, func(evs []chat.Event) bool {
		return countType(evs, chat.EventWorkerBusy) == 3 &&
			evs[len(evs)-1].Type == chat.EventWorkerIdle
	})

	if len(order) != 2 || order[0] != "preempt" || order[1] != "normal" {
		t.Fatalf("run order = %v, want [preempt normal]", order)
	}
}

func TestDedupeRejectsWhileInflight(t *testing.T) {
	events := make(chan chat.Event, 64)
	q := New(events)

	if !q.EnqueueDedupe("posts:c1", Normal, func() func() { return nil }) {
		t.Fatal("first enqueue rejected")
	}
	if q.EnqueueDedupe("posts:c1", Normal, func() func() { return nil }) {
		t.Fatal("duplicate key accepted while queued")
	}
	if !q.EnqueueDedupe("posts:c2", Normal, func() func() { return nil }) {
		t.Fatal("distinct key rejected")
	}

	normal, preempt := q.Lens()
	if normal != 2 || preempt != 0 {
		t.Fatalf("lens = (%d, %d), want (2, 0)", normal, preempt)
	}
}

func TestDedupeKeyReleasedAfterThunkFinishes(t *testing.T) {
	events := make(chan chat.Event, 64)
	q := New(events)
	q.Start()
	defer q.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	q.EnqueueDedupe("k", Normal, func() func() {
		close(started)
		<-release
		return nil
	})
	<-started

	// Still executing: key must be held.
	if q.EnqueueDedupe("k", Normal, func() func() { return nil }) {
		t.Fatal("key accepted while thunk still executing")
	}
	close(release)

	collect(t, events, func(evs []chat.Event) bool {
		return len(evs) > 0 && evs[len(evs)-1].Type == chat.EventWorkerIdle &&
			countType(evs, chat.EventWorkerBusy) >= 1
	})

	if !q.EnqueueDedupe("k", Normal, func() func() { return nil }) {
		t.Fatal("key not released after thunk finished")
	}
}

func TestPanickingThunkBecomesNotice(t *testing.T) {
	events := make(chan chat.Event, 64)
	q := New(events)
	q.Start()
	defer q.Close()

	q.Enqueue(Normal, func() func() {
		panic("boom")
	})

	got := collect(t, events, func(evs []chat.Event) bool {
		return countType(evs, chat.EventNotice) == 1
	})

	for _, ev := range got {
		if ev.Type != chat.EventNotice {
			continue
		}
		if ev.Notice.Err == nil {
			t.Fatal("notice carries no error")
		}
		if ev.Notice.Err.Kind != chat.ErrAsync {
			t.Fatalf("notice kind = %v, want ErrAsync", ev.Notice.Err.Kind)
		}
	}
	if countType(got, chat.EventJobResult) != 0 {
		t.Fatal("panicking thunk still produced a job result")
	}
}

func TestBusyCountIncludesRunningJob(t *testing.T) {
	events := make(chan chat.Event, 64)
	q := New(events)

	gate := make(chan struct{})
	q.Enqueue(Normal, func() func() { <-gate; return nil })
	q.Enqueue(Normal, func() func() { return nil })
	q.Enqueue(Normal, func() func() { return nil })
	q.Start()
	defer q.Close()
	close(gate)

	got := collect(t, events, func(evs []chat.Event) bool {
		return countType(evs, chat.EventWorkerBusy) == 3 &&
			evs[len(evs)-1].Type == chat.EventWorkerIdle
	})

	var counts []int
	for _, ev := range got {
		if ev.Type == chat.EventWorkerBusy {
			counts = append(counts, ev.Count)
		}
	}
	if len(counts) != 3 || counts[0] != 3 || counts[1] != 2 || counts[2] != 1 {
		t.Fatalf("busy counts = %v, want [3 2 1]", counts)
	}
}
