// Package jobs owns the boundary between blocking I/O and the single-threaded
// state mutator. Handlers enqueue work here; thunks run on the worker
// goroutine and must not touch shared state. Only the continuation a thunk
// returns, delivered back through the event channel as a job result, may
// mutate state.
package jobs

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/drake/relay/chat"
)

// Priority orders queued jobs. Preempt jobs are serviced ahead of Normal
// jobs regardless of arrival order (used where staleness must be minimized,
// e.g. client-config refresh after a reconnect).
type Priority int

const (
	Normal Priority = iota
	Preempt
)

// Thunk is the deferred unit of work. It runs off the dispatcher goroutine
// and returns the continuation to run against shared state, or nil.
type Thunk func() func()

type job struct {
	key   string
	thunk Thunk
}

// Queue is a two-lane job queue drained by a single worker goroutine.
// Completions, failures, and idle/busy transitions are all reported as
// events; the queue never calls back into application code directly.
type Queue struct {
	events chan<- chat.Event

	mu       sync.Mutex
	normal   []job
	preempt  []job
	inflight map[string]struct{}

	wake chan struct{}
	done chan struct{}
	once sync.Once

	executed atomic.Uint64
}

// New creates a queue that reports onto the given event channel. Call Start
// to begin draining.
func New(events chan<- chat.Event) *Queue {
	return &Queue{
		events:   events,
		inflight: make(map[string]struct{}),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Start launches the worker goroutine.
func (q *Queue) Start() {
	go q.run()
}

// Close stops the worker. Queued jobs are discarded.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.done) })
}

// Enqueue adds a job with no dedupe key.
func (q *Queue) Enqueue(p Priority, thunk Thunk) {
	q.add(job{thunk: thunk}, p)
}

// EnqueueDedupe adds a job unless one with the same key is already queued or
// executing. The key is released when the job's thunk finishes, so at most
// one call per key is outstanding at any time. Reports whether the job was
// accepted.
func (q *Queue) EnqueueDedupe(key string, p Priority, thunk Thunk) bool {
	q.mu.Lock()
	if _, dup := q.inflight[key]; dup {
		q.mu.Unlock()
		return false
	}
	q.inflight[key] = struct{}{}
	q.mu.Unlock()

	q.add(job{key: key, thunk: thunk}, p)
	return true
}

// Lens reports the number of queued jobs per lane.
func (q *Queue) Lens() (normal, preempt int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.normal), len(q.preempt)
}

// Executed reports how many thunks have run since creation.
func (q *Queue) Executed() uint64 {
	return q.executed.Load()
}

func (q *Queue) add(j job, p Priority) {
	q.mu.Lock()
	if p == Preempt {
		q.preempt = append(q.preempt, j)
	} else {
		q.normal = append(q.normal, j)
	}
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// pop removes the next job, preempt lane first. remaining is the queue depth
// after removal.
func (q *Queue) pop() (j job, remaining int, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch {
	case len(q.preempt) > 0:
		j, q.preempt = q.preempt[0], q.preempt[1:]
		ok = true
	case len(q.normal) > 0:
		j, q.normal = q.normal[0], q.normal[1:]
		ok = true
	}
	remaining = len(q.preempt) + len(q.normal)
	return j, remaining, ok
}

func (q *Queue) run() {
	for {
		j, remaining, ok := q.pop()
		if !ok {
			q.post(chat.Event{Type: chat.EventWorkerIdle})
			select {
			case <-q.done:
				return
			case <-q.wake:
				continue
			}
		}

		q.post(chat.Event{Type: chat.EventWorkerBusy, Count: remaining + 1})

		cont := q.execute(j)
		q.executed.Add(1)

		if j.key != "" {
			q.mu.Lock()
			delete(q.inflight, j.key)
			q.mu.Unlock()
		}

		if cont != nil {
			q.post(chat.Event{Type: chat.EventJobResult, Callback: cont})
		}
	}
}

// execute runs a thunk, containing panics. A panicking thunk becomes a
// notice event instead of a process fault.
func (q *Queue) execute(j job) (cont func()) {
	defer func() {
		if r := recover(); r != nil {
			cont = nil
			q.post(chat.Event{
				Type:   chat.EventNotice,
				Notice: chat.Notice{Err: chat.AsyncError(fmt.Sprintf("background job failed: %v", r), nil)},
			})
		}
	}()
	return j.thunk()
}

func (q *Queue) post(ev chat.Event) {
	select {
	case <-q.done:
	default:
		q.events <- ev
	}
}
