// Package buffer provides the ordered, unbounded conduit that carries events
// into the dispatcher. Producers (the real-time listener, job completions,
// synthesized notices) never block on a slow consumer; ordering is preserved
// because there is a single FIFO queue and no coalescing.
package buffer

import "sync/atomic"

// Dropped counts items discarded because a conduit hit its hard limit. The
// debug monitor reports it.
var Dropped atomic.Uint64

// Unbounded returns a write end and a read end joined by a growable FIFO
// queue. initialCap sizes the backing slice; hardLimit caps memory if the
// consumer stops draining, at which point the oldest item is dropped.
//
// Closing the write end flushes the queue and then closes the read end.
func Unbounded[T any](initialCap, hardLimit int) (chan<- T, <-chan T) {
	in := make(chan T, 16)
	out := make(chan T, 16)

	go func() {
		defer close(out)

		queue := make([]T, 0, initialCap)

		for {
			var next T
			var downstream chan T

			// Only arm the send case when there is something to send.
			if len(queue) > 0 {
				next = queue[0]
				downstream = out
			}

			select {
			case val, ok := <-in:
				if !ok {
					for _, item := range queue {
						out <- item
					}
					return
				}
				if len(queue) >= hardLimit {
					// Consumer is wedged; drop the oldest item rather than grow.
					queue = queue[1:]
					Dropped.Add(1)
				}
				queue = append(queue, val)

			case downstream <- next:
				queue = queue[1:]
			}
		}
	}()

	return in, out
}
