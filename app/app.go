// Package app is the event dispatch core: a single-goroutine loop that
// interleaves terminal input, server push events, and completed background
// jobs, mutating the shared state exactly one handler at a time.
package app

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/drake/relay/chat"
	"github.com/drake/relay/config"
	"github.com/drake/relay/internal/buffer"
	"github.com/drake/relay/jobs"
	"github.com/drake/relay/logger"
	"github.com/drake/relay/state"
	"github.com/drake/relay/store"
)

// visiblePostLimit is how many posts a channel fetch pulls.
const visiblePostLimit = 60

// Options wires the collaborators into the dispatcher.
type Options struct {
	Server chat.Server
	UI     chat.UI
	Store  *store.Store // optional; nil disables persistence
	Logs   *logger.Manager
	Keys   config.KeyConfig

	// URLOpenCommand is the external program used to open selected URLs.
	// Empty means the feature reports a missing config option.
	URLOpenCommand string
}

// App owns the dispatch loop, the shared state, and the job queue. All state
// mutation happens on the loop goroutine; nothing else ever writes st.
type App struct {
	st     *state.State
	ui     chat.UI
	server chat.Server
	queue  *jobs.Queue
	store  *store.Store
	logs   *logger.Manager
	keys   config.KeyConfig

	urlOpenCmd string

	// Internal event channel: ordered, unbounded, single consumer.
	eventsIn  chan<- chat.Event
	eventsOut <-chan chat.Event

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	eventsProcessed atomic.Uint64
}

// New assembles an App. Nothing runs until Run.
func New(opts Options) *App {
	eventsIn, eventsOut := buffer.Unbounded[chat.Event](128, 65536)

	logs := opts.Logs
	if logs == nil {
		logs = logger.New()
	}

	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		st:         state.New(),
		ui:         opts.UI,
		server:     opts.Server,
		store:      opts.Store,
		logs:       logs,
		keys:       opts.Keys,
		urlOpenCmd: opts.URLOpenCommand,
		eventsIn:   eventsIn,
		eventsOut:  eventsOut,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	a.queue = jobs.New(eventsIn)
	return a
}

// State exposes the shared state for rendering and the debug monitor. Reads
// must happen between loop iterations; the loop goroutine is the only
// writer.
func (a *App) State() *state.State { return a.st }

// Queue exposes the job queue for the debug monitor.
func (a *App) Queue() *jobs.Queue { return a.queue }

// EventsProcessed reports the number of loop iterations so far.
func (a *App) EventsProcessed() uint64 { return a.eventsProcessed.Load() }

// Run starts the background machinery and blocks on the UI.
func (a *App) Run() error {
	a.queue.Start()
	go a.server.Listen(a.ctx)
	go a.bridgeServerEvents()
	go a.loop()

	err := a.ui.Run()
	a.Shutdown()
	return err
}

// Shutdown stops the loop, the queue, and the UI exactly once.
func (a *App) Shutdown() {
	a.once.Do(func() {
		close(a.done)
		a.cancel()
		a.queue.Close()
		a.ui.Quit()
	})
}

// bridgeServerEvents feeds server push and lifecycle events into the
// internal channel so all three producers share one ordered conduit. The
// conduit is unbounded, so the server side never stalls behind a busy
// handler.
func (a *App) bridgeServerEvents() {
	for {
		select {
		case <-a.done:
			return
		case ev := <-a.server.Events():
			a.eventsIn <- ev
		}
	}
}

// loop is the dispatcher: one event at a time, to completion, then the
// maintenance postlude and a fresh render snapshot.
func (a *App) loop() {
	for {
		select {
		case <-a.done:
			return
		case ev, ok := <-a.eventsOut:
			if !ok {
				return
			}
			a.onEvent(ev)
		case in := <-a.ui.Input():
			a.onInput(in)
		}

		// Fixed postlude: reconcile pending fetches (users before
		// statuses) after every event, then hand the UI a snapshot.
		a.maintain()
		a.present()
		a.eventsProcessed.Add(1)
	}
}

// onEvent dispatches an application-level event by kind. Mode is never
// consulted here; only raw input is mode-routed.
func (a *App) onEvent(ev chat.Event) {
	switch ev.Type {
	case chat.EventConnected:
		a.st.Status = chat.Connected
		a.st.MarkConnected()
		a.logs.Logf("websocket connected")
		a.refreshAfterConnect()

	case chat.EventDisconnected:
		a.st.Status = chat.Disconnected
		a.st.MarkDisconnected()
		a.logs.Logf("websocket disconnected")

	case chat.EventRateLimited:
		a.postText(rateLimitAdvisory(ev.Seconds))

	case chat.EventRateLimitSettingsMissing:
		a.postText(rateLimitSettingsMissingAdvisory)

	case chat.EventRequestDropped:
		a.postText(requestDroppedAdvisory)

	case chat.EventWorkerIdle:
		a.st.Busy = false
		a.st.BusyCount = 0

	case chat.EventWorkerBusy:
		a.st.Busy = true
		a.st.BusyCount = ev.Count

	case chat.EventPush:
		a.onPush(ev.Push)

	case chat.EventJobResult:
		if ev.Callback != nil {
			ev.Callback()
		}

	case chat.EventNotice:
		if ev.Notice.Err != nil {
			a.postError(ev.Notice.Err)
		} else {
			a.postText(ev.Notice.Text)
		}
	}
}

// refreshAfterConnect issues the three follow-up actions a fresh connection
// needs: reload channels/users, refresh the client config (preempt: a stale
// config must not linger), and fetch visible-channel data if it is missing.
func (a *App) refreshAfterConnect() {
	a.queue.Enqueue(jobs.Normal, a.fetchTeamsThunk())
	a.queue.Enqueue(jobs.Preempt, a.fetchClientConfigThunk())
	a.queue.Enqueue(jobs.Normal, a.fetchVisibleThunk())
}

// Enqueue lets handlers outside this file schedule background work.
func (a *App) enqueue(p jobs.Priority, thunk jobs.Thunk) {
	a.queue.Enqueue(p, thunk)
}

// postText appends a system message to the active conversation.
func (a *App) postText(text string) {
	a.st.AddSystemMessage(text)
	a.logs.Logf("notice: %s", text)
}

// postError renders a taxonomy error as a system message. All errors are
// recoverable; none terminate the process.
func (a *App) postError(err *chat.UserError) {
	a.st.AddSystemMessage(err.Render())
	a.logs.Logf("error (%d): %s", err.Kind, err.Render())
}
