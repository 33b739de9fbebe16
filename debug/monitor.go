// Package debug provides runtime monitoring and diagnostics.
package debug

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/drake/relay/app"
	"github.com/drake/relay/internal/buffer"
	"github.com/drake/relay/server"
)

// Enabled returns true if debug mode is active (RELAY_DEBUG=1).
func Enabled() bool {
	return os.Getenv("RELAY_DEBUG") == "1"
}

// Monitor periodically logs dispatcher and connection statistics when debug
// mode is enabled.
type Monitor struct {
	app      *app.App
	client   *server.Client
	interval time.Duration
	ctx      context.Context
	logger   *log.Logger
}

// NewMonitor creates a monitor for the given app. If debug mode is not
// enabled, returns nil; a nil monitor is safe to Start.
func NewMonitor(ctx context.Context, a *app.App, c *server.Client) *Monitor {
	if !Enabled() {
		return nil
	}

	return &Monitor{
		app:      a,
		client:   c,
		interval: 5 * time.Second,
		ctx:      ctx,
		logger:   log.New(os.Stderr, "", log.LstdFlags),
	}
}

// Start begins the monitoring loop in a goroutine.
func (m *Monitor) Start() {
	if m == nil {
		return
	}
	go m.run()
}

func (m *Monitor) run() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Println("[DEBUG] Monitor started")

	for {
		select {
		case <-m.ctx.Done():
			m.logger.Println("[DEBUG] Monitor stopped")
			return
		case <-ticker.C:
			m.logStats()
		}
	}
}

func (m *Monitor) logStats() {
	s := m.client.Stats()
	normal, preempt := m.app.Queue().Lens()

	lastEvent := "never"
	if !s.LastEventTime.IsZero() {
		lastEvent = fmt.Sprintf("%v ago", time.Since(s.LastEventTime).Round(time.Second))
	}

	m.logger.Printf("[DEBUG] events=%d dropped=%d goroutines=%d | queue: normal=%d preempt=%d executed=%d | ws: conn=%v pushed=%d reconnects=%d lastEvent=%s",
		m.app.EventsProcessed(),
		buffer.Dropped.Load(),
		runtime.NumGoroutine(),
		normal, preempt,
		m.app.Queue().Executed(),
		s.Connected,
		s.EventsEmitted,
		s.Reconnects,
		lastEvent,
	)
}
