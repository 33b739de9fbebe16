// Package logger keeps a bounded ring of recent client log entries and can
// mirror them to a file. Starting, stopping, and snapshotting are
// user-facing operations; the dispatcher reports their outcomes as system
// messages.
package logger

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// ringSize bounds the in-memory history available to Snapshot.
const ringSize = 1000

// Manager owns the log ring and the optional file sink. Safe for use from
// any goroutine.
type Manager struct {
	mu      sync.Mutex
	entries []string
	start   int // ring read position
	count   int
	file    *os.File
	path    string
}

// New creates an empty manager.
func New() *Manager {
	return &Manager{entries: make([]string, ringSize)}
}

// Logf records a log entry and mirrors it to the active file, if any.
func (m *Manager) Logf(format string, args ...any) {
	line := fmt.Sprintf("[%s] %s", time.Now().Format("2006-01-02 15:04:05"), fmt.Sprintf(format, args...))

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := (m.start + m.count) % ringSize
	if m.count == ringSize {
		m.start = (m.start + 1) % ringSize
	} else {
		m.count++
	}
	m.entries[idx] = line

	if m.file != nil {
		fmt.Fprintln(m.file, line)
	}
}

// Start begins mirroring entries to the given file, replacing any previous
// sink. The ring collected so far is written first so the file has context.
func (m *Manager) Start(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.file != nil {
		m.file.Close()
	}
	m.file = f
	m.path = path
	for _, line := range m.recentLocked() {
		fmt.Fprintln(f, line)
	}
	return nil
}

// Stop closes the file sink. Reports the path that was active and whether
// logging was running at all.
func (m *Manager) Stop() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.file == nil {
		return "", false
	}
	path := m.path
	m.file.Close()
	m.file = nil
	m.path = ""
	return path, true
}

// Active reports whether a file sink is attached, and to where.
func (m *Manager) Active() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.path, m.file != nil
}

// Snapshot writes the current ring contents to a new file.
func (m *Manager) Snapshot(path string) error {
	m.mu.Lock()
	lines := m.recentLocked()
	m.mu.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, line := range lines {
		if _, err := fmt.Fprintln(f, line); err != nil {
			return err
		}
	}
	return nil
}

// Recent returns the ring contents, oldest first.
func (m *Manager) Recent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recentLocked()
}

func (m *Manager) recentLocked() []string {
	out := make([]string, 0, m.count)
	for i := 0; i < m.count; i++ {
		out = append(out, m.entries[(m.start+i)%ringSize])
	}
	return out
}
