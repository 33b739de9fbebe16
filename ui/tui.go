package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/drake/relay/chat"
)

// BubbleTeaUI implements chat.UI using Bubble Tea. It bridges the
// channel-based dispatcher with Bubble Tea's model/update/view loop: key
// presses flow out through Input, snapshots flow in through Present.
type BubbleTeaUI struct {
	program   *tea.Program
	inputChan chan chat.InputEvent

	ready     chan struct{}
	readyOnce sync.Once

	done     chan struct{}
	doneOnce sync.Once

	// Snapshots that arrive before the program starts. Only the newest
	// matters; a snapshot supersedes everything before it.
	pendingMu   sync.Mutex
	pendingSnap *chat.Snapshot
}

// New creates an unstarted Bubble Tea UI.
func New() *BubbleTeaUI {
	return &BubbleTeaUI{
		inputChan: make(chan chat.InputEvent, 100),
		ready:     make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Run starts the TUI and blocks until it exits.
func (b *BubbleTeaUI) Run() error {
	model := newModel(b.inputChan)

	b.program = tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithInputTTY(),
	)

	go func() {
		b.pendingMu.Lock()
		snap := b.pendingSnap
		b.pendingSnap = nil
		b.pendingMu.Unlock()
		if snap != nil {
			b.program.Send(snapshotMsg(*snap))
		}
	}()

	b.readyOnce.Do(func() {
		close(b.ready)
	})

	_, err := b.program.Run()

	b.doneOnce.Do(func() {
		close(b.done)
	})

	return err
}

// Done returns a channel that closes when the UI exits.
func (b *BubbleTeaUI) Done() <-chan struct{} {
	return b.done
}

// Quit signals the TUI to exit.
func (b *BubbleTeaUI) Quit() {
	select {
	case <-b.ready:
		if b.program != nil {
			b.program.Quit()
		}
	default:
		b.doneOnce.Do(func() {
			close(b.done)
		})
	}
}

// Input yields key presses and resize notifications.
func (b *BubbleTeaUI) Input() <-chan chat.InputEvent {
	return b.inputChan
}

// Present hands the UI a fresh snapshot to draw from.
func (b *BubbleTeaUI) Present(snap chat.Snapshot) {
	select {
	case <-b.ready:
		b.program.Send(snapshotMsg(snap))
	default:
		b.pendingMu.Lock()
		b.pendingSnap = &snap
		b.pendingMu.Unlock()
	}
}

// Invalidate discards cached rendering.
func (b *BubbleTeaUI) Invalidate() {
	select {
	case <-b.ready:
		b.program.Send(invalidateMsg{})
	default:
	}
}

// Refresh forces a full terminal repaint.
func (b *BubbleTeaUI) Refresh() {
	select {
	case <-b.ready:
		b.program.Send(refreshMsg{})
	default:
	}
}
