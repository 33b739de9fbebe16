package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/drake/relay/chat"
)

const sidebarWidth = 24

// snapshotMsg delivers a fresh render snapshot from the dispatcher.
type snapshotMsg chat.Snapshot

// invalidateMsg discards cached rendering state.
type invalidateMsg struct{}

// refreshMsg forces a full terminal repaint.
type refreshMsg struct{}

// model is the Bubble Tea model. It owns no chat state: it draws whatever
// the last snapshot said and forwards every key to the dispatcher.
type model struct {
	snap   chat.Snapshot
	styles Styles
	feed   viewport.Model

	width       int
	height      int
	inputChan   chan<- chat.InputEvent
	initialized bool
	quitting    bool
}

func newModel(inputChan chan<- chat.InputEvent) model {
	return model{
		styles:    StylesFor(""),
		feed:      viewport.New(0, 0),
		inputChan: inputChan,
	}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.EnterAltScreen
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeFeed()
		m.initialized = true
		select {
		case m.inputChan <- chat.InputEvent{Resize: true, Width: msg.Width, Height: msg.Height}:
		default:
		}
		return m, nil

	case snapshotMsg:
		atBottom := m.feed.AtBottom()
		m.snap = chat.Snapshot(msg)
		m.styles = StylesFor(m.snap.Theme)
		m.resizeFeed()
		m.feed.SetContent(m.renderFeed())
		if atBottom {
			m.feed.GotoBottom()
		}
		return m, nil

	case invalidateMsg:
		m.feed.SetContent(m.renderFeed())
		m.feed.GotoBottom()
		return m, nil

	case refreshMsg:
		return m, tea.ClearScreen

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "pgup":
			m.feed.HalfViewUp()
			return m, nil
		case "pgdown":
			m.feed.HalfViewDown()
			return m, nil
		}
		select {
		case m.inputChan <- chat.InputEvent{Key: msg.String()}:
		default:
			// Dispatcher lagging; dropping a key beats blocking the terminal.
		}
		return m, nil
	}

	return m, nil
}

func (m *model) resizeFeed() {
	w := m.width - sidebarWidth - 1
	if w < 1 {
		w = 1
	}
	h := m.height - 4 // title, topic, status, input
	if h < 1 {
		h = 1
	}
	m.feed.Width = w
	m.feed.Height = h
}

// View implements tea.Model.
func (m model) View() string {
	if !m.initialized {
		return "Connecting..."
	}
	if m.quitting {
		return ""
	}

	main := m.mainRegion()
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), " ", main)

	parts := []string{
		m.renderTitle(),
		m.renderTopic(),
		body,
		m.renderStatus(),
		m.renderInput(),
	}
	return strings.Join(parts, "\n")
}

// mainRegion is the feed, or whichever modal surface replaces it.
func (m model) mainRegion() string {
	switch {
	case m.snap.Mode == chat.ModeShowHelp:
		return m.styles.HelpText.
			Width(m.feed.Width).
			Height(m.feed.Height).
			Render(m.snap.HelpText)
	case m.snap.Overlay.Active:
		return m.renderOverlay()
	default:
		return m.feed.View()
	}
}

func (m model) renderFeed() string {
	if len(m.snap.Lines) == 0 {
		return m.styles.Muted.Render("No messages yet.")
	}
	lines := make([]string, len(m.snap.Lines))
	for i, line := range m.snap.Lines {
		if strings.HasPrefix(line, "* ") {
			lines[i] = m.styles.System.Render(line)
			continue
		}
		lines[i] = ansi.Hardwrap(line, m.feed.Width, true)
	}
	return strings.Join(lines, "\n")
}

func (m model) renderTitle() string {
	title := m.snap.Title
	if m.snap.TeamName != "" {
		title = m.snap.TeamName + " / " + title
	}
	return ansi.Truncate(m.styles.StatusBar.Bold(true).Render(title), m.width, "…")
}

func (m model) renderTopic() string {
	if m.snap.Topic == "" {
		return ""
	}
	return ansi.Truncate(m.styles.Topic.Render(m.snap.Topic), m.width, "…")
}

func (m model) renderSidebar() string {
	height := m.feed.Height
	rows := make([]string, 0, height)
	for _, entry := range m.snap.Sidebar {
		if len(rows) == height {
			break
		}
		label := ansi.Truncate(entry.Label, sidebarWidth-2, "…")
		style := m.styles.SidebarNormal
		marker := "  "
		switch {
		case entry.Current:
			style = m.styles.SidebarCurrent
			marker = "> "
		case entry.Unread:
			style = m.styles.SidebarUnread
			marker = "* "
		case entry.Stale:
			style = m.styles.SidebarStale
		}
		rows = append(rows, style.Render(padRight(marker+label, sidebarWidth)))
	}
	for len(rows) < height {
		rows = append(rows, strings.Repeat(" ", sidebarWidth))
	}
	return strings.Join(rows, "\n")
}

func (m model) renderStatus() string {
	conn := m.styles.StatusDisconnected.Render(m.snap.Status)
	if m.snap.Connected {
		conn = m.styles.StatusConnected.Render(m.snap.Status)
	}
	busy := ""
	if m.snap.Busy {
		busy = m.styles.StatusBusy.Render(fmt.Sprintf("  %d job(s) running", m.snap.BusyCount))
	}
	mode := ""
	if m.snap.Mode != chat.ModeMain {
		mode = m.styles.Muted.Render("  [" + m.snap.Mode.String() + "]")
	}
	return ansi.Truncate(conn+busy+mode, m.width, "…")
}

func (m model) renderInput() string {
	prompt := m.styles.InputPrompt.Render("> ")
	return prompt + m.styles.InputText.Render(m.snap.Input)
}

func (m model) renderOverlay() string {
	ov := m.snap.Overlay
	var b strings.Builder
	b.WriteString(m.styles.OverlayTitle.Render(ov.Title))
	if ov.Filter != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render("filter: " + ov.Filter))
	}
	for i, item := range ov.Items {
		b.WriteString("\n")
		line := ansi.Truncate(item, m.feed.Width-6, "…")
		if i == ov.Selected {
			b.WriteString(m.styles.OverlaySelected.Render("> " + line))
		} else {
			b.WriteString(m.styles.OverlayNormal.Render("  " + line))
		}
	}
	box := m.styles.OverlayBorder.MaxWidth(m.feed.Width).Render(b.String())
	return lipgloss.Place(m.feed.Width, m.feed.Height, lipgloss.Center, lipgloss.Center, box)
}

func padRight(s string, width int) string {
	if w := ansi.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
