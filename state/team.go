package state

import "github.com/drake/relay/chat"

// Team is the per-workspace slice of state. Each team carries its own Mode
// and the scratch fields the modal handlers work in.
type Team struct {
	chat.Team

	Mode chat.Mode

	Channels         map[string]*Channel
	ChannelOrder     []string
	CurrentChannelID string

	// Modal scratch. Which fields are meaningful depends on Mode; handlers
	// reset what they use on entry.
	Select      Selection
	Confirm     string // channel or post ID targeted by a confirm dialog
	Compose     string // message draft in Main mode
	TopicDraft  string
	NotifyDraft chat.NotifyPrefs
	Attachments []Attachment
	ViewPost    *chat.Post
	HelpTopic   string
	HelpText    string

	sidebar      []chat.SidebarEntry
	sidebarDirty bool
}

// Selection is the scratch state for list-style overlay modes: an
// incremental filter, the filtered items, and the cursor.
type Selection struct {
	Filter string
	Items  []string
	IDs    []string
	Index  int
}

// Reset clears the selection for a fresh overlay.
func (sel *Selection) Reset() {
	sel.Filter = ""
	sel.Items = nil
	sel.IDs = nil
	sel.Index = 0
}

// Move steps the cursor, clamped to the item list.
func (sel *Selection) Move(delta int) {
	sel.Index += delta
	if sel.Index < 0 {
		sel.Index = 0
	}
	if max := len(sel.Items) - 1; sel.Index > max {
		sel.Index = max
	}
	if sel.Index < 0 {
		sel.Index = 0
	}
}

// Current returns the selected ID, or "" when the list is empty.
func (sel *Selection) Current() string {
	if sel.Index < 0 || sel.Index >= len(sel.IDs) {
		return ""
	}
	return sel.IDs[sel.Index]
}

// Attachment is a file staged for the next post.
type Attachment struct {
	Path     string
	FileID   string // set once uploaded
	Uploaded bool
}

// Channel wraps the wire channel with client-side bookkeeping.
type Channel struct {
	chat.Channel

	Posts          []chat.Post
	Connected      bool
	Unread         bool
	Fetched        bool // posts have been loaded at least once
	Draft          string
	LastReadPostID string
}

// NewTeam creates an empty team in Main mode.
func NewTeam(t chat.Team) *Team {
	return &Team{
		Team:         t,
		Mode:         chat.ModeMain,
		Channels:     make(map[string]*Channel),
		sidebarDirty: true,
	}
}

// SetMode transitions the team's modal context. Transition validity is the
// handlers' business; this is just the state write.
func (t *Team) SetMode(m chat.Mode) {
	t.Mode = m
}

// AddChannel registers or updates a channel, keeping server order.
func (t *Team) AddChannel(c chat.Channel) *Channel {
	if existing, ok := t.Channels[c.ID]; ok {
		existing.Channel = c
		t.InvalidateSidebar()
		return existing
	}
	ch := &Channel{Channel: c, Connected: true}
	t.Channels[c.ID] = ch
	t.ChannelOrder = append(t.ChannelOrder, c.ID)
	if t.CurrentChannelID == "" && c.Member {
		t.CurrentChannelID = c.ID
	}
	t.InvalidateSidebar()
	return ch
}

// CurrentChannel returns the active channel, or nil.
func (t *Team) CurrentChannel() *Channel {
	return t.Channels[t.CurrentChannelID]
}

// SwitchChannel makes the given channel current and clears its unread mark.
func (t *Team) SwitchChannel(id string) bool {
	ch, ok := t.Channels[id]
	if !ok {
		return false
	}
	t.CurrentChannelID = id
	ch.Unread = false
	t.InvalidateSidebar()
	return true
}

// RemoveChannel drops a channel (left or deleted) and moves the cursor to
// the first remaining member channel if it was current.
func (t *Team) RemoveChannel(id string) {
	if _, ok := t.Channels[id]; !ok {
		return
	}
	delete(t.Channels, id)
	order := t.ChannelOrder[:0]
	for _, cid := range t.ChannelOrder {
		if cid != id {
			order = append(order, cid)
		}
	}
	t.ChannelOrder = order
	if t.CurrentChannelID == id {
		t.CurrentChannelID = ""
		for _, cid := range t.ChannelOrder {
			if t.Channels[cid].Member {
				t.CurrentChannelID = cid
				break
			}
		}
	}
	t.InvalidateSidebar()
}

// ChannelByName finds a channel by its name or display name.
func (t *Team) ChannelByName(name string) *Channel {
	for _, id := range t.ChannelOrder {
		ch := t.Channels[id]
		if ch.Name == name || ch.DisplayName == name {
			return ch
		}
	}
	return nil
}

// InvalidateSidebar marks the cached sidebar stale.
func (t *Team) InvalidateSidebar() {
	t.sidebarDirty = true
}

// Sidebar returns the cached sidebar entries, rebuilding if stale.
func (t *Team) Sidebar() []chat.SidebarEntry {
	if !t.sidebarDirty {
		return t.sidebar
	}
	entries := make([]chat.SidebarEntry, 0, len(t.ChannelOrder))
	for _, id := range t.ChannelOrder {
		ch := t.Channels[id]
		if !ch.Member {
			continue
		}
		label := ch.DisplayName
		if label == "" {
			label = ch.Name
		}
		entries = append(entries, chat.SidebarEntry{
			ChannelID: id,
			Label:     label,
			Current:   id == t.CurrentChannelID,
			Unread:    ch.Unread,
			Stale:     !ch.Connected,
		})
	}
	t.sidebar = entries
	t.sidebarDirty = false
	return entries
}
