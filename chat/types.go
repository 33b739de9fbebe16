// Package chat defines the core domain types shared between the dispatcher,
// the server client, and the terminal UI. It is the contract layer: the
// Event union, the Mode enum, the error taxonomy, and the narrow interfaces
// the collaborators are consumed through.
package chat

import "context"

// ConnectionStatus tracks the real-time connection to the chat server.
// It is mutated only by EventConnected/EventDisconnected handling.
type ConnectionStatus int

const (
	Disconnected ConnectionStatus = iota
	Connected
)

func (s ConnectionStatus) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// EventType identifies what kind of packet arrived on the event channel.
type EventType int

const (
	EventPush        EventType = iota // server push event (payload semantics in app)
	EventConnected                    // real-time connection established
	EventDisconnected                 // real-time connection lost
	EventRateLimited                  // server rate limit hit; Seconds holds the retry window
	EventRateLimitSettingsMissing
	EventRequestDropped
	EventWorkerIdle
	EventWorkerBusy // Count holds the number of queued jobs
	EventJobResult  // Callback is the continuation of a finished job
	EventNotice     // locally synthesized notice, formatted as a system message
)

// Event is the universal packet delivered to the dispatcher. Exactly one of
// the payload fields is meaningful, selected by Type. Events are immutable
// once constructed and consumed exactly once.
type Event struct {
	Type     EventType
	Push     *ServerEvent // EventPush
	Callback func()       // EventJobResult; runs on the dispatcher goroutine
	Notice   Notice       // EventNotice
	Seconds  int          // EventRateLimited
	Count    int          // EventWorkerBusy
}

// Notice is a locally synthesized message routed through the event channel
// and rendered as an in-channel system message. If Err is set it is rendered
// through the error taxonomy; otherwise Text is shown verbatim.
type Notice struct {
	Text string
	Err  *UserError
}

// ServerEvent is a push event from the real-time connection. Payload
// semantics beyond the few actions the dispatcher knows are opaque.
type ServerEvent struct {
	Action    string
	TeamID    string
	ChannelID string
	UserID    string
	Data      map[string]any
}

// InputEvent is a raw terminal event from the UI collaborator: either a key
// press or a resize.
type InputEvent struct {
	Resize bool
	Width  int
	Height int
	Key    string // bubbletea key string, e.g. "enter", "ctrl+l", "a"
}

// --- Wire types ---

// Team is a top-level workspace. Exactly one Mode is active per team.
type Team struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// Channel is a conversation inside a team.
type Channel struct {
	ID          string `json:"id"`
	TeamID      string `json:"team_id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Topic       string `json:"header"`
	Member      bool   `json:"-"`
}

// Post is a single message in a channel.
type Post struct {
	ID        string   `json:"id"`
	ChannelID string   `json:"channel_id"`
	UserID    string   `json:"user_id"`
	Message   string   `json:"message"`
	CreateAt  int64    `json:"create_at"`
	FileIDs   []string `json:"file_ids,omitempty"`
	System    bool     `json:"-"`
}

// User is a chat server account.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
}

// ClientConfig is server-side configuration the client must honor.
type ClientConfig struct {
	SiteName          string `json:"SiteName"`
	MaxFileSize       int64  `json:"MaxFileSize,string"`
	EnableCommands    bool   `json:"EnableCommands,string"`
	MaxMessageLength  int    `json:"MaxPostSize,string"`
	RestrictReactions bool   `json:"-"`
}

// NotifyPrefs holds per-channel notification preferences.
type NotifyPrefs struct {
	Desktop    string `json:"desktop"`
	MarkUnread string `json:"mark_unread"`
	IgnoreAll  bool   `json:"-"`
}

// --- Collaborator contracts ---

// Server is the chat-server client collaborator: authenticated
// request/response calls plus a real-time event stream. Implementations own
// retry/backoff; the dispatcher only surfaces outcomes.
type Server interface {
	// Events is the stable stream of push events and connection-lifecycle
	// signals. It never closes while the client runs.
	Events() <-chan Event
	// Listen starts the real-time connection, reconnecting until ctx ends.
	Listen(ctx context.Context)

	Me(ctx context.Context) (User, error)
	ClientConfig(ctx context.Context) (ClientConfig, error)
	Teams(ctx context.Context) ([]Team, error)
	Channels(ctx context.Context, teamID string) ([]Channel, error)
	Posts(ctx context.Context, channelID string, limit int) ([]Post, error)
	UsersByIDs(ctx context.Context, ids []string) ([]User, error)
	StatusesByIDs(ctx context.Context, ids []string) (map[string]string, error)
	CreatePost(ctx context.Context, channelID, message string, fileIDs []string) (Post, error)
	DeletePost(ctx context.Context, postID string) error
	JoinChannel(ctx context.Context, channelID string) error
	LeaveChannel(ctx context.Context, channelID string) error
	DeleteChannel(ctx context.Context, channelID string) error
	SetChannelTopic(ctx context.Context, channelID, topic string) error
	UpdateNotifyPrefs(ctx context.Context, channelID string, prefs NotifyPrefs) error
	UploadFile(ctx context.Context, channelID, path string) (string, error)
	AddReaction(ctx context.Context, postID, emoji string) error
}

// UI is the terminal collaborator. The dispatcher reads input from it and
// pushes render snapshots to it between event-loop iterations; the UI never
// touches shared state directly.
type UI interface {
	Run() error
	Quit()
	Done() <-chan struct{}

	// Input yields key presses and resize notifications.
	Input() <-chan InputEvent

	// Present hands the UI a fresh snapshot to draw from.
	Present(Snapshot)

	// Invalidate discards any cached rendering (called on resize).
	Invalidate()

	// Refresh forces a full terminal repaint (the global refresh binding).
	Refresh()
}

// Snapshot is the render-ready view of shared state. It is built by the
// dispatcher after each event; the UI draws only from snapshots.
type Snapshot struct {
	Mode       Mode
	Theme      string
	TeamName   string
	Title      string
	Topic      string
	Status     string
	Connected  bool
	Busy       bool
	BusyCount  int
	Sidebar    []SidebarEntry
	Lines      []string
	Input      string
	Overlay    Overlay
	HelpText   string
	Width      int
	Height     int
}

// SidebarEntry is one row of the channel sidebar.
type SidebarEntry struct {
	ChannelID string
	Label     string
	Current   bool
	Unread    bool
	Stale     bool // member channel marked disconnected
}

// Overlay describes a list-style overlay (themes, posts, users, channels,
// emoji, URL select, channel select) when one is active.
type Overlay struct {
	Active   bool
	Title    string
	Filter   string
	Items    []string
	Selected int
}
