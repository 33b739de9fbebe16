package server

import (
	"context"
	"sync"

	"github.com/drake/relay/chat"
)

// Mock is a scriptable chat.Server for tests and offline development. Unset
// function fields succeed with zero values; every call is recorded.
type Mock struct {
	EventsCh chan chat.Event

	MeFunc                func(ctx context.Context) (chat.User, error)
	ClientConfigFunc      func(ctx context.Context) (chat.ClientConfig, error)
	TeamsFunc             func(ctx context.Context) ([]chat.Team, error)
	ChannelsFunc          func(ctx context.Context, teamID string) ([]chat.Channel, error)
	PostsFunc             func(ctx context.Context, channelID string, limit int) ([]chat.Post, error)
	UsersByIDsFunc        func(ctx context.Context, ids []string) ([]chat.User, error)
	StatusesByIDsFunc     func(ctx context.Context, ids []string) (map[string]string, error)
	CreatePostFunc        func(ctx context.Context, channelID, message string, fileIDs []string) (chat.Post, error)
	DeletePostFunc        func(ctx context.Context, postID string) error
	JoinChannelFunc       func(ctx context.Context, channelID string) error
	LeaveChannelFunc      func(ctx context.Context, channelID string) error
	DeleteChannelFunc     func(ctx context.Context, channelID string) error
	SetChannelTopicFunc   func(ctx context.Context, channelID, topic string) error
	UpdateNotifyPrefsFunc func(ctx context.Context, channelID string, prefs chat.NotifyPrefs) error
	UploadFileFunc        func(ctx context.Context, channelID, path string) (string, error)
	AddReactionFunc       func(ctx context.Context, postID, emoji string) error

	mu    sync.Mutex
	calls []string
}

var _ chat.Server = (*Mock)(nil)

// NewMock creates a mock with a buffered event channel.
func NewMock() *Mock {
	return &Mock{EventsCh: make(chan chat.Event, 64)}
}

// Calls returns the method names invoked so far, in order.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times the named method was invoked.
func (m *Mock) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *Mock) record(name string) {
	m.mu.Lock()
	m.calls = append(m.calls, name)
	m.mu.Unlock()
}

func (m *Mock) Events() <-chan chat.Event { return m.EventsCh }

func (m *Mock) Listen(ctx context.Context) { <-ctx.Done() }

func (m *Mock) Me(ctx context.Context) (chat.User, error) {
	m.record("Me")
	if m.MeFunc != nil {
		return m.MeFunc(ctx)
	}
	return chat.User{}, nil
}

func (m *Mock) ClientConfig(ctx context.Context) (chat.ClientConfig, error) {
	m.record("ClientConfig")
	if m.ClientConfigFunc != nil {
		return m.ClientConfigFunc(ctx)
	}
	return chat.ClientConfig{}, nil
}

func (m *Mock) Teams(ctx context.Context) ([]chat.Team, error) {
	m.record("Teams")
	if m.TeamsFunc != nil {
		return m.TeamsFunc(ctx)
	}
	return nil, nil
}

func (m *Mock) Channels(ctx context.Context, teamID string) ([]chat.Channel, error) {
	m.record("Channels")
	if m.ChannelsFunc != nil {
		return m.ChannelsFunc(ctx, teamID)
	}
	return nil, nil
}

func (m *Mock) Posts(ctx context.Context, channelID string, limit int) ([]chat.Post, error) {
	m.record("Posts")
	if m.PostsFunc != nil {
		return m.PostsFunc(ctx, channelID, limit)
	}
	return nil, nil
}

func (m *Mock) UsersByIDs(ctx context.Context, ids []string) ([]chat.User, error) {
	m.record("UsersByIDs")
	if m.UsersByIDsFunc != nil {
		return m.UsersByIDsFunc(ctx, ids)
	}
	return nil, nil
}

func (m *Mock) StatusesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	m.record("StatusesByIDs")
	if m.StatusesByIDsFunc != nil {
		return m.StatusesByIDsFunc(ctx, ids)
	}
	return nil, nil
}

func (m *Mock) CreatePost(ctx context.Context, channelID, message string, fileIDs []string) (chat.Post, error) {
	m.record("CreatePost")
	if m.CreatePostFunc != nil {
		return m.CreatePostFunc(ctx, channelID, message, fileIDs)
	}
	return chat.Post{ChannelID: channelID, Message: message, FileIDs: fileIDs}, nil
}

func (m *Mock) DeletePost(ctx context.Context, postID string) error {
	m.record("DeletePost")
	if m.DeletePostFunc != nil {
		return m.DeletePostFunc(ctx, postID)
	}
	return nil
}

func (m *Mock) JoinChannel(ctx context.Context, channelID string) error {
	m.record("JoinChannel")
	if m.JoinChannelFunc != nil {
		return m.JoinChannelFunc(ctx, channelID)
	}
	return nil
}

func (m *Mock) LeaveChannel(ctx context.Context, channelID string) error {
	m.record("LeaveChannel")
	if m.LeaveChannelFunc != nil {
		return m.LeaveChannelFunc(ctx, channelID)
	}
	return nil
}

func (m *Mock) DeleteChannel(ctx context.Context, channelID string) error {
	m.record("DeleteChannel")
	if m.DeleteChannelFunc != nil {
		return m.DeleteChannelFunc(ctx, channelID)
	}
	return nil
}

func (m *Mock) SetChannelTopic(ctx context.Context, channelID, topic string) error {
	m.record("SetChannelTopic")
	if m.SetChannelTopicFunc != nil {
		return m.SetChannelTopicFunc(ctx, channelID, topic)
	}
	return nil
}

func (m *Mock) UpdateNotifyPrefs(ctx context.Context, channelID string, prefs chat.NotifyPrefs) error {
	m.record("UpdateNotifyPrefs")
	if m.UpdateNotifyPrefsFunc != nil {
		return m.UpdateNotifyPrefsFunc(ctx, channelID, prefs)
	}
	return nil
}

func (m *Mock) UploadFile(ctx context.Context, channelID, path string) (string, error) {
	m.record("UploadFile")
	if m.UploadFileFunc != nil {
		return m.UploadFileFunc(ctx, channelID, path)
	}
	return "file-id", nil
}

func (m *Mock) AddReaction(ctx context.Context, postID, emoji string) error {
	m.record("AddReaction")
	if m.AddReactionFunc != nil {
		return m.AddReactionFunc(ctx, postID, emoji)
	}
	return nil
}
