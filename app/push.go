package app

import (
	"encoding/json"

	"github.com/drake/relay/chat"
)

// onPush applies a server push event. Unknown actions are dropped silently;
// the server grows event types faster than clients grow handlers.
func (a *App) onPush(ev *chat.ServerEvent) {
	if ev == nil {
		return
	}
	switch ev.Action {
	case "posted":
		if post, ok := decodePost(ev.Data, "post"); ok {
			a.applyIncomingPost(post)
		}

	case "post_deleted":
		if post, ok := decodePost(ev.Data, "post"); ok {
			for teamID, team := range a.st.Teams {
				if _, exists := team.Channels[post.ChannelID]; exists {
					a.removePost(teamID, post.ChannelID, post.ID)
				}
			}
		}

	case "status_change":
		userID, _ := ev.Data["user_id"].(string)
		status, _ := ev.Data["status"].(string)
		if userID != "" {
			a.st.Statuses[userID] = status
		}

	case "channel_updated":
		raw, _ := ev.Data["channel"].(string)
		var c chat.Channel
		if raw == "" || json.Unmarshal([]byte(raw), &c) != nil {
			return
		}
		if team := a.st.Teams[c.TeamID]; team != nil {
			if ch := team.Channels[c.ID]; ch != nil {
				member := ch.Member
				ch.Channel = c
				ch.Member = member
				team.InvalidateSidebar()
			}
		}

	case "channel_deleted":
		if team := a.st.Teams[ev.TeamID]; team != nil {
			team.RemoveChannel(ev.ChannelID)
		}

	case "user_added", "user_removed", "typing", "channel_viewed", "hello":
		// Nothing a text client must do with these yet.
	}
}

// decodePost extracts an embedded post payload (the server nests it as a
// JSON string inside the event data).
func decodePost(data map[string]any, key string) (chat.Post, bool) {
	raw, _ := data[key].(string)
	if raw == "" {
		return chat.Post{}, false
	}
	var post chat.Post
	if err := json.Unmarshal([]byte(raw), &post); err != nil {
		return chat.Post{}, false
	}
	return post, true
}

// applyIncomingPost appends a post to its channel feed, deduplicating
// against the echo of our own sends, and queues author lookups.
func (a *App) applyIncomingPost(post chat.Post) {
	for _, team := range a.st.Teams {
		ch := team.Channels[post.ChannelID]
		if ch == nil {
			continue
		}
		for i := len(ch.Posts) - 1; i >= 0 && i >= len(ch.Posts)-20; i-- {
			if ch.Posts[i].ID == post.ID {
				return // already have it
			}
		}
		ch.Posts = append(ch.Posts, post)
		if team.CurrentChannelID != ch.ID {
			ch.Unread = true
			team.InvalidateSidebar()
		}
		a.st.NeedUser(post.UserID)
		a.st.NeedStatus(post.UserID)
		return
	}
}
