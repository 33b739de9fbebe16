package app

import (
	"fmt"

	"github.com/drake/relay/chat"
	"github.com/drake/relay/state"
)

// present projects the current state into an immutable Snapshot and hands it
// to the UI. Called once per dispatched event, after maintenance.
func (a *App) present() {
	snap := chat.Snapshot{
		Theme:     a.st.Theme,
		Status:    a.st.Status.String(),
		Connected: a.st.Status == chat.Connected,
		Busy:      a.st.Busy,
		BusyCount: a.st.BusyCount,
		Width:     a.st.Width,
		Height:    a.st.Height,
		Mode:      chat.ModeMain,
	}

	team := a.st.CurrentTeam()
	if team == nil {
		a.ui.Present(snap)
		return
	}

	snap.Mode = team.Mode
	snap.TeamName = teamLabel(&team.Team)
	snap.Sidebar = team.Sidebar()
	snap.HelpText = team.HelpText

	if ch := team.CurrentChannel(); ch != nil {
		snap.Title = channelLabel(ch)
		snap.Topic = ch.Topic
		snap.Lines = a.renderFeed(ch)
	}

	snap.Input = inputLine(team)
	snap.Overlay = a.overlayFor(team)

	a.ui.Present(snap)
}

// renderFeed formats the channel's posts as display lines.
func (a *App) renderFeed(ch *state.Channel) []string {
	lines := make([]string, 0, len(ch.Posts))
	for _, p := range ch.Posts {
		if p.System {
			lines = append(lines, "* "+p.Message)
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", a.st.UsernameFor(p.UserID), p.Message))
	}
	return lines
}

// inputLine picks the text the input row shows for the team's current mode.
func inputLine(team *state.Team) string {
	switch team.Mode {
	case chat.ModeChannelTopicWindow:
		return team.TopicDraft
	case chat.ModeManageAttachmentsBrowseFiles:
		return team.Select.Filter
	default:
		return team.Compose
	}
}

var overlayTitles = map[chat.Mode]string{
	chat.ModeChannelSelect:                "Jump to channel",
	chat.ModeURLSelect:                    "Select a URL",
	chat.ModeMessageSelect:                "Select a message",
	chat.ModeThemeList:                    "Themes",
	chat.ModePostList:                     "Posts",
	chat.ModeUserList:                     "Users",
	chat.ModeChannelList:                  "Channels",
	chat.ModeReactionEmojiList:            "Add a reaction",
	chat.ModeManageAttachments:            "Attachments",
	chat.ModeManageAttachmentsBrowseFiles: "Attach a file",
}

// overlayFor builds the overlay view for the team's mode. List modes show
// the selection scratch; confirm and viewer modes synthesize their content
// here so the UI stays a dumb renderer. Modes without an overlay return the
// zero value.
func (a *App) overlayFor(team *state.Team) chat.Overlay {
	if title, ok := overlayTitles[team.Mode]; ok {
		return chat.Overlay{
			Active:   true,
			Title:    title,
			Filter:   team.Select.Filter,
			Items:    team.Select.Items,
			Selected: team.Select.Index,
		}
	}

	switch team.Mode {
	case chat.ModeLeaveChannelConfirm:
		return confirmOverlay("Leave this channel? (y/n)")
	case chat.ModeDeleteChannelConfirm:
		return confirmOverlay("Delete this channel? This cannot be undone. (y/n)")
	case chat.ModeMessageSelectDeleteConfirm:
		return confirmOverlay("Delete this message? (y/n)")
	case chat.ModeViewMessage:
		if team.ViewPost == nil {
			return chat.Overlay{}
		}
		return chat.Overlay{
			Active: true,
			Title:  "Message from " + a.st.UsernameFor(team.ViewPost.UserID),
			Items:  []string{team.ViewPost.Message},
		}
	case chat.ModeEditNotifyPrefs:
		d := team.NotifyDraft
		ignore := "no"
		if d.IgnoreAll {
			ignore = "yes"
		}
		return chat.Overlay{
			Active: true,
			Title:  "Notification preferences",
			Items: []string{
				"[d] Desktop notifications: " + d.Desktop,
				"[u] Mark unread: " + d.MarkUnread,
				"[i] Ignore all mentions: " + ignore,
			},
		}
	}
	return chat.Overlay{}
}

func confirmOverlay(prompt string) chat.Overlay {
	return chat.Overlay{Active: true, Title: prompt}
}

// teamLabel prefers the display name, falling back to the short name.
func teamLabel(t *chat.Team) string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return t.Name
}
