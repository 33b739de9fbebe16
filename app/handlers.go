package app

import (
	"strings"
	"unicode/utf8"

	"github.com/atotto/clipboard"

	"github.com/drake/relay/chat"
	"github.com/drake/relay/jobs"
	"github.com/drake/relay/state"
)

// Mode handlers. Each consumes exactly one key press and decides its own
// target mode; the dispatcher knows nothing about dialog semantics.

func (a *App) handleMain(team *state.Team, key string) {
	switch key {
	case "enter":
		a.submitCompose(team)
	case "backspace":
		team.Compose = trimLastRune(team.Compose)
	case "ctrl+u":
		team.Compose = ""
	case "ctrl+o":
		a.openURLSelect(team)
	case "ctrl+s":
		a.openMessageSelect(team)
	case "ctrl+a":
		team.Select.Reset()
		a.syncAttachmentList(team)
		team.SetMode(chat.ModeManageAttachments)
	case "ctrl+n":
		a.openNotifyPrefs(team)
	case "ctrl+e":
		a.openTopicWindow(team)
	default:
		team.Compose = appendPrintable(team.Compose, key)
	}
}

// submitCompose sends the draft: commands run inline, messages become a
// background post (uploading any staged attachments first).
func (a *App) submitCompose(team *state.Team) {
	text := strings.TrimSpace(team.Compose)
	if text == "" {
		return
	}
	team.Compose = ""

	if strings.HasPrefix(text, "/") {
		a.runCommand(team, text)
		return
	}

	ch := team.CurrentChannel()
	if ch == nil {
		a.postError(chat.Errorf("No channel is active; join one first."))
		return
	}
	channelID := ch.ID
	ch.Draft = ""
	a.persistDraft(channelID, "")

	attachments := make([]state.Attachment, len(team.Attachments))
	copy(attachments, team.Attachments)
	team.Attachments = nil

	a.queue.Enqueue(jobs.Normal, func() func() {
		fileIDs := make([]string, 0, len(attachments))
		for _, att := range attachments {
			id, err := a.server.UploadFile(a.ctx, channelID, att.Path)
			if err != nil {
				return a.serverErrCont(err)
			}
			fileIDs = append(fileIDs, id)
		}
		post, err := a.server.CreatePost(a.ctx, channelID, text, fileIDs)
		if err != nil {
			return a.serverErrCont(err)
		}
		return func() { a.applyIncomingPost(post) }
	})
}

func (a *App) handleChannelSelect(team *state.Team, key string) {
	switch key {
	case "esc":
		team.Select.Reset()
		team.SetMode(chat.ModeMain)
	case "enter":
		id := team.Select.Current()
		team.Select.Reset()
		team.SetMode(chat.ModeMain)
		if id != "" {
			a.switchChannel(team, id)
		}
	case "up", "ctrl+p":
		team.Select.Move(-1)
	case "down", "ctrl+n":
		team.Select.Move(1)
	case "backspace":
		team.Select.Filter = trimLastRune(team.Select.Filter)
		a.refilterChannels(team)
	default:
		if next := appendPrintable(team.Select.Filter, key); next != team.Select.Filter {
			team.Select.Filter = next
			a.refilterChannels(team)
		}
	}
}

func (a *App) handleURLSelect(team *state.Team, key string) {
	switch key {
	case "esc", "q":
		team.Select.Reset()
		team.SetMode(chat.ModeMain)
	case "up", "k":
		team.Select.Move(-1)
	case "down", "j":
		team.Select.Move(1)
	case "enter":
		url := team.Select.Current()
		team.Select.Reset()
		team.SetMode(chat.ModeMain)
		if url == "" {
			return
		}
		if err := clipboard.WriteAll(url); err != nil {
			a.postError(chat.ClipboardError(err))
			return
		}
		a.postText("Copied to clipboard: " + url)
	case "o":
		url := team.Select.Current()
		team.Select.Reset()
		team.SetMode(chat.ModeMain)
		if url != "" {
			a.openURL(url)
		}
	}
}

func (a *App) handleLeaveChannelConfirm(team *state.Team, key string) {
	target := team.Confirm
	team.Confirm = ""
	// Any key other than the confirm key cancels.
	team.SetMode(chat.ModeMain)
	if key != "y" || target == "" {
		return
	}
	teamID := team.ID
	a.queue.Enqueue(jobs.Normal, func() func() {
		if err := a.server.LeaveChannel(a.ctx, target); err != nil {
			return a.serverErrCont(err)
		}
		return func() {
			if t := a.st.Teams[teamID]; t != nil {
				t.RemoveChannel(target)
			}
		}
	})
}

func (a *App) handleDeleteChannelConfirm(team *state.Team, key string) {
	target := team.Confirm
	team.Confirm = ""
	team.SetMode(chat.ModeMain)
	if key != "y" || target == "" {
		return
	}
	teamID := team.ID
	a.queue.Enqueue(jobs.Normal, func() func() {
		if err := a.server.DeleteChannel(a.ctx, target); err != nil {
			return a.serverErrCont(err)
		}
		return func() {
			if t := a.st.Teams[teamID]; t != nil {
				t.RemoveChannel(target)
			}
		}
	})
}

func (a *App) handleMessageSelect(team *state.Team, key string) {
	switch key {
	case "esc", "q":
		team.Select.Reset()
		team.SetMode(chat.ModeMain)
	case "up", "k":
		team.Select.Move(-1)
	case "down", "j":
		team.Select.Move(1)
	case "d":
		postID := team.Select.Current()
		if postID == "" {
			return
		}
		post := a.findPost(team, postID)
		if post == nil {
			return
		}
		if post.UserID != a.st.Me.ID {
			a.postError(chat.Errorf("You may only delete your own messages."))
			return
		}
		team.Confirm = postID
		team.SetMode(chat.ModeMessageSelectDeleteConfirm)
	case "r":
		postID := team.Select.Current()
		if postID == "" {
			return
		}
		team.Confirm = postID
		a.openReactionList(team)
	case "v", "enter":
		postID := team.Select.Current()
		if post := a.findPost(team, postID); post != nil {
			team.ViewPost = post
			team.Select.Reset()
			team.SetMode(chat.ModeViewMessage)
		}
	}
}

func (a *App) handleMessageDeleteConfirm(team *state.Team, key string) {
	target := team.Confirm
	team.Confirm = ""
	team.Select.Reset()
	team.SetMode(chat.ModeMain)
	if key != "y" || target == "" {
		return
	}
	teamID := team.ID
	channelID := team.CurrentChannelID
	a.queue.Enqueue(jobs.Normal, func() func() {
		if err := a.server.DeletePost(a.ctx, target); err != nil {
			return a.serverErrCont(err)
		}
		return func() { a.removePost(teamID, channelID, target) }
	})
}

func (a *App) handleShowHelp(team *state.Team, key string) {
	switch key {
	case "esc", "q", "enter":
		team.HelpText = ""
		team.SetMode(chat.ModeMain)
	}
}

func (a *App) handleThemeList(team *state.Team, key string) {
	switch key {
	case "esc", "q":
		team.Select.Reset()
		team.SetMode(chat.ModeMain)
	case "up", "k":
		team.Select.Move(-1)
	case "down", "j":
		team.Select.Move(1)
	case "enter":
		if theme := team.Select.Current(); theme != "" {
			a.st.Theme = theme
			a.ui.Invalidate()
		}
		team.Select.Reset()
		team.SetMode(chat.ModeMain)
	}
}

func (a *App) handlePostList(team *state.Team, key string) {
	switch key {
	case "esc", "q":
		team.Select.Reset()
		team.SetMode(chat.ModeMain)
	case "up", "k":
		team.Select.Move(-1)
	case "down", "j":
		team.Select.Move(1)
	case "enter":
		postID := team.Select.Current()
		if post := a.findPost(team, postID); post != nil {
			team.ViewPost = post
			team.Select.Reset()
			team.SetMode(chat.ModeViewMessage)
			return
		}
		team.Select.Reset()
		team.SetMode(chat.ModeMain)
	}
}

func (a *App) handleUserList(team *state.Team, key string) {
	switch key {
	case "esc", "q", "enter":
		team.Select.Reset()
		team.SetMode(chat.ModeMain)
	case "up", "ctrl+p":
		team.Select.Move(-1)
	case "down", "ctrl+n":
		team.Select.Move(1)
	case "backspace":
		team.Select.Filter = trimLastRune(team.Select.Filter)
		a.refilterUsers(team)
	default:
		if next := appendPrintable(team.Select.Filter, key); next != team.Select.Filter {
			team.Select.Filter = next
			a.refilterUsers(team)
		}
	}
}

func (a *App) handleChannelList(team *state.Team, key string) {
	switch key {
	case "esc", "q":
		team.Select.Reset()
		team.SetMode(chat.ModeMain)
	case "up", "k":
		team.Select.Move(-1)
	case "down", "j":
		team.Select.Move(1)
	case "enter":
		id := team.Select.Current()
		team.Select.Reset()
		team.SetMode(chat.ModeMain)
		if id == "" {
			return
		}
		if ch := team.Channels[id]; ch != nil && !ch.Member {
			a.joinChannel(team, id)
			return
		}
		a.switchChannel(team, id)
	}
}

func (a *App) handleReactionEmojiList(team *state.Team, key string) {
	switch key {
	case "esc", "q":
		team.Select.Reset()
		team.Confirm = ""
		team.SetMode(chat.ModeMain)
	case "up", "ctrl+p":
		team.Select.Move(-1)
	case "down", "ctrl+n":
		team.Select.Move(1)
	case "enter":
		emoji := team.Select.Current()
		postID := team.Confirm
		team.Select.Reset()
		team.Confirm = ""
		team.SetMode(chat.ModeMain)
		if emoji == "" || postID == "" {
			return
		}
		a.queue.Enqueue(jobs.Normal, func() func() {
			if err := a.server.AddReaction(a.ctx, postID, emoji); err != nil {
				return a.serverErrCont(err)
			}
			return nil
		})
	case "backspace":
		team.Select.Filter = trimLastRune(team.Select.Filter)
		a.refilterEmoji(team)
	default:
		if next := appendPrintable(team.Select.Filter, key); next != team.Select.Filter {
			team.Select.Filter = next
			a.refilterEmoji(team)
		}
	}
}

func (a *App) handleViewMessage(team *state.Team, key string) {
	switch key {
	case "esc", "q", "enter":
		team.ViewPost = nil
		team.SetMode(chat.ModeMain)
	}
}

func (a *App) handleManageAttachments(team *state.Team, key string) {
	switch key {
	case "esc", "q":
		team.Select.Reset()
		team.SetMode(chat.ModeMain)
	case "up", "k":
		team.Select.Move(-1)
	case "down", "j":
		team.Select.Move(1)
	case "a":
		team.Select.Reset()
		team.SetMode(chat.ModeManageAttachmentsBrowseFiles)
	case "d":
		idx := team.Select.Index
		if idx >= 0 && idx < len(team.Attachments) {
			team.Attachments = append(team.Attachments[:idx], team.Attachments[idx+1:]...)
			a.syncAttachmentList(team)
		}
	}
}

func (a *App) handleBrowseFiles(team *state.Team, key string) {
	switch key {
	case "esc":
		team.Select.Reset()
		a.syncAttachmentList(team)
		team.SetMode(chat.ModeManageAttachments)
	case "enter":
		path := strings.TrimSpace(team.Select.Filter)
		team.Select.Reset()
		a.syncAttachmentList(team)
		team.SetMode(chat.ModeManageAttachments)
		if path == "" {
			return
		}
		a.stageAttachment(team, path)
	case "backspace":
		team.Select.Filter = trimLastRune(team.Select.Filter)
	default:
		team.Select.Filter = appendPrintable(team.Select.Filter, key)
	}
}

func (a *App) handleEditNotifyPrefs(team *state.Team, key string) {
	switch key {
	case "esc", "q":
		team.SetMode(chat.ModeMain)
	case "d":
		team.NotifyDraft.Desktop = cycleNotifyLevel(team.NotifyDraft.Desktop)
	case "u":
		if team.NotifyDraft.MarkUnread == "all" {
			team.NotifyDraft.MarkUnread = "mention"
		} else {
			team.NotifyDraft.MarkUnread = "all"
		}
	case "i":
		team.NotifyDraft.IgnoreAll = !team.NotifyDraft.IgnoreAll
	case "enter":
		prefs := team.NotifyDraft
		channelID := team.CurrentChannelID
		team.SetMode(chat.ModeMain)
		if channelID == "" {
			return
		}
		a.queue.Enqueue(jobs.Normal, func() func() {
			if err := a.server.UpdateNotifyPrefs(a.ctx, channelID, prefs); err != nil {
				return a.serverErrCont(err)
			}
			return func() { a.postText("Notification preferences saved.") }
		})
	}
}

func (a *App) handleChannelTopicWindow(team *state.Team, key string) {
	switch key {
	case "esc":
		team.TopicDraft = ""
		team.SetMode(chat.ModeMain)
	case "backspace":
		team.TopicDraft = trimLastRune(team.TopicDraft)
	case "ctrl+u":
		team.TopicDraft = ""
	case "enter":
		topic := team.TopicDraft
		channelID := team.CurrentChannelID
		team.TopicDraft = ""
		team.SetMode(chat.ModeMain)
		if channelID == "" {
			return
		}
		teamID := team.ID
		a.queue.Enqueue(jobs.Normal, func() func() {
			if err := a.server.SetChannelTopic(a.ctx, channelID, topic); err != nil {
				return a.serverErrCont(err)
			}
			return func() {
				if t := a.st.Teams[teamID]; t != nil {
					if ch := t.Channels[channelID]; ch != nil {
						ch.Topic = topic
					}
				}
			}
		})
	default:
		team.TopicDraft = appendPrintable(team.TopicDraft, key)
	}
}

// --- Shared helpers ---

// appendPrintable appends a key to a text buffer when it is a single
// printable rune (or a space); control chords pass through unchanged.
func appendPrintable(buf, key string) string {
	if key == " " {
		return buf + " "
	}
	if utf8.RuneCountInString(key) == 1 {
		return buf + key
	}
	return buf
}

func trimLastRune(s string) string {
	if s == "" {
		return s
	}
	_, size := utf8.DecodeLastRuneInString(s)
	return s[:len(s)-size]
}

func cycleNotifyLevel(level string) string {
	switch level {
	case "all":
		return "mention"
	case "mention":
		return "none"
	default:
		return "all"
	}
}

// findPost locates a post by ID in the team's current channel.
func (a *App) findPost(team *state.Team, postID string) *chat.Post {
	if postID == "" {
		return nil
	}
	ch := team.CurrentChannel()
	if ch == nil {
		return nil
	}
	for i := range ch.Posts {
		if ch.Posts[i].ID == postID {
			return &ch.Posts[i]
		}
	}
	return nil
}

// removePost deletes a post from a channel feed.
func (a *App) removePost(teamID, channelID, postID string) {
	team := a.st.Teams[teamID]
	if team == nil {
		return
	}
	ch := team.Channels[channelID]
	if ch == nil {
		return
	}
	for i := range ch.Posts {
		if ch.Posts[i].ID == postID {
			ch.Posts = append(ch.Posts[:i], ch.Posts[i+1:]...)
			return
		}
	}
}

// stageAttachment validates a path and adds it to the next message.
func (a *App) stageAttachment(team *state.Team, path string) {
	if !fileExists(path) {
		a.postError(chat.Errorf("No such file: %s", path))
		return
	}
	team.Attachments = append(team.Attachments, state.Attachment{Path: path})
	a.syncAttachmentList(team)
}

// syncAttachmentList refreshes the overlay items from the staged set.
func (a *App) syncAttachmentList(team *state.Team) {
	items := make([]string, len(team.Attachments))
	ids := make([]string, len(team.Attachments))
	for i, att := range team.Attachments {
		items[i] = att.Path
		ids[i] = att.Path
	}
	team.Select.Items = items
	team.Select.IDs = ids
	team.Select.Move(0)
}

// joinChannel joins then switches to a channel.
func (a *App) joinChannel(team *state.Team, channelID string) {
	teamID := team.ID
	a.queue.Enqueue(jobs.Normal, func() func() {
		if err := a.server.JoinChannel(a.ctx, channelID); err != nil {
			return a.serverErrCont(err)
		}
		return func() {
			t := a.st.Teams[teamID]
			if t == nil {
				return
			}
			if ch := t.Channels[channelID]; ch != nil {
				ch.Member = true
				ch.Connected = true
				t.InvalidateSidebar()
			}
			a.switchChannel(t, channelID)
		}
	})
}
