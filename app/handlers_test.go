package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/drake/relay/chat"
)

func typeKeys(a *App, keys ...string) {
	for _, k := range keys {
		a.onInput(chat.InputEvent{Key: k})
	}
}

func TestComposeEditing(t *testing.T) {
	a, _, _ := newTestApp(t)
	seedTeam(a)
	team := a.st.CurrentTeam()

	typeKeys(a, "h", "i", " ", "t", "h", "e", "r", "é")
	if team.Compose != "hi theré" {
		t.Fatalf("compose = %q", team.Compose)
	}

	typeKeys(a, "backspace")
	if team.Compose != "hi ther" {
		t.Fatalf("after backspace: %q", team.Compose)
	}

	// Unbound chords are not text.
	typeKeys(a, "ctrl+x", "alt+enter")
	if team.Compose != "hi ther" {
		t.Fatalf("chord leaked into compose: %q", team.Compose)
	}

	typeKeys(a, "ctrl+u")
	if team.Compose != "" {
		t.Fatalf("ctrl+u left %q", team.Compose)
	}
}

func TestSubmitComposeCreatesPost(t *testing.T) {
	a, mock, _ := newTestApp(t)
	seedTeam(a)
	team := a.st.CurrentTeam()

	var gotChannel, gotMessage string
	mock.CreatePostFunc = func(_ context.Context, channelID, message string, fileIDs []string) (chat.Post, error) {
		gotChannel, gotMessage = channelID, message
		return chat.Post{ID: "p1", ChannelID: channelID, UserID: "me", Message: message}, nil
	}

	team.Compose = "hello world"
	typeKeys(a, "enter")

	if team.Compose != "" {
		t.Fatalf("compose not cleared: %q", team.Compose)
	}

	pump(t, a, func() bool {
		return len(team.Channels["c1"].Posts) == 1
	})

	if gotChannel != "c1" || gotMessage != "hello world" {
		t.Fatalf("CreatePost(%q, %q)", gotChannel, gotMessage)
	}
	if team.Channels["c1"].Posts[0].ID != "p1" {
		t.Fatalf("echoed post = %+v", team.Channels["c1"].Posts[0])
	}
}

func TestSubmitEmptyComposeDoesNothing(t *testing.T) {
	a, mock, _ := newTestApp(t)
	seedTeam(a)
	a.st.CurrentTeam().Compose = "   "

	typeKeys(a, "enter")

	if normal, preempt := a.queue.Lens(); normal != 0 || preempt != 0 {
		t.Fatal("blank submit enqueued a job")
	}
	if len(mock.Calls()) != 0 {
		t.Fatalf("server called: %v", mock.Calls())
	}
}

func TestConfirmDialogAnyKeyCancels(t *testing.T) {
	a, mock, _ := newTestApp(t)
	seedTeam(a)
	team := a.st.CurrentTeam()

	for _, key := range []string{"n", "esc", "enter", "Y", "x"} {
		team.Compose = "/leave"
		typeKeys(a, "enter")
		if team.Mode != chat.ModeLeaveChannelConfirm {
			t.Fatalf("confirm mode not entered, mode = %v", team.Mode)
		}
		typeKeys(a, key)
		if team.Mode != chat.ModeMain {
			t.Fatalf("key %q did not return to main, mode = %v", key, team.Mode)
		}
	}

	if normal, _ := a.queue.Lens(); normal != 0 {
		t.Fatal("cancelled confirm enqueued a job")
	}
	if mock.CallCount("LeaveChannel") != 0 {
		t.Fatal("cancelled confirm reached the server")
	}
}

func TestLeaveChannelConfirmed(t *testing.T) {
	a, mock, _ := newTestApp(t)
	seedTeam(a)
	team := a.st.CurrentTeam()
	team.AddChannel(chat.Channel{ID: "c2", Name: "random", TeamID: "t1", Member: true})

	team.Compose = "/leave"
	typeKeys(a, "enter", "y")

	if team.Mode != chat.ModeMain {
		t.Fatalf("mode = %v after confirm", team.Mode)
	}

	pump(t, a, func() bool {
		_, exists := team.Channels["c1"]
		return !exists
	})

	if mock.CallCount("LeaveChannel") != 1 {
		t.Fatalf("LeaveChannel called %d times", mock.CallCount("LeaveChannel"))
	}
	if team.CurrentChannelID != "c2" {
		t.Fatalf("cursor = %q after leave", team.CurrentChannelID)
	}
}

func TestMessageDeleteRequiresOwnership(t *testing.T) {
	a, mock, _ := newTestApp(t)
	seedTeam(a)
	team := a.st.CurrentTeam()
	a.st.Me = chat.User{ID: "me"}
	ch := team.Channels["c1"]
	ch.Posts = []chat.Post{
		{ID: "p1", ChannelID: "c1", UserID: "someone-else", Message: "theirs"},
		{ID: "p2", ChannelID: "c1", UserID: "me", Message: "mine"},
	}

	a.openMessageSelect(team)
	if team.Mode != chat.ModeMessageSelect {
		t.Fatalf("mode = %v", team.Mode)
	}

	// Cursor starts on the newest (own) message; move up to the other one.
	typeKeys(a, "k", "d")
	if team.Mode != chat.ModeMessageSelect {
		t.Fatalf("foreign message advanced the dialog, mode = %v", team.Mode)
	}
	if got := lastSystemMessage(t, a); got != "You may only delete your own messages." {
		t.Fatalf("ownership notice = %q", got)
	}

	// Own message: d enters the confirm dialog, y deletes.
	typeKeys(a, "j", "d")
	if team.Mode != chat.ModeMessageSelectDeleteConfirm {
		t.Fatalf("mode = %v, want delete confirm", team.Mode)
	}
	typeKeys(a, "y")

	pump(t, a, func() bool {
		return a.findPost(team, "p2") == nil
	})
	if mock.CallCount("DeletePost") != 1 {
		t.Fatalf("DeletePost called %d times", mock.CallCount("DeletePost"))
	}
	if a.findPost(team, "p1") == nil {
		t.Fatal("wrong post removed")
	}
}

func TestMessageSelectEmptyChannel(t *testing.T) {
	a, _, _ := newTestApp(t)
	seedTeam(a)
	team := a.st.CurrentTeam()

	a.openMessageSelect(team)
	if team.Mode != chat.ModeMain {
		t.Fatalf("mode = %v, want main", team.Mode)
	}
	if got := lastSystemMessage(t, a); got != "There are no messages to select in this channel." {
		t.Fatalf("notice = %q", got)
	}
}

func TestThemeSelection(t *testing.T) {
	a, _, fui := newTestApp(t)
	seedTeam(a)
	team := a.st.CurrentTeam()

	team.Compose = "/theme"
	typeKeys(a, "enter")
	if team.Mode != chat.ModeThemeList {
		t.Fatalf("mode = %v", team.Mode)
	}

	typeKeys(a, "j", "enter")
	if a.st.Theme != "builtin:light" {
		t.Fatalf("theme = %q", a.st.Theme)
	}
	if team.Mode != chat.ModeMain {
		t.Fatalf("mode = %v after selection", team.Mode)
	}
	if fui.invalidated == 0 {
		t.Fatal("theme change did not invalidate the UI")
	}
}

func TestURLSelectNoURLs(t *testing.T) {
	a, _, _ := newTestApp(t)
	seedTeam(a)
	team := a.st.CurrentTeam()

	typeKeys(a, "ctrl+o")
	if team.Mode != chat.ModeMain {
		t.Fatalf("mode = %v", team.Mode)
	}
	if got := lastSystemMessage(t, a); got != "No URLs found in this channel." {
		t.Fatalf("notice = %q", got)
	}
}

func TestURLSelectDeduplicates(t *testing.T) {
	a, _, _ := newTestApp(t)
	seedTeam(a)
	team := a.st.CurrentTeam()
	team.Channels["c1"].Posts = []chat.Post{
		{ID: "p1", Message: "see https://example.com/a and https://example.com/b"},
		{ID: "p2", Message: "again https://example.com/a"},
	}

	typeKeys(a, "ctrl+o")
	if team.Mode != chat.ModeURLSelect {
		t.Fatalf("mode = %v", team.Mode)
	}
	if len(team.Select.Items) != 2 {
		t.Fatalf("urls = %v", team.Select.Items)
	}
}

func TestUnknownCommandWording(t *testing.T) {
	a, _, _ := newTestApp(t)
	seedTeam(a)
	team := a.st.CurrentTeam()

	team.Compose = "/frobnicate now"
	typeKeys(a, "enter")
	if got := lastSystemMessage(t, a); got != "Unknown command: /frobnicate. See /help commands." {
		t.Fatalf("notice = %q", got)
	}
}

func TestHelpUnknownTopicListsTopics(t *testing.T) {
	a, _, _ := newTestApp(t)
	seedTeam(a)
	team := a.st.CurrentTeam()

	team.Compose = "/help bogus"
	typeKeys(a, "enter")

	got := lastSystemMessage(t, a)
	if !strings.HasPrefix(got, "Unknown help topic: `bogus`. Available topics are:\n") {
		t.Fatalf("notice = %q", got)
	}
	for _, topic := range []string{"commands", "keybindings", "main", "scripts", "themes"} {
		if !strings.Contains(got, "  - "+topic) {
			t.Errorf("topic %q missing from %q", topic, got)
		}
	}
	if team.Mode != chat.ModeMain {
		t.Fatalf("error left mode = %v", team.Mode)
	}
}

func TestFocusDisambiguation(t *testing.T) {
	a, _, _ := newTestApp(t)
	seedTeam(a)
	team := a.st.CurrentTeam()
	// "dev" is both a channel and a user.
	team.AddChannel(chat.Channel{ID: "c-dev", Name: "dev", TeamID: "t1", Member: true})
	a.st.Users.Add("u-dev", chat.User{ID: "u-dev", Username: "dev"})

	team.Compose = "/focus dev"
	typeKeys(a, "enter")
	want := `The input "dev" matches both channels and users. Try using the sigil @ or ~ to disambiguate.`
	if got := lastSystemMessage(t, a); got != want {
		t.Fatalf("ambiguous notice = %q", got)
	}

	// The channel sigil resolves it.
	team.Compose = "/focus ~dev"
	typeKeys(a, "enter")
	if team.CurrentChannelID != "c-dev" {
		t.Fatalf("current channel = %q", team.CurrentChannelID)
	}

	// The user sigil without an open conversation reports it.
	team.Compose = "/focus @dev"
	typeKeys(a, "enter")
	if got := lastSystemMessage(t, a); got != "No open conversation with dev." {
		t.Fatalf("dm notice = %q", got)
	}

	team.Compose = "/focus nobody"
	typeKeys(a, "enter")
	if got := lastSystemMessage(t, a); got != "No such channel: nobody" {
		t.Fatalf("miss notice = %q", got)
	}
}

func TestLogCommandNotices(t *testing.T) {
	a, _, _ := newTestApp(t)
	seedTeam(a)
	team := a.st.CurrentTeam()
	path := filepath.Join(t.TempDir(), "chat.log")

	team.Compose = "/log stop"
	typeKeys(a, "enter")
	if got := lastSystemMessage(t, a); got != "Logging is not currently enabled." {
		t.Fatalf("stop-when-idle notice = %q", got)
	}

	team.Compose = "/log start " + path
	typeKeys(a, "enter")
	if got := lastSystemMessage(t, a); got != "Now logging to "+path+"." {
		t.Fatalf("start notice = %q", got)
	}

	team.Compose = "/log stop"
	typeKeys(a, "enter")
	if got := lastSystemMessage(t, a); got != "Stopped logging to "+path+"." {
		t.Fatalf("stop notice = %q", got)
	}
}

func TestNotifyPrefsEditing(t *testing.T) {
	a, mock, _ := newTestApp(t)
	seedTeam(a)
	team := a.st.CurrentTeam()

	typeKeys(a, "ctrl+n")
	if team.Mode != chat.ModeEditNotifyPrefs {
		t.Fatalf("mode = %v", team.Mode)
	}
	if team.NotifyDraft.Desktop != "all" {
		t.Fatalf("default desktop = %q", team.NotifyDraft.Desktop)
	}

	typeKeys(a, "d") // all -> mention
	typeKeys(a, "u") // all -> mention
	typeKeys(a, "i") // ignore on

	var saved chat.NotifyPrefs
	mock.UpdateNotifyPrefsFunc = func(_ context.Context, channelID string, prefs chat.NotifyPrefs) error {
		saved = prefs
		return nil
	}
	typeKeys(a, "enter")

	done := false
	pump(t, a, func() bool {
		if !done {
			done = mock.CallCount("UpdateNotifyPrefs") == 1 &&
				strings.Contains(safeLastSystem(a), "Notification preferences saved.")
		}
		return done
	})

	if saved.Desktop != "mention" || saved.MarkUnread != "mention" || !saved.IgnoreAll {
		t.Fatalf("saved prefs = %+v", saved)
	}
}

// safeLastSystem is lastSystemMessage without the fatal, for polling.
func safeLastSystem(a *App) string {
	team := a.st.CurrentTeam()
	if team == nil {
		return ""
	}
	ch := team.CurrentChannel()
	if ch == nil {
		return ""
	}
	for i := len(ch.Posts) - 1; i >= 0; i-- {
		if ch.Posts[i].System {
			return ch.Posts[i].Message
		}
	}
	return ""
}

func TestTopicWindowEdits(t *testing.T) {
	a, mock, _ := newTestApp(t)
	seedTeam(a)
	team := a.st.CurrentTeam()
	team.Channels["c1"].Topic = "old topic"

	typeKeys(a, "ctrl+e")
	if team.Mode != chat.ModeChannelTopicWindow {
		t.Fatalf("mode = %v", team.Mode)
	}
	if team.TopicDraft != "old topic" {
		t.Fatalf("draft seeded with %q", team.TopicDraft)
	}

	var sent string
	mock.SetChannelTopicFunc = func(_ context.Context, channelID, topic string) error {
		sent = topic
		return nil
	}

	typeKeys(a, "ctrl+u")
	typeKeys(a, "n", "e", "w", "enter")

	pump(t, a, func() bool {
		return team.Channels["c1"].Topic == "new"
	})
	if sent != "new" {
		t.Fatalf("sent topic = %q", sent)
	}
}

func TestReenteringAttachmentsShowsStagedFiles(t *testing.T) {
	a, _, _ := newTestApp(t)
	seedTeam(a)
	team := a.st.CurrentTeam()

	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	a.stageAttachment(team, path)

	// Leave and come back: the overlay must list what is still staged.
	typeKeys(a, "ctrl+a")
	if team.Mode != chat.ModeManageAttachments {
		t.Fatalf("mode = %v", team.Mode)
	}
	typeKeys(a, "esc")
	typeKeys(a, "ctrl+a")
	if len(team.Select.Items) != 1 || team.Select.Items[0] != path {
		t.Fatalf("overlay items = %v, want the staged file", team.Select.Items)
	}

	typeKeys(a, "d")
	if len(team.Attachments) != 0 {
		t.Fatalf("attachments = %v after delete", team.Attachments)
	}
	if len(team.Select.Items) != 0 {
		t.Fatalf("overlay items = %v after delete", team.Select.Items)
	}
}

func TestPostLineTruncationKeepsValidUTF8(t *testing.T) {
	a, _, _ := newTestApp(t)
	long := strings.Repeat("é", 120)
	line := a.renderPostLine(chat.Post{ID: "p1", UserID: "u1", Message: long})
	if !utf8.ValidString(line) {
		t.Fatalf("truncated line is not valid UTF-8: %q", line)
	}
	if !strings.HasSuffix(line, "…") {
		t.Fatalf("long line not marked truncated: %q", line)
	}
	if short := a.renderPostLine(chat.Post{ID: "p2", UserID: "u1", Message: "hi"}); !strings.HasSuffix(short, "hi") {
		t.Fatalf("short line altered: %q", short)
	}
}

func TestSmallHelpers(t *testing.T) {
	if got := trimLastRune("caféx"); got != "café" {
		t.Fatalf("trimLastRune ascii tail = %q", got)
	}
	if got := trimLastRune("café"); got != "caf" {
		t.Fatalf("trimLastRune multibyte tail = %q", got)
	}
	if got := trimLastRune(""); got != "" {
		t.Fatalf("trimLastRune empty = %q", got)
	}

	if cycleNotifyLevel("all") != "mention" ||
		cycleNotifyLevel("mention") != "none" ||
		cycleNotifyLevel("none") != "all" {
		t.Fatal("notify level cycle broken")
	}
}
