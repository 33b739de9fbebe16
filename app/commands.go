package app

import (
	"strings"

	"github.com/drake/relay/chat"
	"github.com/drake/relay/state"
)

// runCommand executes a slash command typed in Main mode.
func (a *App) runCommand(team *state.Team, text string) {
	fields := strings.Fields(text)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/help":
		topic := "main"
		if len(args) > 0 {
			topic = args[0]
		}
		a.showHelp(topic)

	case "/join":
		if len(args) == 0 {
			a.openChannelList(team)
			return
		}
		a.focusChannel(team, "~"+args[0])

	case "/focus":
		if len(args) == 0 {
			a.postError(chat.Errorf("Usage: /focus <name>"))
			return
		}
		a.focusChannel(team, args[0])

	case "/leave":
		ch := team.CurrentChannel()
		if ch == nil {
			a.postError(chat.Errorf("No channel is active."))
			return
		}
		team.Confirm = ch.ID
		team.SetMode(chat.ModeLeaveChannelConfirm)

	case "/delete-channel":
		ch := team.CurrentChannel()
		if ch == nil {
			a.postError(chat.Errorf("No channel is active."))
			return
		}
		team.Confirm = ch.ID
		team.SetMode(chat.ModeDeleteChannelConfirm)

	case "/topic":
		a.openTopicWindow(team)

	case "/theme":
		a.openThemeList(team)

	case "/users":
		a.openUserList(team)

	case "/channels":
		a.openChannelList(team)

	case "/posts":
		a.openPostList(team)

	case "/notify":
		a.openNotifyPrefs(team)

	case "/log":
		a.logCommand(args)

	case "/script":
		if len(args) == 0 {
			a.postError(chat.Errorf("Usage: /script <name> [args]"))
			return
		}
		a.runScript(args[0], args[1:])

	case "/quit":
		a.Shutdown()

	default:
		a.postError(chat.Errorf("Unknown command: %s. See /help commands.", cmd))
	}
}

// focusChannel switches to a channel or a user conversation by name. A bare
// name that matches both is ambiguous; the @ and ~ sigils force one
// interpretation.
func (a *App) focusChannel(team *state.Team, name string) {
	wantUser := strings.HasPrefix(name, "@")
	wantChannel := strings.HasPrefix(name, "~")
	bare := strings.TrimLeft(name, "@~")

	ch := team.ChannelByName(bare)
	user := a.userByName(bare)

	switch {
	case wantChannel, !wantUser && ch != nil && user == nil:
		if ch == nil {
			a.postError(chat.NoSuchChannel(bare))
			return
		}
		if !ch.Member {
			a.joinChannel(team, ch.ID)
			return
		}
		a.switchChannel(team, ch.ID)

	case wantUser, ch == nil && user != nil:
		if user == nil {
			a.postError(chat.NoSuchUser(bare))
			return
		}
		// Direct conversations show up as channels named for the user.
		if dm := team.ChannelByName(user.Username); dm != nil {
			a.switchChannel(team, dm.ID)
			return
		}
		a.postError(chat.Errorf("No open conversation with %s.", user.Username))

	case ch != nil && user != nil:
		a.postError(chat.AmbiguousName(bare))

	default:
		a.postError(chat.NoSuchChannel(bare))
	}
}

// userByName finds a cached user by username.
func (a *App) userByName(name string) *chat.User {
	for _, id := range a.st.Users.Keys() {
		if u, ok := a.st.Users.Get(id); ok && u.Username == name {
			return &u
		}
	}
	return nil
}

// logCommand drives the log manager; every outcome is a notice with stable
// wording.
func (a *App) logCommand(args []string) {
	if len(args) == 0 {
		a.postError(chat.Errorf("Usage: /log start <path> | stop | snapshot <path> | status"))
		return
	}
	switch args[0] {
	case "start":
		if len(args) < 2 {
			a.postError(chat.Errorf("Usage: /log start <path>"))
			return
		}
		path := args[1]
		if err := a.logs.Start(path); err != nil {
			a.postError(chat.Errorf("Could not begin logging to %s: %v", path, err))
			return
		}
		a.postText(loggingStartedNotice(path))

	case "stop":
		path, ok := a.logs.Stop()
		if !ok {
			a.postText("Logging is not currently enabled.")
			return
		}
		a.postText(loggingStoppedNotice(path))

	case "snapshot":
		if len(args) < 2 {
			a.postError(chat.Errorf("Usage: /log snapshot <path>"))
			return
		}
		path := args[1]
		if err := a.logs.Snapshot(path); err != nil {
			a.postError(chat.Errorf("Could not write log snapshot to %s: %v", path, err))
			return
		}
		a.postText(logSnapshotNotice(path))

	case "status":
		if path, ok := a.logs.Active(); ok {
			a.postText("Logging to " + path + ".")
		} else {
			a.postText("Logging is not currently enabled.")
		}

	default:
		a.postError(chat.Errorf("Unknown /log subcommand: %s", args[0]))
	}
}
