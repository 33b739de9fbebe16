package app

import (
	"sort"
	"strings"

	"github.com/drake/relay/chat"
)

// helpTopics is the fixed help catalog. The topic names are part of the
// unknown-topic error wording, so keep them stable.
var helpTopics = map[string]string{
	"main": strings.TrimSpace(`
relay is a terminal client for your team chat server.

Type a message and press enter to send it. Commands start with a slash;
see /help commands. Press the show-help key (F1 by default) for this text.
`),
	"keybindings": strings.TrimSpace(`
Global keys (configurable in keys.json):
  F1          show this help
  ctrl+l      force a full terminal redraw
  ctrl+q      quit
  ctrl+g      jump to a channel
  ctrl+left   previous team
  ctrl+right  next team

Main mode:
  ctrl+o      select a URL from the current channel
  ctrl+s      select a message
  ctrl+a      manage attachments for the next message
  ctrl+n      edit channel notification preferences
  ctrl+e      edit the channel topic
`),
	"commands": strings.TrimSpace(`
  /help [topic]          show help
  /join <channel>        join a channel
  /leave                 leave the current channel (asks to confirm)
  /delete-channel        delete the current channel (asks to confirm)
  /topic                 edit the channel topic
  /theme                 choose a theme
  /users                 list known users
  /channels              list channels
  /posts                 list recent posts
  /log start <path>      begin logging to a file
  /log stop              stop logging
  /log snapshot <path>   write recent log entries to a file
  /script <name> [args]  run a user script
  /quit                  exit the client
`),
	"scripts": strings.TrimSpace(`
User scripts are executables placed in the scripts directory under the
relay config dir. /script <name> runs one; its stdout is posted back to
you and its stderr is captured to a log file named in any failure message.
`),
	"themes": strings.TrimSpace(`
/theme opens the theme list. Selection takes effect immediately and only
affects this client.
`),
}

// topicNames returns the valid topics, sorted.
func topicNames() []string {
	names := make([]string, 0, len(helpTopics))
	for name := range helpTopics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// showHelp enters help mode on the current team, or reports an unknown
// topic with the valid list.
func (a *App) showHelp(topic string) {
	text, ok := helpTopics[topic]
	if !ok {
		a.postError(chat.NoSuchHelpTopic(topic, topicNames()))
		return
	}
	team := a.st.CurrentTeam()
	if team == nil {
		return
	}
	team.HelpTopic = topic
	team.HelpText = text
	team.SetMode(chat.ModeShowHelp)
}
