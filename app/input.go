package app

import (
	"fmt"

	"github.com/drake/relay/chat"
	"github.com/drake/relay/config"
	"github.com/drake/relay/state"
)

// modeHandler consumes one key press for a team in a given mode.
type modeHandler func(team *state.Team, key string)

// onInput handles one raw terminal event. Resize invalidates the render
// cache before anything else; keys are tested against the global bindings
// first and only then routed by mode.
func (a *App) onInput(in chat.InputEvent) {
	if in.Resize {
		a.ui.Invalidate()
		a.st.Width = in.Width
		a.st.Height = in.Height
		// A resize carries no key, so there is nothing left to route;
		// the loop's postlude still runs and re-renders at the new size.
		return
	}

	if event, ok := a.keys.EventFor(in.Key); ok {
		a.onGlobalKey(event)
		return
	}

	team := a.st.CurrentTeam()
	if team == nil {
		return
	}
	a.handlerFor(team.Mode)(team, in.Key)
}

// onGlobalKey runs a mode-independent binding.
func (a *App) onGlobalKey(event string) {
	switch event {
	case config.GlobalShowHelp:
		a.showHelp("main")
	case config.GlobalRefresh:
		a.ui.Refresh()
	case config.GlobalQuit:
		a.Shutdown()
	case config.GlobalNextTeam:
		a.st.NextTeam()
	case config.GlobalPrevTeam:
		a.st.PrevTeam()
	case config.GlobalChannelJump:
		if team := a.st.CurrentTeam(); team != nil {
			a.openChannelSelect(team)
		}
	}
}

// handlerFor maps a Mode to its handler. It is total over the Mode set and
// pure: it consults nothing but the tag. Adding a Mode without extending
// this switch panics on first use and fails the routing test.
func (a *App) handlerFor(m chat.Mode) modeHandler {
	switch m {
	case chat.ModeMain:
		return a.handleMain
	case chat.ModeChannelSelect:
		return a.handleChannelSelect
	case chat.ModeURLSelect:
		return a.handleURLSelect
	case chat.ModeLeaveChannelConfirm:
		return a.handleLeaveChannelConfirm
	case chat.ModeDeleteChannelConfirm:
		return a.handleDeleteChannelConfirm
	case chat.ModeMessageSelect:
		return a.handleMessageSelect
	case chat.ModeMessageSelectDeleteConfirm:
		return a.handleMessageDeleteConfirm
	case chat.ModeShowHelp:
		return a.handleShowHelp
	case chat.ModeThemeList:
		return a.handleThemeList
	case chat.ModePostList:
		return a.handlePostList
	case chat.ModeUserList:
		return a.handleUserList
	case chat.ModeChannelList:
		return a.handleChannelList
	case chat.ModeReactionEmojiList:
		return a.handleReactionEmojiList
	case chat.ModeViewMessage:
		return a.handleViewMessage
	case chat.ModeManageAttachments:
		return a.handleManageAttachments
	case chat.ModeManageAttachmentsBrowseFiles:
		return a.handleBrowseFiles
	case chat.ModeEditNotifyPrefs:
		return a.handleEditNotifyPrefs
	case chat.ModeChannelTopicWindow:
		return a.handleChannelTopicWindow
	}
	panic(fmt.Sprintf("no handler for mode %v", m))
}
