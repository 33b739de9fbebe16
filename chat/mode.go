package chat

// Mode is the active modal UI context for a team. Exactly one Mode is active
// per team at a time; it decides which handler receives input. The set is
// closed: routing switches over it exhaustively and tests walk Modes().
type Mode int

const (
	ModeMain Mode = iota
	ModeChannelSelect
	ModeURLSelect
	ModeLeaveChannelConfirm
	ModeDeleteChannelConfirm
	ModeMessageSelect
	ModeMessageSelectDeleteConfirm
	ModeShowHelp
	ModeThemeList
	ModePostList
	ModeUserList
	ModeChannelList
	ModeReactionEmojiList
	ModeViewMessage
	ModeManageAttachments
	ModeManageAttachmentsBrowseFiles
	ModeEditNotifyPrefs
	ModeChannelTopicWindow

	modeSentinel // keep last
)

var modeNames = [...]string{
	ModeMain:                         "main",
	ModeChannelSelect:                "channel-select",
	ModeURLSelect:                    "url-select",
	ModeLeaveChannelConfirm:          "leave-channel-confirm",
	ModeDeleteChannelConfirm:         "delete-channel-confirm",
	ModeMessageSelect:                "message-select",
	ModeMessageSelectDeleteConfirm:   "message-select-delete-confirm",
	ModeShowHelp:                     "show-help",
	ModeThemeList:                    "theme-list",
	ModePostList:                     "post-list",
	ModeUserList:                     "user-list",
	ModeChannelList:                  "channel-list",
	ModeReactionEmojiList:            "reaction-emoji-list",
	ModeViewMessage:                  "view-message",
	ModeManageAttachments:            "manage-attachments",
	ModeManageAttachmentsBrowseFiles: "manage-attachments-browse-files",
	ModeEditNotifyPrefs:              "edit-notify-prefs",
	ModeChannelTopicWindow:           "channel-topic-window",
}

func (m Mode) String() string {
	if m < 0 || m >= modeSentinel {
		return "unknown"
	}
	return modeNames[m]
}

// Modes returns every Mode variant, in declaration order.
func Modes() []Mode {
	all := make([]Mode, 0, int(modeSentinel))
	for m := ModeMain; m < modeSentinel; m++ {
		all = append(all, m)
	}
	return all
}
