package app

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/drake/relay/chat"
	"github.com/drake/relay/state"
)

// builtinThemes is the fixed theme catalog for the theme list overlay.
var builtinThemes = []string{
	"builtin:dark",
	"builtin:light",
	"builtin:solarized-dark",
	"builtin:solarized-light",
}

// emojiCatalog is the reaction picker's offering. Servers accept any emoji
// name; this is just the curated quick list.
var emojiCatalog = []string{
	"+1", "-1", "clap", "eyes", "fire", "heart", "laughing", "pray",
	"rocket", "smile", "tada", "thinking_face", "wave", "white_check_mark", "x",
}

var urlPattern = regexp.MustCompile(`https?://[^\s<>"'）)]+`)

// --- Overlay entry points ---

func (a *App) openChannelSelect(team *state.Team) {
	team.Select.Reset()
	a.refilterChannels(team)
	team.SetMode(chat.ModeChannelSelect)
}

func (a *App) openURLSelect(team *state.Team) {
	ch := team.CurrentChannel()
	if ch == nil {
		return
	}
	var urls []string
	seen := make(map[string]struct{})
	for _, p := range ch.Posts {
		for _, u := range urlPattern.FindAllString(p.Message, -1) {
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		a.postText("No URLs found in this channel.")
		return
	}
	team.Select.Reset()
	team.Select.Items = urls
	team.Select.IDs = urls
	team.Select.Index = len(urls) - 1 // newest last
	team.SetMode(chat.ModeURLSelect)
}

func (a *App) openMessageSelect(team *state.Team) {
	ch := team.CurrentChannel()
	if ch == nil {
		return
	}
	team.Select.Reset()
	for _, p := range ch.Posts {
		if p.System || p.ID == "" {
			continue
		}
		team.Select.Items = append(team.Select.Items, a.renderPostLine(p))
		team.Select.IDs = append(team.Select.IDs, p.ID)
	}
	if len(team.Select.IDs) == 0 {
		a.postText("There are no messages to select in this channel.")
		return
	}
	team.Select.Index = len(team.Select.IDs) - 1
	team.SetMode(chat.ModeMessageSelect)
}

func (a *App) openThemeList(team *state.Team) {
	team.Select.Reset()
	team.Select.Items = append([]string(nil), builtinThemes...)
	team.Select.IDs = append([]string(nil), builtinThemes...)
	for i, theme := range builtinThemes {
		if theme == a.st.Theme {
			team.Select.Index = i
		}
	}
	team.SetMode(chat.ModeThemeList)
}

func (a *App) openPostList(team *state.Team) {
	ch := team.CurrentChannel()
	if ch == nil {
		return
	}
	team.Select.Reset()
	for _, p := range ch.Posts {
		if p.ID == "" {
			continue
		}
		team.Select.Items = append(team.Select.Items, a.renderPostLine(p))
		team.Select.IDs = append(team.Select.IDs, p.ID)
	}
	team.Select.Index = len(team.Select.IDs) - 1
	if team.Select.Index < 0 {
		team.Select.Index = 0
	}
	team.SetMode(chat.ModePostList)
}

func (a *App) openUserList(team *state.Team) {
	team.Select.Reset()
	a.refilterUsers(team)
	team.SetMode(chat.ModeUserList)
}

func (a *App) openChannelList(team *state.Team) {
	team.Select.Reset()
	for _, id := range team.ChannelOrder {
		ch := team.Channels[id]
		label := channelLabel(ch)
		if !ch.Member {
			label += " (not joined)"
		}
		team.Select.Items = append(team.Select.Items, label)
		team.Select.IDs = append(team.Select.IDs, id)
	}
	team.SetMode(chat.ModeChannelList)
}

func (a *App) openReactionList(team *state.Team) {
	team.Select.Reset()
	a.refilterEmoji(team)
	team.SetMode(chat.ModeReactionEmojiList)
}

func (a *App) openNotifyPrefs(team *state.Team) {
	team.NotifyDraft = chat.NotifyPrefs{Desktop: "all", MarkUnread: "all"}
	team.SetMode(chat.ModeEditNotifyPrefs)
}

func (a *App) openTopicWindow(team *state.Team) {
	if ch := team.CurrentChannel(); ch != nil {
		team.TopicDraft = ch.Topic
	}
	team.SetMode(chat.ModeChannelTopicWindow)
}

// --- Incremental filters ---

// refilterChannels rebuilds the channel-select list from the filter using
// fuzzy matching over member channels.
func (a *App) refilterChannels(team *state.Team) {
	type cand struct {
		label string
		id    string
	}
	var cands []cand
	for _, id := range team.ChannelOrder {
		ch := team.Channels[id]
		if !ch.Member {
			continue
		}
		cands = append(cands, cand{channelLabel(ch), id})
	}

	team.Select.Items = nil
	team.Select.IDs = nil

	if team.Select.Filter == "" {
		for _, c := range cands {
			team.Select.Items = append(team.Select.Items, c.label)
			team.Select.IDs = append(team.Select.IDs, c.id)
		}
		team.Select.Move(0)
		return
	}

	labels := make([]string, len(cands))
	for i, c := range cands {
		labels[i] = c.label
	}
	ranks := fuzzy.RankFindFold(team.Select.Filter, labels)
	sort.Sort(ranks)
	for _, r := range ranks {
		team.Select.Items = append(team.Select.Items, r.Target)
		team.Select.IDs = append(team.Select.IDs, cands[r.OriginalIndex].id)
	}
	team.Select.Index = 0
}

// refilterUsers rebuilds the user list from the known-user cache.
func (a *App) refilterUsers(team *state.Team) {
	team.Select.Items = nil
	team.Select.IDs = nil

	ids := a.st.Users.Keys()
	type row struct {
		label string
		id    string
	}
	var rows []row
	for _, id := range ids {
		u, ok := a.st.Users.Get(id)
		if !ok {
			continue
		}
		label := u.Username
		if status := a.st.Statuses[id]; status != "" {
			label = fmt.Sprintf("%s (%s)", u.Username, status)
		}
		if team.Select.Filter != "" && !fuzzy.MatchFold(team.Select.Filter, u.Username) {
			continue
		}
		rows = append(rows, row{label, id})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].label < rows[j].label })
	for _, r := range rows {
		team.Select.Items = append(team.Select.Items, r.label)
		team.Select.IDs = append(team.Select.IDs, r.id)
	}
	team.Select.Move(0)
}

// refilterEmoji narrows the reaction picker.
func (a *App) refilterEmoji(team *state.Team) {
	team.Select.Items = nil
	team.Select.IDs = nil
	for _, name := range emojiCatalog {
		if team.Select.Filter != "" && !fuzzy.MatchFold(team.Select.Filter, name) {
			continue
		}
		team.Select.Items = append(team.Select.Items, ":"+name+":")
		team.Select.IDs = append(team.Select.IDs, name)
	}
	team.Select.Move(0)
}

// renderPostLine formats a post for list overlays. Truncation is
// width-aware so a multibyte rune is never split mid-sequence.
func (a *App) renderPostLine(p chat.Post) string {
	text := strings.ReplaceAll(p.Message, "\n", " ")
	const max = 80
	if ansi.StringWidth(text) > max {
		text = ansi.Truncate(text, max-1, "…")
	}
	return fmt.Sprintf("%s: %s", a.st.UsernameFor(p.UserID), text)
}

func channelLabel(ch *state.Channel) string {
	if ch.DisplayName != "" {
		return ch.DisplayName
	}
	return ch.Name
}
