package app

import (
	"github.com/drake/relay/chat"
	"github.com/drake/relay/jobs"
	"github.com/drake/relay/state"
)

// Thunk builders. Each returns a jobs.Thunk whose body runs on the worker
// goroutine (blocking I/O is fine there) and whose returned continuation
// runs on the dispatcher and is the only part allowed to mutate state.
// Anything a thunk needs from state is captured by value at build time,
// because build time is dispatcher time.

// fetchTeamsThunk reloads the signed-in identity and the team and channel
// lists. Identity comes first: message ownership checks depend on it.
func (a *App) fetchTeamsThunk() jobs.Thunk {
	return func() func() {
		me, err := a.server.Me(a.ctx)
		if err != nil {
			return a.serverErrCont(err)
		}
		teams, err := a.server.Teams(a.ctx)
		if err != nil {
			return a.serverErrCont(err)
		}
		byTeam := make(map[string][]chat.Channel, len(teams))
		for _, t := range teams {
			chans, err := a.server.Channels(a.ctx, t.ID)
			if err != nil {
				return a.serverErrCont(err)
			}
			byTeam[t.ID] = chans
		}
		return func() {
			a.st.Me = me
			for _, t := range teams {
				team := a.st.AddTeam(t)
				for _, c := range byTeam[t.ID] {
					team.AddChannel(c)
				}
			}
			a.restoreDrafts()
		}
	}
}

// fetchClientConfigThunk refreshes the server-side client configuration.
func (a *App) fetchClientConfigThunk() jobs.Thunk {
	return func() func() {
		cfg, err := a.server.ClientConfig(a.ctx)
		if err != nil {
			return a.serverErrCont(err)
		}
		return func() { a.st.ClientConfig = cfg }
	}
}

// fetchVisibleThunk loads posts for the visible channel when they have not
// been fetched yet. The decision is taken at build time, on the dispatcher.
func (a *App) fetchVisibleThunk() jobs.Thunk {
	var channelID string
	if team := a.st.CurrentTeam(); team != nil {
		if ch := team.CurrentChannel(); ch != nil && !ch.Fetched {
			channelID = ch.ID
		}
	}
	teamID := a.st.CurrentTeamID

	return func() func() {
		if channelID == "" {
			return nil // nothing to do; still counts as the third action
		}
		posts, err := a.server.Posts(a.ctx, channelID, visiblePostLimit)
		if err != nil {
			return a.serverErrCont(err)
		}
		return func() { a.applyPosts(teamID, channelID, posts) }
	}
}

// fetchChannelPosts loads a channel's feed after a switch.
func (a *App) fetchChannelPosts(teamID, channelID string) {
	a.queue.EnqueueDedupe("posts:"+channelID, jobs.Normal, func() func() {
		posts, err := a.server.Posts(a.ctx, channelID, visiblePostLimit)
		if err != nil {
			return a.serverErrCont(err)
		}
		return func() { a.applyPosts(teamID, channelID, posts) }
	})
}

// applyPosts installs a fetched feed and queues the author lookups it needs.
func (a *App) applyPosts(teamID, channelID string, posts []chat.Post) {
	team := a.st.Teams[teamID]
	if team == nil {
		return
	}
	ch := team.Channels[channelID]
	if ch == nil {
		return
	}
	ch.Posts = posts
	ch.Fetched = true
	for _, p := range posts {
		a.st.NeedUser(p.UserID)
		a.st.NeedStatus(p.UserID)
	}
}

// restoreDrafts reloads saved drafts and last-read marks for every known
// channel. Runs on the dispatcher; the reads happen in a background job.
func (a *App) restoreDrafts() {
	if a.store == nil {
		return
	}
	type target struct{ teamID, channelID string }
	var targets []target
	for _, teamID := range a.st.TeamOrder {
		team := a.st.Teams[teamID]
		for _, channelID := range team.ChannelOrder {
			targets = append(targets, target{teamID, channelID})
		}
	}

	a.queue.EnqueueDedupe("restore-drafts", jobs.Normal, func() func() {
		type loaded struct {
			target
			draft    string
			lastRead string
		}
		results := make([]loaded, 0, len(targets))
		for _, tg := range targets {
			draft, err := a.store.Draft(a.ctx, tg.channelID)
			if err != nil {
				return func() { a.postError(chat.Errorf("Could not load drafts: %v", err)) }
			}
			lastRead, err := a.store.LastRead(a.ctx, tg.channelID)
			if err != nil {
				return func() { a.postError(chat.Errorf("Could not load read marks: %v", err)) }
			}
			results = append(results, loaded{tg, draft, lastRead})
		}
		return func() {
			for _, r := range results {
				team := a.st.Teams[r.teamID]
				if team == nil {
					continue
				}
				if ch := team.Channels[r.channelID]; ch != nil {
					ch.Draft = r.draft
					ch.LastReadPostID = r.lastRead
				}
			}
		}
	})
}

// persistLastRead records the newest post of a channel as read.
func (a *App) persistLastRead(channelID, postID string) {
	if a.store == nil || postID == "" {
		return
	}
	a.queue.Enqueue(jobs.Normal, func() func() {
		if err := a.store.SetLastRead(a.ctx, channelID, postID); err != nil {
			return func() { a.postError(chat.Errorf("Could not save read mark: %v", err)) }
		}
		return nil
	})
}

// persistDraft saves (or clears) a channel draft.
func (a *App) persistDraft(channelID, draft string) {
	if a.store == nil {
		return
	}
	a.queue.Enqueue(jobs.Normal, func() func() {
		if err := a.store.SetDraft(a.ctx, channelID, draft); err != nil {
			return func() { a.postError(chat.Errorf("Could not save draft: %v", err)) }
		}
		return nil
	})
}

// serverErrCont reduces a failed call to a server-error continuation.
func (a *App) serverErrCont(err error) func() {
	if a.ctx.Err() != nil {
		return nil // shutting down; nothing to report
	}
	return func() { a.postError(chat.ServerError(err)) }
}

// switchChannel changes the current channel, persisting read marks and
// drafts for the channel being left and fetching the feed of the channel
// being entered when needed.
func (a *App) switchChannel(team *state.Team, channelID string) {
	if prev := team.CurrentChannel(); prev != nil {
		prev.Draft = team.Compose
		a.persistDraft(prev.ID, prev.Draft)
		if n := len(prev.Posts); n > 0 {
			a.persistLastRead(prev.ID, prev.Posts[n-1].ID)
		}
	}
	if !team.SwitchChannel(channelID) {
		a.postError(chat.NoSuchChannel(channelID))
		return
	}
	ch := team.CurrentChannel()
	team.Compose = ch.Draft
	if !ch.Fetched {
		a.fetchChannelPosts(team.ID, channelID)
	}
}
