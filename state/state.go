// Package state holds the shared application model. Exactly one mutator runs
// at a time: the dispatcher goroutine. Nothing here is locked, because the
// dispatch loop serializes all access by construction; job thunks never see
// this package, only their continuations do.
package state

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/drake/relay/chat"
)

// userCacheSize bounds the user cache; a busy server can page users in and
// out without the client holding every account it ever saw.
const userCacheSize = 2048

// State is the root of the mutable in-memory model.
type State struct {
	Status       chat.ConnectionStatus
	ClientConfig chat.ClientConfig
	Me           chat.User

	Teams         map[string]*Team
	TeamOrder     []string
	CurrentTeamID string

	// Users is a bounded cache of accounts the UI has needed so far.
	Users    *lru.Cache[string, chat.User]
	Statuses map[string]string

	// Pending fetch sets, reconciled by the maintenance pass after every
	// event. Adding an ID here is cheap; the pass batches what is
	// outstanding into one background call per class.
	PendingUsers    map[string]struct{}
	PendingStatuses map[string]struct{}

	// Background-work indicator, driven by worker idle/busy events.
	Busy      bool
	BusyCount int

	Theme string

	Width  int
	Height int
}

// New creates an empty state.
func New() *State {
	users, _ := lru.New[string, chat.User](userCacheSize)
	return &State{
		Theme:           "builtin:dark",
		Teams:           make(map[string]*Team),
		Users:           users,
		Statuses:        make(map[string]string),
		PendingUsers:    make(map[string]struct{}),
		PendingStatuses: make(map[string]struct{}),
	}
}

// AddTeam registers a team, keeping declaration order for the team bar.
func (s *State) AddTeam(t chat.Team) *Team {
	if existing, ok := s.Teams[t.ID]; ok {
		existing.Team = t
		return existing
	}
	team := NewTeam(t)
	s.Teams[t.ID] = team
	s.TeamOrder = append(s.TeamOrder, t.ID)
	if s.CurrentTeamID == "" {
		s.CurrentTeamID = t.ID
	}
	return team
}

// CurrentTeam returns the active team, or nil before any team is known.
func (s *State) CurrentTeam() *Team {
	return s.Teams[s.CurrentTeamID]
}

// NextTeam cycles the active team forward.
func (s *State) NextTeam() {
	s.stepTeam(1)
}

// PrevTeam cycles the active team backward.
func (s *State) PrevTeam() {
	s.stepTeam(-1)
}

func (s *State) stepTeam(delta int) {
	if len(s.TeamOrder) < 2 {
		return
	}
	idx := 0
	for i, id := range s.TeamOrder {
		if id == s.CurrentTeamID {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(s.TeamOrder)) % len(s.TeamOrder)
	s.CurrentTeamID = s.TeamOrder[idx]
}

// NeedUser marks a user as wanting a detail fetch unless already cached.
// Duplicate requests coalesce in the set.
func (s *State) NeedUser(id string) {
	if id == "" {
		return
	}
	if _, ok := s.Users.Get(id); ok {
		return
	}
	s.PendingUsers[id] = struct{}{}
}

// NeedStatus marks a user as wanting a status fetch.
func (s *State) NeedStatus(id string) {
	if id == "" {
		return
	}
	s.PendingStatuses[id] = struct{}{}
}

// UsernameFor resolves a user ID to a display name, falling back to the raw
// ID and queueing a fetch for next time.
func (s *State) UsernameFor(id string) string {
	if u, ok := s.Users.Get(id); ok {
		if u.Nickname != "" {
			return u.Nickname
		}
		return u.Username
	}
	s.NeedUser(id)
	return id
}

// AddSystemMessage appends a locally generated message to the current
// channel's feed. Every notice and every rendered error lands here.
func (s *State) AddSystemMessage(text string) {
	team := s.CurrentTeam()
	if team == nil {
		return
	}
	ch := team.CurrentChannel()
	if ch == nil {
		return
	}
	ch.Posts = append(ch.Posts, chat.Post{Message: text, System: true})
}

// MarkDisconnected flags every member channel in every team as potentially
// stale. Run when the real-time connection drops.
func (s *State) MarkDisconnected() {
	for _, team := range s.Teams {
		for _, ch := range team.Channels {
			if ch.Member {
				ch.Connected = false
			}
		}
		team.InvalidateSidebar()
	}
}

// MarkConnected clears the stale flag on member channels after a reconnect.
func (s *State) MarkConnected() {
	for _, team := range s.Teams {
		for _, ch := range team.Channels {
			if ch.Member {
				ch.Connected = true
			}
		}
		team.InvalidateSidebar()
	}
}
