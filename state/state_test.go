package state

import (
	"testing"

	"github.com/drake/relay/chat"
)

func TestTeamCycling(t *testing.T) {
	s := New()
	s.AddTeam(chat.Team{ID: "t1", Name: "one"})
	s.AddTeam(chat.Team{ID: "t2", Name: "two"})
	s.AddTeam(chat.Team{ID: "t3", Name: "three"})

	if s.CurrentTeamID != "t1" {
		t.Fatalf("first team should be current, got %q", s.CurrentTeamID)
	}

	s.NextTeam()
	s.NextTeam()
	if s.CurrentTeamID != "t3" {
		t.Fatalf("after two steps forward: %q", s.CurrentTeamID)
	}
	s.NextTeam()
	if s.CurrentTeamID != "t1" {
		t.Fatalf("cycle did not wrap forward: %q", s.CurrentTeamID)
	}
	s.PrevTeam()
	if s.CurrentTeamID != "t3" {
		t.Fatalf("cycle did not wrap backward: %q", s.CurrentTeamID)
	}
}

func TestAddTeamIsIdempotent(t *testing.T) {
	s := New()
	first := s.AddTeam(chat.Team{ID: "t1", DisplayName: "Old"})
	first.AddChannel(chat.Channel{ID: "c1", Member: true})

	again := s.AddTeam(chat.Team{ID: "t1", DisplayName: "New"})
	if again != first {
		t.Fatal("re-adding a team replaced it")
	}
	if again.DisplayName != "New" {
		t.Fatalf("wire fields not refreshed: %q", again.DisplayName)
	}
	if len(again.Channels) != 1 {
		t.Fatal("channels lost on re-add")
	}
	if len(s.TeamOrder) != 1 {
		t.Fatalf("team order grew to %d", len(s.TeamOrder))
	}
}

func TestNeedUserSkipsCached(t *testing.T) {
	s := New()
	s.Users.Add("u1", chat.User{ID: "u1", Username: "alice"})

	s.NeedUser("u1")
	s.NeedUser("u2")
	s.NeedUser("u2")
	s.NeedUser("")

	if _, pending := s.PendingUsers["u1"]; pending {
		t.Fatal("cached user queued for fetch")
	}
	if len(s.PendingUsers) != 1 {
		t.Fatalf("pending users = %d, want 1 (duplicates must coalesce)", len(s.PendingUsers))
	}
}

func TestUsernameForFallsBackAndQueues(t *testing.T) {
	s := New()
	s.Users.Add("u1", chat.User{ID: "u1", Username: "alice", Nickname: "Al"})

	if got := s.UsernameFor("u1"); got != "Al" {
		t.Fatalf("nickname not preferred: %q", got)
	}
	if got := s.UsernameFor("u9"); got != "u9" {
		t.Fatalf("unknown user should render as raw ID, got %q", got)
	}
	if _, pending := s.PendingUsers["u9"]; !pending {
		t.Fatal("unknown user not queued for fetch")
	}
}

func TestSidebarListsMemberChannelsOnly(t *testing.T) {
	s := New()
	team := s.AddTeam(chat.Team{ID: "t1"})
	team.AddChannel(chat.Channel{ID: "c1", Name: "general", Member: true})
	team.AddChannel(chat.Channel{ID: "c2", Name: "public-archive", Member: false})
	team.AddChannel(chat.Channel{ID: "c3", DisplayName: "Dev Talk", Member: true})

	entries := team.Sidebar()
	if len(entries) != 2 {
		t.Fatalf("sidebar has %d entries, want 2", len(entries))
	}
	if entries[0].Label != "general" || !entries[0].Current {
		t.Fatalf("first entry = %+v", entries[0])
	}
	if entries[1].Label != "Dev Talk" {
		t.Fatalf("display name not preferred: %+v", entries[1])
	}
}

func TestSidebarCacheInvalidation(t *testing.T) {
	s := New()
	team := s.AddTeam(chat.Team{ID: "t1"})
	team.AddChannel(chat.Channel{ID: "c1", Name: "general", Member: true})
	team.AddChannel(chat.Channel{ID: "c2", Name: "random", Member: true})

	before := team.Sidebar()
	if before[1].Unread {
		t.Fatal("fresh channel marked unread")
	}

	team.Channels["c2"].Unread = true
	// Without invalidation the cache is reused on purpose.
	if cached := team.Sidebar(); cached[1].Unread {
		t.Fatal("sidebar rebuilt without invalidation")
	}

	team.InvalidateSidebar()
	if rebuilt := team.Sidebar(); !rebuilt[1].Unread {
		t.Fatal("unread flag missing after invalidation")
	}
}

func TestSwitchChannelClearsUnread(t *testing.T) {
	s := New()
	team := s.AddTeam(chat.Team{ID: "t1"})
	team.AddChannel(chat.Channel{ID: "c1", Name: "general", Member: true})
	team.AddChannel(chat.Channel{ID: "c2", Name: "random", Member: true})
	team.Channels["c2"].Unread = true

	if !team.SwitchChannel("c2") {
		t.Fatal("switch to known channel failed")
	}
	if team.CurrentChannelID != "c2" {
		t.Fatalf("current channel = %q", team.CurrentChannelID)
	}
	if team.Channels["c2"].Unread {
		t.Fatal("unread mark survived the switch")
	}
	if team.SwitchChannel("nope") {
		t.Fatal("switch to unknown channel reported success")
	}
}

func TestRemoveChannelMovesCursor(t *testing.T) {
	s := New()
	team := s.AddTeam(chat.Team{ID: "t1"})
	team.AddChannel(chat.Channel{ID: "c1", Name: "general", Member: true})
	team.AddChannel(chat.Channel{ID: "c2", Name: "random", Member: true})
	team.SwitchChannel("c1")

	team.RemoveChannel("c1")
	if team.CurrentChannelID != "c2" {
		t.Fatalf("cursor after removal = %q, want c2", team.CurrentChannelID)
	}
	if len(team.ChannelOrder) != 1 {
		t.Fatalf("channel order = %v", team.ChannelOrder)
	}
}

func TestDisconnectMarksMemberChannelsStale(t *testing.T) {
	s := New()
	team := s.AddTeam(chat.Team{ID: "t1"})
	team.AddChannel(chat.Channel{ID: "c1", Name: "general", Member: true})
	team.AddChannel(chat.Channel{ID: "c2", Name: "lurkable", Member: false})

	s.MarkDisconnected()
	if team.Channels["c1"].Connected {
		t.Fatal("member channel not marked stale")
	}
	if entries := team.Sidebar(); !entries[0].Stale {
		t.Fatal("sidebar entry not stale after disconnect")
	}

	s.MarkConnected()
	if !team.Channels["c1"].Connected {
		t.Fatal("member channel still stale after reconnect")
	}
	if entries := team.Sidebar(); entries[0].Stale {
		t.Fatal("sidebar entry still stale after reconnect")
	}
}

func TestAddSystemMessage(t *testing.T) {
	s := New()
	s.AddSystemMessage("dropped on the floor") // no team yet; must not panic

	team := s.AddTeam(chat.Team{ID: "t1"})
	team.AddChannel(chat.Channel{ID: "c1", Name: "general", Member: true})
	s.AddSystemMessage("Now logging to /tmp/relay.log.")

	posts := team.Channels["c1"].Posts
	if len(posts) != 1 {
		t.Fatalf("posts = %d, want 1", len(posts))
	}
	if !posts[0].System || posts[0].Message != "Now logging to /tmp/relay.log." {
		t.Fatalf("system post = %+v", posts[0])
	}
}
