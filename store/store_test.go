package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "state.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLastReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	got, err := s.LastRead(ctx, "c1")
	if err != nil || got != "" {
		t.Fatalf("empty store LastRead = (%q, %v)", got, err)
	}

	if err := s.SetLastRead(ctx, "c1", "p1"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetLastRead(ctx, "c1", "p2"); err != nil {
		t.Fatal(err)
	}

	got, err = s.LastRead(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if got != "p2" {
		t.Fatalf("LastRead = %q, want latest mark p2", got)
	}

	// Other channels are unaffected.
	if got, _ := s.LastRead(ctx, "c2"); got != "" {
		t.Fatalf("unrelated channel LastRead = %q", got)
	}
}

func TestDraftRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	if err := s.SetDraft(ctx, "c1", "half a thought"); err != nil {
		t.Fatal(err)
	}
	got, err := s.Draft(ctx, "c1")
	if err != nil || got != "half a thought" {
		t.Fatalf("Draft = (%q, %v)", got, err)
	}

	// An empty draft deletes the row.
	if err := s.SetDraft(ctx, "c1", ""); err != nil {
		t.Fatal(err)
	}
	got, err = s.Draft(ctx, "c1")
	if err != nil || got != "" {
		t.Fatalf("cleared Draft = (%q, %v)", got, err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.sqlite")

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetLastRead(ctx, "c1", "p9"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	got, err := s2.LastRead(ctx, "c1")
	if err != nil || got != "p9" {
		t.Fatalf("after reopen LastRead = (%q, %v)", got, err)
	}
}
