package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/drake/relay/chat"
)

// writeScript drops an executable script into the config scripts dir rooted
// at the given XDG_CONFIG_HOME.
func writeScript(t *testing.T, configHome, name, body string) {
	t.Helper()
	dir := filepath.Join(configHome, "relay", "scripts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestRunScriptRejectsPathSeparators(t *testing.T) {
	a, _, _ := newTestApp(t)
	seedTeam(a)

	a.runScript("../etc/passwd", nil)
	if got := lastSystemMessage(t, a); got != "Script names may not contain path separators." {
		t.Fatalf("notice = %q", got)
	}
	if normal, _ := a.queue.Lens(); normal != 0 {
		t.Fatal("rejected script still enqueued")
	}
}

func TestRunScriptUnknownName(t *testing.T) {
	a, _, _ := newTestApp(t)
	seedTeam(a)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir()) // empty scripts dir

	a.runScript("no-such-script", nil)
	if got := lastSystemMessage(t, a); got != "No script named no-such-script was found." {
		t.Fatalf("notice = %q", got)
	}
}

func TestOpenURLWithoutOpenerConfigured(t *testing.T) {
	a, _, _ := newTestApp(t)
	seedTeam(a)

	a.openURL("https://example.com")
	got := lastSystemMessage(t, a)
	want := `Config option "urlOpenCommand" missing; please set it to use this feature.`
	if got != want {
		t.Fatalf("notice = %q", got)
	}
	if normal, _ := a.queue.Lens(); normal != 0 {
		t.Fatal("unconfigured opener still enqueued")
	}
}

func TestRunScriptPostsStdout(t *testing.T) {
	a, _, _ := newTestApp(t)
	seedTeam(a)

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	writeScript(t, dir, "hello", "#!/bin/sh\necho hello from script\n")

	a.runScript("hello", nil)
	pump(t, a, func() bool {
		return strings.Contains(safeLastSystem(a), "hello from script")
	})
}

func TestRunScriptFailurePointsAtLog(t *testing.T) {
	a, _, _ := newTestApp(t)
	seedTeam(a)

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	writeScript(t, dir, "broken", "#!/bin/sh\necho oops >&2\nexit 3\n")

	a.runScript("broken", nil)
	pump(t, a, func() bool {
		msg := safeLastSystem(a)
		return strings.HasPrefix(msg, "An error occurred when running broken; see ") &&
			strings.HasSuffix(msg, " for details.")
	})

	// Failures go through the taxonomy, not a panic notice.
	if strings.Contains(safeLastSystem(a), chat.IssueURL) {
		t.Fatal("script failure rendered as an async fault")
	}
}
