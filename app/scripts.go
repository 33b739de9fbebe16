package app

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/drake/relay/chat"
	"github.com/drake/relay/config"
	"github.com/drake/relay/jobs"
)

// runScript executes a user script from the scripts directory. Stdout comes
// back as a system message; stderr is captured to a log file that any
// failure message points at.
func (a *App) runScript(name string, args []string) {
	if strings.ContainsAny(name, "/\\") {
		a.postError(chat.Errorf("Script names may not contain path separators."))
		return
	}
	path := filepath.Join(config.ScriptsDir(), name)
	if !fileExists(path) {
		a.postError(chat.NoSuchScript(name))
		return
	}

	a.queue.Enqueue(jobs.Normal, func() func() {
		out, logPath, err := a.runCaptured(path, args)
		if err != nil {
			return func() { a.postError(chat.ProgramFailure(name, logPath)) }
		}
		os.Remove(logPath)
		return func() {
			if out != "" {
				a.postText(out)
			} else {
				a.postText(fmt.Sprintf("Script %s finished.", name))
			}
		}
	})
}

// openURL launches the configured URL opener on a selected URL.
func (a *App) openURL(url string) {
	if a.urlOpenCmd == "" {
		a.postError(chat.ConfigOptionMissing("urlOpenCommand"))
		return
	}
	cmd := a.urlOpenCmd
	a.queue.Enqueue(jobs.Normal, func() func() {
		_, logPath, err := a.runCaptured(cmd, []string{url})
		if err != nil {
			return func() { a.postError(chat.ProgramFailure(cmd, logPath)) }
		}
		os.Remove(logPath)
		return nil
	})
}

// runCaptured runs a program with stderr captured to a temp log file.
// Runs on the worker goroutine; it may block as long as it likes.
func (a *App) runCaptured(program string, args []string) (stdout, logPath string, err error) {
	logFile, err := os.CreateTemp("", "relay-exec-*.log")
	if err != nil {
		return "", "", err
	}
	logPath = logFile.Name()

	var out bytes.Buffer
	cmd := exec.CommandContext(a.ctx, program, args...)
	cmd.Stdout = &out
	cmd.Stderr = logFile

	err = cmd.Run()
	logFile.Close()
	return strings.TrimSpace(out.String()), logPath, err
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
