package chat

import (
	"errors"
	"fmt"
	"strings"
)

// IssueURL is where unexpected failures ask users to report.
const IssueURL = "https://github.com/drake/relay/issues"

// ErrorKind is the closed taxonomy of user-visible recoverable errors. Every
// failure that reaches the dispatcher is reduced to exactly one kind before
// display; none terminate the process.
type ErrorKind int

const (
	ErrGeneric ErrorKind = iota
	ErrNoSuchChannel
	ErrNoSuchUser
	ErrAmbiguousName
	ErrServer
	ErrClipboard
	ErrConfigOptionMissing
	ErrProgramFailure
	ErrNoSuchScript
	ErrNoSuchHelpTopic
	ErrAsync
)

// UserMessager lets a collaborator error supply a human-readable message
// (the server client's structured errors implement it).
type UserMessager interface {
	UserMessage() string
}

// UserError is a recoverable, user-facing error. It renders as a system
// message in the active conversation; the wording per kind is a contract.
type UserError struct {
	Kind    ErrorKind
	Message string   // ErrGeneric, ErrAsync detail
	Name    string   // channel/user/topic/script/program/option name
	Topics  []string // ErrNoSuchHelpTopic: the valid topics
	LogPath string   // ErrProgramFailure: where stderr was captured
	Err     error    // wrapped cause, if any
}

func (e *UserError) Error() string { return e.Render() }

func (e *UserError) Unwrap() error { return e.Err }

// Render produces the exact user-facing text for the error.
func (e *UserError) Render() string {
	switch e.Kind {
	case ErrGeneric:
		return e.Message
	case ErrNoSuchChannel:
		return fmt.Sprintf("No such channel: %s", e.Name)
	case ErrNoSuchUser:
		return fmt.Sprintf("No such user: %s", e.Name)
	case ErrAmbiguousName:
		return fmt.Sprintf("The input %q matches both channels and users. "+
			"Try using the sigil @ or ~ to disambiguate.", e.Name)
	case ErrServer:
		return "An error occurred: " + messageOf(e.Err)
	case ErrClipboard:
		return "Could not copy to the clipboard: " + messageOf(e.Err)
	case ErrConfigOptionMissing:
		return fmt.Sprintf("Config option %q missing; please set it to use this feature.", e.Name)
	case ErrProgramFailure:
		return fmt.Sprintf("An error occurred when running %s; see %s for details.", e.Name, e.LogPath)
	case ErrNoSuchScript:
		return fmt.Sprintf("No script named %s was found.", e.Name)
	case ErrNoSuchHelpTopic:
		var b strings.Builder
		fmt.Fprintf(&b, "Unknown help topic: `%s`. Available topics are:\n", e.Name)
		for _, t := range e.Topics {
			b.WriteString("  - ")
			b.WriteString(t)
			b.WriteString("\n")
		}
		return strings.TrimRight(b.String(), "\n")
	case ErrAsync:
		return "An unexpected error has occurred! The stack trace and error " +
			"information below can help the developers fix it. Please report " +
			"this at " + IssueURL + "\n\n" + e.Message
	}
	return e.Message
}

// messageOf extracts the most useful human-readable text from an error,
// preferring a collaborator-supplied message over Error().
func messageOf(err error) string {
	if err == nil {
		return "unknown error"
	}
	var um UserMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return err.Error()
}

// --- Constructors ---

func Errorf(format string, args ...any) *UserError {
	return &UserError{Kind: ErrGeneric, Message: fmt.Sprintf(format, args...)}
}

func NoSuchChannel(name string) *UserError {
	return &UserError{Kind: ErrNoSuchChannel, Name: name}
}

func NoSuchUser(name string) *UserError {
	return &UserError{Kind: ErrNoSuchUser, Name: name}
}

func AmbiguousName(name string) *UserError {
	return &UserError{Kind: ErrAmbiguousName, Name: name}
}

func ServerError(err error) *UserError {
	return &UserError{Kind: ErrServer, Err: err}
}

func ClipboardError(err error) *UserError {
	return &UserError{Kind: ErrClipboard, Err: err}
}

func ConfigOptionMissing(option string) *UserError {
	return &UserError{Kind: ErrConfigOptionMissing, Name: option}
}

func ProgramFailure(program, logPath string) *UserError {
	return &UserError{Kind: ErrProgramFailure, Name: program, LogPath: logPath}
}

func NoSuchScript(name string) *UserError {
	return &UserError{Kind: ErrNoSuchScript, Name: name}
}

func NoSuchHelpTopic(name string, topics []string) *UserError {
	return &UserError{Kind: ErrNoSuchHelpTopic, Name: name, Topics: topics}
}

// AsyncError wraps an unexpected failure from background work with enough
// detail to file a report.
func AsyncError(detail string, err error) *UserError {
	if err != nil {
		detail = detail + ": " + err.Error()
	}
	return &UserError{Kind: ErrAsync, Message: detail, Err: err}
}
