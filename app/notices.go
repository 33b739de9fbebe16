package app

import "fmt"

// User-facing advisory wording. Users and support processes key off these
// exact strings; change them only deliberately.

const rateLimitSettingsMissingAdvisory = "The server rate-limited a request, " +
	"but its response did not say when to retry, so the failed request could " +
	"not be rescheduled."

const requestDroppedAdvisory = "An API request was dropped due to rate " +
	"limiting. The client may now be inconsistent with the server."

// rateLimitAdvisory names the retry window, singular or plural.
func rateLimitAdvisory(seconds int) string {
	unit := "seconds"
	if seconds == 1 {
		unit = "second"
	}
	return fmt.Sprintf("The server rate-limited a request. The client will "+
		"retry the failed request in %d %s.", seconds, unit)
}

func loggingStartedNotice(path string) string {
	return fmt.Sprintf("Now logging to %s.", path)
}

func loggingStoppedNotice(path string) string {
	return fmt.Sprintf("Stopped logging to %s.", path)
}

func logSnapshotNotice(path string) string {
	return fmt.Sprintf("Log snapshot written to %s.", path)
}
