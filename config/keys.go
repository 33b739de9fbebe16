package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Logical global key events. The set is fixed: the mapping from logical
// event to physical key is user-configurable, the event set is not.
const (
	GlobalShowHelp    = "show-help"
	GlobalRefresh     = "refresh"
	GlobalQuit        = "quit"
	GlobalNextTeam    = "next-team"
	GlobalPrevTeam    = "prev-team"
	GlobalChannelJump = "channel-select"
)

// defaultKeys maps each logical global event to its default key, in
// bubbletea key-string form.
var defaultKeys = map[string]string{
	GlobalShowHelp:    "f1",
	GlobalRefresh:     "ctrl+l",
	GlobalQuit:        "ctrl+q",
	GlobalNextTeam:    "ctrl+right",
	GlobalPrevTeam:    "ctrl+left",
	GlobalChannelJump: "ctrl+g",
}

// KeyConfig maps logical global events to physical keys.
type KeyConfig struct {
	bindings map[string]string
}

// DefaultKeys returns the built-in key configuration.
func DefaultKeys() KeyConfig {
	b := make(map[string]string, len(defaultKeys))
	for ev, key := range defaultKeys {
		b[ev] = key
	}
	return KeyConfig{bindings: b}
}

// LoadKeys reads the key file if present and overlays it on the defaults.
// Unknown logical events are rejected so typos surface at startup.
func LoadKeys(path string) (KeyConfig, error) {
	kc := DefaultKeys()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return kc, nil
	}
	if err != nil {
		return kc, err
	}

	var user map[string]string
	if err := json.Unmarshal(data, &user); err != nil {
		return kc, fmt.Errorf("parsing %s: %w", path, err)
	}
	for ev, key := range user {
		if _, known := defaultKeys[ev]; !known {
			return kc, fmt.Errorf("unknown key event %q in %s", ev, path)
		}
		kc.bindings[ev] = key
	}
	return kc, nil
}

// EventFor returns the logical event bound to a key, if any.
func (kc KeyConfig) EventFor(key string) (string, bool) {
	for ev, k := range kc.bindings {
		if k == key {
			return ev, true
		}
	}
	return "", false
}

// KeyFor returns the key bound to a logical event.
func (kc KeyConfig) KeyFor(event string) string {
	return kc.bindings[event]
}

// Events returns the logical event set, sorted.
func (kc KeyConfig) Events() []string {
	events := make([]string, 0, len(kc.bindings))
	for ev := range kc.bindings {
		events = append(events, ev)
	}
	sort.Strings(events)
	return events
}
