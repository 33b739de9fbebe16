package chat

import "testing"

func TestModesCoversEveryVariantWithAName(t *testing.T) {
	all := Modes()
	if len(all) != int(modeSentinel) {
		t.Fatalf("Modes() returned %d variants, want %d", len(all), int(modeSentinel))
	}

	seen := make(map[string]Mode, len(all))
	for _, m := range all {
		name := m.String()
		if name == "" || name == "unknown" {
			t.Errorf("mode %d has no name", int(m))
		}
		if prev, dup := seen[name]; dup {
			t.Errorf("modes %d and %d share the name %q", int(prev), int(m), name)
		}
		seen[name] = m
	}
}

func TestOutOfRangeModeIsUnknown(t *testing.T) {
	if got := Mode(-1).String(); got != "unknown" {
		t.Fatalf("Mode(-1) = %q", got)
	}
	if got := modeSentinel.String(); got != "unknown" {
		t.Fatalf("sentinel = %q", got)
	}
}
