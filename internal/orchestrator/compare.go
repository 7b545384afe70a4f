package orchestrator

import (
	"strings"

	"intentguard/internal/testrun"
)

// IntentsMatch compares the recognized intent against the expectation.
// Both sides are whitespace-trimmed, then compared case-sensitively.
// Intent names are exact identifiers in the flow, so case matters.
func IntentsMatch(recognized, expected string) bool {
	return strings.TrimSpace(recognized) == strings.TrimSpace(expected)
}

// SlotsMatch checks every expected slot against the returned set.
//
// An empty expectation is vacuously satisfied: extra returned slots are
// accepted, never treated as false positives. With expectations present,
// each expected name must appear among the returned slots with an equal
// resolved value (falling back to raw); the first miss fails the whole
// utterance and stops further checks.
func SlotsMatch(expected map[string]string, returned []testrun.Slot) bool {
	if len(expected) == 0 {
		return true
	}
	actual := make(map[string]string, len(returned))
	for _, s := range returned {
		actual[s.Name] = s.ResolvedValue()
	}
	for name, want := range expected {
		got, ok := actual[name]
		if !ok || got == "" || got != want {
			return false
		}
	}
	return true
}
