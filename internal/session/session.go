// Package session owns the in-memory session records that tie a browser
// session to a platform bearer token, and the policy for resolving one
// from an inbound request.
package session

import (
	"encoding/json"
	"time"

	"intentguard/internal/testrun"
)

// TTL is how long a session stays usable before its token must be
// re-validated. Platform tokens typically expire after 24 hours.
const TTL = 24 * time.Hour

// Session is one authenticated browser session. Records live only in
// process memory; nothing survives a restart.
type Session struct {
	ID           string
	Token        string // stored without the "Bearer " prefix
	Region       string
	CreatedAt    time.Time
	LastActivity time.Time

	// OrgInfo caches the platform's user/org payload after the first
	// successful lookup.
	OrgInfo json.RawMessage

	// TestResults holds recent runs keyed by run ID. LastTestResults is
	// the most recent run, kept separately for older lookup paths.
	TestResults     map[string]*testrun.TestRun
	LastTestResults *testrun.TestRun

	// TestData holds generated utterances per language code.
	TestData map[string][]testrun.Utterance

	SelectedFlow string
}

// Expired reports whether the session has outlived the TTL at the given
// instant. Age is measured from creation, not last activity.
func (s Session) Expired(now time.Time) bool {
	return now.Sub(s.CreatedAt) > TTL
}

// StoreRun records a completed run both as the latest result and under
// its ID.
func (s *Session) StoreRun(run *testrun.TestRun) {
	if run == nil {
		return
	}
	if s.TestResults == nil {
		s.TestResults = map[string]*testrun.TestRun{}
	}
	s.TestResults[run.ID] = run
	s.LastTestResults = run
}
