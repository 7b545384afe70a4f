// Package report finds stored test runs and renders them for download.
package report

import (
	"errors"
	"sort"

	"intentguard/internal/resultstore"
	"intentguard/internal/session"
	"intentguard/internal/testrun"
)

// ErrNotFound means no run matched the ID through any lookup path.
var ErrNotFound = errors.New("report: test run not found")

// Service looks up runs across the session cache and the durable store.
type Service struct {
	store *resultstore.Store
}

func NewService(store *resultstore.Store) *Service {
	return &Service{store: store}
}

// Find locates a run by ID. Lookup order, each a fallback for the last:
//
//  1. the session's run cache
//  2. the session's most recent run, when its ID matches
//  3. the durable store by ID
//  4. any stored run whose language equals the ID (older clients sent
//     a language code where the run ID belongs)
//  5. the most recent stored run
//
// ErrNotFound only after all five miss.
func (svc *Service) Find(sess session.Session, testID string) (*testrun.TestRun, error) {
	if run, ok := sess.TestResults[testID]; ok && run != nil {
		return run, nil
	}
	if last := sess.LastTestResults; last != nil && (last.ID == testID || last.TestID == testID) {
		return last, nil
	}
	if run, ok := svc.store.Get(testID); ok {
		return run, nil
	}
	if run, ok := svc.findByLanguage(testID); ok {
		return run, nil
	}
	if run, ok := svc.store.Latest(); ok {
		return run, nil
	}
	return nil, ErrNotFound
}

// findByLanguage scans stored runs newest-first for a language match.
func (svc *Service) findByLanguage(language string) (*testrun.TestRun, bool) {
	if language == "" {
		return nil, false
	}
	ids := svc.store.List()
	for i := len(ids) - 1; i >= 0; i-- {
		run, ok := svc.store.Get(ids[i])
		if ok && run.Language == language {
			return run, true
		}
	}
	return nil, false
}

// RunSummary is one line of the session's run listing.
type RunSummary struct {
	ID        string          `json:"id"`
	FlowID    string          `json:"flowId"`
	Language  string          `json:"language"`
	Timestamp string          `json:"timestamp"`
	Summary   testrun.Summary `json:"summary"`
}

// ListForSession summarizes every run cached on the session, newest
// first by ID (IDs embed a millisecond timestamp).
func (svc *Service) ListForSession(sess session.Session) []RunSummary {
	summaries := make([]RunSummary, 0, len(sess.TestResults))
	for _, run := range sess.TestResults {
		if run == nil {
			continue
		}
		summaries = append(summaries, RunSummary{
			ID:        run.ID,
			FlowID:    run.FlowID,
			Language:  run.Language,
			Timestamp: run.Timestamp,
			Summary:   run.Summary,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID > summaries[j].ID })
	return summaries
}
