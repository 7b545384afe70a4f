package resultstore

import (
	"testing"
	"time"

	"intentguard/internal/testrun"
)

func newRun(id string) *testrun.TestRun {
	results := []testrun.UtteranceResult{
		{Utterance: "hello", RecognizedIntent: "greet", ExpectedIntent: "greet", IntentMatch: true, SlotsMatch: true, OverallMatch: true},
		{Utterance: "bye", RecognizedIntent: "none", ExpectedIntent: "farewell"},
	}
	return &testrun.TestRun{
		ID:        id,
		TestID:    id,
		FlowID:    "flow-1",
		Language:  "en-us",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Results:   results,
		Summary:   testrun.Summarize(results),
	}
}

func TestSaveGetRoundTrip(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	run := newRun("batch-test-1000")
	if !s.Save(run.ID, run) {
		t.Fatalf("Save failed")
	}

	got, ok := s.Get(run.ID)
	if !ok {
		t.Fatalf("Get: not found")
	}
	if got.FlowID != run.FlowID || len(got.Results) != len(run.Results) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Summary != run.Summary {
		t.Fatalf("summary mismatch: %+v vs %+v", got.Summary, run.Summary)
	}
}

func TestGetMissingIsNotFound(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := s.Get("batch-test-404"); ok {
		t.Fatalf("expected not found")
	}
}

func TestListIsChronological(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// Insert out of order; millisecond IDs sort lexicographically.
	for _, id := range []string{"batch-test-1700000000300", "batch-test-1700000000100", "batch-test-1700000000200"} {
		if !s.Save(id, newRun(id)) {
			t.Fatalf("Save %s failed", id)
		}
	}
	ids := s.List()
	want := []string{"batch-test-1700000000100", "batch-test-1700000000200", "batch-test-1700000000300"}
	if len(ids) != len(want) {
		t.Fatalf("got %d ids", len(ids))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("order mismatch at %d: %s", i, ids[i])
		}
	}

	latest, ok := s.Latest()
	if !ok || latest.ID != "batch-test-1700000000300" {
		t.Fatalf("Latest: %v %v", latest, ok)
	}
}

func TestSaveOverwrites(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	run := newRun("batch-test-7")
	s.Save(run.ID, run)

	run2 := newRun("batch-test-7")
	run2.Language = "de-de"
	s.Save(run2.ID, run2)

	got, _ := s.Get("batch-test-7")
	if got.Language != "de-de" {
		t.Fatalf("overwrite failed: %q", got.Language)
	}
}
