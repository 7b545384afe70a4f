package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"testing"

	"intentguard/internal/resultstore"
	"intentguard/internal/session"
	"intentguard/internal/testrun"
)

func newStore(t *testing.T) *resultstore.Store {
	t.Helper()
	store, err := resultstore.New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("resultstore.New: %v", err)
	}
	return store
}

func sampleRun(id, language string) *testrun.TestRun {
	return &testrun.TestRun{
		ID:       id,
		TestID:   id,
		FlowID:   "flow-1",
		Language: language,
		Results: []testrun.UtteranceResult{
			{
				Utterance:        "hello there",
				Language:         language,
				RecognizedIntent: "greet",
				Confidence:       0.91,
				ExpectedIntent:   "greet",
				ExpectedSlots:    map[string]string{},
				Slots:            []testrun.Slot{},
				IntentMatch:      true,
				SlotsMatch:       true,
				OverallMatch:     true,
			},
		},
		Summary: testrun.Summary{Total: 1, Matched: 1, Failed: 0},
	}
}

func TestFindSessionCacheFirst(t *testing.T) {
	store := newStore(t)
	svc := NewService(store)

	cached := sampleRun("batch-test-100", "en-us")
	sess := session.Session{TestResults: map[string]*testrun.TestRun{cached.ID: cached}}

	// A diverging stored copy must not shadow the session's.
	stale := sampleRun("batch-test-100", "de-de")
	store.Save(stale.ID, stale)

	run, err := svc.Find(sess, "batch-test-100")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if run.Language != "en-us" {
		t.Fatalf("session cache should win, got language %q", run.Language)
	}
}

func TestFindLastResultsByID(t *testing.T) {
	svc := NewService(newStore(t))
	last := sampleRun("batch-test-200", "en-us")
	sess := session.Session{LastTestResults: last}

	run, err := svc.Find(sess, "batch-test-200")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if run != last {
		t.Fatal("expected the session's last run")
	}
}

func TestFindFromStore(t *testing.T) {
	store := newStore(t)
	svc := NewService(store)
	stored := sampleRun("batch-test-300", "en-us")
	store.Save(stored.ID, stored)

	run, err := svc.Find(session.Session{}, "batch-test-300")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if run.ID != "batch-test-300" {
		t.Fatalf("got %q", run.ID)
	}
}

func TestFindByLanguageCode(t *testing.T) {
	store := newStore(t)
	svc := NewService(store)
	store.Save("batch-test-400", sampleRun("batch-test-400", "en-us"))
	store.Save("batch-test-401", sampleRun("batch-test-401", "de-de"))

	run, err := svc.Find(session.Session{}, "de-de")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if run.ID != "batch-test-401" {
		t.Fatalf("language lookup returned %q", run.ID)
	}
}

func TestFindFallsBackToMostRecent(t *testing.T) {
	store := newStore(t)
	svc := NewService(store)
	store.Save("batch-test-500", sampleRun("batch-test-500", "en-us"))
	store.Save("batch-test-501", sampleRun("batch-test-501", "en-us"))

	run, err := svc.Find(session.Session{}, "no-such-id")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if run.ID != "batch-test-501" {
		t.Fatalf("expected most recent run, got %q", run.ID)
	}
}

func TestFindNotFound(t *testing.T) {
	svc := NewService(newStore(t))
	if _, err := svc.Find(session.Session{}, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindIdempotent(t *testing.T) {
	store := newStore(t)
	svc := NewService(store)
	store.Save("batch-test-600", sampleRun("batch-test-600", "en-us"))

	first, err := svc.Find(session.Session{}, "batch-test-600")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	second, err := svc.Find(session.Session{}, "batch-test-600")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if !bytes.Equal(a, b) {
		t.Fatal("repeated lookup returned different data")
	}
}

func TestExportJSONRoundTrip(t *testing.T) {
	run := sampleRun("batch-test-700", "en-us")
	data, contentType, err := Export(run, "json")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if contentType != "application/json" {
		t.Fatalf("content type %q", contentType)
	}
	var parsed testrun.TestRun
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(parsed.Results) != len(run.Results) {
		t.Fatalf("results length %d", len(parsed.Results))
	}
	if parsed.Results[0].Utterance != run.Results[0].Utterance || parsed.Results[0].Confidence != run.Results[0].Confidence {
		t.Fatal("round trip lost fields")
	}
}

func TestExportCSVQuoting(t *testing.T) {
	run := sampleRun("batch-test-800", "en-us")
	run.Results[0].Utterance = `book a "window" seat, aisle if not`

	data, contentType, err := Export(run, "csv")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if contentType != "text/csv" {
		t.Fatalf("content type %q", contentType)
	}

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(rows))
	}
	if len(rows[0]) != 9 {
		t.Fatalf("expected 9 columns, got %d", len(rows[0]))
	}
	if rows[1][0] != run.Results[0].Utterance {
		t.Fatalf("utterance mangled: %q", rows[1][0])
	}
	if rows[1][3] != "Yes" || rows[1][8] != "Yes" {
		t.Fatalf("match columns %v", rows[1])
	}
}

func TestExportUnknownFormat(t *testing.T) {
	if _, _, err := Export(sampleRun("x", "en-us"), "xml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestListForSession(t *testing.T) {
	older := sampleRun("batch-test-100", "en-us")
	newer := sampleRun("batch-test-200", "en-us")
	sess := session.Session{TestResults: map[string]*testrun.TestRun{
		older.ID: older,
		newer.ID: newer,
	}}

	svc := NewService(newStore(t))
	list := svc.ListForSession(sess)
	if len(list) != 2 {
		t.Fatalf("got %d summaries", len(list))
	}
	if list[0].ID != "batch-test-200" {
		t.Fatalf("expected newest first, got %q", list[0].ID)
	}
	if list[0].Summary.Total != 1 {
		t.Fatalf("summary not carried: %+v", list[0])
	}
}
