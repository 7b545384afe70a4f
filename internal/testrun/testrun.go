// Package testrun holds the shared records produced by a batch NLU test
// and consumed by the report/export and persistence layers.
package testrun

import (
	"encoding/json"
	"fmt"
	"time"
)

// Utterance is one candidate test input: the phrase to send to the NLU
// detector plus the intent and slot values it is expected to trigger.
type Utterance struct {
	Text           string            `json:"text"`
	ExpectedIntent string            `json:"expected_intent"`
	ExpectedSlots  map[string]string `json:"expected_slots,omitempty"`
}

// SlotValue carries both forms the platform returns for a recognized slot.
type SlotValue struct {
	Raw      string `json:"raw,omitempty"`
	Resolved string `json:"resolved,omitempty"`
}

// Slot is one recognized slot from the NLU response.
type Slot struct {
	Name  string    `json:"name"`
	Value SlotValue `json:"value"`
}

// Resolved returns the resolved value, falling back to the raw one.
func (s Slot) ResolvedValue() string {
	if s.Value.Resolved != "" {
		return s.Value.Resolved
	}
	return s.Value.Raw
}

// UtteranceResult is the outcome of testing one utterance.
type UtteranceResult struct {
	Utterance         string            `json:"utterance"`
	Language          string            `json:"language"`
	RecognizedIntent  string            `json:"recognized_intent"`
	Confidence        float64           `json:"confidence"`
	Slots             []Slot            `json:"slots"`
	RawResponse       json.RawMessage   `json:"raw_response,omitempty"`
	ExpectedIntent    string            `json:"expected_intent"`
	ExpectedSlots     map[string]string `json:"expected_slots"`
	IntentMatch       bool              `json:"intent_match"`
	SlotsMatch        bool              `json:"slots_match"`
	OverallMatch      bool              `json:"overall_match"`
	Error             string            `json:"error,omitempty"`
}

// Summary aggregates match counts over a run's results.
type Summary struct {
	Total   int `json:"total"`
	Matched int `json:"matched"`
	Failed  int `json:"failed"`
}

// TestRun is the full record of one batch of utterances tested against
// one flow/language pair. Immutable after creation; a new run gets a new ID.
type TestRun struct {
	ID        string            `json:"id"`
	TestID    string            `json:"test_id"` // duplicate of ID, kept for older clients
	FlowID    string            `json:"flowId"`
	Language  string            `json:"language"`
	Timestamp string            `json:"timestamp"`
	Results   []UtteranceResult `json:"results"`
	Summary   Summary           `json:"summary"`
}

// NewID formats a run identifier from a wall-clock instant. The fixed
// prefix plus millisecond timestamp keeps lexicographic file order equal
// to chronological order.
func NewID(now time.Time) string {
	return fmt.Sprintf("batch-test-%d", now.UnixMilli())
}

// Summarize derives the summary counts from the results slice.
func Summarize(results []UtteranceResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.OverallMatch {
			s.Matched++
		}
	}
	s.Failed = s.Total - s.Matched
	return s
}
