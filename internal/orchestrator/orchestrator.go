// Package orchestrator runs batches of candidate utterances against a
// flow's NLU model and assembles the pass/fail report.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"intentguard/internal/platform"
	"intentguard/internal/testrun"
)

// Detector is the slice of the platform client the orchestrator needs.
type Detector interface {
	GetFlowConfiguration(ctx context.Context, region, token, flowID string) (*platform.FlowConfiguration, error)
	DetectIntent(ctx context.Context, region, token, domainID, domainVersionID, text, language string) (*platform.Detection, error)
}

// Progress receives per-utterance completion events during a run. May be
// nil. index is zero-based over the input order.
type Progress func(index, total int, result testrun.UtteranceResult)

// Orchestrator executes batch tests. Stateless; persistence belongs to
// the caller.
type Orchestrator struct {
	detector Detector
	now      func() time.Time
}

// New creates an orchestrator over the given detector.
func New(detector Detector) *Orchestrator {
	return &Orchestrator{detector: detector, now: time.Now}
}

// Request is one batch-test invocation.
type Request struct {
	FlowID     string
	Language   string
	Region     string
	Token      string
	Utterances []testrun.Utterance
	Progress   Progress
}

// Run resolves the flow's NLU coordinates, tests every utterance in
// input order, and returns the assembled TestRun.
//
// Coordinate resolution failure is terminal: no utterance is tested and
// no partial result exists. Individual detection failures are folded
// into the run as failed results and never abort the batch.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*testrun.TestRun, error) {
	cfg, err := o.detector.GetFlowConfiguration(ctx, req.Region, req.Token, req.FlowID)
	if err != nil {
		return nil, err
	}
	coords, err := ResolveCoordinates(cfg.Document())
	if err != nil {
		return nil, fmt.Errorf("%w (flow %s)", err, req.FlowID)
	}
	log.Printf("[BatchTest] flow %s resolved to domain=%s version=%s", req.FlowID, coords.DomainID, coords.DomainVersionID)

	total := len(req.Utterances)
	results := make([]testrun.UtteranceResult, 0, total)
	for i, u := range req.Utterances {
		result := o.testOne(ctx, req, coords, u)
		results = append(results, result)
		if req.Progress != nil {
			req.Progress(i, total, result)
		}
	}

	now := o.now()
	id := testrun.NewID(now)
	run := &testrun.TestRun{
		ID:        id,
		TestID:    id,
		FlowID:    req.FlowID,
		Language:  req.Language,
		Timestamp: now.UTC().Format(time.RFC3339),
		Results:   results,
		Summary:   testrun.Summarize(results),
	}
	return run, nil
}

// testOne runs a single utterance. Detection calls are sequential across
// the batch: predictable upstream rate, and results keep input order.
func (o *Orchestrator) testOne(ctx context.Context, req Request, coords Coordinates, u testrun.Utterance) testrun.UtteranceResult {
	expected := u.ExpectedSlots
	if expected == nil {
		expected = map[string]string{}
	}

	detection, err := o.detector.DetectIntent(ctx, req.Region, req.Token, coords.DomainID, coords.DomainVersionID, u.Text, req.Language)
	if err != nil {
		log.Printf("[BatchTest] utterance %q failed: %v", u.Text, err)
		return testrun.UtteranceResult{
			Utterance:      u.Text,
			Language:       req.Language,
			ExpectedIntent: u.ExpectedIntent,
			ExpectedSlots:  expected,
			Error:          err.Error(),
		}
	}

	top := detection.TopIntent()
	slots := top.Entities
	if slots == nil {
		slots = []testrun.Slot{}
	}

	intentMatch := IntentsMatch(top.Name, u.ExpectedIntent)
	slotsMatch := SlotsMatch(expected, slots)

	return testrun.UtteranceResult{
		Utterance:        u.Text,
		Language:         req.Language,
		RecognizedIntent: top.Name,
		Confidence:       top.Probability,
		Slots:            slots,
		RawResponse:      detection.Raw,
		ExpectedIntent:   u.ExpectedIntent,
		ExpectedSlots:    expected,
		IntentMatch:      intentMatch,
		SlotsMatch:       slotsMatch,
		OverallMatch:     intentMatch && slotsMatch,
	}
}
