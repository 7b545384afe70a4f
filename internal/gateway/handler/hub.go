package handler

import (
	"sync"

	"intentguard/internal/testrun"
)

// WatchEvent is one progress message for a running batch test.
type WatchEvent struct {
	Type    string                   `json:"type"`
	WatchID string                   `json:"watchId,omitempty"`
	FlowID  string                   `json:"flowId,omitempty"`
	TestID  string                   `json:"testId,omitempty"`
	Index   int                      `json:"index,omitempty"`
	Total   int                      `json:"total,omitempty"`
	Result  *testrun.UtteranceResult `json:"result,omitempty"`
	Summary *testrun.Summary         `json:"summary,omitempty"`
	Message string                   `json:"message,omitempty"`
}

// Hub fans batch-test progress out to websocket subscribers. Watch IDs
// are client-chosen; a subscriber may attach before or during the run it
// wants to follow. A slow subscriber loses old events rather than
// blocking the run.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan WatchEvent]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: map[string]map[chan WatchEvent]struct{}{}}
}

// Subscribe registers a listener on the given watch ID and returns the
// event channel plus a cancel func.
func (h *Hub) Subscribe(watchID string) (<-chan WatchEvent, func()) {
	ch := make(chan WatchEvent, 64)
	h.mu.Lock()
	set, found := h.subs[watchID]
	if !found {
		set = map[chan WatchEvent]struct{}{}
		h.subs[watchID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, found := h.subs[watchID]; found {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, watchID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber on the watch ID. Full
// buffers drop the oldest event to make room.
func (h *Hub) Publish(watchID string, evt WatchEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[watchID] {
		select {
		case ch <- evt:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- evt:
		default:
		}
	}
}
