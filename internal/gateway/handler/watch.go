package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	watchWSWriteWait = 10 * time.Second
	watchWSPongWait  = 60 * time.Second
	watchWSPingEvery = (watchWSPongWait * 9) / 10
)

var watchWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// HandleWatch upgrades to a websocket and streams batch-test progress
// events for the watch ID in the query string.
func (s *Service) HandleWatch(w http.ResponseWriter, r *http.Request) {
	if _, found := sessionFrom(w, r); !found {
		return
	}
	watchID := strings.TrimSpace(r.URL.Query().Get("watchId"))
	if watchID == "" {
		fail(w, http.StatusBadRequest, "watchId is required")
		return
	}

	conn, err := watchWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(watchWSPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(watchWSPongWait))
	})

	events, cancel := s.hub.Subscribe(watchID)
	defer cancel()

	// Reader goroutine: the client sends nothing we act on, but reads
	// are required to process pong frames and notice a closed peer.
	readerGone := make(chan struct{})
	go func() {
		defer close(readerGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeWatchEvent(conn, WatchEvent{Type: "subscribed", WatchID: watchID}); err != nil {
		return
	}

	ticker := time.NewTicker(watchWSPingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-readerGone:
			return
		case evt := <-events:
			if err := writeWatchEvent(conn, evt); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(watchWSWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeWatchEvent(conn *websocket.Conn, evt WatchEvent) error {
	if err := conn.SetWriteDeadline(time.Now().Add(watchWSWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(evt)
}
