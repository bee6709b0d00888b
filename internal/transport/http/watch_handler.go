package http

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"trivia-room-service/internal/app"
)

// WatchHandler is a push wrapper over the pull-only engine: it upgrades to
// a websocket and re-projects the room snapshot on the polling interval, so
// browser clients can skip their own fetch loop. Room semantics are
// untouched; this is the same snapshot a poller would see.
type WatchHandler struct {
	service  *app.RoomService
	interval time.Duration
	upgrader websocket.Upgrader
}

func NewWatchHandler(service *app.RoomService, interval time.Duration) *WatchHandler {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &WatchHandler{
		service:  service,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWatch streams snapshots for one room until the client hangs up or
// the room is garbage-collected.
func (h *WatchHandler) ServeWatch(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	viewerToken := r.URL.Query().Get("host_id")

	if _, err := h.service.Snapshot(code, viewerToken); err != nil {
		writeError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("watch upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		state, err := h.service.Snapshot(code, viewerToken)
		if err != nil {
			_ = conn.WriteJSON(errorResponse{Error: err.Error()})
			return
		}
		if err := conn.WriteJSON(state); err != nil {
			return
		}

		select {
		case <-ticker.C:
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
