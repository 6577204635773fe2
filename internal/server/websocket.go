package server

import (
	"log"
	"net/http"
	"time"

	"game-night/internal/room"

	"github.com/gorilla/websocket"
)

// handleWebsocket attaches a member to a room's event feed. The first
// frame is always a full snapshot; after that the connection mirrors the
// room's event order. All writes happen on the pump goroutine, so the
// socket never sees interleaved frames.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	code, ok := parseWebsocketPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	rm, ok := s.registry.Get(code)
	if !ok {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	playerID := r.URL.Query().Get("player_id")
	if playerID == "" {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	ch, cancel, err := rm.Subscribe(playerID)
	if err != nil {
		reason := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error())
		_ = conn.WriteControl(websocket.CloseMessage, reason, time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}
	log.Printf("ws connected code=%s player_id=%s remote=%s", rm.Code(), playerID, r.RemoteAddr)
	go s.pumpEvents(conn, ch)
	go s.readWS(rm.Code(), playerID, conn, cancel)
}

// pumpEvents drains the subscription into the socket. The channel closes
// when the subscriber is cancelled, dropped for falling behind, or the
// room is removed; closing the conn then unblocks the read loop.
func (s *Server) pumpEvents(conn *websocket.Conn, ch <-chan room.Event) {
	for ev := range ch {
		if err := conn.WriteJSON(ev); err != nil {
			break
		}
	}
	_ = conn.Close()
}

func (s *Server) readWS(code, playerID string, conn *websocket.Conn, cancel func()) {
	defer cancel()
	defer conn.Close()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Printf("ws disconnected code=%s player_id=%s error=%v", code, playerID, err)
			return
		}
	}
}
