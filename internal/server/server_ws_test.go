package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type wsEvent struct {
	Seq      uint64          `json:"seq"`
	Type     string          `json:"type"`
	RoomCode string          `json:"room_code"`
	Payload  json.RawMessage `json:"payload"`
}

func dialRoom(t *testing.T, wsBase, code, playerID string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsBase+"/ws/rooms/"+code+"?player_id="+playerID, nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn, timeout time.Duration) wsEvent {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read websocket message: %v", err)
	}
	var ev wsEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		t.Fatalf("decode event %s: %v", payload, err)
	}
	return ev
}

func TestWebsocketFirstFrameIsSnapshot(t *testing.T) {
	srv := New(nil, testServerConfig())
	t.Cleanup(srv.Close)
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	code := createRoom(t, ts, "p1", "Ada")
	wsBase := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn := dialRoom(t, wsBase, code, "p1")
	defer conn.Close()

	ev := readEvent(t, conn, 5*time.Second)
	if ev.Type != "snapshot" {
		t.Fatalf("expected snapshot first, got %s", ev.Type)
	}
	if ev.RoomCode != code {
		t.Fatalf("expected room code %s, got %s", code, ev.RoomCode)
	}
	var snap struct {
		Phase   string `json:"phase"`
		Players []struct {
			ID        string `json:"id"`
			Connected bool   `json:"connected"`
		} `json:"players"`
	}
	if err := json.Unmarshal(ev.Payload, &snap); err != nil {
		t.Fatalf("decode snapshot payload: %v", err)
	}
	if snap.Phase != "lobby" || len(snap.Players) != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if !snap.Players[0].Connected {
		t.Fatal("subscribing player should appear connected in its own snapshot")
	}
}

func TestWebsocketObservesJoinAndChatInOrder(t *testing.T) {
	srv := New(nil, testServerConfig())
	t.Cleanup(srv.Close)
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	code := createRoom(t, ts, "p1", "Ada")
	wsBase := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn := dialRoom(t, wsBase, code, "p1")
	defer conn.Close()

	first := readEvent(t, conn, 5*time.Second)
	if first.Type != "snapshot" {
		t.Fatalf("expected snapshot first, got %s", first.Type)
	}

	joinRoom(t, ts, code, "p2", "Ben")
	if err := srvSendChat(ts, code, "p2", "hello"); err != nil {
		t.Fatalf("chat: %v", err)
	}

	prev := first.Seq
	types := make([]string, 0, 2)
	for i := 0; i < 2; i++ {
		ev := readEvent(t, conn, 5*time.Second)
		if ev.Seq != prev+1 {
			t.Fatalf("sequence gap: %d after %d", ev.Seq, prev)
		}
		prev = ev.Seq
		types = append(types, ev.Type)
	}
	if types[0] != "player_joined" || types[1] != "chat" {
		t.Fatalf("unexpected event order: %v", types)
	}
}

func TestWebsocketUnknownPlayerRejected(t *testing.T) {
	srv := New(nil, testServerConfig())
	t.Cleanup(srv.Close)
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	code := createRoom(t, ts, "p1", "Ada")
	wsBase := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsBase+"/ws/rooms/"+code+"?player_id=ghost", nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected close for unknown player")
	}
}

func TestWebsocketDisconnectBroadcast(t *testing.T) {
	srv := New(nil, testServerConfig())
	t.Cleanup(srv.Close)
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	code := createRoom(t, ts, "p1", "Ada")
	joinRoom(t, ts, code, "p2", "Ben")
	wsBase := "ws" + strings.TrimPrefix(ts.URL, "http")

	watcher := dialRoom(t, wsBase, code, "p1")
	defer watcher.Close()
	if ev := readEvent(t, watcher, 5*time.Second); ev.Type != "snapshot" {
		t.Fatalf("expected snapshot, got %s", ev.Type)
	}

	other := dialRoom(t, wsBase, code, "p2")
	if ev := readEvent(t, watcher, 5*time.Second); ev.Type != "player_connected" {
		t.Fatalf("expected player_connected, got %s", ev.Type)
	}
	_ = other.Close()
	if ev := readEvent(t, watcher, 5*time.Second); ev.Type != "player_disconnected" {
		t.Fatalf("expected player_disconnected, got %s", ev.Type)
	}

	// The seat survives the disconnect.
	snap := getSnapshot(t, ts, code)
	players, _ := snap["players"].([]any)
	if len(players) != 2 {
		t.Fatalf("expected 2 players after disconnect, got %d", len(players))
	}
}

func srvSendChat(ts *httptest.Server, code, playerID, text string) error {
	data, err := json.Marshal(map[string]string{"player_id": playerID, "text": text})
	if err != nil {
		return err
	}
	resp, err := http.Post(ts.URL+"/api/rooms/"+code+"/chat", "application/json", strings.NewReader(string(data)))
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("chat status %d", resp.StatusCode)
	}
	return nil
}
