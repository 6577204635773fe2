package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"game-night/internal/config"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

func testServerConfig() config.Config {
	cfg := config.Default()
	cfg.MaxPlayersPerRoom = 4
	return cfg
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	decoded := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode response %s: %v", raw, err)
		}
	}
	return resp, decoded
}

func createRoom(t *testing.T, ts *httptest.Server, playerID, name string) string {
	t.Helper()
	resp, body := postJSON(t, ts.URL+"/api/rooms", map[string]string{
		"player_id": playerID,
		"name":      name,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create room status %d: %v", resp.StatusCode, body)
	}
	code, _ := body["room_code"].(string)
	if code == "" {
		t.Fatalf("create room returned no code: %v", body)
	}
	return code
}

func joinRoom(t *testing.T, ts *httptest.Server, code, playerID, name string) {
	t.Helper()
	resp, body := postJSON(t, ts.URL+"/api/rooms/"+code+"/join", map[string]string{
		"player_id": playerID,
		"name":      name,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join status %d: %v", resp.StatusCode, body)
	}
}

func startGame(t *testing.T, ts *httptest.Server, code, playerID, gameType string) {
	t.Helper()
	resp, body := postJSON(t, ts.URL+"/api/rooms/"+code+"/start", map[string]any{
		"player_id": playerID,
		"game_type": gameType,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start status %d: %v", resp.StatusCode, body)
	}
}

func submitEdge(t *testing.T, ts *httptest.Server, code, playerID string, edge int) (*http.Response, map[string]any) {
	t.Helper()
	return postJSON(t, ts.URL+"/api/rooms/"+code+"/moves", map[string]any{
		"player_id": playerID,
		"move":      map[string]any{"kind": "draw_edge", "edge": edge},
	})
}

func getSnapshot(t *testing.T, ts *httptest.Server, code string) map[string]any {
	t.Helper()
	resp, err := http.Get(fmt.Sprintf("%s/api/rooms/%s", ts.URL, code))
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("snapshot status %d", resp.StatusCode)
	}
	snap := map[string]any{}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return snap
}
