package room

import (
	"time"

	"game-night/internal/game"
)

type EventType string

const (
	EventSnapshot           EventType = "snapshot"
	EventPlayerJoined       EventType = "player_joined"
	EventPlayerLeft         EventType = "player_left"
	EventPlayerConnected    EventType = "player_connected"
	EventPlayerDisconnected EventType = "player_disconnected"
	EventHostChanged        EventType = "host_changed"
	EventGameStarted        EventType = "game_started"
	EventMoveApplied        EventType = "move_applied"
	EventChat               EventType = "chat"
	EventGameOver           EventType = "game_over"
	EventRoomReset          EventType = "room_reset"
)

// Event is a single entry in a room's committed event stream. Seq is the
// room-local commit order; every subscriber observes events for one room
// in identical Seq order.
type Event struct {
	Seq      uint64    `json:"seq"`
	Type     EventType `json:"type"`
	RoomCode string    `json:"room_code"`
	Payload  any       `json:"payload,omitempty"`
}

type ChatMessage struct {
	Seq        uint64    `json:"seq"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Text       string    `json:"text"`
	SentAt     time.Time `json:"sent_at"`
}

type PlayerEventPayload struct {
	Player PlayerInfo `json:"player"`
}

type HostChangedPayload struct {
	HostID string `json:"host_id"`
}

type GameStartedPayload struct {
	GameType game.Type    `json:"game_type"`
	Options  game.Options `json:"options"`
	State    game.State   `json:"state"`
	Turn     string       `json:"turn"`
}

type MoveAppliedPayload struct {
	PlayerID string     `json:"player_id"`
	MoveSeq  uint64     `json:"move_seq"`
	Move     game.Move  `json:"move"`
	State    game.State `json:"state"`
	Turn     string     `json:"turn,omitempty"`
}

type GameOverPayload struct {
	Outcome game.Outcome `json:"outcome"`
	State   game.State   `json:"state"`
}
