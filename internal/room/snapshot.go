package room

import (
	"errors"
	"time"

	"game-night/internal/config"
	"game-night/internal/game"
)

// Snapshot is the full serializable view of a room: everything a client
// needs to render it from scratch, and everything the server needs to
// rebuild it after a restart.
type Snapshot struct {
	Code      string        `json:"code"`
	Phase     Phase         `json:"phase"`
	HostID    string        `json:"host_id"`
	Players   []PlayerInfo  `json:"players"`
	GameType  game.Type     `json:"game_type,omitempty"`
	Game      *game.State   `json:"game,omitempty"`
	Outcome   *game.Outcome `json:"outcome,omitempty"`
	Chat      []ChatMessage `json:"chat"`
	EventSeq  uint64        `json:"event_seq"`
	MoveSeq   uint64        `json:"move_seq"`
	ChatSeq   uint64        `json:"chat_seq"`
	CreatedAt time.Time     `json:"created_at"`
}

func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() Snapshot {
	snap := Snapshot{
		Code:      r.code,
		Phase:     r.phase,
		HostID:    r.hostID,
		Players:   make([]PlayerInfo, 0, len(r.players)),
		GameType:  r.gameType,
		Chat:      append([]ChatMessage(nil), r.chat...),
		EventSeq:  r.eventSeq,
		MoveSeq:   r.moveSeq,
		ChatSeq:   r.chatSeq,
		CreatedAt: r.createdAt,
	}
	for _, p := range r.players {
		snap.Players = append(snap.Players, r.playerInfo(p))
	}
	if r.engine != nil {
		state := r.engine.State()
		snap.Game = &state
	}
	if r.outcome != nil {
		outcome := *r.outcome
		snap.Outcome = &outcome
	}
	return snap
}

// Restore rebuilds a room from a persisted snapshot. Every member comes
// back disconnected; the grace period runs from the restore, not from
// whenever the process died.
func Restore(snap Snapshot, cfg config.Config) (*Room, error) {
	if snap.Code == "" {
		return nil, errors.New("snapshot missing room code")
	}
	r := newRoom(snap.Code, cfg)
	now := time.Now().UTC()
	for _, info := range snap.Players {
		r.players = append(r.players, &Player{
			ID:             info.ID,
			Name:           info.Name,
			JoinedAt:       info.JoinedAt,
			DisconnectedAt: now,
		})
	}
	r.hostID = snap.HostID
	r.phase = snap.Phase
	r.gameType = snap.GameType
	r.chat = append([]ChatMessage(nil), snap.Chat...)
	r.eventSeq = snap.EventSeq
	r.moveSeq = snap.MoveSeq
	r.chatSeq = snap.ChatSeq
	if !snap.CreatedAt.IsZero() {
		r.createdAt = snap.CreatedAt
	}
	if snap.Phase == PhaseInGame {
		if snap.Game == nil {
			return nil, errors.New("snapshot missing game state")
		}
		engine, err := game.Restore(*snap.Game)
		if err != nil {
			return nil, err
		}
		r.engine = engine
	}
	if snap.Outcome != nil {
		outcome := *snap.Outcome
		r.outcome = &outcome
	}
	return r, nil
}
