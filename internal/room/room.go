package room

import (
	"errors"
	"strings"
	"sync"
	"time"

	"game-night/internal/config"
	"game-night/internal/game"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrRoomFull       = errors.New("room full")
	ErrAlreadyStarted = errors.New("already started")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrRoomClosed     = errors.New("room closed")
)

type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseInGame   Phase = "in_game"
	PhaseFinished Phase = "finished"
)

const (
	maxPlayerNameLength = 32
	maxChatLength       = 500

	// Per-subscriber event buffer. A subscriber that falls this far behind
	// is dropped and must re-subscribe, which hands it a fresh snapshot.
	subscriberBuffer = 32
	tapBuffer        = 256
)

type Player struct {
	ID             string
	Name           string
	Connected      bool
	JoinedAt       time.Time
	DisconnectedAt time.Time
}

type PlayerInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Connected bool      `json:"connected"`
	IsHost    bool      `json:"is_host"`
	JoinedAt  time.Time `json:"joined_at"`
}

type subscriber struct {
	id       uint64
	playerID string
	tap      bool
	ch       chan Event
	closed   bool
}

// Room holds everything about one live room. All mutation funnels through
// the mutex, so every state change and its broadcast commit atomically and
// subscribers see one total order of events per room.
type Room struct {
	code string
	cfg  config.Config

	mu        sync.Mutex
	closed    bool
	phase     Phase
	players   []*Player
	hostID    string
	gameType  game.Type
	engine    game.Engine
	outcome   *game.Outcome
	chat      []ChatMessage
	chatSeq   uint64
	moveSeq   uint64
	eventSeq  uint64
	subs      map[uint64]*subscriber
	nextSubID uint64
	createdAt time.Time
}

func newRoom(code string, cfg config.Config) *Room {
	return &Room{
		code:      code,
		cfg:       cfg,
		phase:     PhaseLobby,
		subs:      make(map[uint64]*subscriber),
		createdAt: time.Now().UTC(),
	}
}

func (r *Room) Code() string { return r.code }

func validatePlayerName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("player name is required")
	}
	if len(name) > maxPlayerNameLength {
		name = name[:maxPlayerNameLength]
	}
	return name, nil
}

func (r *Room) playerByID(playerID string) *Player {
	for _, p := range r.players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// Join adds a player to the roster, or reconnects an existing member. New
// identities are only admitted while the room is in the lobby; a returning
// member may rejoin in any phase.
func (r *Room) Join(playerID, name string) (PlayerInfo, error) {
	name, err := validatePlayerName(name)
	if err != nil {
		return PlayerInfo{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return PlayerInfo{}, ErrRoomClosed
	}
	if existing := r.playerByID(playerID); existing != nil {
		return r.playerInfo(existing), nil
	}
	if r.phase != PhaseLobby {
		return PlayerInfo{}, ErrAlreadyStarted
	}
	if len(r.players) >= r.cfg.MaxPlayersPerRoom {
		return PlayerInfo{}, ErrRoomFull
	}
	p := &Player{ID: playerID, Name: name, JoinedAt: time.Now().UTC()}
	r.players = append(r.players, p)
	if r.hostID == "" {
		r.hostID = p.ID
	}
	info := r.playerInfo(p)
	r.broadcast(EventPlayerJoined, PlayerEventPayload{Player: info})
	return info, nil
}

// Leave marks the player disconnected without removing them from the
// roster, so a later rejoin resumes their seat. A leaving host hands the
// room to the next-oldest connected player.
func (r *Room) Leave(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.playerByID(playerID)
	if p == nil {
		return ErrNotFound
	}
	r.markDisconnected(p)
	if r.hostID == playerID {
		r.transferHost()
	}
	r.broadcast(EventPlayerLeft, PlayerEventPayload{Player: r.playerInfo(p)})
	return nil
}

// Kick removes a player from the roster entirely. Host only, lobby only;
// mid-game the roster is fixed because the engine's turn order depends
// on it.
func (r *Room) Kick(requesterID, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if requesterID != r.hostID || requesterID == targetID {
		return ErrUnauthorized
	}
	if r.phase != PhaseLobby {
		return ErrAlreadyStarted
	}
	idx := -1
	for i, p := range r.players {
		if p.ID == targetID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}
	removed := r.players[idx]
	r.players = append(r.players[:idx], r.players[idx+1:]...)
	r.dropSubscribersFor(targetID)
	r.broadcast(EventPlayerLeft, PlayerEventPayload{Player: PlayerInfo{
		ID:       removed.ID,
		Name:     removed.Name,
		JoinedAt: removed.JoinedAt,
	}})
	return nil
}

// Start begins a game of the given type with the current roster in join
// order. Host only.
func (r *Room) Start(playerID string, t game.Type, opts game.Options) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.playerByID(playerID) == nil {
		return ErrNotFound
	}
	if playerID != r.hostID {
		return ErrUnauthorized
	}
	if r.phase != PhaseLobby {
		return ErrAlreadyStarted
	}
	min := game.MinPlayers(t)
	if min < r.cfg.MinPlayersToStart {
		min = r.cfg.MinPlayersToStart
	}
	if len(r.players) < min {
		return game.ErrInvalidMove
	}
	if opts.BoardSize == 0 {
		opts.BoardSize = r.cfg.BingoBoardSize
	}
	if opts.GridWidth == 0 {
		opts.GridWidth = r.cfg.BoxesGridWidth
	}
	if opts.GridHeight == 0 {
		opts.GridHeight = r.cfg.BoxesGridHeight
	}
	ids := make([]string, len(r.players))
	for i, p := range r.players {
		ids[i] = p.ID
	}
	engine, err := game.New(t, ids, opts)
	if err != nil {
		return err
	}
	r.phase = PhaseInGame
	r.gameType = t
	r.engine = engine
	r.outcome = nil
	turn, _ := engine.Turn()
	r.broadcast(EventGameStarted, GameStartedPayload{
		GameType: t,
		Options:  opts,
		State:    engine.State(),
		Turn:     turn,
	})
	return nil
}

// SubmitMove validates and applies one move. On success the move commits
// with the next room-local move sequence number and is broadcast before
// the lock is released, so no later move can overtake it.
func (r *Room) SubmitMove(playerID string, mv game.Move) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.playerByID(playerID) == nil {
		return ErrNotFound
	}
	switch r.phase {
	case PhaseLobby:
		return game.ErrInvalidMove
	case PhaseFinished:
		return game.ErrGameOver
	}
	if err := r.engine.Apply(playerID, mv); err != nil {
		return err
	}
	r.moveSeq++
	turn, _ := r.engine.Turn()
	r.broadcast(EventMoveApplied, MoveAppliedPayload{
		PlayerID: playerID,
		MoveSeq:  r.moveSeq,
		Move:     mv,
		State:    r.engine.State(),
		Turn:     turn,
	})
	if outcome, done := r.engine.Outcome(); done {
		r.phase = PhaseFinished
		r.outcome = &outcome
		r.broadcast(EventGameOver, GameOverPayload{
			Outcome: outcome,
			State:   r.engine.State(),
		})
	}
	return nil
}

// SendChat appends a chat message and broadcasts it. Chat is independent
// of the game phase and stays available after the game ends.
func (r *Room) SendChat(playerID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("message is required")
	}
	if len(text) > maxChatLength {
		text = text[:maxChatLength]
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.playerByID(playerID)
	if p == nil {
		return ErrNotFound
	}
	r.chatSeq++
	msg := ChatMessage{
		Seq:        r.chatSeq,
		SenderID:   p.ID,
		SenderName: p.Name,
		Text:       text,
		SentAt:     time.Now().UTC(),
	}
	r.chat = append(r.chat, msg)
	r.broadcast(EventChat, msg)
	return nil
}

// Rematch returns a finished room to the lobby with the roster intact.
// Host only.
func (r *Room) Rematch(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.playerByID(playerID) == nil {
		return ErrNotFound
	}
	if playerID != r.hostID {
		return ErrUnauthorized
	}
	if r.phase != PhaseFinished {
		return game.ErrInvalidMove
	}
	r.phase = PhaseLobby
	r.gameType = ""
	r.engine = nil
	r.outcome = nil
	r.broadcast(EventRoomReset, nil)
	return nil
}

// Subscribe registers a live event feed for a member. The first event on
// the channel is always a full snapshot; every event after it follows the
// snapshot's sequence number, so the subscriber can rebuild state without
// a gap. The cancel func is idempotent and safe from any goroutine.
func (r *Room) Subscribe(playerID string) (<-chan Event, func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, nil, ErrRoomClosed
	}
	p := r.playerByID(playerID)
	if p == nil {
		return nil, nil, ErrNotFound
	}
	if !p.Connected {
		p.Connected = true
		p.DisconnectedAt = time.Time{}
		r.broadcast(EventPlayerConnected, PlayerEventPayload{Player: r.playerInfo(p)})
	}
	sub := r.addSubscriber(playerID, false, subscriberBuffer)
	sub.ch <- Event{
		Seq:      r.eventSeq,
		Type:     EventSnapshot,
		RoomCode: r.code,
		Payload:  r.snapshotLocked(),
	}
	return sub.ch, func() { r.unsubscribe(sub) }, nil
}

// Tap opens an observer feed with no player attached. Used by the
// persistence worker; a full tap loses events rather than stalling the
// room.
func (r *Room) Tap() (<-chan Event, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub := r.addSubscriber("", true, tapBuffer)
	return sub.ch, func() { r.unsubscribe(sub) }
}

func (r *Room) addSubscriber(playerID string, tap bool, buffer int) *subscriber {
	r.nextSubID++
	sub := &subscriber{
		id:       r.nextSubID,
		playerID: playerID,
		tap:      tap,
		ch:       make(chan Event, buffer),
	}
	r.subs[sub.id] = sub
	return sub
}

func (r *Room) unsubscribe(sub *subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !sub.closed {
		sub.closed = true
		delete(r.subs, sub.id)
		close(sub.ch)
	}
	if sub.tap {
		return
	}
	p := r.playerByID(sub.playerID)
	if p == nil || !p.Connected {
		return
	}
	for _, other := range r.subs {
		if other.playerID == sub.playerID {
			return
		}
	}
	r.markDisconnected(p)
	r.broadcast(EventPlayerDisconnected, PlayerEventPayload{Player: r.playerInfo(p)})
}

func (r *Room) dropSubscribersFor(playerID string) {
	for id, sub := range r.subs {
		if sub.playerID == playerID {
			sub.closed = true
			delete(r.subs, id)
			close(sub.ch)
		}
	}
}

// markDisconnected flips the connection flag only. Connection loss is a
// state transition, not a departure: the seat, the board, and the turn
// position all survive until the sweeper reclaims the room.
func (r *Room) markDisconnected(p *Player) {
	if !p.Connected {
		return
	}
	p.Connected = false
	p.DisconnectedAt = time.Now().UTC()
}

func (r *Room) transferHost() {
	var next *Player
	for _, p := range r.players {
		if p.ID == r.hostID || !p.Connected {
			continue
		}
		if next == nil || p.JoinedAt.Before(next.JoinedAt) {
			next = p
		}
	}
	if next == nil {
		return
	}
	r.hostID = next.ID
	r.broadcast(EventHostChanged, HostChangedPayload{HostID: next.ID})
}

// broadcast commits one event: it takes the next sequence number and
// fans out without blocking. A player subscriber with a full buffer is
// dropped; its pump notices the closed channel and tears the connection
// down, forcing a re-subscribe. Taps just miss the event.
func (r *Room) broadcast(t EventType, payload any) {
	r.eventSeq++
	ev := Event{Seq: r.eventSeq, Type: t, RoomCode: r.code, Payload: payload}
	for id, sub := range r.subs {
		select {
		case sub.ch <- ev:
		default:
			if !sub.tap {
				sub.closed = true
				delete(r.subs, id)
				close(sub.ch)
			}
		}
	}
}

func (r *Room) playerInfo(p *Player) PlayerInfo {
	return PlayerInfo{
		ID:        p.ID,
		Name:      p.Name,
		Connected: p.Connected,
		IsHost:    p.ID == r.hostID,
		JoinedAt:  p.JoinedAt,
	}
}

// AbandonedSince reports whether every member is disconnected, and if so
// the time the last one dropped. Freshly created rooms count from their
// creation time so a room nobody ever connects to still gets swept.
func (r *Room) AbandonedSince() (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	since := r.createdAt
	for _, p := range r.players {
		if p.Connected {
			return time.Time{}, false
		}
		if p.DisconnectedAt.After(since) {
			since = p.DisconnectedAt
		}
	}
	return since, true
}

// close shuts every subscriber channel and rejects further joins and
// subscriptions. Called by the registry when the room is removed.
func (r *Room) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for id, sub := range r.subs {
		sub.closed = true
		delete(r.subs, id)
		close(sub.ch)
	}
}
