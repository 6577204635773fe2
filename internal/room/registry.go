package room

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"game-night/internal/config"
)

// Codes skip 0/O and 1/I so they survive being read aloud.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6

const maxCodeAttempts = 16

func newRoomCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate room code: %w", err)
	}
	for i := range buf {
		buf[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
	}
	return string(buf), nil
}

// Registry owns the live rooms, keyed by join code. It holds its own
// lock only for map access; room operations run under each room's lock,
// so a slow room never stalls lookups or other rooms.
type Registry struct {
	cfg config.Config

	// OnRemove, if set, runs after a room is removed, whether by an
	// explicit Remove or the sweeper. Set it before serving traffic.
	OnRemove func(code string)

	mu    sync.RWMutex
	rooms map[string]*Room

	done      chan struct{}
	closeOnce sync.Once
}

func NewRegistry(cfg config.Config) *Registry {
	reg := &Registry{
		cfg:   cfg,
		rooms: make(map[string]*Room),
		done:  make(chan struct{}),
	}
	go reg.sweepLoop()
	return reg
}

// Create makes a room with a fresh collision-checked code and seats the
// creator as host.
func (reg *Registry) Create(hostID, hostName string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	var code string
	for attempt := 0; ; attempt++ {
		if attempt >= maxCodeAttempts {
			return nil, errors.New("room code space exhausted")
		}
		candidate, err := newRoomCode()
		if err != nil {
			return nil, err
		}
		if _, taken := reg.rooms[candidate]; !taken {
			code = candidate
			break
		}
	}
	room := newRoom(code, reg.cfg)
	if _, err := room.Join(hostID, hostName); err != nil {
		return nil, err
	}
	reg.rooms[code] = room
	return room, nil
}

// Get looks up a room by code. Codes are matched case-insensitively so
// hand-typed lowercase codes still land.
func (reg *Registry) Get(code string) (*Room, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.rooms[code]
	return room, ok
}

func (reg *Registry) Remove(code string) {
	reg.mu.Lock()
	room, ok := reg.rooms[code]
	if ok {
		delete(reg.rooms, code)
	}
	reg.mu.Unlock()
	if !ok {
		return
	}
	room.close()
	if reg.OnRemove != nil {
		reg.OnRemove(code)
	}
}

// Adopt registers a restored room under its original code.
func (reg *Registry) Adopt(room *Room) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, taken := reg.rooms[room.Code()]; taken {
		return fmt.Errorf("room code %s already registered", room.Code())
	}
	reg.rooms[room.Code()] = room
	return nil
}

func (reg *Registry) Rooms() []*Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

func (reg *Registry) Close() {
	reg.closeOnce.Do(func() {
		close(reg.done)
		for _, room := range reg.Rooms() {
			room.close()
		}
	})
}

func (reg *Registry) sweepLoop() {
	interval := time.Duration(reg.cfg.SweepIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-reg.done:
			return
		case <-ticker.C:
			reg.sweep(time.Now().UTC())
		}
	}
}

// sweep removes rooms whose last member disconnected longer than the
// grace period ago. Reconnect inside the window finds the room intact.
func (reg *Registry) sweep(now time.Time) {
	grace := time.Duration(reg.cfg.GracePeriodSeconds) * time.Second
	for _, room := range reg.Rooms() {
		since, abandoned := room.AbandonedSince()
		if !abandoned || now.Sub(since) < grace {
			continue
		}
		log.Printf("event=room_swept code=%s idle=%s", room.Code(), now.Sub(since).Truncate(time.Second))
		reg.Remove(room.Code())
	}
}
