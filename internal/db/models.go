package db

import (
	"time"

	"gorm.io/datatypes"
)

type Room struct {
	ID        uint      `gorm:"primaryKey"`
	Code      string    `gorm:"size:12;uniqueIndex;not null"`
	Phase     string    `gorm:"size:32;not null"`
	GameType  string    `gorm:"size:32"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Players   []Player
	Chat      []ChatMessage
	Events    []Event
}

type Player struct {
	ID     uint `gorm:"primaryKey"`
	RoomID uint `gorm:"index;not null;uniqueIndex:idx_players_room_external"`
	// ExternalID is the caller-facing player identity; the row id is
	// internal to the database.
	ExternalID string    `gorm:"size:64;not null;uniqueIndex:idx_players_room_external"`
	Name       string    `gorm:"size:64;not null"`
	IsHost     bool      `gorm:"not null;default:false"`
	JoinedAt   time.Time `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

type ChatMessage struct {
	ID        uint      `gorm:"primaryKey"`
	RoomID    uint      `gorm:"index;not null;uniqueIndex:idx_chat_room_seq"`
	Seq       uint64    `gorm:"not null;uniqueIndex:idx_chat_room_seq"`
	SenderID  string    `gorm:"size:64;not null"`
	Text      string    `gorm:"size:500;not null"`
	SentAt    time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

type Event struct {
	ID        uint           `gorm:"primaryKey"`
	RoomID    uint           `gorm:"index;not null;uniqueIndex:idx_events_room_seq"`
	Seq       uint64         `gorm:"not null;uniqueIndex:idx_events_room_seq"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"not null"`
}

// Snapshot keeps one row per room with the latest full state; restart
// recovery reads these instead of replaying the event log.
type Snapshot struct {
	ID        uint           `gorm:"primaryKey"`
	RoomCode  string         `gorm:"size:12;uniqueIndex;not null"`
	State     datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}
