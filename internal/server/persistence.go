package server

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"game-night/internal/db"
	"game-night/internal/room"

	"github.com/jackc/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// watchRoom starts a persistence worker for the room. The worker reads
// the room's tap feed, so database writes never run under the room lock
// and a slow database never stalls play. A full tap drops events; the
// periodic snapshot upsert papers over the gap.
func (s *Server) watchRoom(rm *room.Room) {
	if s.db == nil {
		return
	}
	ch, cancel := rm.Tap()
	worker := &persistWorker{db: s.db, room: rm}
	go worker.run(ch, cancel)
}

type persistWorker struct {
	db   *gorm.DB
	room *room.Room

	roomID    uint
	playerIDs map[string]uint
}

func (w *persistWorker) run(ch <-chan room.Event, cancel func()) {
	defer cancel()
	w.playerIDs = make(map[string]uint)
	if err := w.ensureRoomRow(); err != nil {
		log.Printf("persist room failed code=%s error=%v", w.room.Code(), err)
	}
	w.saveSnapshot()
	for ev := range ch {
		if err := w.handle(ev); err != nil {
			log.Printf("persist event failed code=%s type=%s error=%v", w.room.Code(), ev.Type, err)
		}
	}
}

func (w *persistWorker) handle(ev room.Event) error {
	switch ev.Type {
	case room.EventPlayerJoined:
		if payload, ok := ev.Payload.(room.PlayerEventPayload); ok {
			if err := w.savePlayer(payload.Player); err != nil {
				return err
			}
		}
	case room.EventChat:
		if msg, ok := ev.Payload.(room.ChatMessage); ok {
			if err := w.saveChat(msg); err != nil {
				return err
			}
		}
	case room.EventGameStarted, room.EventGameOver, room.EventRoomReset:
		if err := w.updateRoomRow(); err != nil {
			return err
		}
	}
	if err := w.saveEvent(ev); err != nil {
		return err
	}
	w.saveSnapshot()
	return nil
}

func (w *persistWorker) ensureRoomRow() error {
	snap := w.room.Snapshot()
	record := db.Room{
		Code:     snap.Code,
		Phase:    string(snap.Phase),
		GameType: string(snap.GameType),
	}
	if err := w.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return err
	}
	if record.ID == 0 {
		var existing db.Room
		if err := w.db.Where("code = ?", snap.Code).First(&existing).Error; err != nil {
			return err
		}
		record.ID = existing.ID
	}
	w.roomID = record.ID
	for _, p := range snap.Players {
		if err := w.savePlayer(p); err != nil {
			return err
		}
	}
	return nil
}

func (w *persistWorker) updateRoomRow() error {
	if w.roomID == 0 {
		return errors.New("room row missing")
	}
	snap := w.room.Snapshot()
	return w.db.Model(&db.Room{}).Where("id = ?", w.roomID).Updates(map[string]any{
		"phase":     string(snap.Phase),
		"game_type": string(snap.GameType),
	}).Error
}

func (w *persistWorker) savePlayer(info room.PlayerInfo) error {
	if w.roomID == 0 {
		return errors.New("room row missing")
	}
	if _, done := w.playerIDs[info.ID]; done {
		return nil
	}
	record := db.Player{
		RoomID:     w.roomID,
		ExternalID: info.ID,
		Name:       info.Name,
		IsHost:     info.IsHost,
		JoinedAt:   info.JoinedAt,
	}
	if err := w.db.Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			var existing db.Player
			lookupErr := w.db.Where("room_id = ? AND external_id = ?", w.roomID, info.ID).First(&existing).Error
			if lookupErr == nil && existing.ID != 0 {
				w.playerIDs[info.ID] = existing.ID
				return nil
			}
		}
		return err
	}
	w.playerIDs[info.ID] = record.ID
	return nil
}

func (w *persistWorker) saveChat(msg room.ChatMessage) error {
	if w.roomID == 0 {
		return errors.New("room row missing")
	}
	record := db.ChatMessage{
		RoomID:   w.roomID,
		Seq:      msg.Seq,
		SenderID: msg.SenderID,
		Text:     msg.Text,
		SentAt:   msg.SentAt,
	}
	return w.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error
}

func (w *persistWorker) saveEvent(ev room.Event) error {
	if w.roomID == 0 {
		return errors.New("room row missing")
	}
	var payload datatypes.JSON
	if ev.Payload != nil {
		data, err := json.Marshal(ev.Payload)
		if err != nil {
			return err
		}
		payload = datatypes.JSON(data)
	}
	record := db.Event{
		RoomID:  w.roomID,
		Seq:     ev.Seq,
		Type:    string(ev.Type),
		Payload: payload,
	}
	return w.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error
}

// saveSnapshot upserts the room's full state, one row per room. Restart
// recovery reads only these rows, so losing the occasional event row
// costs history, not correctness.
func (w *persistWorker) saveSnapshot() {
	snap := w.room.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("marshal snapshot failed code=%s error=%v", snap.Code, err)
		return
	}
	record := db.Snapshot{
		RoomCode:  snap.Code,
		State:     datatypes.JSON(data),
		UpdatedAt: time.Now().UTC(),
	}
	err = w.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		log.Printf("persist snapshot failed code=%s error=%v", snap.Code, err)
	}
}

// dropPersisted runs when the registry removes a room, whether swept or
// explicitly closed. The snapshot row goes away so a restart does not
// resurrect the room; event and chat rows stay as history.
func (s *Server) dropPersisted(code string) {
	if s.db == nil {
		return
	}
	if err := s.db.Where("room_code = ?", code).Delete(&db.Snapshot{}).Error; err != nil {
		log.Printf("drop snapshot failed code=%s error=%v", code, err)
	}
	if err := s.db.Model(&db.Room{}).Where("code = ?", code).Update("phase", "closed").Error; err != nil {
		log.Printf("close room row failed code=%s error=%v", code, err)
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
