package server

import (
	"encoding/json"
	"log"

	"game-night/internal/db"
	"game-night/internal/room"
)

// RestoreRooms rebuilds live rooms from the persisted snapshots. Every
// restored member starts disconnected, so rooms nobody returns to are
// reclaimed by the ordinary grace-period sweep. A snapshot that fails to
// decode is skipped rather than blocking startup.
func (s *Server) RestoreRooms() error {
	if s.db == nil {
		return nil
	}
	var records []db.Snapshot
	if err := s.db.Find(&records).Error; err != nil {
		return err
	}
	restored := 0
	for _, record := range records {
		var snap room.Snapshot
		if err := json.Unmarshal(record.State, &snap); err != nil {
			log.Printf("skip snapshot code=%s error=%v", record.RoomCode, err)
			continue
		}
		rm, err := room.Restore(snap, s.cfg)
		if err != nil {
			log.Printf("skip snapshot code=%s error=%v", record.RoomCode, err)
			continue
		}
		if err := s.registry.Adopt(rm); err != nil {
			log.Printf("skip snapshot code=%s error=%v", record.RoomCode, err)
			continue
		}
		s.watchRoom(rm)
		restored++
	}
	if restored > 0 {
		log.Printf("rooms restored count=%d", restored)
	}
	return nil
}
