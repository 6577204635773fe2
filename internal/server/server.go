package server

import (
	"net/http"

	"game-night/internal/config"
	"game-night/internal/room"

	"gorm.io/gorm"
)

type Server struct {
	registry *room.Registry
	db       *gorm.DB
	cfg      config.Config
}

func New(conn *gorm.DB, cfg config.Config) *Server {
	s := &Server{
		registry: room.NewRegistry(cfg),
		db:       conn,
		cfg:      cfg,
	}
	if conn != nil {
		s.registry.OnRemove = s.dropPersisted
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /api/rooms/", s.handleRoomSubroutes)
	mux.HandleFunc("POST /api/rooms/", s.handleRoomSubroutes)
	mux.HandleFunc("GET /ws/rooms/", s.handleWebsocket)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

func (s *Server) Close() {
	s.registry.Close()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
