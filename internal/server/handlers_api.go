package server

import (
	"log"
	"net/http"
	"strings"

	"game-night/internal/game"
	"game-night/internal/room"

	"github.com/google/uuid"
)

type createRoomRequest struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

type joinRequest struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

type leaveRequest struct {
	PlayerID string `json:"player_id"`
}

type startRequest struct {
	PlayerID   string `json:"player_id"`
	GameType   string `json:"game_type"`
	BoardSize  int    `json:"board_size"`
	GridWidth  int    `json:"grid_width"`
	GridHeight int    `json:"grid_height"`
}

type moveRequest struct {
	PlayerID string    `json:"player_id"`
	Move     game.Move `json:"move"`
}

type chatRequest struct {
	PlayerID string `json:"player_id"`
	Text     string `json:"text"`
}

type rematchRequest struct {
	PlayerID string `json:"player_id"`
}

type kickRequest struct {
	PlayerID string `json:"player_id"`
	TargetID string `json:"target_id"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	playerID := strings.TrimSpace(req.PlayerID)
	if playerID == "" {
		playerID = uuid.NewString()
	}
	rm, err := s.registry.Create(playerID, req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.watchRoom(rm)
	log.Printf("room created code=%s host=%s", rm.Code(), playerID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"room_code": rm.Code(),
		"player_id": playerID,
		"room":      rm.Snapshot(),
	})
}

func (s *Server) handleRoomSubroutes(w http.ResponseWriter, r *http.Request) {
	code, action, ok := parseRoomPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	rm, ok := s.registry.Get(code)
	if !ok {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	if r.Method == http.MethodGet {
		if action != "" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, rm.Snapshot())
		return
	}
	switch action {
	case "join":
		s.handleJoin(w, r, rm)
	case "leave":
		s.handleLeave(w, r, rm)
	case "start":
		s.handleStart(w, r, rm)
	case "moves":
		s.handleMove(w, r, rm)
	case "chat":
		s.handleChat(w, r, rm)
	case "rematch":
		s.handleRematch(w, r, rm)
	case "kick":
		s.handleKick(w, r, rm)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request, rm *room.Room) {
	var req joinRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	playerID := strings.TrimSpace(req.PlayerID)
	if playerID == "" {
		playerID = uuid.NewString()
	}
	info, err := rm.Join(playerID, req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	log.Printf("player joined code=%s player_id=%s name=%s", rm.Code(), info.ID, info.Name)
	writeJSON(w, http.StatusOK, map[string]any{
		"room_code": rm.Code(),
		"player_id": info.ID,
		"room":      rm.Snapshot(),
	})
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request, rm *room.Room) {
	var req leaveRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := rm.Leave(req.PlayerID); err != nil {
		writeDomainError(w, err)
		return
	}
	log.Printf("player left code=%s player_id=%s", rm.Code(), req.PlayerID)
	writeJSON(w, http.StatusOK, rm.Snapshot())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request, rm *room.Room) {
	var req startRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	gameType, ok := game.ParseType(req.GameType)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown game type")
		return
	}
	opts := game.Options{
		BoardSize:  req.BoardSize,
		GridWidth:  req.GridWidth,
		GridHeight: req.GridHeight,
	}
	if err := rm.Start(req.PlayerID, gameType, opts); err != nil {
		writeDomainError(w, err)
		return
	}
	log.Printf("game started code=%s game_type=%s", rm.Code(), gameType)
	writeJSON(w, http.StatusOK, rm.Snapshot())
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request, rm *room.Room) {
	var req moveRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := rm.SubmitMove(req.PlayerID, req.Move); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rm.Snapshot())
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, rm *room.Room) {
	var req chatRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := rm.SendChat(req.PlayerID, req.Text); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (s *Server) handleRematch(w http.ResponseWriter, r *http.Request, rm *room.Room) {
	var req rematchRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := rm.Rematch(req.PlayerID); err != nil {
		writeDomainError(w, err)
		return
	}
	log.Printf("room reset code=%s", rm.Code())
	writeJSON(w, http.StatusOK, rm.Snapshot())
}

func (s *Server) handleKick(w http.ResponseWriter, r *http.Request, rm *room.Room) {
	var req kickRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := rm.Kick(req.PlayerID, req.TargetID); err != nil {
		writeDomainError(w, err)
		return
	}
	log.Printf("player kicked code=%s target_id=%s", rm.Code(), req.TargetID)
	writeJSON(w, http.StatusOK, rm.Snapshot())
}
