package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server exposes the lobby hub over HTTP: the pre-connection existence check,
// the socket upgrade endpoint, and a health probe.
type Server struct {
	hub *Hub
	log zerolog.Logger
}

// New creates a server around the given hub.
func New(hub *Hub, log zerolog.Logger) *Server {
	return &Server{hub: hub, log: log}
}

// Handler builds the HTTP routing surface.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Post("/check-lobby", s.handleCheckLobby)
	r.Get("/ws", s.handleWS)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

// response is the JSON body for check-lobby results.
type response struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// handleCheckLobby approves or rejects a join/create intent before the socket
// upgrade. Joining a missing lobby and creating an existing one both conflict.
func (s *Server) handleCheckLobby(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
		User   string `json:"user"`
		Lobby  string `json:"lobby"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	switch req.Action {
	case "create":
		if s.hub.Exists(req.Lobby) {
			s.log.Info().Str("user", req.User).Str("lobby", req.Lobby).Msg("create rejected, lobby exists")
			http.Error(w, "Lobby already exists", http.StatusConflict)
			return
		}
	case "join":
		if !s.hub.Exists(req.Lobby) {
			s.log.Info().Str("user", req.User).Str("lobby", req.Lobby).Msg("join rejected, no such lobby")
			http.Error(w, "Lobby does not exist", http.StatusConflict)
			return
		}
	default:
		http.Error(w, "Invalid action", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response{Type: "success", Message: "Lobby check successful"})
}

// handleWS upgrades the connection and hands it to the hub.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	s.hub.Run(conn)
}
