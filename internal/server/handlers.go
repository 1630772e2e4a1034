// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, room inspection, and the built-in test page.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Tyrowin/roomsignal/internal/auth"
	"github.com/Tyrowin/roomsignal/internal/signaling"
)

// Handlers serves the HTTP surface of one Hub.
type Handlers struct {
	hub      *Hub
	verifier *auth.Verifier
	cfg      Config
	upgrader websocket.Upgrader
	started  time.Time
	log      zerolog.Logger
}

// NewHandlers builds the handlers. A nil verifier admits every connection
// anonymously.
func NewHandlers(hub *Hub, verifier *auth.Verifier, cfg Config, origins *originPolicy, logger zerolog.Logger) *Handlers {
	if verifier == nil {
		verifier = auth.NewVerifier("")
	}
	return &Handlers{
		hub:      hub,
		verifier: verifier,
		cfg:      cfg.Sanitize(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.checkOrigin,
		},
		started: time.Now(),
		log:     logger,
	}
}

// WebSocket authenticates the upgrade request, upgrades it and registers the
// new client with the hub, which starts its pumps.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	identity, err := h.verifier.Authenticate(r)
	if err != nil {
		h.log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("rejected websocket connection")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(conn, h.hub, r.RemoteAddr, identity, h.cfg)
	if !h.hub.Register(client) {
		client.closeConnection()
	}
}

type healthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
	Rooms       int    `json:"rooms"`
	Uptime      string `json:"uptime"`
}

// Health reports liveness together with connection and room counts.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	connections, rooms := h.hub.Stats()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Connections: connections,
		Rooms:       rooms,
		Uptime:      time.Since(h.started).Round(time.Second).String(),
	})
}

// Rooms lists every live room with its member and history counts.
func (h *Handlers) Rooms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]signaling.RoomStats{"rooms": h.hub.Rooms()})
}

type roomResponse struct {
	RoomID  string   `json:"roomId"`
	Members []string `json:"members"`
}

// Room returns the members of one room in join order, or 404.
func (h *Handlers) Room(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	members, ok := h.hub.Members(roomID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "room not found"})
		return
	}
	writeJSON(w, http.StatusOK, roomResponse{RoomID: roomID, Members: members})
}

// TestPage serves an HTML page for exercising the signaling protocol by hand.
func (h *Handlers) TestPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(testPageHTML)); err != nil {
		h.log.Error().Err(err).Msg("writing test page")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
