// Package server serializes every connection event into the signaling
// Coordinator through the Hub's single event loop.
package server

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Tyrowin/roomsignal/internal/signaling"
)

// Hub owns the Coordinator. Registration, unregistration, inbound frames and
// read-only queries all arrive on channels and are handled one at a time by
// Run, so signaling state is never touched concurrently.
type Hub struct {
	coord      *signaling.Coordinator
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundFrame
	queries    chan func(*signaling.Coordinator)
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	log        zerolog.Logger
}

// NewHub creates a Hub around coord. Call Run in its own goroutine before
// registering clients.
func NewHub(coord *signaling.Coordinator, logger zerolog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		coord:      coord,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundFrame),
		queries:    make(chan func(*signaling.Coordinator)),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		log:        logger,
	}
}

// Run starts the hub's event loop and blocks until Shutdown is called.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case msg := <-h.inbound:
			if _, ok := h.clients[msg.client]; ok {
				h.coord.Dispatch(msg.client.id, msg.frame)
			}

		case query := <-h.queries:
			query(h.coord)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	if client == nil {
		h.log.Warn().Msg("received nil client registration; skipping")
		return
	}

	h.clients[client] = struct{}{}
	identity := client.Identity()
	h.coord.Connect(client, identity)
	h.log.Info().
		Str("conn_id", client.id).
		Str("remote_addr", client.addr).
		Str("user_id", identity.UserID).
		Int("clients", len(h.clients)).
		Msg("client registered")

	if client.conn == nil {
		return
	}
	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

// handleUnregister runs leave cleanup while the client can no longer be
// addressed, then closes its queue so writePump exits.
func (h *Hub) handleUnregister(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	h.coord.Disconnect(client.id)
	close(client.send)
	h.log.Info().
		Str("conn_id", client.id).
		Str("remote_addr", client.addr).
		Int("clients", len(h.clients)).
		Msg("client unregistered")
}

// Register hands client to the event loop. It returns false once the hub has
// stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Unregister hands client to the event loop for cleanup.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) dispatch(client *Client, frame []byte) bool {
	select {
	case h.inbound <- inboundFrame{client: client, frame: frame}:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// query runs fn on the event loop and waits for it to finish.
func (h *Hub) query(fn func(*signaling.Coordinator)) bool {
	finished := make(chan struct{})
	select {
	case h.queries <- func(c *signaling.Coordinator) {
		defer close(finished)
		fn(c)
	}:
	case <-h.ctx.Done():
		return false
	}
	<-finished
	return true
}

// Stats reports the number of live connections and rooms.
func (h *Hub) Stats() (connections, rooms int) {
	h.query(func(c *signaling.Coordinator) {
		connections = c.Connections()
		rooms = len(c.Rooms())
	})
	return connections, rooms
}

// Rooms summarizes every live room.
func (h *Hub) Rooms() []signaling.RoomStats {
	rooms := []signaling.RoomStats{}
	h.query(func(c *signaling.Coordinator) {
		rooms = c.Rooms()
	})
	return rooms
}

// Members returns the members of roomID in join order and whether it exists.
func (h *Hub) Members(roomID string) ([]string, bool) {
	members, ok := []string{}, false
	h.query(func(c *signaling.Coordinator) {
		members, ok = c.Members(roomID)
	})
	return members, ok
}

// shutdownClients disconnects every client through the Coordinator so the
// remaining members still see user-left, then closes the sockets.
func (h *Hub) shutdownClients() {
	h.log.Info().Int("clients", len(h.clients)).Msg("shutting down all client connections")

	for client := range h.clients {
		delete(h.clients, client)
		h.coord.Disconnect(client.id)
		close(client.send)
		client.closeConnection()
	}

	h.log.Info().Msg("closed client connections")
}

// Shutdown stops the event loop and waits for every pump goroutine to finish,
// or returns the context's error once ctx is done.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.log.Info().Msg("initiating hub shutdown")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info().Msg("hub shutdown completed")
		return nil
	case <-ctx.Done():
		h.log.Warn().Err(ctx.Err()).Msg("hub shutdown timed out; some goroutines may still be running")
		return ctx.Err()
	}
}
