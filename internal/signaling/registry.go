package signaling

import (
	"slices"

	"github.com/rs/zerolog"

	"github.com/Tyrowin/roomsignal/internal/metrics"
)

// Peer is the outbound half of a live connection. Deliver hands over an
// encoded frame and must never block; there is no acknowledgement.
type Peer interface {
	ID() string
	Deliver(frame []byte)
}

// Identity is whatever the transport learned about the user behind a
// connection. It is empty for anonymous connections.
type Identity struct {
	UserID   string
	Username string
	Email    string
	Role     string
}

// Session is the registry entry of one connection. Its joined-room set is
// only used for disconnect cleanup; the Directory is the source of truth for
// membership.
type Session struct {
	peer     Peer
	identity Identity
	rooms    map[string]struct{}
}

// ID returns the connection id.
func (s *Session) ID() string { return s.peer.ID() }

// Identity returns the identity attached at connect time.
func (s *Session) Identity() Identity { return s.identity }

// Rooms returns the joined rooms in lexical order.
func (s *Session) Rooms() []string {
	rooms := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		rooms = append(rooms, id)
	}
	slices.Sort(rooms)
	return rooms
}

// Joined reports whether roomID is in the session's own set.
func (s *Session) Joined(roomID string) bool {
	_, ok := s.rooms[roomID]
	return ok
}

func (s *Session) track(roomID string)   { s.rooms[roomID] = struct{}{} }
func (s *Session) untrack(roomID string) { delete(s.rooms, roomID) }
func (s *Session) clear()                { clear(s.rooms) }

// Registry tracks every live connection by id.
type Registry struct {
	sessions map[string]*Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add registers p. A second Add with the same id replaces the peer but keeps
// the joined-room set.
func (r *Registry) Add(p Peer, identity Identity) *Session {
	if s, ok := r.sessions[p.ID()]; ok {
		s.peer = p
		s.identity = identity
		return s
	}
	s := &Session{peer: p, identity: identity, rooms: make(map[string]struct{})}
	r.sessions[p.ID()] = s
	metrics.ConnectionsActive.Set(float64(len(r.sessions)))
	return s
}

// Remove unregisters id and returns its session, or nil if it was unknown.
func (r *Registry) Remove(id string) *Session {
	s, ok := r.sessions[id]
	if !ok {
		return nil
	}
	delete(r.sessions, id)
	metrics.ConnectionsActive.Set(float64(len(r.sessions)))
	return s
}

// Get looks up a live connection.
func (r *Registry) Get(id string) (*Session, bool) {
	s, ok := r.sessions[id]
	return s, ok
}

// Len returns the number of live connections.
func (r *Registry) Len() int { return len(r.sessions) }

// Send delivers frame to id. It returns false when id is not reachable.
func (r *Registry) Send(id string, frame []byte) bool {
	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	s.peer.Deliver(frame)
	return true
}

// outbox encodes a frame once and hands it to one or many registered peers.
type outbox struct {
	reg *Registry
	log zerolog.Logger
}

func (o outbox) encode(event string, data any) ([]byte, bool) {
	frame, err := EncodeFrame(event, data)
	if err != nil {
		o.log.Error().Err(err).Str("event", event).Msg("failed to encode frame")
		return nil, false
	}
	return frame, true
}

// to is the addressing primitive: fire-and-forget delivery to one connection.
func (o outbox) to(id, event string, data any) bool {
	if _, ok := o.reg.Get(id); !ok {
		return false
	}
	frame, ok := o.encode(event, data)
	if !ok {
		return false
	}
	return o.reg.Send(id, frame)
}

// fanout delivers to every id except exclude and returns the delivery count.
func (o outbox) fanout(ids []string, exclude, event string, data any) int {
	frame, ok := o.encode(event, data)
	if !ok {
		return 0
	}
	sent := 0
	for _, id := range ids {
		if id == exclude {
			continue
		}
		if o.reg.Send(id, frame) {
			sent++
		}
	}
	return sent
}
