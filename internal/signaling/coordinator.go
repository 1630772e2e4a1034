package signaling

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tyrowin/roomsignal/internal/metrics"
)

// Reasons a client event is dropped without telling the sender.
const (
	reasonMalformed         = "malformed"
	reasonUnknownEvent      = "unknown_event"
	reasonMissingRoom       = "missing_room"
	reasonMissingTarget     = "missing_target"
	reasonUnknownConnection = "unknown_connection"
	reasonUnauthorized      = "unauthorized"
)

type options struct {
	logger          zerolog.Logger
	authorizer      Authorizer
	historyCapacity int
	historyReplay   int
	now             func() time.Time
	newMessageID    func() string
}

// Option configures a Coordinator.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithAuthorizer sets the moderation policy. The default is AllowAll.
func WithAuthorizer(a Authorizer) Option {
	return func(o *options) {
		if a != nil {
			o.authorizer = a
		}
	}
}

// WithHistory sets how many chat messages a room keeps and how many are
// replayed to a joiner. Non-positive values keep the defaults.
func WithHistory(capacity, replay int) Option {
	return func(o *options) {
		if capacity > 0 {
			o.historyCapacity = capacity
		}
		if replay > 0 {
			o.historyReplay = replay
		}
	}
}

// WithClock replaces time.Now for chat timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithMessageIDs replaces the generator used for chat messages sent without
// an id.
func WithMessageIDs(newID func() string) Option {
	return func(o *options) { o.newMessageID = newID }
}

// Coordinator wires the registry, directory, presence, relay and moderation
// to connection events. It owns all signaling state; see the package doc for
// the concurrency contract.
type Coordinator struct {
	registry  *Registry
	directory *Directory
	presence  *Presence
	relay     *Relay
	moderator *Moderator
	out       outbox
	replay    int
	log       zerolog.Logger
}

// NewCoordinator returns a Coordinator with empty state.
func NewCoordinator(opts ...Option) *Coordinator {
	o := options{
		logger:          zerolog.Nop(),
		authorizer:      AllowAll,
		historyCapacity: DefaultHistoryCapacity,
		historyReplay:   DefaultHistoryReplay,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.historyReplay > o.historyCapacity {
		o.historyReplay = o.historyCapacity
	}

	reg := NewRegistry()
	dir := NewDirectory(o.historyCapacity)
	out := outbox{reg: reg, log: o.logger}
	presence := &Presence{dir: dir, out: out}

	return &Coordinator{
		registry:  reg,
		directory: dir,
		presence:  presence,
		relay:     &Relay{dir: dir, out: out, stamp: newStamper(o.now, o.newMessageID)},
		moderator: &Moderator{reg: reg, dir: dir, presence: presence, out: out, authz: o.authorizer},
		out:       out,
		replay:    o.historyReplay,
		log:       o.logger,
	}
}

// Connect registers a new connection and greets it with its id.
func (c *Coordinator) Connect(p Peer, identity Identity) {
	c.registry.Add(p, identity)
	c.out.to(p.ID(), EventConnected, ConnectedFrame{SocketID: p.ID()})
	c.log.Debug().Str("conn", p.ID()).Str("user", identity.UserID).Msg("connection registered")
}

// Disconnect runs leave cleanup for every room the connection joined and
// forgets it. Unknown ids are ignored, so calling it twice is harmless.
func (c *Coordinator) Disconnect(connID string) {
	s := c.registry.Remove(connID)
	if s == nil {
		return
	}
	rooms := s.Rooms()
	for _, roomID := range rooms {
		c.part(s, roomID)
	}
	s.clear()
	c.log.Debug().Str("conn", connID).Strs("rooms", rooms).Msg("connection cleaned up")
}

// Join adds the connection to req.RoomID. The joiner gets the peer list
// before it is added, so it never sees itself, followed by the recent chat
// history; then the whole room gets a presence snapshot and the other members
// get user-joined.
func (c *Coordinator) Join(connID string, req JoinRoomRequest) {
	s, ok := c.registry.Get(connID)
	if !ok {
		c.drop(EventJoinRoom, connID, reasonUnknownConnection)
		return
	}
	if req.RoomID == "" {
		c.drop(EventJoinRoom, connID, reasonMissingRoom)
		return
	}

	peers := c.presence.Snapshot(req.RoomID)
	peers = removeID(peers, connID)
	c.out.to(connID, EventRoomUsers, RoomUsersFrame{RoomID: req.RoomID, Peers: peers})

	messages := []ChatMessage{}
	if room, exists := c.directory.Get(req.RoomID); exists {
		messages = room.History().Recent(c.replay)
	}
	c.out.to(connID, EventChatHistory, ChatHistoryFrame{RoomID: req.RoomID, Messages: messages})

	room := c.directory.Add(req.RoomID, connID)
	s.track(req.RoomID)

	c.presence.Publish(req.RoomID, connID)
	c.out.fanout(room.Members(), connID, EventUserJoined, UserJoinedFrame{
		SocketID: connID,
		UserID:   req.UserID,
		Role:     req.Role,
	})
	c.log.Debug().Str("conn", connID).Str("room", req.RoomID).Int("members", room.Len()).Msg("joined room")
}

// Leave removes the connection from roomID. Leaving a room the connection is
// not in does nothing.
func (c *Coordinator) Leave(connID, roomID string) {
	if roomID == "" {
		c.drop(EventLeaveRoom, connID, reasonMissingRoom)
		return
	}
	s, ok := c.registry.Get(connID)
	if !ok {
		c.drop(EventLeaveRoom, connID, reasonUnknownConnection)
		return
	}
	if !s.Joined(roomID) {
		return
	}
	c.part(s, roomID)
}

func (c *Coordinator) part(s *Session, roomID string) {
	s.untrack(roomID)
	room, removed := c.directory.Remove(roomID, s.ID())
	if !removed {
		return
	}
	if room == nil {
		c.log.Debug().Str("conn", s.ID()).Str("room", roomID).Msg("room emptied")
		return
	}
	c.out.fanout(room.Members(), s.ID(), EventUserLeft, UserLeftFrame{SocketID: s.ID()})
	c.presence.Publish(roomID, s.ID())
	c.log.Debug().Str("conn", s.ID()).Str("room", roomID).Int("members", room.Len()).Msg("left room")
}

// Who answers the requester with the current members of roomID.
func (c *Coordinator) Who(connID, roomID string) {
	if roomID == "" {
		c.drop(EventWho, connID, reasonMissingRoom)
		return
	}
	c.out.to(connID, EventRoomUsers, RoomUsersFrame{RoomID: roomID, Peers: c.presence.Snapshot(roomID)})
}

// Offer relays an SDP offer.
func (c *Coordinator) Offer(connID string, req SessionDescriptionRequest) {
	c.relay.Offer(connID, req)
}

// Answer relays an SDP answer.
func (c *Coordinator) Answer(connID string, req SessionDescriptionRequest) {
	c.relay.Answer(connID, req)
}

// ICECandidate relays an ICE candidate.
func (c *Coordinator) ICECandidate(connID string, req ICECandidateRequest) {
	c.relay.ICECandidate(connID, req)
}

// Broadcast relays a tagged payload to the rest of a room.
func (c *Coordinator) Broadcast(connID string, req BroadcastRequest) {
	c.relay.Broadcast(connID, req)
}

// Kick evicts a member on behalf of connID.
func (c *Coordinator) Kick(connID string, req KickRequest) {
	c.moderator.Kick(connID, req)
}

// Dispatch decodes one client frame and routes it. Frames that cannot be
// decoded or name an unknown event are dropped.
func (c *Coordinator) Dispatch(connID string, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
		c.drop("", connID, reasonMalformed)
		return
	}

	switch env.Event {
	case EventJoinRoom:
		var req JoinRoomRequest
		if c.decode(connID, env, &req) {
			c.Join(connID, req)
		}
	case EventLeaveRoom:
		var req RoomRequest
		if c.decode(connID, env, &req) {
			c.Leave(connID, req.RoomID)
		}
	case EventWho:
		var req RoomRequest
		if c.decode(connID, env, &req) {
			c.Who(connID, req.RoomID)
		}
	case EventOffer:
		var req SessionDescriptionRequest
		if c.decode(connID, env, &req) {
			c.Offer(connID, req)
		}
	case EventAnswer:
		var req SessionDescriptionRequest
		if c.decode(connID, env, &req) {
			c.Answer(connID, req)
		}
	case EventICECandidate:
		var req ICECandidateRequest
		if c.decode(connID, env, &req) {
			c.ICECandidate(connID, req)
		}
	case EventBroadcast:
		var req BroadcastRequest
		if c.decode(connID, env, &req) {
			c.Broadcast(connID, req)
		}
	case EventKickUser:
		var req KickRequest
		if c.decode(connID, env, &req) {
			c.Kick(connID, req)
		}
	default:
		c.drop(env.Event, connID, reasonUnknownEvent)
	}
}

func (c *Coordinator) decode(connID string, env Envelope, v any) bool {
	metrics.EventsTotal.WithLabelValues(env.Event).Inc()
	if len(env.Data) == 0 {
		c.drop(env.Event, connID, reasonMalformed)
		return false
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		c.drop(env.Event, connID, reasonMalformed)
		return false
	}
	return true
}

// Members returns the members of roomID and whether the room exists.
func (c *Coordinator) Members(roomID string) ([]string, bool) {
	room, ok := c.directory.Get(roomID)
	if !ok {
		return []string{}, false
	}
	return room.Members(), true
}

// Rooms summarizes every live room.
func (c *Coordinator) Rooms() []RoomStats {
	return c.directory.Stats()
}

// Connections returns the number of registered connections.
func (c *Coordinator) Connections() int {
	return c.registry.Len()
}

// JoinedRooms returns the rooms connID has joined, or nil if it is unknown.
func (c *Coordinator) JoinedRooms(connID string) []string {
	s, ok := c.registry.Get(connID)
	if !ok {
		return nil
	}
	return s.Rooms()
}

func (c *Coordinator) drop(event, connID, reason string) {
	metrics.DroppedTotal.WithLabelValues(reason).Inc()
	c.log.Debug().Str("event", event).Str("conn", connID).Str("reason", reason).Msg("dropped signaling message")
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
