package signaling

import (
	"github.com/Tyrowin/roomsignal/internal/metrics"
)

// Authorizer decides whether actor may evict members of roomID.
type Authorizer interface {
	CanModerate(actor Identity, roomID string) bool
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(actor Identity, roomID string) bool

// CanModerate calls f.
func (f AuthorizerFunc) CanModerate(actor Identity, roomID string) bool {
	return f(actor, roomID)
}

// AllowAll trusts every caller to moderate every room.
var AllowAll Authorizer = AuthorizerFunc(func(Identity, string) bool { return true })

// Moderator implements forced eviction.
type Moderator struct {
	reg      *Registry
	dir      *Directory
	presence *Presence
	out      outbox
	authz    Authorizer
}

// Kick evicts req.TargetID from req.RoomID on behalf of actorID. The target
// gets a kicked notice instead of the user-left the room would see on a
// normal leave; the remaining members get one presence snapshot.
func (m *Moderator) Kick(actorID string, req KickRequest) {
	if req.RoomID == "" || req.TargetID == "" {
		m.drop(actorID, reasonMissingTarget)
		return
	}
	actor, ok := m.reg.Get(actorID)
	if !ok {
		m.drop(actorID, reasonUnknownConnection)
		return
	}
	if !m.authz.CanModerate(actor.Identity(), req.RoomID) {
		metrics.Kicks.WithLabelValues("denied").Inc()
		m.out.log.Info().
			Str("conn", actorID).
			Str("role", actor.Identity().Role).
			Str("room", req.RoomID).
			Str("target", req.TargetID).
			Msg("kick denied")
		m.drop(actorID, reasonUnauthorized)
		return
	}

	m.out.to(req.TargetID, EventKicked, KickedFrame{RoomID: req.RoomID})
	if target, ok := m.reg.Get(req.TargetID); ok {
		target.untrack(req.RoomID)
	}
	if room, _ := m.dir.Remove(req.RoomID, req.TargetID); room != nil {
		m.presence.Publish(req.RoomID, actorID)
	}

	metrics.Kicks.WithLabelValues("evicted").Inc()
	m.out.log.Info().
		Str("conn", actorID).
		Str("room", req.RoomID).
		Str("target", req.TargetID).
		Msg("member kicked")
}

func (m *Moderator) drop(conn, reason string) {
	metrics.DroppedTotal.WithLabelValues(reason).Inc()
	m.out.log.Debug().Str("event", EventKickUser).Str("conn", conn).Str("reason", reason).Msg("dropped signaling message")
}
