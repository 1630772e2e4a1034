package signaling

import (
	"github.com/Tyrowin/roomsignal/internal/metrics"
)

// Relay forwards negotiation messages to a single peer and broadcasts to a
// room. It never interprets what it forwards, apart from recording chat
// broadcasts in the room history.
type Relay struct {
	dir   *Directory
	out   outbox
	stamp *stamper
}

// Offer forwards an SDP offer to req.To.
func (r *Relay) Offer(from string, req SessionDescriptionRequest) {
	r.describe(EventOffer, from, req)
}

// Answer forwards an SDP answer to req.To.
func (r *Relay) Answer(from string, req SessionDescriptionRequest) {
	r.describe(EventAnswer, from, req)
}

func (r *Relay) describe(event, from string, req SessionDescriptionRequest) {
	if req.To == "" || !req.Description.Present() {
		r.drop(event, from, reasonMissingTarget)
		return
	}
	r.forward(event, from, req.To, SessionDescriptionFrame{
		From:        from,
		Description: req.Description,
		RoomID:      req.RoomID,
	})
}

// ICECandidate forwards an ICE candidate to req.To.
func (r *Relay) ICECandidate(from string, req ICECandidateRequest) {
	if req.To == "" || !req.Candidate.Present() {
		r.drop(EventICECandidate, from, reasonMissingTarget)
		return
	}
	r.forward(EventICECandidate, from, req.To, ICECandidateFrame{
		From:      from,
		Candidate: req.Candidate,
		RoomID:    req.RoomID,
	})
}

func (r *Relay) forward(event, from, to string, frame any) {
	if !r.out.to(to, event, frame) {
		metrics.RelayUndeliverable.WithLabelValues(event).Inc()
		r.out.log.Debug().
			Str("event", event).
			Str("from", from).
			Str("to", to).
			Msg("relay target not connected")
	}
}

// Broadcast relays req to every other member of req.RoomID. A chat-tagged
// payload with a text string is appended to the room history first.
func (r *Relay) Broadcast(from string, req BroadcastRequest) {
	if req.RoomID == "" || req.Event == "" {
		r.drop(EventBroadcast, from, reasonMissingRoom)
		return
	}
	room, ok := r.dir.Get(req.RoomID)
	if !ok {
		return
	}
	if req.Event == chatEvent {
		if fields, isChat := req.Payload.Chat(); isChat {
			room.History().Append(r.stamp.stamp(fields))
			metrics.ChatMessages.Inc()
		}
	}
	r.out.fanout(room.Members(), from, EventBroadcast, BroadcastFrame{
		Event:   req.Event,
		Payload: req.Payload,
		From:    from,
	})
}

func (r *Relay) drop(event, from, reason string) {
	metrics.DroppedTotal.WithLabelValues(reason).Inc()
	r.out.log.Debug().Str("event", event).Str("conn", from).Str("reason", reason).Msg("dropped signaling message")
}
