package signaling

import "encoding/json"

// Presence computes membership snapshots and publishes them to a room.
type Presence struct {
	dir *Directory
	out outbox
}

// Snapshot returns the current members of roomID in join order.
func (p *Presence) Snapshot(roomID string) []string {
	return p.dir.Members(roomID)
}

// Publish sends the snapshot to every member of roomID, including the one
// that caused the change. from names that connection. Nothing is sent when
// the room no longer exists.
func (p *Presence) Publish(roomID, from string) int {
	room, ok := p.dir.Get(roomID)
	if !ok {
		return 0
	}
	members := room.Members()
	body, err := json.Marshal(presencePayload{IDs: members})
	if err != nil {
		p.out.log.Error().Err(err).Str("room", roomID).Msg("failed to encode presence")
		return 0
	}
	return p.out.fanout(members, "", EventBroadcast, BroadcastFrame{
		Event:   presenceEvent,
		Payload: body,
		From:    from,
	})
}
