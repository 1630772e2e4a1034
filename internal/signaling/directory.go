package signaling

import (
	"cmp"
	"slices"
	"strings"

	"github.com/Tyrowin/roomsignal/internal/metrics"
)

// Room is a live room: a non-empty membership set plus its chat history.
type Room struct {
	id      string
	members map[string]uint64
	nextSeq uint64
	history *History
}

// ID returns the room id.
func (r *Room) ID() string { return r.id }

// Len returns the member count.
func (r *Room) Len() int { return len(r.members) }

// Has reports whether connID is a member.
func (r *Room) Has(connID string) bool {
	_, ok := r.members[connID]
	return ok
}

// Members returns the member ids in join order.
func (r *Room) Members() []string {
	ids := make([]string, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		return cmp.Compare(r.members[a], r.members[b])
	})
	return ids
}

// History returns the room's chat ring.
func (r *Room) History() *History { return r.history }

// RoomStats is a read-only summary of one room.
type RoomStats struct {
	RoomID  string `json:"roomId"`
	Members int    `json:"members"`
	History int    `json:"history"`
}

// Directory maps room ids to live rooms. A room exists exactly while it has
// at least one member; its history goes with it.
type Directory struct {
	rooms           map[string]*Room
	historyCapacity int
}

// NewDirectory returns an empty directory whose rooms keep historyCapacity
// chat messages.
func NewDirectory(historyCapacity int) *Directory {
	if historyCapacity <= 0 {
		historyCapacity = DefaultHistoryCapacity
	}
	return &Directory{
		rooms:           make(map[string]*Room),
		historyCapacity: historyCapacity,
	}
}

// Get returns the room if it exists.
func (d *Directory) Get(roomID string) (*Room, bool) {
	r, ok := d.rooms[roomID]
	return r, ok
}

// Members returns the members of roomID in join order, or an empty slice.
func (d *Directory) Members(roomID string) []string {
	r, ok := d.rooms[roomID]
	if !ok {
		return []string{}
	}
	return r.Members()
}

// Add puts connID into roomID, creating the room on first use. Adding an
// existing member keeps its original join position.
func (d *Directory) Add(roomID, connID string) *Room {
	r, ok := d.rooms[roomID]
	if !ok {
		r = &Room{
			id:      roomID,
			members: make(map[string]uint64),
			history: NewHistory(d.historyCapacity),
		}
		d.rooms[roomID] = r
		metrics.RoomsActive.Set(float64(len(d.rooms)))
	}
	if _, member := r.members[connID]; !member {
		r.members[connID] = r.nextSeq
		r.nextSeq++
	}
	return r
}

// Remove takes connID out of roomID. It reports whether connID was a member
// and returns the room if it still exists afterwards; an emptied room is
// evicted together with its history.
func (d *Directory) Remove(roomID, connID string) (*Room, bool) {
	r, ok := d.rooms[roomID]
	if !ok {
		return nil, false
	}
	if _, member := r.members[connID]; !member {
		return r, false
	}
	delete(r.members, connID)
	if len(r.members) == 0 {
		delete(d.rooms, roomID)
		metrics.RoomsActive.Set(float64(len(d.rooms)))
		return nil, true
	}
	return r, true
}

// Len returns the number of live rooms.
func (d *Directory) Len() int { return len(d.rooms) }

// Stats summarizes every live room ordered by id.
func (d *Directory) Stats() []RoomStats {
	stats := make([]RoomStats, 0, len(d.rooms))
	for id, r := range d.rooms {
		stats = append(stats, RoomStats{RoomID: id, Members: r.Len(), History: r.history.Len()})
	}
	slices.SortFunc(stats, func(a, b RoomStats) int {
		return strings.Compare(a.RoomID, b.RoomID)
	})
	return stats
}
