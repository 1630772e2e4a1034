package signaling

import "encoding/json"

// Client to server events.
const (
	EventJoinRoom     = "join-room"
	EventLeaveRoom    = "leave-room"
	EventWho          = "who"
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventICECandidate = "ice-candidate"
	EventBroadcast    = "broadcast"
	EventKickUser     = "kick-user"
)

// Server to client events. Offer, answer, ice-candidate and broadcast are
// reused in this direction with the sender's id attached.
const (
	EventConnected   = "connected"
	EventRoomUsers   = "room-users"
	EventChatHistory = "chat-history"
	EventUserJoined  = "user-joined"
	EventUserLeft    = "user-left"
	EventKicked      = "kicked"
)

const (
	chatEvent     = "chat"
	presenceEvent = "presence"
)

// Envelope is the frame exchanged in both directions: one JSON object per
// WebSocket text message.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinRoomRequest is the join-room payload. UserID and Role are never
// interpreted, only echoed to the other members.
type JoinRoomRequest struct {
	RoomID string  `json:"roomId"`
	UserID Payload `json:"userId,omitempty"`
	Role   Payload `json:"role,omitempty"`
}

// RoomRequest carries only a room id (leave-room, who).
type RoomRequest struct {
	RoomID string `json:"roomId"`
}

// SessionDescriptionRequest is an offer or answer addressed to one peer.
type SessionDescriptionRequest struct {
	To          string  `json:"to"`
	Description Payload `json:"description,omitempty"`
	RoomID      Payload `json:"roomId,omitempty"`
}

// ICECandidateRequest is a trickled ICE candidate addressed to one peer.
type ICECandidateRequest struct {
	To        string  `json:"to"`
	Candidate Payload `json:"candidate,omitempty"`
	RoomID    Payload `json:"roomId,omitempty"`
}

// BroadcastRequest fans an arbitrary tagged payload out to a room.
type BroadcastRequest struct {
	RoomID  string  `json:"roomId"`
	Event   string  `json:"event"`
	Payload Payload `json:"payload,omitempty"`
}

// KickRequest asks for TargetID to be evicted from RoomID.
type KickRequest struct {
	RoomID   string `json:"roomId"`
	TargetID string `json:"targetId"`
}

// ConnectedFrame greets a new connection with its server-assigned id.
type ConnectedFrame struct {
	SocketID string `json:"socketId"`
}

// RoomUsersFrame is a peer list for one room.
type RoomUsersFrame struct {
	RoomID string   `json:"roomId"`
	Peers  []string `json:"peers"`
}

// ChatHistoryFrame replays the most recent chat messages, oldest first.
type ChatHistoryFrame struct {
	RoomID   string        `json:"roomId"`
	Messages []ChatMessage `json:"messages"`
}

// BroadcastFrame is a relayed room broadcast, including presence snapshots.
type BroadcastFrame struct {
	Event   string  `json:"event"`
	Payload Payload `json:"payload,omitempty"`
	From    string  `json:"from"`
}

// UserJoinedFrame announces a new member to the rest of the room.
type UserJoinedFrame struct {
	SocketID string  `json:"socketId"`
	UserID   Payload `json:"userId,omitempty"`
	Role     Payload `json:"role,omitempty"`
}

// UserLeftFrame announces a departed member.
type UserLeftFrame struct {
	SocketID string `json:"socketId"`
}

// KickedFrame tells an evicted connection which room it lost.
type KickedFrame struct {
	RoomID string `json:"roomId"`
}

// SessionDescriptionFrame delivers an offer or answer.
type SessionDescriptionFrame struct {
	From        string  `json:"from"`
	Description Payload `json:"description"`
	RoomID      Payload `json:"roomId,omitempty"`
}

// ICECandidateFrame delivers an ICE candidate.
type ICECandidateFrame struct {
	From      string  `json:"from"`
	Candidate Payload `json:"candidate"`
	RoomID    Payload `json:"roomId,omitempty"`
}

type presencePayload struct {
	IDs []string `json:"ids"`
}

// EncodeFrame wraps data in an Envelope tagged with event.
func EncodeFrame(event string, data any) ([]byte, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: body})
}
