// Package signaling implements the room signaling and presence core.
//
// Browser peers discover each other inside named rooms, exchange WebRTC
// negotiation payloads, receive presence snapshots, share a bounded chat
// transcript and can be evicted by a moderator. The package is transport
// agnostic: a live connection is represented by a Peer that accepts encoded
// frames, and the Coordinator is driven with decoded client events.
//
// The Coordinator is a single-writer state object. It is not safe for
// concurrent use; the owner (the server Hub) feeds it from one goroutine so
// every operation runs to completion before the next one starts.
package signaling
