// Package server implements the HTTP and WebSocket transport for the room
// signaling service.
//
// The implementation is organized into specialized files for configuration,
// hub management, clients, routing, middleware, and HTTP handlers. The Hub is
// the only goroutine that touches the signaling Coordinator; clients feed it
// through channels and receive frames through their Deliver queues.
package server
