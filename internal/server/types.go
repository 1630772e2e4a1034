// Package server defines shared transport types and utility helpers that
// are reused across client and hub logic.
package server

import "strings"

// inboundFrame is one text frame read from a client, queued for the hub.
type inboundFrame struct {
	client *Client
	frame  []byte
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
