package signaling

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Payload is an opaque JSON value relayed byte-for-byte. The only shape the
// core ever looks inside is a chat message (see Chat).
type Payload []byte

// MarshalJSON emits the raw value, or null when empty.
func (p Payload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

// UnmarshalJSON keeps a copy of the raw value.
func (p *Payload) UnmarshalJSON(data []byte) error {
	*p = append((*p)[0:0], data...)
	return nil
}

// Present reports whether the value would count as supplied by a browser
// client: anything except absent, null, false, zero and the empty string.
func (p Payload) Present() bool {
	v := bytes.TrimSpace(p)
	if len(v) == 0 {
		return false
	}
	switch string(v) {
	case "null", "false", `""`:
		return false
	}
	if f, err := strconv.ParseFloat(string(v), 64); err == nil && f == 0 {
		return false
	}
	return true
}

// ChatFields is the inspected subset of a chat broadcast payload.
type ChatFields struct {
	ID   string
	User string
	Text string
}

// Chat extracts the chat fields when the payload is an object whose text is a
// JSON string. Keys match exactly, so "TEXT" is not text. ID and User are
// empty unless they are strings.
func (p Payload) Chat() (ChatFields, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(p, &fields); err != nil || fields == nil {
		return ChatFields{}, false
	}
	text, ok := jsonString(fields["text"])
	if !ok {
		return ChatFields{}, false
	}
	id, _ := jsonString(fields["id"])
	user, _ := jsonString(fields["user"])
	return ChatFields{ID: id, User: user, Text: text}, true
}

func jsonString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
