package signaling

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPayloadPresent tests which bodies count as supplied.
func TestPayloadPresent(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"", false},
		{"null", false},
		{"false", false},
		{`""`, false},
		{"0", false},
		{"0.0", false},
		{" null ", false},
		{"true", true},
		{"1", true},
		{`"x"`, true},
		{"{}", true},
		{"[]", true},
		{`{"sdp":"v=0"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Payload(tt.raw).Present())
		})
	}
}

// TestPayloadPassesThrough tests that a payload is re-emitted with its field
// order, number formatting and unknown fields intact.
func TestPayloadPassesThrough(t *testing.T) {
	raw := `{"roomId":"r","event":"x","payload":{"b": [1, 2.50, "three"], "a": null}}`

	var req BroadcastRequest
	require.NoError(t, json.Unmarshal([]byte(raw), &req))

	out, err := json.Marshal(BroadcastFrame{Event: req.Event, Payload: req.Payload, From: "c"})
	require.NoError(t, err)
	assert.Equal(t, `{"event":"x","payload":{"b":[1,2.50,"three"],"a":null},"from":"c"}`, string(out))
}

// TestPayloadEmptyMarshalsAsNull tests the zero value encoding.
func TestPayloadEmptyMarshalsAsNull(t *testing.T) {
	out, err := json.Marshal(struct {
		P Payload `json:"p"`
	}{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"p":null}`, string(out))
}

// TestPayloadChat tests extraction of the inspected chat fields.
func TestPayloadChat(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   ChatFields
		isChat bool
	}{
		{"full", `{"id":"m1","user":"ann","text":"hi"}`, ChatFields{ID: "m1", User: "ann", Text: "hi"}, true},
		{"text only", `{"text":"hi"}`, ChatFields{Text: "hi"}, true},
		{"empty text", `{"text":""}`, ChatFields{}, true},
		{"non-string id and user", `{"id":5,"user":{"n":1},"text":"hi"}`, ChatFields{Text: "hi"}, true},
		{"upper-case text key", `{"TEXT":"hi"}`, ChatFields{}, false},
		{"keys match exactly", `{"Id":"m1","USER":"ann","text":"hi"}`, ChatFields{Text: "hi"}, true},
		{"missing text", `{"user":"ann"}`, ChatFields{}, false},
		{"null object", `null`, ChatFields{}, false},
		{"numeric text", `{"text":3}`, ChatFields{}, false},
		{"null text", `{"text":null}`, ChatFields{}, false},
		{"not an object", `"hi"`, ChatFields{}, false},
		{"array", `[{"text":"hi"}]`, ChatFields{}, false},
		{"empty", ``, ChatFields{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Payload(tt.raw).Chat()
			assert.Equal(t, tt.isChat, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
