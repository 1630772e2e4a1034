package signaling

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// recordingPeer keeps every frame delivered to it.
type recordingPeer struct {
	id     string
	frames []Envelope
}

func (p *recordingPeer) ID() string { return p.id }

func (p *recordingPeer) Deliver(frame []byte) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		panic(fmt.Sprintf("peer %s received undecodable frame %q: %v", p.id, frame, err))
	}
	p.frames = append(p.frames, env)
}

func (p *recordingPeer) events() []string {
	out := make([]string, 0, len(p.frames))
	for _, f := range p.frames {
		out = append(out, f.Event)
	}
	return out
}

// all decodes the data of every frame tagged event into a fresh T.
func all[T any](t *testing.T, p *recordingPeer, event string) []T {
	t.Helper()
	var out []T
	for _, f := range p.frames {
		if f.Event != event {
			continue
		}
		var v T
		require.NoError(t, json.Unmarshal(f.Data, &v))
		out = append(out, v)
	}
	return out
}

// only asserts exactly one frame tagged event was delivered and decodes it.
func only[T any](t *testing.T, p *recordingPeer, event string) T {
	t.Helper()
	frames := all[T](t, p, event)
	require.Len(t, frames, 1, "peer %s: expected one %q frame, got events %v", p.id, event, p.events())
	return frames[0]
}

func (p *recordingPeer) reset() { p.frames = nil }

// presenceIDs returns the ids carried by every presence broadcast p received.
func presenceIDs(t *testing.T, p *recordingPeer) [][]string {
	t.Helper()
	var out [][]string
	for _, b := range all[BroadcastFrame](t, p, EventBroadcast) {
		if b.Event != presenceEvent {
			continue
		}
		var body presencePayload
		require.NoError(t, json.Unmarshal(b.Payload, &body))
		out = append(out, body.IDs)
	}
	return out
}

type harness struct {
	t     *testing.T
	coord *Coordinator
	peers map[string]*recordingPeer
}

var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	seq := 0
	base := []Option{
		WithClock(func() time.Time { return testEpoch }),
		WithMessageIDs(func() string {
			seq++
			return fmt.Sprintf("msg-%d", seq)
		}),
	}
	return &harness{
		t:     t,
		coord: NewCoordinator(append(base, opts...)...),
		peers: make(map[string]*recordingPeer),
	}
}

func (h *harness) connect(id string) *recordingPeer {
	return h.connectAs(id, Identity{UserID: "user-" + id})
}

func (h *harness) connectAs(id string, identity Identity) *recordingPeer {
	p := &recordingPeer{id: id}
	h.peers[id] = p
	h.coord.Connect(p, identity)
	p.reset()
	return p
}

// send dispatches a client frame the way the transport does.
func (h *harness) send(from, event string, data any) {
	h.t.Helper()
	body, err := json.Marshal(data)
	require.NoError(h.t, err)
	raw, err := json.Marshal(Envelope{Event: event, Data: body})
	require.NoError(h.t, err)
	h.coord.Dispatch(from, raw)
}

func (h *harness) join(id, roomID string) {
	h.send(id, EventJoinRoom, map[string]any{"roomId": roomID})
}

func (h *harness) resetAll() {
	for _, p := range h.peers {
		p.reset()
	}
}

func (h *harness) members(roomID string) []string {
	members, _ := h.coord.Members(roomID)
	return members
}
