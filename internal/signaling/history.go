package signaling

import (
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	// DefaultHistoryCapacity is how many chat messages a room retains.
	DefaultHistoryCapacity = 500
	// DefaultHistoryReplay is how many of them a joiner receives.
	DefaultHistoryReplay = 100
)

// ChatMessage is one retained chat line. TS is Unix milliseconds.
type ChatMessage struct {
	ID   string `json:"id"`
	User string `json:"user"`
	Text string `json:"text"`
	TS   int64  `json:"ts"`
}

// History is a fixed-capacity ring of chat messages. Once full, each append
// overwrites the oldest entry.
type History struct {
	buf      []ChatMessage
	start    int
	capacity int
}

// NewHistory returns an empty ring holding at most capacity messages.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{capacity: capacity}
}

// Append records m, evicting the oldest message when the ring is full.
func (h *History) Append(m ChatMessage) {
	if len(h.buf) < h.capacity {
		h.buf = append(h.buf, m)
		return
	}
	h.buf[h.start] = m
	h.start = (h.start + 1) % h.capacity
}

// Len returns the number of retained messages.
func (h *History) Len() int { return len(h.buf) }

// Cap returns the ring capacity.
func (h *History) Cap() int { return h.capacity }

// Recent returns up to n of the newest messages, oldest first. The result is
// never nil.
func (h *History) Recent(n int) []ChatMessage {
	size := len(h.buf)
	if n > size {
		n = size
	}
	if n < 0 {
		n = 0
	}
	out := make([]ChatMessage, n)
	for i := 0; i < n; i++ {
		out[i] = h.buf[(h.start+size-n+i)%size]
	}
	return out
}

// stamper assigns ids and timestamps to chat messages. Timestamps never go
// backwards even if the wall clock does.
type stamper struct {
	now   func() time.Time
	newID func() string
	last  int64
}

func newStamper(now func() time.Time, newID func() string) *stamper {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	return &stamper{now: now, newID: newID}
}

func (s *stamper) stamp(f ChatFields) ChatMessage {
	ts := s.now().UnixMilli()
	if ts < s.last {
		ts = s.last
	}
	s.last = ts

	id := f.ID
	if id == "" {
		id = s.newID()
	}
	user := f.User
	if user == "" {
		user = "User"
	}
	return ChatMessage{ID: id, User: user, Text: f.Text, TS: ts}
}
