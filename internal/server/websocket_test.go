package server

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/roomsignal/internal/auth"
	"github.com/Tyrowin/roomsignal/internal/signaling"
	"github.com/Tyrowin/roomsignal/internal/testhelpers"
)

type roomUsers struct {
	RoomID string   `json:"roomId"`
	Peers  []string `json:"peers"`
}

type relayed struct {
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload"`
	From    string         `json:"from"`
}

type history struct {
	RoomID   string                  `json:"roomId"`
	Messages []signaling.ChatMessage `json:"messages"`
}

func join(t *testing.T, conn *websocket.Conn, roomID string) roomUsers {
	t.Helper()
	testhelpers.SendEvent(t, conn, signaling.EventJoinRoom, map[string]string{"roomId": roomID})
	var users roomUsers
	testhelpers.ExpectEvent(t, conn, signaling.EventRoomUsers, &users)
	testhelpers.ExpectEvent(t, conn, signaling.EventBroadcast, nil)
	return users
}

// TestWebSocketRoomLifecycle tests joining, chatting and history replay
// between several clients over real sockets.
func TestWebSocketRoomLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, *NewConfig())
	url := testhelpers.WebSocketURL(srv.URL)

	x, xID := testhelpers.MustConnect(t, url)
	y, yID := testhelpers.MustConnect(t, url)
	z, _ := testhelpers.MustConnect(t, url)

	assert.Empty(t, join(t, x, "r1").Peers)
	assert.Equal(t, []string{xID}, join(t, y, "r1").Peers)

	var joined struct {
		SocketID string `json:"socketId"`
	}
	testhelpers.ExpectEvent(t, x, signaling.EventUserJoined, &joined)
	assert.Equal(t, yID, joined.SocketID)

	testhelpers.SendEvent(t, x, signaling.EventBroadcast, map[string]any{
		"roomId":  "r1",
		"event":   "chat",
		"payload": map[string]any{"text": "hi", "user": "X"},
	})

	var got relayed
	testhelpers.ExpectEvent(t, y, signaling.EventBroadcast, &got)
	assert.Equal(t, relayed{Event: "chat", Payload: map[string]any{"text": "hi", "user": "X"}, From: xID}, got)

	testhelpers.SendEvent(t, z, signaling.EventJoinRoom, map[string]string{"roomId": "r1"})
	var replay history
	testhelpers.ExpectEvent(t, z, signaling.EventChatHistory, &replay)
	require.Len(t, replay.Messages, 1)
	assert.Equal(t, "hi", replay.Messages[0].Text)
	assert.Equal(t, "X", replay.Messages[0].User)
	assert.Len(t, replay.Messages[0].ID, 26)
	assert.Positive(t, replay.Messages[0].TS)
}

// TestWebSocketOfferReachesOnlyTarget tests point-to-point relay.
func TestWebSocketOfferReachesOnlyTarget(t *testing.T) {
	srv, _ := newTestServer(t, *NewConfig())
	url := testhelpers.WebSocketURL(srv.URL)

	x, xID := testhelpers.MustConnect(t, url)
	y, yID := testhelpers.MustConnect(t, url)

	testhelpers.SendEvent(t, x, signaling.EventOffer, map[string]any{
		"to":          yID,
		"description": map[string]any{"type": "offer", "sdp": "v=0"},
	})

	var offer struct {
		From        string         `json:"from"`
		Description map[string]any `json:"description"`
	}
	testhelpers.ExpectEvent(t, y, signaling.EventOffer, &offer)
	assert.Equal(t, xID, offer.From)
	assert.Equal(t, "v=0", offer.Description["sdp"])

	testhelpers.ExpectSilence(t, x, 200*time.Millisecond)
}

// TestWebSocketDisconnectNotifiesRoom tests that closing a socket runs the
// same cleanup as leaving.
func TestWebSocketDisconnectNotifiesRoom(t *testing.T) {
	srv, hub := newTestServer(t, *NewConfig())
	url := testhelpers.WebSocketURL(srv.URL)

	x, xID := testhelpers.MustConnect(t, url)
	y, yID := testhelpers.MustConnect(t, url)
	join(t, x, "r1")
	join(t, y, "r1")
	join(t, y, "r2")

	require.NoError(t, testhelpers.CloseWebSocket(y))

	var left struct {
		SocketID string `json:"socketId"`
	}
	testhelpers.ExpectEvent(t, x, signaling.EventUserLeft, &left)
	assert.Equal(t, yID, left.SocketID)

	members, ok := hub.Members("r1")
	assert.True(t, ok)
	assert.Equal(t, []string{xID}, members)
	_, ok = hub.Members("r2")
	assert.False(t, ok)
}

// TestWebSocketMalformedFramesKeepConnection tests that bad input is dropped
// without closing the socket.
func TestWebSocketMalformedFramesKeepConnection(t *testing.T) {
	srv, _ := newTestServer(t, *NewConfig())
	x, xID := testhelpers.MustConnect(t, testhelpers.WebSocketURL(srv.URL))
	join(t, x, "r1")

	require.NoError(t, x.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, x.WriteMessage(websocket.BinaryMessage, []byte(`{"event":"who","data":{"roomId":"r1"}}`)))
	testhelpers.SendEvent(t, x, "launch-missiles", map[string]string{"roomId": "r1"})
	testhelpers.SendEvent(t, x, signaling.EventWho, map[string]string{"roomId": "r1"})

	var users roomUsers
	testhelpers.ExpectEvent(t, x, signaling.EventRoomUsers, &users)
	assert.Equal(t, roomUsers{RoomID: "r1", Peers: []string{xID}}, users)
}

// TestWebSocketRejectsDisallowedOrigin tests the upgrader's origin check.
func TestWebSocketRejectsDisallowedOrigin(t *testing.T) {
	cfg := *NewConfig()
	cfg.AllowedOrigins = []string{"https://app.example.com"}
	srv, _ := newTestServer(t, cfg)

	_, resp, err := testhelpers.ConnectWebSocket(testhelpers.WebSocketURL(srv.URL), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := testhelpers.ConnectWebSocket(testhelpers.WebSocketURL(srv.URL), http.Header{"Origin": {"https://app.example.com"}})
	require.NoError(t, err)
	conn.Close()
}

// TestWebSocketMessageSizeLimit tests that an oversized frame closes the
// connection.
func TestWebSocketMessageSizeLimit(t *testing.T) {
	cfg := *NewConfig()
	cfg.MaxMessageSize = 512
	srv, _ := newTestServer(t, cfg)
	x, _ := testhelpers.MustConnect(t, testhelpers.WebSocketURL(srv.URL))

	testhelpers.SendEvent(t, x, signaling.EventWho, map[string]string{"roomId": strings.Repeat("r", 1024)})

	_, err := testhelpers.ReadFrame(x, testhelpers.DefaultTimeout)
	require.Error(t, err)
	assert.False(t, websocket.IsUnexpectedCloseError(err, websocket.CloseMessageTooBig, websocket.CloseAbnormalClosure), "got %v", err)
}

// TestWebSocketRateLimit tests that frames beyond the burst are discarded.
func TestWebSocketRateLimit(t *testing.T) {
	cfg := *NewConfig()
	cfg.RateLimit = RateLimitConfig{Burst: 2, RefillInterval: time.Hour}
	srv, _ := newTestServer(t, cfg)
	x, _ := testhelpers.MustConnect(t, testhelpers.WebSocketURL(srv.URL))

	for i := 0; i < 5; i++ {
		testhelpers.SendEvent(t, x, signaling.EventWho, map[string]string{"roomId": "r1"})
	}

	testhelpers.ExpectEvent(t, x, signaling.EventRoomUsers, nil)
	testhelpers.ExpectEvent(t, x, signaling.EventRoomUsers, nil)
	testhelpers.ExpectSilence(t, x, 300*time.Millisecond)
}

// TestWebSocketTokenAuthAndKick tests verified identities end to end: a
// missing token is refused, a student cannot kick and a teacher can.
func TestWebSocketTokenAuthAndKick(t *testing.T) {
	const secret = "integration-secret-with-enough-bytes"
	cfg := *NewConfig()
	cfg.JWTSecret = secret
	srv, hub := newTestServer(t, cfg)
	url := testhelpers.WebSocketURL(srv.URL)

	_, resp, err := testhelpers.ConnectWebSocket(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	verifier := auth.NewVerifier(secret)
	dial := func(userID, role string) (*websocket.Conn, string) {
		token, err := verifier.Issue(auth.Claims{UserID: auth.UserID(userID), Role: role}, time.Minute)
		require.NoError(t, err)
		return testhelpers.MustConnect(t, url+"?token="+token)
	}

	teacher, _ := dial("1", "teacher")
	student, _ := dial("2", "student")
	other, otherID := dial("3", "student")
	join(t, teacher, "class")
	join(t, student, "class")
	join(t, other, "class")

	testhelpers.SendEvent(t, student, signaling.EventKickUser, map[string]string{"roomId": "class", "targetId": otherID})
	testhelpers.SendEvent(t, student, signaling.EventWho, map[string]string{"roomId": "class"})
	var users roomUsers
	testhelpers.ExpectEvent(t, student, signaling.EventRoomUsers, &users)
	assert.Len(t, users.Peers, 3, "student kick is refused")

	testhelpers.SendEvent(t, teacher, signaling.EventKickUser, map[string]string{"roomId": "class", "targetId": otherID})

	var kicked struct {
		RoomID string `json:"roomId"`
	}
	testhelpers.ExpectEvent(t, other, signaling.EventKicked, &kicked)
	assert.Equal(t, "class", kicked.RoomID)

	members, _ := hub.Members("class")
	assert.Len(t, members, 2)
	assert.NotContains(t, members, otherID)
}

// TestHubShutdownClosesSockets tests that shutting the hub down disconnects
// every client.
func TestHubShutdownClosesSockets(t *testing.T) {
	srv, hub := newTestServer(t, *NewConfig())
	x, _ := testhelpers.MustConnect(t, testhelpers.WebSocketURL(srv.URL))

	require.NoError(t, stopHub(hub, 2*time.Second))

	_, err := testhelpers.ReadFrame(x, testhelpers.DefaultTimeout)
	assert.Error(t, err)

	late, _, err := testhelpers.ConnectWebSocket(testhelpers.WebSocketURL(srv.URL), nil)
	if err == nil {
		defer late.Close()
		_, err = testhelpers.ReadFrame(late, testhelpers.DefaultTimeout)
		assert.Error(t, err, "a connection accepted after shutdown is closed without a greeting")
	}
}
