// Package testhelpers provides common utilities for testing the signaling server.
//
// It wraps the gorilla/websocket dialer and the JSON envelope so that tests
// can speak the wire protocol in a line or two, and it offers HTTP request
// helpers shared by handler and integration tests.
package testhelpers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// DefaultTimeout bounds every blocking read made through these helpers.
const DefaultTimeout = 2 * time.Second

// TestOrigin is the Origin header sent by ConnectWebSocket.
const TestOrigin = "http://localhost:3000"

// Frame is one decoded server frame.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// WebSocketURL converts an httptest server URL into its /ws endpoint.
func WebSocketURL(serverURL string) string {
	return "ws" + strings.TrimPrefix(serverURL, "http") + "/ws"
}

// ConnectWebSocket dials url with the test origin plus any extra headers.
// The HTTP response is returned so callers can inspect rejected handshakes.
func ConnectWebSocket(url string, header http.Header) (*websocket.Conn, *http.Response, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}

	headers := http.Header{}
	headers.Set("Origin", TestOrigin)
	for key, values := range header {
		headers[key] = values
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, resp, err
}

// MustConnect dials url, reads the connected greeting and returns the
// connection with its socket id. The connection is closed on cleanup.
func MustConnect(t *testing.T, url string) (*websocket.Conn, string) {
	t.Helper()
	conn, _, err := ConnectWebSocket(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	var greeting struct {
		SocketID string `json:"socketId"`
	}
	ExpectEvent(t, conn, "connected", &greeting)
	require.NotEmpty(t, greeting.SocketID)
	return conn, greeting.SocketID
}

// SendEvent writes one {"event","data"} frame.
func SendEvent(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	body, err := json.Marshal(data)
	require.NoError(t, err)
	frame, err := json.Marshal(Frame{Event: event, Data: body})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

// ReadFrame reads the next frame or fails after timeout.
func ReadFrame(conn *websocket.Conn, timeout time.Duration) (Frame, error) {
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return Frame{}, err
	}
	var f Frame
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return Frame{}, err
	}
	err = json.Unmarshal(raw, &f)
	return f, err
}

// ExpectEvent reads frames until one tagged event arrives and decodes its
// data into v when v is not nil. Frames with other tags are skipped.
func ExpectEvent(t *testing.T, conn *websocket.Conn, event string, v any) {
	t.Helper()
	deadline := time.Now().Add(DefaultTimeout)
	for {
		remaining := time.Until(deadline)
		require.Positive(t, remaining, "timed out waiting for %q", event)
		f, err := ReadFrame(conn, remaining)
		require.NoError(t, err, "waiting for %q", event)
		if f.Event != event {
			continue
		}
		if v != nil {
			require.NoError(t, json.Unmarshal(f.Data, v))
		}
		return
	}
}

// ExpectSilence asserts that nothing arrives on conn for d.
func ExpectSilence(t *testing.T, conn *websocket.Conn, d time.Duration) {
	t.Helper()
	f, err := ReadFrame(conn, d)
	require.Error(t, err, "unexpected frame %q", f.Event)
}

// MakeRequest creates and executes an HTTP request, returning the response.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{Timeout: 5 * time.Second}

	req, err := http.NewRequest(method, url, http.NoBody)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

// DecodeJSON decodes the response body into v and closes it.
func DecodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// CloseWebSocket sends a normal close frame and closes the connection.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}
