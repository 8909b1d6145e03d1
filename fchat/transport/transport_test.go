package transport

import (
	"cogito/fchat/frame"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoServer answers every text message with the same message and sends a
// malformed frame first.
func echoServer(t *testing.T) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte("PIN garbage"))
		for {
			messageType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(messageType, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestRoundTrip(t *testing.T) {
	conn, err := Dial(context.Background(), echoServer(t))
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.ReadFrame()
	require.ErrorIs(t, err, frame.ErrMalformedFrame)

	sent := frame.MustNew("MSG", frame.ChannelMessage{Channel: "Frontpage", Message: "hi"})
	require.NoError(t, conn.WriteFrame(context.Background(), sent))
	require.NoError(t, conn.WriteFrame(context.Background(), frame.MustNew("PIN", nil)))

	got, err := conn.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, sent.String(), got.String())

	got, err = conn.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "PIN", got.Opcode)
	assert.False(t, got.HasPayload())
}

func TestWriteAfterClose(t *testing.T) {
	conn, err := Dial(context.Background(), echoServer(t))
	require.NoError(t, err)
	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())

	err = conn.WriteFrame(context.Background(), frame.MustNew("PIN", nil))
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.True(t, IsClosed(err))
}

func TestDialFailure(t *testing.T) {
	_, err := Dial(context.Background(), "ws://127.0.0.1:1")
	assert.Error(t, err)
}
