// Package transport carries fchat frames over a websocket, one frame per
// text message.
package transport

import (
	"cogito/fchat/frame"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 15 * time.Second
	writeTimeout     = 10 * time.Second
	maxFrameBytes    = 1 << 20
)

var ErrNotConnected = errors.New("not connected")

// Conn is a frame connection to the chat server
type Conn interface {
	ReadFrame() (frame.Frame, error)
	WriteFrame(ctx context.Context, f frame.Frame) error
	Close() error
}

// Websocket is a Conn over gorilla/websocket. Reads happen on one goroutine;
// writes may come from any.
type Websocket struct {
	conn   *websocket.Conn
	mutex  sync.Mutex
	closed bool
}

// Dial opens a websocket to url
func Dial(ctx context.Context, url string) (*Websocket, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	conn.SetReadLimit(maxFrameBytes)
	return &Websocket{conn: conn}, nil
}

// ReadFrame blocks for the next frame. Malformed frames are returned with an
// error wrapping frame.ErrMalformedFrame and the connection stays usable.
func (w *Websocket) ReadFrame() (frame.Frame, error) {
	messageType, data, err := w.conn.ReadMessage()
	if err != nil {
		return frame.Frame{}, err
	}
	if messageType != websocket.TextMessage {
		return frame.Frame{}, fmt.Errorf("%w: unexpected message type %d", frame.ErrMalformedFrame, messageType)
	}
	return frame.Decode(string(data))
}

func (w *Websocket) WriteFrame(ctx context.Context, f frame.Frame) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.closed {
		return ErrNotConnected
	}

	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := w.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return w.conn.WriteMessage(websocket.TextMessage, []byte(f.String()))
}

// Close sends a close message and releases the connection. It is safe to
// call more than once.
func (w *Websocket) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = w.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
	return w.conn.Close()
}

// IsClosed reports whether err is the normal end of a connection
func IsClosed(err error) bool {
	return errors.Is(err, ErrNotConnected) ||
		websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
