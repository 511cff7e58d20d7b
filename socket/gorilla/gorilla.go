// Package gorilla adapts gorilla/websocket to the connections of the socket package.
package gorilla

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jacobpatterson1549/hide-and-seek/socket"
)

type (
	// Dialer implements the socket.Dialer interface by wrapping a gorilla/websocket Dialer.
	Dialer struct {
		*websocket.Dialer
	}

	// Upgrader creates server connections by wrapping a gorilla/websocket Upgrader.
	Upgrader struct {
		*websocket.Upgrader
	}

	// Conn implements the socket.Conn interface by wrapping a gorilla/websocket Conn.
	Conn struct {
		*websocket.Conn
	}
)

var _ socket.Dialer = Dialer{}
var _ socket.Conn = (*Conn)(nil)

// NewDialer creates a dialer that gives up on handshakes that take longer than the timeout.
func NewDialer(handshakeTimeout time.Duration) Dialer {
	d := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}
	return Dialer{&d}
}

// Dial opens a client connection to the url.
func (d Dialer) Dial(ctx context.Context, url string, header http.Header) (socket.Conn, error) {
	c, resp, err := d.Dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dialing websocket: %w (status %v)", err, resp.Status)
		}
		return nil, fmt.Errorf("dialing websocket: %w", err)
	}
	return &Conn{c}, nil
}

// NewUpgrader creates an Upgrader for the development server.
// Players connect from native applications, which send no Origin header, so the default origin check is kept.
func NewUpgrader() *Upgrader {
	u := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	return &Upgrader{&u}
}

// Upgrade switches the http request to a websocket connection, writing an error response if it cannot.
func (u *Upgrader) Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	c, err := u.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("upgrading to websocket: %w", err)
	}
	return &Conn{c}, nil
}

// ReadText reads the next text message from the connection, skipping binary messages.
func (c *Conn) ReadText() (string, error) {
	for {
		messageType, p, err := c.Conn.ReadMessage()
		if err != nil {
			return "", err
		}
		if messageType == websocket.TextMessage {
			return string(p), nil
		}
	}
}

// WriteText writes a text message to the connection.
func (c *Conn) WriteText(text string) error {
	return c.Conn.WriteMessage(websocket.TextMessage, []byte(text))
}

// WriteClose sends a normal closure frame with the reason.  The connection stays open until Close is called.
func (c *Conn) WriteClose(reason string) error {
	frame := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	return c.Conn.WriteMessage(websocket.CloseMessage, frame)
}

// IsNormalClose reports if the error is a close frame that ended the connection on purpose.
func (*Conn) IsNormalClose(err error) bool {
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) {
		return false
	}
	switch closeErr.Code {
	case websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived:
		return true
	}
	return false
}
