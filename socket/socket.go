// Package socket handles communication with the game server using a websocket connection.
package socket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/jacobpatterson1549/hide-and-seek/game/message"
	"github.com/jacobpatterson1549/hide-and-seek/log"
)

type (
	// Socket reads and writes text messages to the game server.
	// It is Disconnected, then Connecting, then Connected, then Disconnected again.
	// It does not reconnect by itself.
	Socket struct {
		// mu guards the status and the current connection.
		mu     sync.Mutex
		status Status
		conn   Conn
		// attempt increases for each connection attempt and when an attempt is abandoned.
		attempt uint64
		// stop is closed when the current connection is disconnected on purpose.
		stop chan struct{}
		// done is closed when the current connection stops reading.
		done chan struct{}
		// writeMu ensures only one message is written at a time.
		writeMu sync.Mutex
		hub     *hub
		Config
	}

	// Config contains fields which describe a Socket.
	Config struct {
		// Log is used to log errors and other information.
		Log log.Logger
		// Dialer opens connections.
		Dialer Dialer
		// WriteWait is the amount of time that the socket can take to write a message.
		WriteWait time.Duration
		// Debug is a flag that causes the socket to log the types of messages that are read or written.
		Debug bool
	}

	// Conn is the connection that backs the socket.
	Conn interface {
		// ReadText reads the next text message from the connection.
		ReadText() (string, error)
		// WriteText writes a text message to the connection.
		WriteText(text string) error
		// WriteClose writes a close message on the connection.  The connection is NOT closed.
		WriteClose(reason string) error
		// SetWriteDeadline sets the time that the next write must finish by.
		SetWriteDeadline(t time.Time) error
		// Close closes the connection.
		Close() error
		// IsNormalClose determines if the error is from the connection being closed normally.
		IsNormalClose(err error) bool
	}

	// Dialer opens connections to websocket servers.
	Dialer interface {
		// Dial connects to the url, sending the header in the handshake request.
		Dial(ctx context.Context, url string, header http.Header) (Conn, error)
	}

	// Status is the lifecycle state of a Socket.
	Status int
)

const (
	// Disconnected sockets have no connection.
	Disconnected Status = iota
	// Connecting sockets are opening a connection.
	Connecting
	// Connected sockets are reading messages.
	Connected
)

// ErrNotConnected is returned when sending a message on a socket that is not connected.
var ErrNotConnected = errors.New("socket not connected")

var errDisconnectedWhileConnecting = errors.New("disconnected while connecting")

// closedChan is returned by Done when there has never been a connection.
var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// NewSocket creates a disconnected socket.
func (cfg Config) NewSocket() (*Socket, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("creating socket: validation: %w", err)
	}
	s := Socket{
		hub:    newHub(),
		Config: cfg,
	}
	return &s, nil
}

// validate ensures the configuration has no errors.
func (cfg Config) validate() error {
	switch {
	case cfg.Log == nil:
		return fmt.Errorf("log required")
	case cfg.Dialer == nil:
		return fmt.Errorf("dialer required")
	case cfg.WriteWait <= 0:
		return fmt.Errorf("positive write wait period required")
	}
	return nil
}

// String returns the name of the status.
func (s Status) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Status returns the lifecycle state of the socket.
func (s *Socket) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Subscribe returns a channel that receives every text message read after the call until the context is done.
// Messages read before subscribing are not received.  The channel is closed after the context is done.
// Subscribers must keep reading the channel: the socket waits for each subscriber to take a message before reading the next one.
func (s *Socket) Subscribe(ctx context.Context) <-chan string {
	return s.hub.subscribe(ctx)
}

// Done returns a channel that is closed when the current connection stops.
// If the socket is not connected, the channel is already closed.
func (s *Socket) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil || s.status == Disconnected {
		return closedChan
	}
	return s.done
}

// Connect opens a connection to the url, authorizing with the token if it is not empty.
// Nothing is done if the socket is already connecting or connected.
func (s *Socket) Connect(ctx context.Context, rawURL, token string) error {
	s.mu.Lock()
	if s.status != Disconnected {
		s.mu.Unlock()
		return nil
	}
	s.status = Connecting
	s.attempt++
	attempt := s.attempt
	s.mu.Unlock()
	conn, err := s.dial(ctx, rawURL, token)
	s.mu.Lock()
	defer s.mu.Unlock()
	abandoned := s.attempt != attempt
	switch {
	case err != nil:
		if !abandoned {
			s.status = Disconnected
		}
		return fmt.Errorf("connecting socket: %w", err)
	case abandoned:
		conn.Close()
		return fmt.Errorf("connecting socket: %w", errDisconnectedWhileConnecting)
	}
	s.conn = conn
	s.status = Connected
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.readMessages(conn, s.stop, s.done)
	return nil
}

// dial opens a connection, adding the token to the url and to the authorization header.
func (s *Socket) dial(ctx context.Context, rawURL, token string) (Conn, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing url: %w", err)
	}
	header := make(http.Header)
	if len(token) != 0 {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
		header.Set("Authorization", "Bearer "+token)
	}
	conn, err := s.Dialer.Dial(ctx, u.String(), header)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Send writes the text message to the connection.
// ErrNotConnected is returned if the socket is not connected.
func (s *Socket) Send(text string) error {
	s.mu.Lock()
	conn := s.conn
	connected := s.status == Connected
	s.mu.Unlock()
	if !connected {
		return ErrNotConnected
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(s.WriteWait)); err != nil {
		return fmt.Errorf("setting write deadline: %w", err)
	}
	if err := conn.WriteText(text); err != nil {
		return fmt.Errorf("writing socket message: %w", err)
	}
	if s.Debug {
		s.Log.Printf("socket wrote %v message", messageType(text))
	}
	return nil
}

// Disconnect closes the connection and waits for it to stop reading.
// Nothing is done if the socket is already disconnected.
func (s *Socket) Disconnect() error {
	s.mu.Lock()
	switch s.status {
	case Disconnected:
		s.mu.Unlock()
		return nil
	case Connecting:
		s.status = Disconnected
		s.attempt++
		s.mu.Unlock()
		return nil
	}
	conn, done := s.conn, s.done
	s.status = Disconnected
	s.conn = nil
	close(s.stop)
	s.mu.Unlock()
	s.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(s.WriteWait))
	if err := conn.WriteClose("disconnecting"); err != nil && s.Debug {
		s.Log.Printf("writing socket close message: %v", err)
	}
	s.writeMu.Unlock()
	err := conn.Close()
	<-done // BLOCKING
	if err != nil {
		return fmt.Errorf("closing socket: %w", err)
	}
	return nil
}

// readMessages publishes each message read from the connection until reading fails.
func (s *Socket) readMessages(conn Conn, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for { // BLOCKING
		text, err := conn.ReadText()
		if err != nil {
			s.connectionLost(conn, stop, err)
			return
		}
		if s.Debug {
			s.Log.Printf("socket read %v message", messageType(text))
		}
		s.hub.publish(text, stop)
	}
}

// connectionLost marks the socket as disconnected if the connection was not disconnected on purpose.
func (s *Socket) connectionLost(conn Conn, stop <-chan struct{}, err error) {
	select {
	case <-stop:
		return
	default:
	}
	s.mu.Lock()
	if s.conn == conn {
		s.status = Disconnected
		s.conn = nil
		close(s.stop)
	}
	s.mu.Unlock()
	conn.Close()
	if !conn.IsNormalClose(err) {
		s.Log.Printf("reading socket messages stopped: %v", err)
	}
}

// messageType is the type of the json text message, used for debugging.
func messageType(text string) message.Type {
	m, err := message.Decode(text)
	if err != nil {
		return "unknown"
	}
	return m.Type
}
