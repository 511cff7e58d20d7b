// Package session joins, leaves, and restores game sessions, keeping the shared game state up to date with messages from the server.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jacobpatterson1549/hide-and-seek/game/message"
	"github.com/jacobpatterson1549/hide-and-seek/game/state"
	"github.com/jacobpatterson1549/hide-and-seek/log"
	"github.com/jacobpatterson1549/hide-and-seek/socket"
)

type (
	// Dispatcher applies messages read from the socket to the state and keeps the connection alive.
	Dispatcher struct {
		socket Socket
		state  *state.State
		// mu ensures only one connection is run at a time.
		mu         sync.Mutex
		cancelFunc context.CancelFunc
		wg         sync.WaitGroup
		DispatcherConfig
	}

	// DispatcherConfig contains fields which describe a Dispatcher.
	DispatcherConfig struct {
		// Log is used to log errors and other information.
		Log log.Logger
		// PingPeriod is how often ping messages are sent while connected.
		PingPeriod time.Duration
	}

	// Socket is the connection to the game server.
	Socket interface {
		// Connect opens a connection to the url.
		Connect(ctx context.Context, url, token string) error
		// Send writes a text message.
		Send(text string) error
		// Disconnect closes the connection.
		Disconnect() error
		// Subscribe streams text messages that are read.
		Subscribe(ctx context.Context) <-chan string
		// Done is closed when the current connection stops.
		Done() <-chan struct{}
	}
)

var _ Socket = (*socket.Socket)(nil)

// NewDispatcher creates a Dispatcher that updates the state with messages from the socket.
func (cfg DispatcherConfig) NewDispatcher(s Socket, st *state.State) (*Dispatcher, error) {
	if err := cfg.validate(s, st); err != nil {
		return nil, fmt.Errorf("creating dispatcher: validation: %w", err)
	}
	d := Dispatcher{
		socket:           s,
		state:            st,
		DispatcherConfig: cfg,
	}
	return &d, nil
}

// validate ensures the configuration has no errors.
func (cfg DispatcherConfig) validate(s Socket, st *state.State) error {
	switch {
	case cfg.Log == nil:
		return fmt.Errorf("log required")
	case s == nil:
		return fmt.Errorf("socket required")
	case st == nil:
		return fmt.Errorf("state required")
	case cfg.PingPeriod <= 0:
		return fmt.Errorf("positive ping period required")
	}
	return nil
}

// Connect opens the socket and starts handling its messages.
// The connection keeps running after the context is done; call Disconnect to stop it.
func (d *Dispatcher) Connect(ctx context.Context, url, token string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stop()
	runCtx, cancelFunc := context.WithCancel(context.Background())
	messages := d.socket.Subscribe(runCtx) // subscribe first so no messages are missed
	if err := d.socket.Connect(ctx, url, token); err != nil {
		cancelFunc()
		d.state.SetConnected(false)
		return fmt.Errorf("connecting to game: %w", err)
	}
	done := d.socket.Done()
	d.cancelFunc = cancelFunc
	d.state.SetConnected(true)
	d.wg.Add(1)
	go d.run(runCtx, messages, done)
	return nil
}

// SendLeaveGame tells the server the player is leaving the game.
func (d *Dispatcher) SendLeaveGame() error {
	return d.send(message.LeaveGame)
}

// Disconnect stops handling messages and closes the socket.
// No messages change the state after Disconnect returns.
func (d *Dispatcher) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stop()
	err := d.socket.Disconnect()
	d.state.SetConnected(false)
	if err != nil {
		return fmt.Errorf("disconnecting from game: %w", err)
	}
	return nil
}

// stop cancels the running connection and waits for it to finish.  The caller must hold the lock.
func (d *Dispatcher) stop() {
	if d.cancelFunc != nil {
		d.cancelFunc()
		d.cancelFunc = nil
	}
	d.wg.Wait()
}

// run handles messages in the order they are read and sends pings until the context or connection is done.
func (d *Dispatcher) run(ctx context.Context, messages <-chan string, done <-chan struct{}) {
	defer d.wg.Done()
	pingTicker := time.NewTicker(d.PingPeriod)
	defer pingTicker.Stop()
	for { // BLOCKING
		select {
		case <-ctx.Done():
			return
		case text, ok := <-messages:
			if !ok {
				return
			}
			d.handle(text)
		case <-pingTicker.C:
			d.ping()
		case <-done:
			d.drain(messages)
			d.connectionLost(ctx)
			return
		}
	}
}

// drain handles messages that were read before the connection stopped.
func (d *Dispatcher) drain(messages <-chan string) {
	for {
		select {
		case text, ok := <-messages:
			if !ok {
				return
			}
			d.handle(text)
		default:
			return
		}
	}
}

// connectionLost shows that the connection stopped, unless it was stopped on purpose.
func (d *Dispatcher) connectionLost(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	default:
	}
	d.Log.Printf("game connection lost")
	d.state.SetConnected(false)
	d.state.SetError(lostConnectionMessage)
}

// ping sends a keep-alive message.  Failures are logged and otherwise ignored.
func (d *Dispatcher) ping() {
	if err := d.send(message.Ping); err != nil {
		d.Log.Printf("sending ping: %v", err)
	}
}

// send writes a message with empty data.
func (d *Dispatcher) send(t message.Type) error {
	text, err := message.New(t, nil)
	if err != nil {
		return err
	}
	return d.socket.Send(text)
}

// handle applies the message to the state.  Messages that cannot be handled set the error.
func (d *Dispatcher) handle(text string) {
	if err := d.apply(text); err != nil {
		var pe *ProtocolError
		var msg string
		switch {
		case errors.As(err, &pe):
			msg = pe.Error()
		default:
			msg = errorMessage("processing message", err)
		}
		d.Log.Printf("handling message: %v", err)
		d.state.SetError(msg)
	}
}

// apply routes the message by its type.
func (d *Dispatcher) apply(text string) error {
	m, err := message.Decode(text)
	if err != nil {
		return err
	}
	switch m.Type {
	case message.PlayerJoined:
		p, err := m.JoinedPlayer()
		if err != nil {
			return err
		}
		d.state.AddPlayer(*p)
	case message.PlayerLeft:
		playerID, err := m.LeftPlayerID()
		if err != nil {
			return err
		}
		d.state.RemovePlayer(playerID)
	case message.GameStarted:
		startedAt, err := m.StartedAt()
		if err != nil {
			return err
		}
		if !d.state.MarkStarted(startedAt) {
			d.Log.Printf("ignoring %v message: not in a game", m.Type)
		}
	case message.GameUpdated:
		g, err := m.UpdatedGame()
		if err != nil {
			return err
		}
		d.state.UpdateGame(*g)
	case message.SocketError:
		ed, err := m.ServerError()
		if err != nil {
			return err
		}
		return &ProtocolError{
			Type:    m.Type,
			Code:    ed.Code,
			Message: ed.Message,
		}
	case message.Pong:
		// NOOP
	default:
		return &ProtocolError{
			Type: m.Type,
		}
	}
	return nil
}
