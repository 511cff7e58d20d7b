package server

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jacobpatterson1549/hide-and-seek/game/message"
	"github.com/jacobpatterson1549/hide-and-seek/log"
	"github.com/jacobpatterson1549/hide-and-seek/socket"
)

// playerConn is the socket of a player in a game.
type playerConn struct {
	conn      socket.Conn
	playerID  string
	writeMu   sync.Mutex
	closeOnce sync.Once
	writeWait time.Duration
	debug     bool
	log       log.Logger
}

// unknownMessageCode is the code of the error sent for messages the server does not handle.
const unknownMessageCode = "400"

// handleSocket upgrades the request of a player to a websocket that receives the messages of the game.
// The player is identified by the token in the query or authorization header.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")
	rm, err := s.games.byID(gameID)
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	claims, err := s.tokenizer.Read(requestToken(r))
	if err != nil {
		s.log.Printf("reading socket token: %v", err)
		s.writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	playerID := claims.Subject
	if claims.GameID != gameID || !rm.snapshot().HasPlayer(playerID) {
		s.writeError(w, http.StatusForbidden, errPlayerNotFound.Error())
		return
	}
	conn, err := s.upgrader.Upgrade(w, r)
	if err != nil {
		s.log.Printf("upgrading to websocket: %v", err)
		return
	}
	pc := playerConn{
		conn:      conn,
		playerID:  playerID,
		writeWait: s.WriteWait,
		debug:     s.Debug,
		log:       s.log,
	}
	if err := rm.connect(playerID, &pc); err != nil {
		s.log.Printf("connecting player %v: %v", playerID, err)
		pc.close(err.Error())
		return
	}
	s.wg.Add(1)
	defer s.wg.Done()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-s.ctx.Done():
			pc.close("server shutting down")
		case <-done:
		}
	}()
	pc.readMessages(rm) // BLOCKING
	rm.disconnect(playerID, &pc)
	pc.close("")
}

// requestToken reads the token from the query or the bearer authorization header.
func requestToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); len(token) != 0 {
		return token
	}
	const bearer = "Bearer "
	authorization := r.Header.Get(HeaderAuthorization)
	if strings.HasPrefix(authorization, bearer) {
		return authorization[len(bearer):]
	}
	return ""
}

// readMessages handles messages from the player until the connection closes.
func (pc *playerConn) readMessages(rm *room) {
	for { // BLOCKING
		text, err := pc.conn.ReadText()
		if err != nil {
			if !pc.conn.IsNormalClose(err) {
				pc.log.Printf("reading socket messages stopped for player %v: %v", pc.playerID, err)
			}
			return
		}
		m, err := message.Decode(text)
		if err != nil {
			pc.writeError(err.Error())
			continue
		}
		if pc.debug {
			pc.log.Printf("socket read %v message from player %v", m.Type, pc.playerID)
		}
		switch m.Type {
		case message.Ping:
			pc.writeMessage(message.Pong, nil)
		case message.LeaveGame:
			rm.leave(pc.playerID)
		default:
			pc.writeError(fmt.Sprintf("unknown message type: %v", m.Type))
		}
	}
}

// writeMessage writes the message, logging any error.
func (pc *playerConn) writeMessage(t message.Type, data interface{}) {
	text, err := message.New(t, data)
	if err != nil {
		pc.log.Printf("creating %v message: %v", t, err)
		return
	}
	if err := pc.write(text); err != nil {
		pc.log.Printf("writing %v message to player %v: %v", t, pc.playerID, err)
	}
}

// writeError tells the player a message could not be handled.
func (pc *playerConn) writeError(reason string) {
	data := message.ErrorData{
		Code:    unknownMessageCode,
		Message: reason,
	}
	pc.writeMessage(message.SocketError, data)
}

// write writes the text to the connection, giving up after the write wait.
func (pc *playerConn) write(text string) error {
	pc.writeMu.Lock()
	defer pc.writeMu.Unlock()
	if err := pc.conn.SetWriteDeadline(time.Now().Add(pc.writeWait)); err != nil {
		return fmt.Errorf("setting write deadline: %w", err)
	}
	if err := pc.conn.WriteText(text); err != nil {
		return err
	}
	if pc.debug {
		pc.log.Printf("socket wrote %v to player %v", text, pc.playerID)
	}
	return nil
}

// close writes a close message with the reason, if any, and closes the connection.
func (pc *playerConn) close(reason string) {
	pc.closeOnce.Do(func() {
		pc.writeMu.Lock()
		defer pc.writeMu.Unlock()
		if len(reason) != 0 {
			pc.conn.SetWriteDeadline(time.Now().Add(pc.writeWait))
			pc.conn.WriteClose(reason)
		}
		pc.conn.Close()
	})
}
