package server

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jacobpatterson1549/hide-and-seek/game"
	"github.com/jacobpatterson1549/hide-and-seek/game/message"
	"github.com/jacobpatterson1549/hide-and-seek/log"
)

type (
	// registry finds games by their id or code.
	registry struct {
		mu    sync.Mutex
		rooms map[string]*room
		// codes maps game codes to game ids.
		codes map[string]string
	}

	// room is a game and the sockets of the players in it.
	room struct {
		mu    sync.Mutex
		game  game.Game
		conns map[string]*playerConn
		log   log.Logger
	}
)

const maxCodeAttempts = 10

var (
	errGameNotFound   = errors.New("game not found")
	errGameStarted    = errors.New("game already started")
	errPlayerNotFound = errors.New("player not in game")
)

func newRegistry() *registry {
	r := registry{
		rooms: make(map[string]*room),
		codes: make(map[string]string),
	}
	return &r
}

// add stores the game under a new, unique code.  The code of the game is set.
func (r *registry) add(g game.Game, log log.Logger) (*room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := game.GenerateCode()
		if err != nil {
			return nil, err
		}
		if _, ok := r.codes[code]; ok {
			log.Printf("collision on game code %v, regenerating", code)
			continue
		}
		g.Code = code
		rm := room{
			game:  g,
			conns: make(map[string]*playerConn),
			log:   log,
		}
		r.rooms[g.ID] = &rm
		r.codes[code] = g.ID
		return &rm, nil
	}
	return nil, fmt.Errorf("no unused game code after %v attempts", maxCodeAttempts)
}

// byID finds the room of the game with the id.
func (r *registry) byID(id string) (*room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.rooms[id]
	if !ok {
		return nil, errGameNotFound
	}
	return rm, nil
}

// byCode finds the room of the game with the code.
func (r *registry) byCode(code string) (*room, error) {
	r.mu.Lock()
	id, ok := r.codes[code]
	r.mu.Unlock()
	if !ok {
		return nil, errGameNotFound
	}
	return r.byID(id)
}

// snapshot copies the game.
func (rm *room) snapshot() game.Game {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.game.Clone()
}

// join adds a player to the game that is waiting to start.  The first player to join is the creator.
func (rm *room) join(p game.Player) (*game.Game, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.game.Status != game.Waiting {
		return nil, errGameStarted
	}
	p.IsCreator = len(rm.game.Players) == 0
	rm.game.Players = append(rm.game.Players, p)
	rm.broadcast(message.PlayerJoined, message.PlayerJoinedData{Player: &p}, p.ID)
	g := rm.game.Clone()
	return &g, nil
}

// start changes the game to active.
func (rm *room) start(startedAt string) (*game.Game, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.game.Status != game.Waiting {
		return nil, errGameStarted
	}
	rm.game = rm.game.Started(startedAt)
	rm.broadcast(message.GameStarted, message.GameStartedData{StartedAt: startedAt}, "")
	g := rm.game.Clone()
	return &g, nil
}

// leave removes the player from the game, telling the other players.
func (rm *room) leave(playerID string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	players := rm.game.Players[:0:0]
	for _, p := range rm.game.Players {
		if p.ID != playerID {
			players = append(players, p)
		}
	}
	rm.game.Players = players
	delete(rm.conns, playerID)
	rm.broadcast(message.PlayerLeft, message.PlayerLeftData{PlayerID: playerID}, playerID)
}

// connect adds the socket of the player, replacing any previous socket, and sends the game to it.
func (rm *room) connect(playerID string, pc *playerConn) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if !rm.game.HasPlayer(playerID) {
		return errPlayerNotFound
	}
	if old, ok := rm.conns[playerID]; ok {
		old.close("connected elsewhere")
	}
	rm.conns[playerID] = pc
	g := rm.game.Clone()
	text, err := message.New(message.GameUpdated, message.GameUpdatedData{Game: &g})
	if err != nil {
		return err
	}
	return pc.write(text)
}

// disconnect removes the socket of the player if it has not been replaced.
func (rm *room) disconnect(playerID string, pc *playerConn) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.conns[playerID] == pc {
		delete(rm.conns, playerID)
	}
}

// broadcast sends the message to the sockets of the players other than the excluded player.
// Only called while holding the lock.
func (rm *room) broadcast(t message.Type, data interface{}, excludedPlayerID string) {
	text, err := message.New(t, data)
	if err != nil {
		rm.log.Printf("creating %v message: %v", t, err)
		return
	}
	for id, pc := range rm.conns {
		if id == excludedPlayerID {
			continue
		}
		if err := pc.write(text); err != nil {
			rm.log.Printf("sending %v message to player %v: %v", t, id, err)
		}
	}
}

// counts returns the number of games and connected sockets.
func (r *registry) counts() (games, sockets int) {
	r.mu.Lock()
	rooms := make([]*room, 0, len(r.rooms))
	for _, rm := range r.rooms {
		rooms = append(rooms, rm)
	}
	r.mu.Unlock()
	for _, rm := range rooms {
		rm.mu.Lock()
		sockets += len(rm.conns)
		rm.mu.Unlock()
	}
	return len(rooms), sockets
}
