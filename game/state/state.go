// Package state holds the observable state of the game the player is in.
package state

import (
	"context"
	"sync"

	"github.com/jacobpatterson1549/hide-and-seek/game"
)

type (
	// State is the shared state of the current game session.
	// There should be one State for the running application; it is shared by the session service and the screens that display it.
	// Readers may observe fields mid-update, but writes are serialized.
	State struct {
		// mu serializes writers so multi-field changes are applied as one step.
		mu              sync.Mutex
		game            *Value[*game.Game]
		players         *Value[[]game.Player]
		currentPlayerID *Value[string]
		err             *Value[string]
		connected       *Value[bool]
	}

	// Snapshot is a copy of every field of the State.
	Snapshot struct {
		// Game is nil when not in a game.
		Game *game.Game
		// Players is never nil.
		Players []game.Player
		// CurrentPlayerID is empty when unknown.
		CurrentPlayerID string
		// Error is empty when there is no error to show.
		Error string
		// Connected is true when the game socket is connected.
		Connected bool
	}
)

// New creates an empty State.
func New() *State {
	s := State{
		game:            NewValue[*game.Game](nil),
		players:         NewValue([]game.Player{}),
		currentPlayerID: NewValue(""),
		err:             NewValue(""),
		connected:       NewValue(false),
	}
	return &s
}

// Game returns the current game, or nil if there is none.  The game must not be modified.
func (s *State) Game() *game.Game {
	return s.game.Get()
}

// Players returns a copy of the players in the game.
func (s *State) Players() []game.Player {
	return append([]game.Player{}, s.players.Get()...)
}

// CurrentPlayerID returns the id of the player using this application, if known.
func (s *State) CurrentPlayerID() string {
	return s.currentPlayerID.Get()
}

// Err returns the error message to show the player, if any.
func (s *State) Err() string {
	return s.err.Get()
}

// Connected determines if the game socket is connected.
func (s *State) Connected() bool {
	return s.connected.Get()
}

// Snapshot copies all fields of the state after any in-progress write completes.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Game:            s.game.Get(),
		Players:         s.Players(),
		CurrentPlayerID: s.currentPlayerID.Get(),
		Error:           s.err.Get(),
		Connected:       s.connected.Get(),
	}
}

// SubscribeGame streams the current game and its replacements.  The games must not be modified.
func (s *State) SubscribeGame(ctx context.Context) <-chan *game.Game {
	return s.game.Subscribe(ctx)
}

// SubscribePlayers streams the player list.  The lists must not be modified.
func (s *State) SubscribePlayers(ctx context.Context) <-chan []game.Player {
	return s.players.Subscribe(ctx)
}

// SubscribeCurrentPlayerID streams the id of the player using this application.
func (s *State) SubscribeCurrentPlayerID(ctx context.Context) <-chan string {
	return s.currentPlayerID.Subscribe(ctx)
}

// SubscribeError streams error messages, with empty messages when the error is cleared.
func (s *State) SubscribeError(ctx context.Context) <-chan string {
	return s.err.Subscribe(ctx)
}

// SubscribeConnected streams the connection status of the game socket.
func (s *State) SubscribeConnected(ctx context.Context) <-chan bool {
	return s.connected.Subscribe(ctx)
}

// UpdateGame replaces the game and resets the players to the players of the game.
func (s *State) UpdateGame(g game.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateGame(g)
}

// updateGame replaces the game and players.  The caller must hold the lock.
func (s *State) updateGame(g game.Game) {
	g2 := g.Clone()
	players := append([]game.Player{}, g2.Players...)
	s.game.Set(&g2)
	s.players.Set(players)
}

// MarkStarted changes the status of the current game to active, keeping the current player list.
// Returns false if there is no current game.
func (s *State) MarkStarted(startedAt string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.game.Get()
	if g == nil {
		return false
	}
	g2 := g.Started(startedAt)
	g2.Players = s.players.Get()
	s.updateGame(g2)
	return true
}

// AddPlayer adds the player to the end of the player list if no player with the same id is in it.
func (s *State) AddPlayer(p game.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players.Update(func(players []game.Player) []game.Player {
		for _, p2 := range players {
			if p2.ID == p.ID {
				return players
			}
		}
		players2 := make([]game.Player, len(players), len(players)+1)
		copy(players2, players)
		return append(players2, p)
	})
}

// RemovePlayer removes the player with the id from the player list.
func (s *State) RemovePlayer(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players.Update(func(players []game.Player) []game.Player {
		players2 := make([]game.Player, 0, len(players))
		for _, p := range players {
			if p.ID != id {
				players2 = append(players2, p)
			}
		}
		return players2
	})
}

// SetCurrentPlayerID sets the id of the player using this application.
func (s *State) SetCurrentPlayerID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentPlayerID.Set(id)
}

// SetError sets the error message to show.  An empty message clears the error.
func (s *State) SetError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err.Set(message)
}

// ClearError clears the error message, usually after it has been shown.
func (s *State) ClearError() {
	s.SetError("")
}

// SetConnected sets the connection status of the game socket.
func (s *State) SetConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected.Set(connected)
}

// Clear resets every field to its empty value.
func (s *State) Clear() {
	s.Restore(Snapshot{})
}

// Restore sets every field to the values in the snapshot.
func (s *State) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var g *game.Game
	if snap.Game != nil {
		g2 := snap.Game.Clone()
		g = &g2
	}
	s.game.Set(g)
	s.players.Set(append([]game.Player{}, snap.Players...))
	s.currentPlayerID.Set(snap.CurrentPlayerID)
	s.err.Set(snap.Error)
	s.connected.Set(snap.Connected)
}
