package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jacobpatterson1549/hide-and-seek/api"
	"github.com/jacobpatterson1549/hide-and-seek/auth"
	"github.com/jacobpatterson1549/hide-and-seek/db"
	"github.com/jacobpatterson1549/hide-and-seek/game"
	"github.com/jacobpatterson1549/hide-and-seek/game/state"
	"github.com/jacobpatterson1549/hide-and-seek/log"
	"github.com/jacobpatterson1549/hide-and-seek/socket"
)

type (
	// Service joins, leaves, and restores games.
	// Failures are shown on the error of the state; the operations report if they succeeded.
	Service struct {
		api   API
		conn  Connection
		state *state.State
		store db.Store
		ServiceConfig
	}

	// ServiceConfig contains fields which describe a Service.
	ServiceConfig struct {
		// Log is used to log errors and other information.
		Log log.Logger
		// WebSocketURL creates the url to connect to the game with the id when restoring the connection.
		WebSocketURL func(gameID string) string
		// TimeFunc supplies the current time, used to check if saved tokens have expired.
		TimeFunc func() time.Time
	}

	// API makes requests to the game server.
	API interface {
		CheckGameExists(ctx context.Context, code string) (*api.CheckGameExistsResponse, error)
		JoinGame(ctx context.Context, code, playerName string) (*api.JoinGameResponse, error)
		CreateGame(ctx context.Context, location game.Location, settings game.Settings, creatorName string) (*api.CreateGameResponse, error)
		GetGame(ctx context.Context, gameID string) (*game.Game, error)
		StartGame(ctx context.Context, gameID string) (*game.Game, error)
	}

	// Connection is the real-time connection to a game.
	Connection interface {
		// Connect opens the connection and starts updating the state.
		Connect(ctx context.Context, url, token string) error
		// SendLeaveGame tells the server the player is leaving.
		SendLeaveGame() error
		// Disconnect closes the connection.
		Disconnect() error
	}
)

var _ API = (*api.Client)(nil)
var _ Connection = (*Dispatcher)(nil)

var (
	errAlreadyInGame = &game.ValidationError{Field: "game", Reason: "already in a game, leave it first"}
	errNotInGame     = &game.ValidationError{Field: "game", Reason: "not in a game"}
	errNoLocation    = &game.ValidationError{Field: "location", Reason: "required"}
)

// NewService creates a Service.
func (cfg ServiceConfig) NewService(a API, conn Connection, st *state.State, store db.Store) (*Service, error) {
	if err := cfg.validate(a, conn, st, store); err != nil {
		return nil, fmt.Errorf("creating session service: validation: %w", err)
	}
	s := Service{
		api:           a,
		conn:          conn,
		state:         st,
		store:         store,
		ServiceConfig: cfg,
	}
	return &s, nil
}

// validate ensures the configuration has no errors.
func (cfg ServiceConfig) validate(a API, conn Connection, st *state.State, store db.Store) error {
	switch {
	case cfg.Log == nil:
		return fmt.Errorf("log required")
	case cfg.WebSocketURL == nil:
		return fmt.Errorf("websocket url func required")
	case cfg.TimeFunc == nil:
		return fmt.Errorf("time func required")
	case a == nil:
		return fmt.Errorf("api required")
	case conn == nil:
		return fmt.Errorf("connection required")
	case st == nil:
		return fmt.Errorf("state required")
	case store == nil:
		return fmt.Errorf("store required")
	}
	return nil
}

// CheckGameExists determines if the game with the code can be joined.
// Invalid codes are rejected without asking the server.
func (s *Service) CheckGameExists(ctx context.Context, code string) bool {
	code = game.NormalizeCode(code)
	if err := game.ValidateCode(code); err != nil {
		s.fail("checking game", err)
		return false
	}
	resp, err := s.api.CheckGameExists(ctx, code)
	if err != nil {
		s.fail("checking game", err)
		return false
	}
	return resp.Exists
}

// JoinGame adds the player to the game with the code and connects to it.
// If joining fails, the state is left as it was before the call.
func (s *Service) JoinGame(ctx context.Context, code, playerName string) bool {
	if err := s.joinGame(ctx, code, playerName); err != nil {
		s.fail("joining game", err)
		return false
	}
	return true
}

func (s *Service) joinGame(ctx context.Context, code, playerName string) error {
	code = game.NormalizeCode(code)
	playerName = game.NormalizePlayerName(playerName)
	if err := game.ValidateCode(code); err != nil {
		return err
	}
	if err := game.ValidatePlayerName(playerName); err != nil {
		return err
	}
	if s.state.Connected() {
		return errAlreadyInGame
	}
	resp, err := s.api.JoinGame(ctx, code, playerName)
	if err != nil {
		return err
	}
	prev := s.state.Snapshot()
	s.state.Clear()
	s.state.UpdateGame(resp.Game)
	s.state.SetCurrentPlayerID(resp.PlayerID)
	if err := s.conn.Connect(ctx, resp.WebsocketURL, resp.Token); err != nil {
		s.state.Restore(prev)
		return err
	}
	c := db.Credentials{
		GameID:    resp.GameID,
		AuthToken: resp.Token,
	}
	if !c.Complete() {
		s.Log.Printf("game %v joined without a token, the connection cannot be restored later", resp.GameID)
	}
	if err := s.store.Save(ctx, c); err != nil {
		if err2 := s.conn.Disconnect(); err2 != nil {
			s.Log.Printf("disconnecting after failing to save credentials: %v", err2)
		}
		s.state.Restore(prev)
		return err
	}
	return nil
}

// CreateGame creates a game in the location and returns its code.
// The creator must join the game with the code to play in it.
func (s *Service) CreateGame(ctx context.Context, location game.Location, settings game.Settings, creatorName string) (string, bool) {
	creatorName = game.NormalizePlayerName(creatorName)
	var err error
	switch {
	case len(location.Name) == 0:
		err = errNoLocation
	default:
		err = game.ValidatePlayerName(creatorName)
	}
	if err != nil {
		s.fail("creating game", err)
		return "", false
	}
	resp, err := s.api.CreateGame(ctx, location, settings, creatorName)
	if err != nil {
		s.fail("creating game", err)
		return "", false
	}
	return resp.GameCode, true
}

// StartGame starts the current game.
func (s *Service) StartGame(ctx context.Context) bool {
	g := s.state.Game()
	if g == nil {
		s.fail("starting game", errNotInGame)
		return false
	}
	g2, err := s.api.StartGame(ctx, g.ID)
	if err != nil {
		s.fail("starting game", err)
		return false
	}
	s.state.UpdateGame(*g2)
	return true
}

// RefreshGame reads the current game from the server.
// After the connection is restored, the game id is read from the saved credentials.
func (s *Service) RefreshGame(ctx context.Context) bool {
	gameID, err := s.currentGameID(ctx)
	if err != nil {
		s.fail("loading game", err)
		return false
	}
	g, err := s.api.GetGame(ctx, gameID)
	if err != nil {
		s.fail("loading game", err)
		return false
	}
	s.state.UpdateGame(*g)
	return true
}

// currentGameID is the id of the game in the state or the saved credentials.
func (s *Service) currentGameID(ctx context.Context) (string, error) {
	if g := s.state.Game(); g != nil {
		return g.ID, nil
	}
	c, err := s.store.Load(ctx)
	switch {
	case err != nil:
		return "", err
	case c == nil:
		return "", errNotInGame
	}
	return c.GameID, nil
}

// LeaveGame tells the server the player is leaving, disconnects, and forgets the game.
// Every step is attempted even if earlier ones fail.
func (s *Service) LeaveGame(ctx context.Context) {
	var errs []error
	if err := s.conn.SendLeaveGame(); err != nil && !errors.Is(err, socket.ErrNotConnected) {
		errs = append(errs, err)
	}
	if err := s.conn.Disconnect(); err != nil {
		errs = append(errs, err)
	}
	s.state.Clear()
	if err := s.store.Clear(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		s.fail("leaving game", err)
	}
}

// RestoreConnection reconnects to the game of the saved credentials.
// False is returned without connecting if there are no credentials, they cannot be read, or the token has expired.
// Credentials that cannot be used to connect are cleared.
// The state is cleared before connecting and filled in by messages from the server.
func (s *Service) RestoreConnection(ctx context.Context) bool {
	c, err := s.store.Load(ctx)
	switch {
	case err != nil:
		s.Log.Printf("discarding unreadable credentials: %v", err)
		s.clearCredentials(ctx)
		return false
	case c == nil:
		return false
	case auth.Expired(c.AuthToken, s.TimeFunc()):
		s.Log.Printf("saved token for game %v expired", c.GameID)
		s.clearCredentials(ctx)
		return false
	}
	prev := s.state.Snapshot()
	s.state.Clear()
	if prev.Game != nil && prev.Game.ID == c.GameID {
		s.state.SetCurrentPlayerID(prev.CurrentPlayerID)
	}
	url := s.WebSocketURL(c.GameID)
	if err := s.conn.Connect(ctx, url, c.AuthToken); err != nil {
		s.clearCredentials(ctx)
		s.fail("restoring connection", err)
		return false
	}
	return true
}

// ClearError clears the error, usually after it has been shown.
func (s *Service) ClearError() {
	s.state.ClearError()
}

// clearCredentials removes saved credentials that cannot be used.
func (s *Service) clearCredentials(ctx context.Context) {
	if err := s.store.Clear(ctx); err != nil {
		s.Log.Printf("clearing stale credentials: %v", err)
	}
}

// fail logs the error and shows it.
func (s *Service) fail(action string, err error) {
	s.Log.Printf("%v: %v", action, err)
	s.state.SetError(errorMessage(action, err))
}
