package api

import (
	"context"
	"net/url"

	"github.com/jacobpatterson1549/hide-and-seek/game"
)

type (
	// CheckGameExistsResponse tells if a game with a code can be joined.
	CheckGameExistsResponse struct {
		Exists bool   `json:"exists"`
		GameID string `json:"game_id,omitempty"`
	}

	// JoinGameRequest is sent to join a game by its code.
	JoinGameRequest struct {
		GameCode   string `json:"game_code"`
		PlayerName string `json:"player_name"`
	}

	// JoinGameResponse contains the credentials of the player who joined the game.
	JoinGameResponse struct {
		GameID       string    `json:"game_id"`
		PlayerID     string    `json:"player_id"`
		WebsocketURL string    `json:"websocket_url"`
		Token        string    `json:"token,omitempty"`
		Game         game.Game `json:"game"`
	}

	// CreateGameRequest is sent to create a game.
	CreateGameRequest struct {
		Location game.Location `json:"location"`
		Settings game.Settings `json:"settings"`
		Creator  Creator       `json:"creator"`
	}

	// Creator is the player who creates a game.
	Creator struct {
		Name string `json:"name"`
	}

	// CreateGameResponse identifies the game that was created.
	CreateGameResponse struct {
		GameID       string `json:"game_id"`
		GameCode     string `json:"game_code"`
		WebsocketURL string `json:"websocket_url"`
	}
)

// CheckGameExists asks the server if the game with the code exists.
func (c *Client) CheckGameExists(ctx context.Context, code string) (*CheckGameExistsResponse, error) {
	var resp CheckGameExistsResponse
	path := "/api/games/check/" + url.PathEscape(code)
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JoinGame adds a player with the name to the game with the code.
func (c *Client) JoinGame(ctx context.Context, code, playerName string) (*JoinGameResponse, error) {
	req := JoinGameRequest{
		GameCode:   code,
		PlayerName: playerName,
	}
	var resp JoinGameResponse
	if err := c.post(ctx, "/api/games/join", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateGame creates a game in the location.  The creator must join the game with its code.
func (c *Client) CreateGame(ctx context.Context, location game.Location, settings game.Settings, creatorName string) (*CreateGameResponse, error) {
	req := CreateGameRequest{
		Location: location,
		Settings: settings,
		Creator: Creator{
			Name: creatorName,
		},
	}
	var resp CreateGameResponse
	if err := c.post(ctx, "/api/games", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetGame fetches the current game.
func (c *Client) GetGame(ctx context.Context, gameID string) (*game.Game, error) {
	var g game.Game
	path := "/api/games/" + url.PathEscape(gameID)
	if err := c.get(ctx, path, nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// StartGame starts the game, returning it in its active state.
func (c *Client) StartGame(ctx context.Context, gameID string) (*game.Game, error) {
	var g game.Game
	path := "/api/games/" + url.PathEscape(gameID) + "/start"
	if err := c.post(ctx, path, nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}
