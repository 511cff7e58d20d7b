package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jacobpatterson1549/hide-and-seek/api"
	"github.com/jacobpatterson1549/hide-and-seek/game"
)

// maxBodyBytes limits the size of request bodies.
const maxBodyBytes = 1 << 16

// handleCheckGame tells if a game with the code exists.
func (s *Server) handleCheckGame(w http.ResponseWriter, r *http.Request) {
	code := game.NormalizeCode(chi.URLParam(r, "code"))
	var resp api.CheckGameExistsResponse
	if rm, err := s.games.byCode(code); err == nil {
		resp.Exists = true
		resp.GameID = rm.snapshot().ID
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleCreateGame creates a game that players can join with its code.
// The creator is not added to the game; the first player to join is the creator.
func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req api.CreateGameRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	creatorName := game.NormalizePlayerName(req.Creator.Name)
	if err := game.ValidatePlayerName(creatorName); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Location.Name) == 0 {
		s.writeError(w, http.StatusBadRequest, "location name required")
		return
	}
	g := game.Game{
		ID:        uuid.NewString(),
		Status:    game.Waiting,
		Players:   []game.Player{},
		Location:  req.Location,
		Settings:  req.Settings,
		CreatedAt: s.now(),
	}
	rm, err := s.games.add(g, s.log)
	if err != nil {
		s.log.Printf("creating game: %v", err)
		s.writeError(w, http.StatusInternalServerError, "could not create game")
		return
	}
	g = rm.snapshot()
	s.log.Printf("%v created game %v with code %v", creatorName, g.ID, g.Code)
	resp := api.CreateGameResponse{
		GameID:       g.ID,
		GameCode:     g.Code,
		WebsocketURL: websocketURL(r, g.ID),
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

// handleJoinGame adds a player to the game with the code.
func (s *Server) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	var req api.JoinGameRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	code := game.NormalizeCode(req.GameCode)
	name := game.NormalizePlayerName(req.PlayerName)
	if err := game.ValidateCode(code); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := game.ValidatePlayerName(name); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rm, err := s.games.byCode(code)
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	p := game.Player{
		ID:   uuid.NewString(),
		Name: name,
	}
	g, err := rm.join(p)
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	token, err := s.tokenizer.Create(g.ID, p.ID)
	if err != nil {
		s.log.Printf("creating token: %v", err)
		s.writeError(w, http.StatusInternalServerError, "could not create token")
		return
	}
	resp := api.JoinGameResponse{
		GameID:       g.ID,
		PlayerID:     p.ID,
		WebsocketURL: websocketURL(r, g.ID),
		Token:        token,
		Game:         *g,
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleGetGame writes the game with the id.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	rm, err := s.games.byID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rm.snapshot())
}

// handleStartGame makes the game with the id active.
func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	rm, err := s.games.byID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	g, err := rm.start(s.now())
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, g)
}

// readJSON decodes the body of the request, writing a bad request error if it cannot.
func (s *Server) readJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json body: "+err.Error())
		return false
	}
	return true
}

// writeGameError writes the status code of the game error.
func (s *Server) writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errGameNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errGameStarted):
		s.writeError(w, http.StatusConflict, err.Error())
	default:
		s.log.Printf("game error: %v", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// websocketURL is the url of the socket of the game, on the host of the request.
func websocketURL(r *http.Request, gameID string) string {
	u := url.URL{
		Scheme: "ws",
		Host:   r.Host,
		Path:   "/api/games/" + gameID + "/ws",
	}
	if r.TLS != nil {
		u.Scheme = "wss"
	}
	return u.String()
}
