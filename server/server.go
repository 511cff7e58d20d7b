// Package server runs an in-memory game server that players can develop and test against.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jacobpatterson1549/hide-and-seek/auth"
	"github.com/jacobpatterson1549/hide-and-seek/log"
	"github.com/jacobpatterson1549/hide-and-seek/socket/gorilla"
)

type (
	// Server handles http requests for games and the websockets of players in them.
	// Games are lost when the server stops.
	Server struct {
		wg         sync.WaitGroup
		log        log.Logger
		tokenizer  Tokenizer
		upgrader   *gorilla.Upgrader
		games      *registry
		places     []Place
		httpServer *http.Server
		// ctx is cancelled when the server stops, closing the sockets of players.
		ctx        context.Context
		cancelFunc context.CancelFunc
		Config
	}

	// Config contains fields which describe the server.
	Config struct {
		// Addr is the TCP address the server listens on, such as ":4000".
		Addr string
		// StopDur is the amount of time the server waits for requests to finish when stopping.
		StopDur time.Duration
		// WriteWait is the amount of time that a message can take to be written to a player.
		WriteWait time.Duration
		// Debug is a flag that causes the server to log the types of messages that are read or written.
		Debug bool
		// TimeFunc supplies the current time, used to timestamp games.
		TimeFunc func() time.Time
		// Places are the locations that can be searched for.  DefaultPlaces are used if nil.
		Places []Place
	}

	// Tokenizer creates and reads the tokens players use to connect to their game.
	Tokenizer interface {
		Create(gameID, playerID string) (string, error)
		Read(tokenString string) (*auth.Claims, error)
	}
)

const (
	// HeaderContentType is used to set the document type header on http responses.
	HeaderContentType = "Content-Type"
	// HeaderAuthorization carries the bearer token of a player.
	HeaderAuthorization = "Authorization"
)

var _ Tokenizer = (*auth.Tokenizer)(nil)

// NewServer creates a Server from the Config.
func (cfg Config) NewServer(log log.Logger, tokenizer Tokenizer) (*Server, error) {
	if err := cfg.validate(log, tokenizer); err != nil {
		return nil, fmt.Errorf("creating server: validation: %w", err)
	}
	places := cfg.Places
	if places == nil {
		places = DefaultPlaces
	}
	ctx, cancelFunc := context.WithCancel(context.Background())
	s := Server{
		log:        log,
		tokenizer:  tokenizer,
		upgrader:   gorilla.NewUpgrader(),
		games:      newRegistry(),
		places:     places,
		ctx:        ctx,
		cancelFunc: cancelFunc,
		Config:     cfg,
	}
	s.httpServer = &http.Server{
		Addr:    cfg.Addr,
		Handler: s.Handler(),
	}
	s.httpServer.RegisterOnShutdown(cancelFunc)
	return &s, nil
}

// validate ensures the configuration has no errors.
func (cfg Config) validate(log log.Logger, tokenizer Tokenizer) error {
	switch {
	case log == nil:
		return fmt.Errorf("log required")
	case tokenizer == nil:
		return fmt.Errorf("tokenizer required")
	case cfg.StopDur <= 0:
		return fmt.Errorf("stop timeout duration required")
	case cfg.WriteWait <= 0:
		return fmt.Errorf("positive write wait required")
	case cfg.TimeFunc == nil:
		return fmt.Errorf("time func required")
	}
	return nil
}

// Handler routes the requests of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api/games", func(r chi.Router) {
		r.Post("/", s.handleCreateGame)
		r.Get("/check/{code}", s.handleCheckGame)
		r.Post("/join", s.handleJoinGame)
		r.Get("/{id}", s.handleGetGame)
		r.Post("/{id}/start", s.handleStartGame)
		r.Get("/{id}/ws", s.handleSocket)
	})
	r.Route("/api/geocoding", func(r chi.Router) {
		r.Get("/autocomplete", s.handleAutocomplete)
		r.Get("/boundaries/{id}", s.handleBoundaries)
	})
	r.Get("/monitor", s.handleMonitor)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// Run the server asynchronously until it receives a shutdown signal.
// When the server stops, the error is sent to the error channel.
func (s *Server) Run(ctx context.Context) <-chan error {
	errC := make(chan error, 1)
	s.log.Printf("starting server at http://127.0.0.1%v", s.httpServer.Addr)
	go func() {
		errC <- s.httpServer.ListenAndServe()
	}()
	return errC
}

// Stop asks the server to shutdown and waits for the shutdown to complete.
// The sockets of players are closed.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancelFunc := context.WithTimeout(ctx, s.StopDur)
	defer cancelFunc()
	err := s.httpServer.Shutdown(ctx)
	s.cancelFunc()
	s.wg.Wait()
	return err
}

// Close closes the sockets of players and waits for them to finish.
// It is used when the Handler is served by something other than Run.
func (s *Server) Close() {
	s.cancelFunc()
	s.wg.Wait()
}

// writeJSON writes the value with the status code.
func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set(HeaderContentType, "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("writing response: %v", err)
	}
}

// writeError writes the message as a json error with the status code.
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	body := struct {
		Error string `json:"error"`
	}{
		Error: message,
	}
	s.writeJSON(w, statusCode, body)
}

// now is the current server timestamp.
func (s *Server) now() string {
	return s.TimeFunc().UTC().Format(time.RFC3339)
}
