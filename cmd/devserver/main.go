// Package main runs an in-memory game server on the local machine for developing against.
package main

import (
	"context"
	crypto_rand "crypto/rand"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jacobpatterson1549/hide-and-seek/auth"
	"github.com/jacobpatterson1549/hide-and-seek/server"
)

const tokenValidDur = 24 * time.Hour

func main() {
	logFlags := log.Ldate | log.Ltime | log.LUTC | log.Lshortfile | log.Lmsgprefix
	log := log.New(os.Stdout, "", logFlags)
	m := newMainFlags(os.Args, os.LookupEnv)
	s, err := m.newServer(log)
	if err != nil {
		log.Fatalf("creating server: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := serve(ctx, s, log); err != nil {
		log.Fatalf("running server: %v", err)
	}
	log.Println("server stopped")
}

// newServer creates a server that signs player tokens with a random key.
func (m mainFlags) newServer(log *log.Logger) (*server.Server, error) {
	tokenizerCfg := auth.TokenizerConfig{
		KeyReader: crypto_rand.Reader,
		TimeFunc: func() int64 {
			return time.Now().UTC().Unix()
		},
		ValidSec: int64(tokenValidDur.Seconds()),
	}
	tokenizer, err := tokenizerCfg.NewTokenizer()
	if err != nil {
		return nil, fmt.Errorf("creating player tokenizer: %w", err)
	}
	cfg := server.Config{
		Addr:      fmt.Sprintf(":%d", m.port),
		StopDur:   time.Second,
		WriteWait: 10 * time.Second,
		Debug:     m.debug,
		TimeFunc:  time.Now,
	}
	return cfg.NewServer(log, tokenizer)
}

// serve runs the server until the context is done or the server fails.
func serve(ctx context.Context, s *server.Server, log *log.Logger) error {
	errC := s.Run(ctx)
	select { // BLOCKING
	case err := <-errC:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped unexpectedly: %w", err)
		}
	case <-ctx.Done():
		log.Printf("stopping server")
	}
	return s.Stop(context.Background())
}
