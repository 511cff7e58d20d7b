package session

import (
	"context"
	"sync"

	"github.com/jacobpatterson1549/hide-and-seek/api"
	"github.com/jacobpatterson1549/hide-and-seek/game"
)

type mockSocket struct {
	ConnectFunc    func(ctx context.Context, url, token string) error
	SendFunc       func(text string) error
	DisconnectFunc func() error
	// messages is returned by Subscribe.
	messages chan string
	// done is returned by Done.
	done chan struct{}

	mu   sync.Mutex
	sent []string
}

func newMockSocket() *mockSocket {
	s := mockSocket{
		ConnectFunc: func(ctx context.Context, url, token string) error {
			return nil
		},
		SendFunc: func(text string) error {
			return nil
		},
		DisconnectFunc: func() error {
			return nil
		},
		messages: make(chan string),
		done:     make(chan struct{}),
	}
	return &s
}

func (s *mockSocket) Connect(ctx context.Context, url, token string) error {
	return s.ConnectFunc(ctx, url, token)
}

func (s *mockSocket) Send(text string) error {
	s.mu.Lock()
	s.sent = append(s.sent, text)
	s.mu.Unlock()
	return s.SendFunc(text)
}

func (s *mockSocket) Disconnect() error {
	return s.DisconnectFunc()
}

func (s *mockSocket) Subscribe(ctx context.Context) <-chan string {
	return s.messages
}

func (s *mockSocket) Done() <-chan struct{} {
	return s.done
}

func (s *mockSocket) Sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.sent...)
}

type mockAPI struct {
	CheckGameExistsFunc func(ctx context.Context, code string) (*api.CheckGameExistsResponse, error)
	JoinGameFunc        func(ctx context.Context, code, playerName string) (*api.JoinGameResponse, error)
	CreateGameFunc      func(ctx context.Context, location game.Location, settings game.Settings, creatorName string) (*api.CreateGameResponse, error)
	GetGameFunc         func(ctx context.Context, gameID string) (*game.Game, error)
	StartGameFunc       func(ctx context.Context, gameID string) (*game.Game, error)
}

func (m mockAPI) CheckGameExists(ctx context.Context, code string) (*api.CheckGameExistsResponse, error) {
	return m.CheckGameExistsFunc(ctx, code)
}

func (m mockAPI) JoinGame(ctx context.Context, code, playerName string) (*api.JoinGameResponse, error) {
	return m.JoinGameFunc(ctx, code, playerName)
}

func (m mockAPI) CreateGame(ctx context.Context, location game.Location, settings game.Settings, creatorName string) (*api.CreateGameResponse, error) {
	return m.CreateGameFunc(ctx, location, settings, creatorName)
}

func (m mockAPI) GetGame(ctx context.Context, gameID string) (*game.Game, error) {
	return m.GetGameFunc(ctx, gameID)
}

func (m mockAPI) StartGame(ctx context.Context, gameID string) (*game.Game, error) {
	return m.StartGameFunc(ctx, gameID)
}

type mockConnection struct {
	ConnectFunc       func(ctx context.Context, url, token string) error
	SendLeaveGameFunc func() error
	DisconnectFunc    func() error
}

func (m mockConnection) Connect(ctx context.Context, url, token string) error {
	return m.ConnectFunc(ctx, url, token)
}

func (m mockConnection) SendLeaveGame() error {
	return m.SendLeaveGameFunc()
}

func (m mockConnection) Disconnect() error {
	return m.DisconnectFunc()
}
