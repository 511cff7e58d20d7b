package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jacobpatterson1549/hide-and-seek/api"
	"github.com/jacobpatterson1549/hide-and-seek/auth"
	"github.com/jacobpatterson1549/hide-and-seek/game"
	"github.com/jacobpatterson1549/hide-and-seek/game/message"
	"github.com/jacobpatterson1549/hide-and-seek/log/logtest"
	"github.com/jacobpatterson1549/hide-and-seek/socket"
	"github.com/jacobpatterson1549/hide-and-seek/socket/gorilla"
)

var (
	testStartTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	testLocation  = game.Location{
		Name:        "Madrid",
		Coordinates: []float64{-3.7, 40.4},
	}
	testSettings = game.Settings{
		Units:          "metric",
		HidingZones:    []string{"bus_stops"},
		HidingZoneSize: 500,
		GameDuration:   120,
		DayStartTime:   "09:00",
		DayEndTime:     "18:00",
	}
)

func testTokenizer(t *testing.T) *auth.Tokenizer {
	t.Helper()
	cfg := auth.TokenizerConfig{
		KeyReader: strings.NewReader(strings.Repeat("k", 64)),
		TimeFunc: func() int64 {
			return time.Now().Unix()
		},
		ValidSec: 60 * 60,
	}
	tokenizer, err := cfg.NewTokenizer()
	if err != nil {
		t.Fatalf("creating tokenizer: %v", err)
	}
	return tokenizer
}

// newTestServer creates a server with an api client that talks to it.
func newTestServer(t *testing.T) (*Server, *httptest.Server, *api.Client) {
	t.Helper()
	cfg := Config{
		StopDur:   time.Second,
		WriteWait: time.Second,
		TimeFunc: func() time.Time {
			return testStartTime
		},
	}
	s, err := cfg.NewServer(logtest.DiscardLogger, testTokenizer(t))
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	t.Cleanup(s.Close)
	apiCfg := api.Config{
		BaseURL:        srv.URL,
		Log:            logtest.DiscardLogger,
		ConnectTimeout: time.Second,
		RequestTimeout: 2 * time.Second,
		IdleTimeout:    time.Second,
	}
	c, err := apiCfg.NewClient()
	if err != nil {
		t.Fatalf("creating api client: %v", err)
	}
	return s, srv, c
}

// createGame creates a game and returns its code.
func createGame(t *testing.T, c *api.Client) *api.CreateGameResponse {
	t.Helper()
	resp, err := c.CreateGame(context.Background(), testLocation, testSettings, "John Doe")
	if err != nil {
		t.Fatalf("creating game: %v", err)
	}
	return resp
}

// dial connects to the websocket of the game as the player with the token.
func dial(t *testing.T, websocketURL, token string) socket.Conn {
	t.Helper()
	d := gorilla.NewDialer(time.Second)
	conn, err := d.Dial(context.Background(), websocketURL+"?token="+token, nil)
	if err != nil {
		t.Fatalf("dialing %v: %v", websocketURL, err)
	}
	t.Cleanup(func() {
		conn.Close()
	})
	return conn
}

// readMessage reads the next message from the connection, failing if none arrives in time.
func readMessage(t *testing.T, conn socket.Conn) *message.Message {
	t.Helper()
	if gc, ok := conn.(*gorilla.Conn); ok {
		gc.Conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	}
	text, err := conn.ReadText()
	if err != nil {
		t.Fatalf("reading message: %v", err)
	}
	m, err := message.Decode(text)
	if err != nil {
		t.Fatalf("decoding message: %v", err)
	}
	return m
}

// send writes a message with an empty payload.
func send(t *testing.T, conn socket.Conn, mt message.Type) {
	t.Helper()
	text, err := message.New(mt, nil)
	if err != nil {
		t.Fatalf("creating message: %v", err)
	}
	if err := conn.WriteText(text); err != nil {
		t.Fatalf("writing message: %v", err)
	}
}

func TestNewServer(t *testing.T) {
	tokenizer := testTokenizer(t)
	timeFunc := func() time.Time {
		return testStartTime
	}
	newServerTests := []struct {
		Config
		log       bool
		tokenizer Tokenizer
		wantOk    bool
	}{
		{}, // no log
		{
			log: true,
		},
		{
			log:       true,
			tokenizer: tokenizer,
		},
		{
			Config: Config{
				StopDur: time.Second,
			},
			log:       true,
			tokenizer: tokenizer,
		},
		{
			Config: Config{
				StopDur:   time.Second,
				WriteWait: time.Second,
			},
			log:       true,
			tokenizer: tokenizer,
		},
		{
			Config: Config{
				StopDur:   time.Second,
				WriteWait: time.Second,
				TimeFunc:  timeFunc,
			},
			log:       true,
			tokenizer: tokenizer,
			wantOk:    true,
		},
	}
	for i, test := range newServerTests {
		var log *logtest.Logger
		if test.log {
			log = logtest.NewLogger()
		}
		var err error
		switch {
		case log == nil:
			_, err = test.Config.NewServer(nil, test.tokenizer)
		default:
			_, err = test.Config.NewServer(log, test.tokenizer)
		}
		switch {
		case !test.wantOk:
			if err == nil {
				t.Errorf("Test %v: wanted error", i)
			}
		case err != nil:
			t.Errorf("Test %v: unwanted error: %v", i, err)
		}
	}
}

func TestCreateJoinStartGame(t *testing.T) {
	_, srv, c := newTestServer(t)
	ctx := context.Background()
	created := createGame(t, c)
	if err := game.ValidateCode(created.GameCode); err != nil {
		t.Errorf("invalid game code: %v", err)
	}
	wantWebsocketURL := "ws://" + strings.TrimPrefix(srv.URL, "http://") + "/api/games/" + created.GameID + "/ws"
	if wantWebsocketURL != created.WebsocketURL {
		t.Errorf("wanted websocket url %q, got %q", wantWebsocketURL, created.WebsocketURL)
	}
	exists, err := c.CheckGameExists(ctx, strings.ToLower(created.GameCode))
	switch {
	case err != nil:
		t.Fatalf("checking game: %v", err)
	case !exists.Exists, exists.GameID != created.GameID:
		t.Errorf("wanted game %v to exist, got %+v", created.GameID, exists)
	}
	john, err := c.JoinGame(ctx, created.GameCode, "John Doe")
	if err != nil {
		t.Fatalf("joining game: %v", err)
	}
	jane, err := c.JoinGame(ctx, created.GameCode, " Jane ")
	if err != nil {
		t.Fatalf("joining game: %v", err)
	}
	switch {
	case john.GameID != created.GameID, len(john.Token) == 0, len(john.PlayerID) == 0:
		t.Errorf("unwanted join response: %+v", john)
	case len(jane.Game.Players) != 2:
		t.Errorf("wanted 2 players after second join, got %v", jane.Game.Players)
	case !jane.Game.Players[0].IsCreator, jane.Game.Players[0].Name != "John Doe":
		t.Errorf("wanted first player to be the creator, got %+v", jane.Game.Players[0])
	case jane.Game.Players[1].IsCreator, jane.Game.Players[1].Name != "Jane":
		t.Errorf("wanted second player to be a trimmed non-creator, got %+v", jane.Game.Players[1])
	case jane.Game.Status != game.Waiting, jane.Game.CreatedAt != "2024-01-01T00:00:00Z":
		t.Errorf("unwanted game: %+v", jane.Game)
	}
	g, err := c.StartGame(ctx, created.GameID)
	switch {
	case err != nil:
		t.Fatalf("starting game: %v", err)
	case g.Status != game.Active, g.StartedAt != "2024-01-01T00:00:00Z":
		t.Errorf("wanted active game, got %+v", g)
	}
	g, err = c.GetGame(ctx, created.GameID)
	switch {
	case err != nil:
		t.Errorf("getting game: %v", err)
	case g.Status != game.Active, len(g.Players) != 2, g.Location.Name != "Madrid":
		t.Errorf("unwanted game: %+v", g)
	}
	_, err = c.JoinGame(ctx, created.GameCode, "Late")
	var se *api.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusConflict {
		t.Errorf("wanted conflict joining a started game, got %v", err)
	}
}

func TestRequestErrors(t *testing.T) {
	_, srv, c := newTestServer(t)
	ctx := context.Background()
	exists, err := c.CheckGameExists(ctx, "ZZZZZZ")
	switch {
	case err != nil:
		t.Errorf("checking game: %v", err)
	case exists.Exists:
		t.Errorf("wanted unknown game to not exist")
	}
	requestErrorTests := []struct {
		name     string
		call     func() error
		wantCode int
	}{
		{
			name: "join unknown game",
			call: func() error {
				_, err := c.JoinGame(ctx, "ZZZZZZ", "John")
				return err
			},
			wantCode: http.StatusNotFound,
		},
		{
			name: "join with bad code",
			call: func() error {
				_, err := c.JoinGame(ctx, "ABC", "John")
				return err
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "create without creator",
			call: func() error {
				_, err := c.CreateGame(ctx, testLocation, testSettings, " ")
				return err
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "create without location",
			call: func() error {
				_, err := c.CreateGame(ctx, game.Location{}, testSettings, "John")
				return err
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "get unknown game",
			call: func() error {
				_, err := c.GetGame(ctx, "unknown")
				return err
			},
			wantCode: http.StatusNotFound,
		},
		{
			name: "start unknown game",
			call: func() error {
				_, err := c.StartGame(ctx, "unknown")
				return err
			},
			wantCode: http.StatusNotFound,
		},
		{
			name: "boundaries of unknown place",
			call: func() error {
				_, err := c.LocationBoundaries(ctx, "unknown")
				return err
			},
			wantCode: http.StatusNotFound,
		},
	}
	for _, test := range requestErrorTests {
		err := test.call()
		var se *api.StatusError
		switch {
		case !errors.As(err, &se):
			t.Errorf("Test %v: wanted status error, got %v", test.name, err)
		case test.wantCode != se.Code:
			t.Errorf("Test %v: wanted code %v, got %v", test.name, test.wantCode, se.Code)
		}
	}
	resp, err := http.Post(srv.URL+"/api/games/join", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatalf("posting bad json: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("wanted bad request for invalid json, got %v", resp.Status)
	}
}

func TestSocket(t *testing.T) {
	_, _, c := newTestServer(t)
	ctx := context.Background()
	created := createGame(t, c)
	john, err := c.JoinGame(ctx, created.GameCode, "John Doe")
	if err != nil {
		t.Fatalf("joining game: %v", err)
	}
	johnConn := dial(t, john.WebsocketURL, john.Token)
	m := readMessage(t, johnConn)
	g, err := m.UpdatedGame()
	switch {
	case err != nil:
		t.Fatalf("wanted game on connect: %v", err)
	case g.ID != created.GameID, len(g.Players) != 1:
		t.Errorf("unwanted game on connect: %+v", g)
	}

	jane, err := c.JoinGame(ctx, created.GameCode, "Jane")
	if err != nil {
		t.Fatalf("joining game: %v", err)
	}
	m = readMessage(t, johnConn)
	p, err := m.JoinedPlayer()
	switch {
	case err != nil:
		t.Errorf("wanted player joined: %v", err)
	case p.ID != jane.PlayerID, p.Name != "Jane", p.IsCreator:
		t.Errorf("unwanted joined player: %+v", p)
	}

	send(t, johnConn, message.Ping)
	if m := readMessage(t, johnConn); m.Type != message.Pong {
		t.Errorf("wanted pong, got %v", m.Type)
	}

	send(t, johnConn, "dance")
	m = readMessage(t, johnConn)
	d, err := m.ServerError()
	switch {
	case err != nil:
		t.Errorf("wanted error message: %v", err)
	case d.Code != "400", d.Message != "unknown message type: dance":
		t.Errorf("unwanted error: %+v", d)
	}

	janeConn := dial(t, jane.WebsocketURL, jane.Token)
	readMessage(t, janeConn) // game_updated
	if _, err := c.StartGame(ctx, created.GameID); err != nil {
		t.Fatalf("starting game: %v", err)
	}
	for i, conn := range []socket.Conn{johnConn, janeConn} {
		m := readMessage(t, conn)
		startedAt, err := m.StartedAt()
		switch {
		case err != nil:
			t.Errorf("Test %v: wanted game started: %v", i, err)
		case startedAt != "2024-01-01T00:00:00Z":
			t.Errorf("Test %v: unwanted start time: %v", i, startedAt)
		}
	}

	send(t, janeConn, message.LeaveGame)
	m = readMessage(t, johnConn)
	leftID, err := m.LeftPlayerID()
	switch {
	case err != nil:
		t.Errorf("wanted player left: %v", err)
	case leftID != jane.PlayerID:
		t.Errorf("wanted %v to leave, got %v", jane.PlayerID, leftID)
	}
	g, err = c.GetGame(ctx, created.GameID)
	switch {
	case err != nil:
		t.Errorf("getting game: %v", err)
	case len(g.Players) != 1 || g.Players[0].ID != john.PlayerID:
		t.Errorf("wanted only john left in game, got %v", g.Players)
	}
}

func TestSocketUnauthorized(t *testing.T) {
	s, _, c := newTestServer(t)
	ctx := context.Background()
	first := createGame(t, c)
	second := createGame(t, c)
	john, err := c.JoinGame(ctx, first.GameCode, "John")
	if err != nil {
		t.Fatalf("joining game: %v", err)
	}
	otherToken, err := s.tokenizer.Create(first.GameID, "someone-else")
	if err != nil {
		t.Fatalf("creating token: %v", err)
	}
	socketUnauthorizedTests := []struct {
		url   string
		token string
	}{
		{
			url: john.WebsocketURL,
		},
		{
			url:   john.WebsocketURL,
			token: "not-a-jwt",
		},
		{
			url:   second.WebsocketURL,
			token: john.Token,
		},
		{
			url:   john.WebsocketURL,
			token: otherToken,
		},
	}
	d := gorilla.NewDialer(time.Second)
	for i, test := range socketUnauthorizedTests {
		conn, err := d.Dial(ctx, test.url+"?token="+test.token, nil)
		if err == nil {
			conn.Close()
			t.Errorf("Test %v: wanted dial error", i)
		}
	}
}

func TestSocketBearerHeader(t *testing.T) {
	_, _, c := newTestServer(t)
	ctx := context.Background()
	created := createGame(t, c)
	john, err := c.JoinGame(ctx, created.GameCode, "John")
	if err != nil {
		t.Fatalf("joining game: %v", err)
	}
	d := gorilla.NewDialer(time.Second)
	header := http.Header{HeaderAuthorization: {"Bearer " + john.Token}}
	conn, err := d.Dial(ctx, john.WebsocketURL, header)
	if err != nil {
		t.Fatalf("dialing with bearer token: %v", err)
	}
	defer conn.Close()
	if m := readMessage(t, conn); m.Type != message.GameUpdated {
		t.Errorf("wanted game updated, got %v", m.Type)
	}
}

func TestGeocoding(t *testing.T) {
	_, _, c := newTestServer(t)
	ctx := context.Background()
	geocodingTests := []struct {
		query     string
		limit     int
		wantTitle []string
	}{
		{
			query:     "mad",
			limit:     10,
			wantTitle: []string{"Madrid"},
		},
		{
			query:     "MÁLAGA",
			limit:     10,
			wantTitle: []string{"Málaga"},
		},
		{
			query:     "r",
			limit:     2,
			wantTitle: []string{"Madrid", "New York"},
		},
		{
			query: "atlantis",
			limit: 10,
		},
	}
	for i, test := range geocodingTests {
		results, err := c.SearchLocations(ctx, test.query, test.limit)
		if err != nil {
			t.Errorf("Test %v: unwanted error: %v", i, err)
			continue
		}
		var got []string
		for _, r := range results {
			got = append(got, r.Title)
		}
		if strings.Join(test.wantTitle, ",") != strings.Join(got, ",") {
			t.Errorf("Test %v: wanted %v, got %v", i, test.wantTitle, got)
		}
	}
	b, err := c.LocationBoundaries(ctx, "r5326784")
	switch {
	case err != nil:
		t.Errorf("loading boundaries: %v", err)
	case b.Name != "Madrid", b.OsmID != "5326784", !strings.Contains(string(b.Boundaries), "Polygon"):
		t.Errorf("unwanted boundaries: %+v", b)
	}
}

func TestMonitor(t *testing.T) {
	_, srv, c := newTestServer(t)
	createGame(t, c)
	resp, err := http.Get(srv.URL + "/monitor")
	if err != nil {
		t.Fatalf("getting monitor: %v", err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading monitor: %v", err)
	}
	var gameCount, goroutines bool
	for _, line := range strings.Split(string(b), "\n") {
		fields := strings.Fields(line)
		switch {
		case len(fields) == 2 && fields[0] == "Games" && fields[1] == "1":
			gameCount = true
		case line == "# Goroutines":
			goroutines = true
		}
	}
	if !gameCount || !goroutines {
		t.Errorf("unwanted monitor output: %s", b)
	}
}
