package state

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/jacobpatterson1549/hide-and-seek/game"
)

var (
	john = game.Player{ID: "p1", Name: "John Doe", IsCreator: true}
	jane = game.Player{ID: "p2", Name: "Jane"}
)

func testGame() game.Game {
	return game.Game{
		ID:      "g1",
		Code:    "ABC123",
		Status:  game.Waiting,
		Players: []game.Player{john},
	}
}

func TestNewIsEmpty(t *testing.T) {
	s := New()
	checkEmpty(t, s)
}

func TestClear(t *testing.T) {
	s := New()
	s.UpdateGame(testGame())
	s.AddPlayer(jane)
	s.SetCurrentPlayerID("p1")
	s.SetError("Error (403): banned")
	s.SetConnected(true)
	s.Clear()
	checkEmpty(t, s)
}

func checkEmpty(t *testing.T, s *State) {
	t.Helper()
	switch {
	case s.Game() != nil:
		t.Errorf("wanted nil game, got %v", s.Game())
	case s.Players() == nil || len(s.Players()) != 0:
		t.Errorf("wanted empty, non-nil players, got %#v", s.Players())
	case s.CurrentPlayerID() != "":
		t.Errorf("wanted no current player id, got %q", s.CurrentPlayerID())
	case s.Err() != "":
		t.Errorf("wanted no error, got %q", s.Err())
	case s.Connected():
		t.Errorf("wanted not connected")
	}
}

func TestUpdateGameResetsPlayers(t *testing.T) {
	s := New()
	s.AddPlayer(jane)
	g := testGame()
	s.UpdateGame(g)
	if want, got := []game.Player{john}, s.Players(); !reflect.DeepEqual(want, got) {
		t.Errorf("players not equal:\nwanted: %v\ngot:    %v", want, got)
	}
	g.Players[0].Name = "changed"
	if s.Game().Players[0].Name != john.Name {
		t.Errorf("wanted state game to not share players with the argument")
	}
}

func TestAddPlayer(t *testing.T) {
	tests := []struct {
		add  []game.Player
		want []game.Player
	}{
		{
			add:  []game.Player{jane},
			want: []game.Player{john, jane},
		},
		{
			add:  []game.Player{jane, jane},
			want: []game.Player{john, jane},
		},
		{
			add:  []game.Player{john},
			want: []game.Player{john},
		},
		{
			add:  []game.Player{jane, {ID: "p2", Name: "Jane again"}},
			want: []game.Player{john, jane},
		},
	}
	for i, test := range tests {
		s := New()
		s.UpdateGame(testGame())
		for _, p := range test.add {
			s.AddPlayer(p)
		}
		if got := s.Players(); !reflect.DeepEqual(test.want, got) {
			t.Errorf("Test %v: players not equal:\nwanted: %v\ngot:    %v", i, test.want, got)
		}
	}
}

func TestAddPlayerIdempotentOnEmpty(t *testing.T) {
	s := New()
	s.AddPlayer(jane)
	s.AddPlayer(jane)
	if got := len(s.Players()); got != 1 {
		t.Errorf("wanted 1 player, got %v", got)
	}
}

func TestRemoveThenAddPlayer(t *testing.T) {
	s := New()
	s.UpdateGame(testGame())
	s.AddPlayer(jane)
	s.RemovePlayer(jane.ID)
	if want, got := []game.Player{john}, s.Players(); !reflect.DeepEqual(want, got) {
		t.Errorf("after remove, players not equal:\nwanted: %v\ngot:    %v", want, got)
	}
	s.AddPlayer(jane)
	if want, got := []game.Player{john, jane}, s.Players(); !reflect.DeepEqual(want, got) {
		t.Errorf("after add, players not equal:\nwanted: %v\ngot:    %v", want, got)
	}
	s.RemovePlayer("unknown")
	if got := len(s.Players()); got != 2 {
		t.Errorf("wanted removing unknown player to keep 2 players, got %v", got)
	}
}

func TestMarkStarted(t *testing.T) {
	s := New()
	if s.MarkStarted("2024-05-01T11:00:00Z") {
		t.Errorf("wanted no game to be started when there is no game")
	}
	s.UpdateGame(testGame())
	s.AddPlayer(jane)
	if !s.MarkStarted("2024-05-01T11:00:00Z") {
		t.Fatalf("wanted game to be started")
	}
	g := s.Game()
	switch {
	case g.Status != game.Active:
		t.Errorf("wanted status active, got %v", g.Status)
	case g.StartedAt != "2024-05-01T11:00:00Z":
		t.Errorf("wanted started at to be set, got %q", g.StartedAt)
	case !reflect.DeepEqual([]game.Player{john, jane}, s.Players()):
		t.Errorf("wanted players to be kept, got %v", s.Players())
	}
}

func TestSnapshotRestore(t *testing.T) {
	s := New()
	s.UpdateGame(testGame())
	s.SetCurrentPlayerID("p1")
	s.SetConnected(true)
	snap := s.Snapshot()
	s.Clear()
	s.SetError("Error joining game: request failed: boom")
	s.Restore(snap)
	got := s.Snapshot()
	if !reflect.DeepEqual(snap, got) {
		t.Errorf("snapshots not equal:\nwanted: %v\ngot:    %v", snap, got)
	}
}

func TestSubscribeError(t *testing.T) {
	s := New()
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()
	c := s.SubscribeError(ctx)
	if got := <-c; got != "" {
		t.Errorf("wanted initial empty error, got %q", got)
	}
	s.SetError("Error (403): banned")
	select {
	case got := <-c:
		if got != "Error (403): banned" {
			t.Errorf("wanted error, got %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no error received")
	}
	s.ClearError()
	if got := <-c; got != "" {
		t.Errorf("wanted cleared error, got %q", got)
	}
}

func TestSubscribeAll(t *testing.T) {
	s := New()
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()
	games := s.SubscribeGame(ctx)
	players := s.SubscribePlayers(ctx)
	ids := s.SubscribeCurrentPlayerID(ctx)
	connected := s.SubscribeConnected(ctx)
	<-games
	<-players
	<-ids
	<-connected
	s.UpdateGame(testGame())
	s.SetCurrentPlayerID("p1")
	s.SetConnected(true)
	if g := <-games; g == nil || g.ID != "g1" {
		t.Errorf("wanted game g1, got %v", g)
	}
	if p := <-players; !reflect.DeepEqual([]game.Player{john}, p) {
		t.Errorf("wanted john, got %v", p)
	}
	if id := <-ids; id != "p1" {
		t.Errorf("wanted p1, got %v", id)
	}
	if c := <-connected; !c {
		t.Errorf("wanted connected")
	}
}

func TestConcurrentMutations(t *testing.T) {
	s := New()
	s.UpdateGame(testGame())
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()
	players := s.SubscribePlayers(ctx)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			s.AddPlayer(jane)
			s.RemovePlayer(jane.ID)
		}
		s.AddPlayer(jane)
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = s.Snapshot()
			_ = s.Players()
		}
	}()
	wg.Wait()
	var last []game.Player
	for len(last) != 2 {
		select {
		case last = <-players:
		case <-time.After(time.Second):
			t.Fatalf("wanted to eventually see 2 players, last saw %v", last)
		}
	}
}
