package message

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/jacobpatterson1549/hide-and-seek/game"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		text     string
		wantType Type
		wantOk   bool
	}{
		{
			text:     `{"type":"pong","data":{}}`,
			wantType: Pong,
			wantOk:   true,
		},
		{
			text:     `{"type":"pong"}`,
			wantType: Pong,
			wantOk:   true,
		},
		{
			text:     `{"type":"something_new","data":{"a":1}}`,
			wantType: "something_new",
			wantOk:   true,
		},
		{
			text: `{"data":{}}`,
		},
		{
			text: `not json`,
		},
		{
			text: `{"type":7}`,
		},
	}
	for i, test := range tests {
		m, err := Decode(test.text)
		switch {
		case !test.wantOk:
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Errorf("Test %v: wanted DecodeError, got %v", i, err)
			}
		case err != nil:
			t.Errorf("Test %v: unwanted error: %v", i, err)
		case test.wantType != m.Type:
			t.Errorf("Test %v: wanted type %q, got %q", i, test.wantType, m.Type)
		}
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		t    Type
		data interface{}
		want string
	}{
		{
			t:    Ping,
			want: `{"type":"ping","data":{}}`,
		},
		{
			t:    LeaveGame,
			want: `{"type":"leave_game","data":{}}`,
		},
		{
			t:    PlayerLeft,
			data: PlayerLeftData{PlayerID: "p2"},
			want: `{"type":"player_left","data":{"player_id":"p2"}}`,
		},
	}
	for i, test := range tests {
		got, err := New(test.t, test.data)
		switch {
		case err != nil:
			t.Errorf("Test %v: unwanted error: %v", i, err)
		case test.want != got:
			t.Errorf("Test %v: messages not equal:\nwanted: %v\ngot:    %v", i, test.want, got)
		}
	}
}

func TestNewBadData(t *testing.T) {
	if _, err := New(Ping, make(chan int)); err == nil {
		t.Errorf("wanted error encoding data that cannot be marshalled")
	}
}

func TestJoinedPlayer(t *testing.T) {
	tests := []struct {
		text   string
		want   *game.Player
		wantOk bool
	}{
		{
			text:   `{"type":"player_joined","data":{"player":{"id":"p2","name":"Jane","is_creator":false}}}`,
			want:   &game.Player{ID: "p2", Name: "Jane"},
			wantOk: true,
		},
		{
			text: `{"type":"player_joined","data":{}}`,
		},
		{
			text: `{"type":"player_joined","data":{"player":{"name":"Jane"}}}`,
		},
		{
			text: `{"type":"player_joined"}`,
		},
		{
			text: `{"type":"player_joined","data":{"player":"Jane"}}`,
		},
	}
	for i, test := range tests {
		m := mustDecode(t, test.text)
		got, err := m.JoinedPlayer()
		switch {
		case !test.wantOk:
			if err == nil {
				t.Errorf("Test %v: wanted error", i)
			}
		case err != nil:
			t.Errorf("Test %v: unwanted error: %v", i, err)
		case !reflect.DeepEqual(test.want, got):
			t.Errorf("Test %v: players not equal:\nwanted: %v\ngot:    %v", i, test.want, got)
		}
	}
}

func TestLeftPlayerID(t *testing.T) {
	m := mustDecode(t, `{"type":"player_left","data":{"player_id":"p2"}}`)
	got, err := m.LeftPlayerID()
	if err != nil || got != "p2" {
		t.Errorf("wanted p2, got %q (error: %v)", got, err)
	}
	m = mustDecode(t, `{"type":"player_left","data":{"player":"p2"}}`)
	if _, err := m.LeftPlayerID(); err == nil {
		t.Errorf("wanted error when player_id is missing")
	}
}

func TestStartedAt(t *testing.T) {
	m := mustDecode(t, `{"type":"game_started","data":{"started_at":"2024-05-01T11:00:00Z"}}`)
	got, err := m.StartedAt()
	if err != nil || got != "2024-05-01T11:00:00Z" {
		t.Errorf("wanted start time, got %q (error: %v)", got, err)
	}
	m = mustDecode(t, `{"type":"game_started","data":{}}`)
	if _, err := m.StartedAt(); err == nil {
		t.Errorf("wanted error when started_at is missing")
	}
}

func TestUpdatedGame(t *testing.T) {
	m := mustDecode(t, `{"type":"game_updated","data":{"game":{"id":"g1","code":"ABC123","status":"active","players":[]}}}`)
	got, err := m.UpdatedGame()
	switch {
	case err != nil:
		t.Errorf("unwanted error: %v", err)
	case got.ID != "g1" || got.Status != game.Active:
		t.Errorf("unexpected game: %v", got)
	}
	for i, text := range []string{
		`{"type":"game_updated","data":{}}`,
		`{"type":"game_updated","data":{"game":{"code":"ABC123"}}}`,
		`{"type":"game_updated","data":{"game":{"id":"g1","players":"none"}}}`,
	} {
		m := mustDecode(t, text)
		if _, err := m.UpdatedGame(); err == nil {
			t.Errorf("Test %v: wanted error", i)
		}
	}
}

func TestServerError(t *testing.T) {
	tests := []struct {
		text string
		want ErrorData
	}{
		{
			text: `{"type":"error","data":{"code":"403","message":"banned"}}`,
			want: ErrorData{Code: "403", Message: "banned"},
		},
		{
			text: `{"type":"error","data":{"code":404,"message":"not found"}}`,
			want: ErrorData{Code: "404", Message: "not found"},
		},
		{
			text: `{"type":"error","data":{"code":null,"message":"?"}}`,
			want: ErrorData{Message: "?"},
		},
	}
	for i, test := range tests {
		m := mustDecode(t, test.text)
		got, err := m.ServerError()
		switch {
		case err != nil:
			t.Errorf("Test %v: unwanted error: %v", i, err)
		case test.want != *got:
			t.Errorf("Test %v: errors not equal:\nwanted: %v\ngot:    %v", i, test.want, *got)
		}
	}
}

func TestCodeMarshalJSON(t *testing.T) {
	b, err := json.Marshal(ErrorData{Code: "403", Message: "banned"})
	if err != nil {
		t.Fatalf("unwanted error: %v", err)
	}
	if want, got := `{"code":"403","message":"banned"}`, string(b); want != got {
		t.Errorf("wanted %v, got %v", want, got)
	}
}

func TestDecodeErrorMessage(t *testing.T) {
	err := &DecodeError{Type: PlayerLeft, Err: errors.New("missing player_id")}
	if want, got := "decoding player_left message: missing player_id", err.Error(); want != got {
		t.Errorf("wanted %q, got %q", want, got)
	}
}

func mustDecode(t *testing.T, text string) *Message {
	t.Helper()
	m, err := Decode(text)
	if err != nil {
		t.Fatalf("decoding %v: %v", text, err)
	}
	return m
}
