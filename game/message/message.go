// Package message contains the envelopes passed between players and the server over the websocket.
package message

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jacobpatterson1549/hide-and-seek/game"
)

type (
	// Type represents the purpose of a message.
	Type string

	// Message is the envelope of every websocket frame, in both directions.
	Message struct {
		// Type is the purpose of the message.
		Type Type `json:"type"`
		// Data is the type-specific payload, decoded on demand.
		Data json.RawMessage `json:"data"`
	}

	// PlayerJoinedData is the payload of a PlayerJoined message.
	PlayerJoinedData struct {
		Player *game.Player `json:"player"`
	}

	// PlayerLeftData is the payload of a PlayerLeft message.
	PlayerLeftData struct {
		PlayerID string `json:"player_id"`
	}

	// GameStartedData is the payload of a GameStarted message.
	GameStartedData struct {
		StartedAt string `json:"started_at"`
	}

	// GameUpdatedData is the payload of a GameUpdated message.
	GameUpdatedData struct {
		Game *game.Game `json:"game"`
	}

	// ErrorData is the payload of a SocketError message.
	ErrorData struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	}

	// Code is an error code the server sends as either a JSON string or number.
	Code string

	// DecodeError is returned when a message is not valid JSON or is missing a required field.
	DecodeError struct {
		// Type is the type of the message, if it could be read.
		Type Type
		// Err is the underlying problem.
		Err error
	}
)

const (
	// PlayerJoined is sent by the server when a player joins the game.
	PlayerJoined Type = "player_joined"
	// PlayerLeft is sent by the server when a player leaves the game.
	PlayerLeft Type = "player_left"
	// GameStarted is sent by the server when the game changes to active.
	GameStarted Type = "game_started"
	// GameUpdated is sent by the server with the whole current game.
	GameUpdated Type = "game_updated"
	// SocketError is sent by the server to report a problem with a request.
	SocketError Type = "error"
	// Ping is sent by players periodically to keep the connection alive.
	Ping Type = "ping"
	// Pong is sent by the server to acknowledge a Ping.
	Pong Type = "pong"
	// LeaveGame is sent by players before they disconnect.
	LeaveGame Type = "leave_game"
)

var emptyData = json.RawMessage("{}")

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if len(e.Type) == 0 {
		return fmt.Sprintf("decoding message: %v", e.Err)
	}
	return fmt.Sprintf("decoding %v message: %v", e.Type, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// UnmarshalJSON reads the code from a JSON string or number.
func (c *Code) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*c = ""
	case len(b) != 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Code(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("error code is not a string or number: %w", err)
		}
		*c = Code(n.String())
	}
	return nil
}

// MarshalJSON writes the code as a JSON string.
func (c Code) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(c))), nil
}

// Decode reads the envelope of a text frame.
func Decode(text string) (*Message, error) {
	var m Message
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if len(m.Type) == 0 {
		return nil, &DecodeError{Err: errors.New("missing type")}
	}
	return &m, nil
}

// New creates the text of a message with the data as its payload.
// A nil data is sent as an empty object.
func New(t Type, data interface{}) (string, error) {
	m := Message{
		Type: t,
		Data: emptyData,
	}
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return "", fmt.Errorf("encoding %v message data: %w", t, err)
		}
		m.Data = b
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encoding %v message: %w", t, err)
	}
	return string(b), nil
}

// decodeData unmarshals the payload of the message.
func (m Message) decodeData(v interface{}) error {
	if len(m.Data) == 0 || bytes.Equal(m.Data, []byte("null")) {
		return m.decodeError(errors.New("missing data"))
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return m.decodeError(err)
	}
	return nil
}

// decodeError creates a DecodeError for the message.
func (m Message) decodeError(err error) error {
	return &DecodeError{
		Type: m.Type,
		Err:  err,
	}
}

// JoinedPlayer decodes the player of a PlayerJoined message.
func (m Message) JoinedPlayer() (*game.Player, error) {
	var d PlayerJoinedData
	if err := m.decodeData(&d); err != nil {
		return nil, err
	}
	switch {
	case d.Player == nil:
		return nil, m.decodeError(errors.New("missing player"))
	case len(d.Player.ID) == 0:
		return nil, m.decodeError(errors.New("missing player id"))
	}
	return d.Player, nil
}

// LeftPlayerID decodes the id of the player of a PlayerLeft message.
func (m Message) LeftPlayerID() (string, error) {
	var d PlayerLeftData
	if err := m.decodeData(&d); err != nil {
		return "", err
	}
	if len(d.PlayerID) == 0 {
		return "", m.decodeError(errors.New("missing player_id"))
	}
	return d.PlayerID, nil
}

// StartedAt decodes the start time of a GameStarted message.
func (m Message) StartedAt() (string, error) {
	var d GameStartedData
	if err := m.decodeData(&d); err != nil {
		return "", err
	}
	if len(d.StartedAt) == 0 {
		return "", m.decodeError(errors.New("missing started_at"))
	}
	return d.StartedAt, nil
}

// UpdatedGame decodes the game of a GameUpdated message.
func (m Message) UpdatedGame() (*game.Game, error) {
	var d GameUpdatedData
	if err := m.decodeData(&d); err != nil {
		return nil, err
	}
	switch {
	case d.Game == nil:
		return nil, m.decodeError(errors.New("missing game"))
	case len(d.Game.ID) == 0:
		return nil, m.decodeError(errors.New("missing game id"))
	}
	return d.Game, nil
}

// ServerError decodes the code and message of a SocketError message.
func (m Message) ServerError() (*ErrorData, error) {
	var d ErrorData
	if err := m.decodeData(&d); err != nil {
		return nil, err
	}
	return &d, nil
}
