package session

import (
	"fmt"

	"github.com/jacobpatterson1549/hide-and-seek/game/message"
)

// ProtocolError is a message from the server that could not be handled: an error reported by the server or a message of an unknown type.
type ProtocolError struct {
	// Type is the type of the message.
	Type message.Type
	// Code is the error code reported by the server.
	Code message.Code
	// Message is the error message reported by the server.
	Message string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.Type == message.SocketError {
		return fmt.Sprintf("Error (%v): %v", e.Code, e.Message)
	}
	return fmt.Sprintf("Unknown message type: %v", e.Type)
}

// lostConnectionMessage is shown when the socket closes without the player leaving.
const lostConnectionMessage = "Lost connection to the game server, reconnect to continue"

// errorMessage formats the error that is shown after the action failed.
func errorMessage(action string, err error) string {
	return fmt.Sprintf("Error %v: %v", action, err)
}
