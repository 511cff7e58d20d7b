package game

// Status is the state of the game.
// Statuses are the exact strings the server sends; unknown values are kept as-is.
type Status string

const (
	// Waiting is the status of a game that players can still join before it starts.
	Waiting Status = "waiting"
	// Active is the status of a game that has been started but is not finished.
	Active Status = "active"
	// Completed is the status of a game that is over.
	Completed Status = "completed"
)

// String returns the status exactly as the server sent it.
func (s Status) String() string {
	return string(s)
}

// Display returns the label shown to players for the status.
func (s Status) Display() string {
	switch s {
	case Waiting:
		return "Waiting for players"
	case Active:
		return "In Progress"
	case Completed:
		return "Completed"
	}
	return string(s)
}
