// Package game contains the hide-and-seek game session model shared between the server and players.
package game

type (
	// Game is a single play-through of hide and seek, identified by ID and joined by Code.
	Game struct {
		// ID is unique among the other games that currently exist.
		ID string `json:"id"`
		// Code is the short identifier players share to join the game.
		Code string `json:"code"`
		// Status is the state of the game.
		Status Status `json:"status"`
		// Players are the people in the game, in the order they joined.
		Players []Player `json:"players"`
		// Location is the real-world play area.
		Location Location `json:"location"`
		// Settings are the rules the game was created with.
		Settings Settings `json:"settings"`
		// CreatedAt is the server timestamp of game creation.
		CreatedAt string `json:"created_at"`
		// StartedAt is the server timestamp of when the game was started, if it has started.
		StartedAt string `json:"started_at,omitempty"`
	}

	// Player is someone in a game.
	Player struct {
		// ID is unique among the players in the game.
		ID string `json:"id"`
		// Name is the display name of the player.
		Name string `json:"name"`
		// IsCreator is true for the one player that created the game.
		IsCreator bool `json:"is_creator"`
	}

	// Location is a named place on the map.
	Location struct {
		Name string `json:"name"`
		// Coordinates are [longitude, latitude].
		Coordinates []float64 `json:"coordinates"`
		Type        string    `json:"type,omitempty"`
		OsmID       string    `json:"osm_id,omitempty"`
		OsmType     string    `json:"osm_type,omitempty"`
		BoundingBox []float64 `json:"bounding_box,omitempty"`
	}

	// Settings configure how a game is played.
	Settings struct {
		// Units is the measurement system, such as "metric" or "imperial".
		Units string `json:"units"`
		// HidingZones are the kinds of places hiders may hide in, such as "bus_stops".
		HidingZones []string `json:"hiding_zones"`
		// HidingZoneSize is the radius of a hiding zone, in Units.
		HidingZoneSize int `json:"hiding_zone_size"`
		// GameDuration is the length of the game, in minutes.
		GameDuration int `json:"game_duration"`
		// DayStartTime is the time of day play may start, such as "09:00".
		DayStartTime string `json:"day_start_time"`
		// DayEndTime is the time of day play must stop, such as "18:00".
		DayEndTime string `json:"day_end_time"`
	}
)

// Clone creates a deep copy of the game so the copy can be changed without affecting the original.
func (g Game) Clone() Game {
	g.Players = cloneSlice(g.Players)
	g.Location = g.Location.clone()
	g.Settings.HidingZones = cloneSlice(g.Settings.HidingZones)
	return g
}

// Started returns a copy of the game that is active since the time.
func (g Game) Started(startedAt string) Game {
	g2 := g.Clone()
	g2.Status = Active
	g2.StartedAt = startedAt
	return g2
}

// Creator returns the player that created the game.
func (g Game) Creator() (*Player, bool) {
	for _, p := range g.Players {
		if p.IsCreator {
			return &p, true
		}
	}
	return nil, false
}

// HasPlayer determines if a player with the id is in the game.
func (g Game) HasPlayer(id string) bool {
	for _, p := range g.Players {
		if p.ID == id {
			return true
		}
	}
	return false
}

// Longitude returns the first coordinate, if any.
func (l Location) Longitude() float64 {
	if len(l.Coordinates) < 1 {
		return 0
	}
	return l.Coordinates[0]
}

// Latitude returns the second coordinate, if any.
func (l Location) Latitude() float64 {
	if len(l.Coordinates) < 2 {
		return 0
	}
	return l.Coordinates[1]
}

func (l Location) clone() Location {
	l.Coordinates = cloneSlice(l.Coordinates)
	l.BoundingBox = cloneSlice(l.BoundingBox)
	return l
}

// cloneSlice copies the slice, keeping nil slices nil.
func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}
