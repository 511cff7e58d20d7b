// Package db stores the credentials used to reconnect to a game after the application restarts.
package db

import (
	"context"
	"fmt"
	"time"
)

type (
	// Store saves the credentials of the current game.
	Store interface {
		// Save replaces the stored credentials.
		Save(ctx context.Context, c Credentials) error
		// Load reads the stored credentials, returning nil if there are none.
		Load(ctx context.Context) (*Credentials, error)
		// Clear removes the stored credentials.
		Clear(ctx context.Context) error
	}

	// Credentials are used to reconnect to a game.
	Credentials struct {
		GameID    string `json:"game_id" bson:"game_id" firestore:"game_id"`
		AuthToken string `json:"auth_token" bson:"auth_token" firestore:"auth_token"`
	}

	// Config contains fields shared by remote stores.
	Config struct {
		// QueryPeriod is the amount of time that any database action can take before it should timeout.
		QueryPeriod time.Duration
		// Namespace is the key the credentials of this application are stored under.
		Namespace string
	}

	// PersistenceError is returned when credentials cannot be read or written.
	PersistenceError struct {
		// Op describes what the store was doing, such as "saving credentials".
		Op string
		// Err is the cause.
		Err error
	}
)

// DefaultNamespace is the namespace used when none is configured.
const DefaultNamespace = "hide_and_seek_game_state"

// Complete determines if the credentials have both a game id and a token.
// Incomplete credentials are treated as if there are none.
func (c Credentials) Complete() bool {
	return len(c.GameID) != 0 && len(c.AuthToken) != 0
}

// Validate ensures the configuration has no errors.
func (cfg Config) Validate() error {
	switch {
	case cfg.QueryPeriod <= 0:
		return fmt.Errorf("positive query period required")
	case len(cfg.Namespace) == 0:
		return fmt.Errorf("namespace required")
	}
	return nil
}

// WithTimeout runs the function with a context that is canceled after the query period.
func (cfg Config) WithTimeout(ctx context.Context, f func(ctx context.Context) error) error {
	ctx, cancelFunc := context.WithTimeout(ctx, cfg.QueryPeriod)
	defer cancelFunc()
	return f(ctx)
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%v: %v", e.Op, e.Err)
}

// Unwrap returns the cause.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewSaveError wraps an error from saving credentials.
func NewSaveError(err error) error {
	return &PersistenceError{Op: "saving credentials", Err: err}
}

// NewLoadError wraps an error from loading credentials.
func NewLoadError(err error) error {
	return &PersistenceError{Op: "loading credentials", Err: err}
}

// NewClearError wraps an error from clearing credentials.
func NewClearError(err error) error {
	return &PersistenceError{Op: "clearing credentials", Err: err}
}

// Loaded returns a copy of the credentials if they are complete, otherwise nil.
// Stores use it to treat partially written credentials as missing.
func Loaded(c Credentials) *Credentials {
	if !c.Complete() {
		return nil
	}
	return &c
}
