package sql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jacobpatterson1549/hide-and-seek/db"
)

type (
	// Store keeps credentials in a table, one row per namespace.
	Store struct {
		Database Database
		Dialect  Dialect
		db.Config
	}

	// Dialect contains the statements that differ between databases.
	// Each statement takes the namespace as its first argument.
	Dialect struct {
		// Setup creates the credentials table if it does not exist.
		Setup RawQuery
		// Upsert inserts or replaces the game id and auth token of the namespace.
		Upsert string
		// Select reads the game id and auth token of the namespace.
		Select string
		// Delete removes the row of the namespace.
		Delete string
	}
)

// CreateTable creates the credentials table for all dialects.
const CreateTable RawQuery = `CREATE TABLE IF NOT EXISTS game_credentials (
	namespace TEXT PRIMARY KEY,
	game_id TEXT NOT NULL,
	auth_token TEXT NOT NULL
)`

var _ db.Store = (*Store)(nil)

// NewStore creates the credentials table if needed and returns a Store for it.
func NewStore(ctx context.Context, database Database, dialect Dialect, cfg db.Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("creating sql store: validation: %w", err)
	}
	s := Store{
		Database: database,
		Dialect:  dialect,
		Config:   cfg,
	}
	if err := database.Exec(ctx, dialect.Setup); err != nil {
		return nil, fmt.Errorf("creating sql store: setting up table: %w", err)
	}
	return &s, nil
}

// Save replaces the stored credentials.
func (s *Store) Save(ctx context.Context, c db.Credentials) error {
	q := NewStatement(s.Dialect.Upsert, s.Namespace, c.GameID, c.AuthToken)
	if err := s.Database.Exec(ctx, q); err != nil {
		return db.NewSaveError(err)
	}
	return nil
}

// Load reads the stored credentials, returning nil if there are none.
func (s *Store) Load(ctx context.Context) (*db.Credentials, error) {
	q := NewStatement(s.Dialect.Select, s.Namespace)
	var c db.Credentials
	if err := s.Database.Query(ctx, q, &c.GameID, &c.AuthToken); err != nil {
		if errors.Is(err, ErrNoRows) {
			return nil, nil
		}
		return nil, db.NewLoadError(err)
	}
	return db.Loaded(c), nil
}

// Clear removes the stored credentials.
func (s *Store) Clear(ctx context.Context) error {
	q := NewStatement(s.Dialect.Delete, s.Namespace)
	if err := s.Database.Exec(ctx, q); err != nil {
		return db.NewClearError(err)
	}
	return nil
}
