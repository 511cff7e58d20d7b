// Package sqlite stores credentials in a SQLite database file.
package sqlite

import (
	"context"
	"fmt"

	"github.com/jacobpatterson1549/hide-and-seek/db"
	"github.com/jacobpatterson1549/hide-and-seek/db/sql"
	_ "modernc.org/sqlite" // register "sqlite" database driver from package init() function
)

// DriverName is the name modernc.org/sqlite registers its driver as.
const DriverName = "sqlite"

// Dialect uses positional placeholders.
var Dialect = sql.Dialect{
	Setup: sql.CreateTable,
	Upsert: `INSERT INTO game_credentials (namespace, game_id, auth_token) VALUES (?, ?, ?)
	ON CONFLICT (namespace) DO UPDATE SET game_id = excluded.game_id, auth_token = excluded.auth_token`,
	Select: `SELECT game_id, auth_token FROM game_credentials WHERE namespace = ?`,
	Delete: `DELETE FROM game_credentials WHERE namespace = ?`,
}

// NewStore opens the database file at the path and creates a credential store in it.
func NewStore(ctx context.Context, cfg db.Config, path string) (*sql.Store, error) {
	dbCfg := sql.DatabaseConfig{
		DriverName:  DriverName,
		DatabaseURL: path,
		QueryPeriod: cfg.QueryPeriod,
	}
	database, err := dbCfg.NewDatabase()
	if err != nil {
		return nil, fmt.Errorf("creating sqlite store: %w", err)
	}
	database.DB.SetMaxOpenConns(1) // sqlite allows one writer
	s, err := sql.NewStore(ctx, *database, Dialect, cfg)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("creating sqlite store: %w", err)
	}
	return s, nil
}
