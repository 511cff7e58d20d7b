// Package postgres stores credentials in a Postgres database.
package postgres

import (
	"context"
	"fmt"

	"github.com/jacobpatterson1549/hide-and-seek/db"
	"github.com/jacobpatterson1549/hide-and-seek/db/sql"
	_ "github.com/lib/pq" // register "postgres" database driver from package init() function
)

// DriverName is the name lib/pq registers its driver as.
const DriverName = "postgres"

// Dialect uses numbered placeholders.
var Dialect = sql.Dialect{
	Setup: sql.CreateTable,
	Upsert: `INSERT INTO game_credentials (namespace, game_id, auth_token) VALUES ($1, $2, $3)
	ON CONFLICT (namespace) DO UPDATE SET game_id = EXCLUDED.game_id, auth_token = EXCLUDED.auth_token`,
	Select: `SELECT game_id, auth_token FROM game_credentials WHERE namespace = $1`,
	Delete: `DELETE FROM game_credentials WHERE namespace = $1`,
}

// NewStore connects to the database at the url and creates a credential store in it.
func NewStore(ctx context.Context, cfg db.Config, databaseURL string) (*sql.Store, error) {
	dbCfg := sql.DatabaseConfig{
		DriverName:  DriverName,
		DatabaseURL: databaseURL,
		QueryPeriod: cfg.QueryPeriod,
	}
	database, err := dbCfg.NewDatabase()
	if err != nil {
		return nil, fmt.Errorf("creating postgres store: %w", err)
	}
	s, err := sql.NewStore(ctx, *database, Dialect, cfg)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("creating postgres store: %w", err)
	}
	return s, nil
}
