// Package sql implements a credential store on a SQL database.
package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type (
	// Database is a SQL database with a timeout for each action.
	Database struct {
		DB *sql.DB
		DatabaseConfig
	}

	// DatabaseConfig contains fields which describe a Database.
	DatabaseConfig struct {
		// DriverName is the name of the registered sql driver, such as "postgres" or "sqlite".
		DriverName string
		// DatabaseURL is the data source name passed to the driver.
		DatabaseURL string
		// QueryPeriod is the amount of time that any database action can take before it should timeout.
		QueryPeriod time.Duration
	}

	// Query is a message that is sent to the database.
	Query interface {
		// Cmd is the injection-safe message to send to the database.
		Cmd() string
		// Args are the user-provided properties of the messages which should be escaped.
		Args() []interface{}
	}

	// Statement is a Query with arguments.
	Statement struct {
		cmd       string
		arguments []interface{}
	}

	// RawQuery is a Query that has no arguments.
	RawQuery string
)

// ErrNoRows is returned by Query when there are no rows to scan.
var ErrNoRows = sql.ErrNoRows

// NewDatabase opens a database.
func (cfg DatabaseConfig) NewDatabase() (*Database, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("creating database: validation: %w", err)
	}
	sqlDB, err := sql.Open(cfg.DriverName, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db := Database{
		DB:             sqlDB,
		DatabaseConfig: cfg,
	}
	return &db, nil
}

// validate ensures the configuration has no errors.
func (cfg DatabaseConfig) validate() error {
	switch {
	case len(cfg.DriverName) == 0:
		return fmt.Errorf("driver name required")
	case len(cfg.DatabaseURL) == 0:
		return fmt.Errorf("database url required")
	case cfg.QueryPeriod <= 0:
		return fmt.Errorf("positive query period required")
	}
	return nil
}

// NewStatement creates a Query with arguments.
func NewStatement(cmd string, args ...interface{}) Statement {
	s := Statement{
		cmd:       cmd,
		arguments: args,
	}
	return s
}

// Cmd returns the SQL string of the statement.
func (s Statement) Cmd() string {
	return s.cmd
}

// Args returns the arguments of the statement.
func (s Statement) Args() []interface{} {
	return s.arguments
}

// Cmd returns the raw SQL query.
func (r RawQuery) Cmd() string {
	return string(r)
}

// Args returns nil for the raw SQL query.
func (RawQuery) Args() []interface{} {
	return nil
}

// Query reads one row into the destinations.  ErrNoRows is returned unwrapped when nothing matches.
func (db Database) Query(ctx context.Context, q Query, dest ...interface{}) error {
	ctx, cancelFunc := context.WithTimeout(ctx, db.QueryPeriod)
	defer cancelFunc()
	err := db.DB.QueryRowContext(ctx, q.Cmd(), q.Args()...).Scan(dest...)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNoRows
	}
	return fmt.Errorf("reading row: %w", err)
}

// Exec runs the queries in one transaction, rolling it back if any query fails.
func (db Database) Exec(ctx context.Context, queries ...Query) error {
	ctx, cancelFunc := context.WithTimeout(ctx, db.QueryPeriod)
	defer cancelFunc()
	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	for i, q := range queries {
		if _, err := tx.ExecContext(ctx, q.Cmd(), q.Args()...); err != nil {
			err = fmt.Errorf("executing query %v: %w", i, err)
			if err2 := tx.Rollback(); err2 != nil {
				err = errors.Join(err, fmt.Errorf("rolling back transaction: %w", err2))
			}
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Close closes the database.
func (db Database) Close() error {
	return db.DB.Close()
}
