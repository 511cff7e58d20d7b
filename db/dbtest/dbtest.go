// Package dbtest contains mock testing utilities.
package dbtest

import (
	"context"

	"github.com/jacobpatterson1549/hide-and-seek/db"
)

// MockStore implements the db.Store interface.
type MockStore struct {
	// SaveFunc is called by Save.
	SaveFunc func(ctx context.Context, c db.Credentials) error
	// LoadFunc is called by Load.
	LoadFunc func(ctx context.Context) (*db.Credentials, error)
	// ClearFunc is called by Clear.
	ClearFunc func(ctx context.Context) error
}

var _ db.Store = MockStore{}

// Save calls SaveFunc.
func (s MockStore) Save(ctx context.Context, c db.Credentials) error {
	return s.SaveFunc(ctx, c)
}

// Load calls LoadFunc.
func (s MockStore) Load(ctx context.Context) (*db.Credentials, error) {
	return s.LoadFunc(ctx)
}

// Clear calls ClearFunc.
func (s MockStore) Clear(ctx context.Context) error {
	return s.ClearFunc(ctx)
}
