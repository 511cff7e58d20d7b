// Package firestore stores credentials in a google cloud firestore database.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/jacobpatterson1549/hide-and-seek/db"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Store keeps the credentials of each namespace in its own document.
type Store struct {
	client *firestore.Client
	db.Config
}

var _ db.Store = (*Store)(nil)

// NewStore creates a firestore client for the project.
func NewStore(ctx context.Context, cfg db.Config, projectID string) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("creating firestore store: validation: %w", err)
	}
	client, err := firestore.NewClient(ctx, projectID) // do not timeout context - the client is used by the store
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	s := Store{
		client: client,
		Config: cfg,
	}
	return &s, nil
}

func (s *Store) credentialsDoc() *firestore.DocumentRef {
	return s.client.Collection("services").Doc("hide-and-seek").Collection("credentials").Doc(s.Namespace)
}

// Save replaces the document of the namespace.
func (s *Store) Save(ctx context.Context, c db.Credentials) error {
	if err := s.WithTimeout(ctx, func(ctx context.Context) error {
		_, err := s.credentialsDoc().Set(ctx, c)
		return err
	}); err != nil {
		return db.NewSaveError(err)
	}
	return nil
}

// Load reads the document of the namespace.
func (s *Store) Load(ctx context.Context) (*db.Credentials, error) {
	var c db.Credentials
	var found bool
	if err := s.WithTimeout(ctx, func(ctx context.Context) error {
		snapshot, err := s.credentialsDoc().Get(ctx)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return nil
			}
			return err
		}
		found = true
		return snapshot.DataTo(&c)
	}); err != nil {
		return nil, db.NewLoadError(err)
	}
	if !found {
		return nil, nil
	}
	return db.Loaded(c), nil
}

// Clear deletes the document of the namespace.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.WithTimeout(ctx, func(ctx context.Context) error {
		_, err := s.credentialsDoc().Delete(ctx)
		return err
	}); err != nil {
		return db.NewClearError(err)
	}
	return nil
}

// Close closes the firestore client.
func (s *Store) Close() error {
	return s.client.Close()
}
