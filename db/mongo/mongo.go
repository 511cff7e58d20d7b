// Package mongo stores credentials in a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jacobpatterson1549/hide-and-seek/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	databaseName   = "hide-and-seek-db"
	collectionName = "credentials"
	idField        = "_id"
	gameIDField    = "game_id"
	authTokenField = "auth_token"
)

// Store keeps the credentials of each namespace in its own document.
type Store struct {
	Credentials *mongo.Collection
	db.Config
}

var _ db.Store = (*Store)(nil)

// NewStore connects to the database at the url.
func NewStore(ctx context.Context, cfg db.Config, databaseURL string) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("creating mongo store: validation: %w", err)
	}
	clientOptions := options.Client()
	clientOptions.ApplyURI(databaseURL)
	ctx, cancelFunc := context.WithTimeout(ctx, cfg.QueryPeriod)
	defer cancelFunc()
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	database := client.Database(databaseName)
	s := Store{
		Credentials: database.Collection(collectionName),
		Config:      cfg,
	}
	return &s, nil
}

// Save replaces the document of the namespace.
func (s *Store) Save(ctx context.Context, c db.Credentials) error {
	filter := s.filter()
	document := credentialsDocument(s.Namespace, c)
	replaceOptions := options.Replace().SetUpsert(true)
	if err := s.WithTimeout(ctx, func(ctx context.Context) error {
		_, err := s.Credentials.ReplaceOne(ctx, filter, document, replaceOptions)
		return err
	}); err != nil {
		return db.NewSaveError(err)
	}
	return nil
}

// Load reads the document of the namespace.
func (s *Store) Load(ctx context.Context) (*db.Credentials, error) {
	filter := s.filter()
	var c db.Credentials
	if err := s.WithTimeout(ctx, func(ctx context.Context) error {
		result := s.Credentials.FindOne(ctx, filter)
		return result.Decode(&c)
	}); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, db.NewLoadError(err)
	}
	return db.Loaded(c), nil
}

// Clear deletes the document of the namespace.
func (s *Store) Clear(ctx context.Context) error {
	filter := s.filter()
	if err := s.WithTimeout(ctx, func(ctx context.Context) error {
		_, err := s.Credentials.DeleteOne(ctx, filter)
		return err
	}); err != nil {
		return db.NewClearError(err)
	}
	return nil
}

// filter matches the document of the namespace.
func (s *Store) filter() bson.D {
	return d(e(idField, s.Namespace))
}

// credentialsDocument creates the document stored for the namespace.
func credentialsDocument(namespace string, c db.Credentials) bson.D {
	return d(
		e(idField, namespace),
		e(gameIDField, c.GameID),
		e(authTokenField, c.AuthToken),
	)
}

// d is a helper function to create bson.D elements.
func d(e ...bson.E) bson.D {
	return bson.D(e)
}

// e is a helper function to create bson.E elements.
func e(key string, value interface{}) bson.E {
	return bson.E{Key: key, Value: value}
}

// Close disconnects from the database.
func (s *Store) Close() error {
	ctx, cancelFunc := context.WithTimeout(context.Background(), s.QueryPeriod)
	defer cancelFunc()
	return s.Credentials.Database().Client().Disconnect(ctx)
}
