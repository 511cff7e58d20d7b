package mongo

import (
	"context"
	"testing"

	"github.com/jacobpatterson1549/hide-and-seek/db"
	"go.mongodb.org/mongo-driver/bson"
)

func TestCredentialsDocument(t *testing.T) {
	c := db.Credentials{GameID: "g1", AuthToken: "t1"}
	document := credentialsDocument(db.DefaultNamespace, c)
	b, err := bson.Marshal(document)
	if err != nil {
		t.Fatalf("marshalling document: %v", err)
	}
	var got struct {
		ID string `bson:"_id"`
		db.Credentials `bson:",inline"`
	}
	if err := bson.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshalling document: %v", err)
	}
	switch {
	case got.ID != db.DefaultNamespace:
		t.Errorf("wanted document id to be the namespace, got %q", got.ID)
	case got.Credentials != c:
		t.Errorf("wanted %v, got %v", c, got.Credentials)
	}
}

func TestNewStoreValidation(t *testing.T) {
	if _, err := NewStore(context.Background(), db.Config{}, "mongodb://localhost:27017"); err == nil {
		t.Errorf("wanted error creating store without query period")
	}
}
