package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jacobpatterson1549/hide-and-seek/db"
)

func TestDialectPlaceholders(t *testing.T) {
	statements := []string{Dialect.Upsert, Dialect.Select, Dialect.Delete}
	for i, s := range statements {
		switch {
		case strings.Contains(s, "?"):
			t.Errorf("Test %v: wanted numbered placeholders, got %q", i, s)
		case !strings.Contains(s, "$1"):
			t.Errorf("Test %v: wanted namespace as first argument, got %q", i, s)
		}
	}
}

func TestNewStoreValidation(t *testing.T) {
	newStoreTests := []struct {
		db.Config
		databaseURL string
	}{
		{
			databaseURL: "postgres://localhost/hide_and_seek",
		},
		{
			Config: db.Config{QueryPeriod: time.Second, Namespace: db.DefaultNamespace},
		},
	}
	for i, test := range newStoreTests {
		if _, err := NewStore(context.Background(), test.Config, test.databaseURL); err == nil {
			t.Errorf("Test %v: wanted error", i)
		}
	}
}
