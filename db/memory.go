package db

import (
	"context"
	"sync"
)

// MemoryStore keeps credentials until the process exits.
type MemoryStore struct {
	mu          sync.Mutex
	credentials Credentials
}

var _ Store = (*MemoryStore)(nil)

// Save replaces the stored credentials.
func (s *MemoryStore) Save(ctx context.Context, c Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials = c
	return nil
}

// Load returns the stored credentials, or nil if none have been saved.
func (s *MemoryStore) Load(ctx context.Context) (*Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Loaded(s.credentials), nil
}

// Clear removes the stored credentials.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials = Credentials{}
	return nil
}
