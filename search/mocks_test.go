package search

import (
	"context"

	"github.com/jacobpatterson1549/hide-and-seek/api"
)

type mockAPI struct {
	searchLocationsFunc    func(ctx context.Context, query string, limit int) ([]api.LocationSearchResult, error)
	locationBoundariesFunc func(ctx context.Context, id string) (*api.LocationBoundaries, error)
}

func (m mockAPI) SearchLocations(ctx context.Context, query string, limit int) ([]api.LocationSearchResult, error) {
	return m.searchLocationsFunc(ctx, query, limit)
}

func (m mockAPI) LocationBoundaries(ctx context.Context, id string) (*api.LocationBoundaries, error) {
	return m.locationBoundariesFunc(ctx, id)
}
