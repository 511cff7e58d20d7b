package api

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
)

type (
	// LocationSearchResult is a place that matched a search query.
	LocationSearchResult struct {
		ID          string    `json:"id"`
		Title       string    `json:"title"`
		Subtitle    string    `json:"subtitle"`
		Type        string    `json:"type,omitempty"`
		OsmType     string    `json:"osm_type,omitempty"`
		OsmID       string    `json:"osm_id,omitempty"`
		Coordinates []float64 `json:"coordinates,omitempty"`
	}

	// LocationBoundaries is the outline of a place.
	LocationBoundaries struct {
		Name        string    `json:"name"`
		OsmID       string    `json:"osm_id"`
		OsmType     string    `json:"osm_type"`
		Type        string    `json:"type,omitempty"`
		Coordinates []float64 `json:"coordinates,omitempty"`
		// Boundaries is a GeoJSON geometry, passed through untouched.
		Boundaries json.RawMessage `json:"boundaries,omitempty"`
	}
)

// SearchLocations finds up to limit places that match the query.
func (c *Client) SearchLocations(ctx context.Context, query string, limit int) ([]LocationSearchResult, error) {
	q := url.Values{
		"query": {query},
		"limit": {strconv.Itoa(limit)},
	}
	var resp struct {
		Data []LocationSearchResult `json:"data"`
	}
	if err := c.get(ctx, "/api/geocoding/autocomplete", q, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// LocationBoundaries fetches the outline of the place with the id.
func (c *Client) LocationBoundaries(ctx context.Context, id string) (*LocationBoundaries, error) {
	var resp struct {
		Data *LocationBoundaries `json:"data"`
	}
	path := "/api/geocoding/boundaries/" + url.PathEscape(id)
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, &RequestError{Err: errMissingData}
	}
	return resp.Data, nil
}
