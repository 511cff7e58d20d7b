package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jacobpatterson1549/hide-and-seek/api"
	"golang.org/x/text/cases"
)

// Place is a location that can be searched for.
type Place struct {
	api.LocationSearchResult
	// Boundaries is the GeoJSON outline of the place.
	Boundaries json.RawMessage
}

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// DefaultPlaces are a few cities with rough outlines.
var DefaultPlaces = []Place{
	{
		LocationSearchResult: api.LocationSearchResult{
			ID:          "r5326784",
			Title:       "Madrid",
			Subtitle:    "Comunidad de Madrid, Spain",
			Type:        "city",
			OsmType:     "relation",
			OsmID:       "5326784",
			Coordinates: []float64{-3.7035825, 40.4167047},
		},
		Boundaries: json.RawMessage(`{"type":"Polygon","coordinates":[[[-3.889,40.312],[-3.518,40.312],[-3.518,40.643],[-3.889,40.643],[-3.889,40.312]]]}`),
	},
	{
		LocationSearchResult: api.LocationSearchResult{
			ID:          "r1543125",
			Title:       "Málaga",
			Subtitle:    "Andalucía, Spain",
			Type:        "city",
			OsmType:     "relation",
			OsmID:       "1543125",
			Coordinates: []float64{-4.4216366, 36.7213028},
		},
		Boundaries: json.RawMessage(`{"type":"Polygon","coordinates":[[[-4.571,36.654],[-4.264,36.654],[-4.264,36.891],[-4.571,36.891],[-4.571,36.654]]]}`),
	},
	{
		LocationSearchResult: api.LocationSearchResult{
			ID:          "r175905",
			Title:       "New York",
			Subtitle:    "New York, United States",
			Type:        "city",
			OsmType:     "relation",
			OsmID:       "175905",
			Coordinates: []float64{-74.0060152, 40.7127281},
		},
		Boundaries: json.RawMessage(`{"type":"Polygon","coordinates":[[[-74.259,40.477],[-73.700,40.477],[-73.700,40.917],[-74.259,40.917],[-74.259,40.477]]]}`),
	},
	{
		LocationSearchResult: api.LocationSearchResult{
			ID:          "r62422",
			Title:       "Berlin",
			Subtitle:    "Germany",
			Type:        "city",
			OsmType:     "relation",
			OsmID:       "62422",
			Coordinates: []float64{13.3888599, 52.5170365},
		},
		Boundaries: json.RawMessage(`{"type":"Polygon","coordinates":[[[13.088,52.338],[13.761,52.338],[13.761,52.675],[13.088,52.675],[13.088,52.338]]]}`),
	},
}

// handleAutocomplete writes the places with titles that contain the query, ignoring case.
func (s *Server) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := defaultSearchLimit
	if l := q.Get("limit"); len(l) != 0 {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxSearchLimit)
	}
	fold := cases.Fold()
	query := fold.String(strings.TrimSpace(q.Get("query")))
	results := []api.LocationSearchResult{}
	for _, p := range s.places {
		if len(results) == limit {
			break
		}
		if strings.Contains(fold.String(p.Title), query) {
			results = append(results, p.LocationSearchResult)
		}
	}
	resp := struct {
		Data []api.LocationSearchResult `json:"data"`
	}{
		Data: results,
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleBoundaries writes the outline of the place with the id.
func (s *Server) handleBoundaries(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, p := range s.places {
		if p.ID != id {
			continue
		}
		b := api.LocationBoundaries{
			Name:        p.Title,
			OsmID:       p.OsmID,
			OsmType:     p.OsmType,
			Type:        p.Type,
			Coordinates: p.Coordinates,
			Boundaries:  p.Boundaries,
		}
		resp := struct {
			Data api.LocationBoundaries `json:"data"`
		}{
			Data: b,
		}
		s.writeJSON(w, http.StatusOK, resp)
		return
	}
	s.writeError(w, http.StatusNotFound, "location not found")
}
