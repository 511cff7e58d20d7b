// Package search finds the real-world area a new game is played in.
package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jacobpatterson1549/hide-and-seek/api"
	"github.com/jacobpatterson1549/hide-and-seek/game"
	"github.com/jacobpatterson1549/hide-and-seek/game/state"
	"github.com/jacobpatterson1549/hide-and-seek/log"
)

type (
	// Flow is the location step of creating a game: the player types a query, picks a result, and confirms its boundaries.
	Flow struct {
		api   API
		state *state.Value[FlowState]
		// mu guards the fields below it.
		mu sync.Mutex
		// searchID is incremented for each query so results of older queries can be ignored.
		searchID uint64
		// selectID is incremented for each selection so boundaries of older selections can be ignored.
		selectID uint64
		cancel   context.CancelFunc
		wg       sync.WaitGroup
		FlowConfig
	}

	// FlowConfig contains fields which describe a Flow.
	FlowConfig struct {
		// Log is used to log errors and other information.
		Log log.Logger
		// Debounce is how long the query must be unchanged before it is searched for.
		Debounce time.Duration
		// Limit is the most results a search shows.
		Limit int
	}

	// API looks up places.
	API interface {
		SearchLocations(ctx context.Context, query string, limit int) ([]api.LocationSearchResult, error)
		LocationBoundaries(ctx context.Context, id string) (*api.LocationBoundaries, error)
	}

	// FlowState is what the player sees while choosing a location.
	// The slices and pointers are shared and must not be modified.
	FlowState struct {
		Query             string
		Results           []api.LocationSearchResult
		Selected          *api.LocationSearchResult
		Boundaries        *api.LocationBoundaries
		Searching         bool
		LoadingBoundaries bool
		// Error is empty when there is no error to show.
		Error string
	}
)

var _ API = (*api.Client)(nil)

// NewFlow creates a Flow with an empty query.
func (cfg FlowConfig) NewFlow(a API) (*Flow, error) {
	if err := cfg.validate(a); err != nil {
		return nil, fmt.Errorf("creating search flow: validation: %w", err)
	}
	f := Flow{
		api:        a,
		state:      state.NewValue(FlowState{}),
		cancel:     func() {},
		FlowConfig: cfg,
	}
	return &f, nil
}

// validate ensures the configuration has no errors.
func (cfg FlowConfig) validate(a API) error {
	switch {
	case cfg.Log == nil:
		return fmt.Errorf("log required")
	case cfg.Debounce < 0:
		return fmt.Errorf("non-negative debounce required")
	case cfg.Limit <= 0:
		return fmt.Errorf("positive limit required")
	case a == nil:
		return fmt.Errorf("api required")
	}
	return nil
}

// State returns the current state of the flow.
func (f *Flow) State() FlowState {
	return f.state.Get()
}

// Subscribe streams the state of the flow until the context is done.
func (f *Flow) Subscribe(ctx context.Context) <-chan FlowState {
	return f.state.Subscribe(ctx)
}

// UpdateQuery changes the query and searches for it after the debounce period if it is not replaced first.
// Only the results of the latest query are shown.  A blank query clears the results.
func (f *Flow) UpdateQuery(query string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancel()
	f.searchID++
	if len(strings.TrimSpace(query)) == 0 {
		f.cancel = func() {}
		f.state.Update(func(fs FlowState) FlowState {
			fs.Query = query
			fs.Results = nil
			fs.Searching = false
			return fs
		})
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.state.Update(func(fs FlowState) FlowState {
		fs.Query = query
		fs.Searching = true
		return fs
	})
	f.wg.Add(1)
	go f.search(ctx, f.searchID, query)
}

// search waits for the debounce period and then shows the results for the query unless a newer query was made.
func (f *Flow) search(ctx context.Context, id uint64, query string) {
	defer f.wg.Done()
	t := time.NewTimer(f.Debounce)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return
	case <-t.C:
	}
	results, err := f.api.SearchLocations(ctx, query, f.Limit)
	f.mu.Lock()
	defer f.mu.Unlock()
	if id != f.searchID {
		return
	}
	if err != nil {
		f.Log.Printf("searching for %q: %v", query, err)
	}
	f.state.Update(func(fs FlowState) FlowState {
		fs.Results = results
		fs.Searching = false
		if err != nil {
			fs.Results = nil
			fs.Error = "Error searching locations: " + err.Error()
		}
		return fs
	})
}

// SelectLocation picks the search result and loads its boundaries, blocking until they are loaded.
// The query is replaced with the title of the result and the results are cleared.
// It returns false if the boundaries could not be loaded or if a different selection was made meanwhile.
func (f *Flow) SelectLocation(ctx context.Context, r api.LocationSearchResult) bool {
	f.mu.Lock()
	f.cancel()
	f.cancel = func() {}
	f.searchID++
	f.selectID++
	id := f.selectID
	f.state.Update(func(fs FlowState) FlowState {
		fs.Query = r.Title
		fs.Results = nil
		fs.Searching = false
		fs.Selected = &r
		fs.Boundaries = nil
		fs.LoadingBoundaries = true
		return fs
	})
	f.mu.Unlock()

	b, err := f.api.LocationBoundaries(ctx, r.ID) // BLOCKING

	f.mu.Lock()
	defer f.mu.Unlock()
	if id != f.selectID {
		return false
	}
	if err != nil {
		f.Log.Printf("loading boundaries of %q: %v", r.ID, err)
	}
	f.state.Update(func(fs FlowState) FlowState {
		fs.LoadingBoundaries = false
		fs.Boundaries = b
		if err != nil {
			fs.Boundaries = nil
			fs.Error = "Error loading location boundaries: " + err.Error()
		}
		return fs
	})
	return err == nil
}

// ClearSelectedLocation goes back to searching, keeping the query.
func (f *Flow) ClearSelectedLocation() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selectID++
	f.state.Update(func(fs FlowState) FlowState {
		fs.Selected = nil
		fs.Boundaries = nil
		fs.LoadingBoundaries = false
		return fs
	})
}

// ClearError removes the error after it has been shown.
func (f *Flow) ClearError() {
	f.state.Update(func(fs FlowState) FlowState {
		fs.Error = ""
		return fs
	})
}

// Location is the area of the selected result, available once its boundaries have loaded.
func (f *Flow) Location() (game.Location, bool) {
	fs := f.state.Get()
	if fs.Selected == nil || fs.Boundaries == nil {
		return game.Location{}, false
	}
	r, b := fs.Selected, fs.Boundaries
	l := game.Location{
		Name:        b.Name,
		Coordinates: b.Coordinates,
		Type:        b.Type,
		OsmID:       b.OsmID,
		OsmType:     b.OsmType,
	}
	if len(l.Name) == 0 {
		l.Name = r.Title
	}
	if len(l.Coordinates) < 2 {
		l.Coordinates = r.Coordinates
	}
	if len(l.Type) == 0 {
		l.Type = r.Type
	}
	l.Coordinates = append([]float64{}, l.Coordinates...)
	return l, true
}

// Close stops any pending search and waits for it to finish.
func (f *Flow) Close() {
	f.mu.Lock()
	f.cancel()
	f.searchID++
	f.mu.Unlock()
	f.wg.Wait()
}
