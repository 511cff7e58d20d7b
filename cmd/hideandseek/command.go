package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jacobpatterson1549/hide-and-seek/game"
	"github.com/jacobpatterson1549/hide-and-seek/search"
)

const commandUsage = `  check <code>           tells if the game with the code can be joined
  join <code> <name>     joins the game and prints changes to it until interrupted
  create <query> <name>  creates a game in the first place found for the query and joins it
  restore                reconnects to the saved game and prints changes to it until interrupted
  start                  starts the saved game
  leave                  leaves the saved game
`

// defaultSettings are the rules of games created from the command line.
var defaultSettings = game.Settings{
	Units:          "metric",
	HidingZones:    []string{"bus_stops", "train_stations"},
	HidingZoneSize: 500,
	GameDuration:   120,
	DayStartTime:   "09:00",
	DayEndTime:     "18:00",
}

var errUsage = errors.New("unknown command or wrong number of arguments")

// run runs the command in the args, writing what happens to out.
func (a *app) run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	name, args := args[0], args[1:]
	switch {
	case name == "check" && len(args) == 1:
		return a.check(ctx, args[0], out)
	case name == "join" && len(args) == 2:
		return a.join(ctx, args[0], args[1], out)
	case name == "create" && len(args) == 2:
		return a.create(ctx, args[0], args[1], out)
	case name == "restore" && len(args) == 0:
		return a.restore(ctx, out)
	case name == "start" && len(args) == 0:
		return a.start(ctx, out)
	case name == "leave" && len(args) == 0:
		return a.leave(ctx, out)
	}
	return errUsage
}

func (a *app) check(ctx context.Context, code string, out io.Writer) error {
	exists := a.service.CheckGameExists(ctx, code)
	if err := a.stateError(); err != nil {
		return err
	}
	if !exists {
		fmt.Fprintf(out, "game %v does not exist\n", code)
		return nil
	}
	fmt.Fprintf(out, "game %v exists\n", code)
	return nil
}

func (a *app) join(ctx context.Context, code, playerName string, out io.Writer) error {
	if !a.service.JoinGame(ctx, code, playerName) {
		return a.stateError()
	}
	fmt.Fprintf(out, "joined game %v\n", a.state.Game().Code)
	return a.watch(ctx, out)
}

func (a *app) create(ctx context.Context, query, creatorName string, out io.Writer) error {
	location, err := a.searchLocation(ctx, query)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "creating game in %v\n", location.Name)
	code, ok := a.service.CreateGame(ctx, location, defaultSettings, creatorName)
	if !ok {
		return a.stateError()
	}
	fmt.Fprintf(out, "created game %v\n", code)
	return a.join(ctx, code, creatorName, out)
}

func (a *app) restore(ctx context.Context, out io.Writer) error {
	if !a.service.RestoreConnection(ctx) {
		if err := a.stateError(); err != nil {
			return err
		}
		fmt.Fprintln(out, "no game to restore")
		return nil
	}
	fmt.Fprintln(out, "restored connection")
	return a.watch(ctx, out)
}

func (a *app) start(ctx context.Context, out io.Writer) error {
	if !a.service.RefreshGame(ctx) || !a.service.StartGame(ctx) {
		return a.stateError()
	}
	fmt.Fprintf(out, "started game %v\n", a.state.Game().Code)
	return nil
}

// leave connects to the saved game, if any, so the other players are told about the player leaving.
func (a *app) leave(ctx context.Context, out io.Writer) error {
	a.service.RestoreConnection(ctx)
	a.service.ClearError()
	a.service.LeaveGame(ctx)
	if err := a.stateError(); err != nil {
		return err
	}
	fmt.Fprintln(out, "left game")
	return nil
}

// searchLocation finds the first place for the query and loads its boundaries.
func (a *app) searchLocation(ctx context.Context, query string) (game.Location, error) {
	a.flow.UpdateQuery(query)
	ctx2, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	var fs search.FlowState
	for fs = range a.flow.Subscribe(ctx2) { // BLOCKING
		if !fs.Searching {
			break
		}
	}
	switch {
	case ctx.Err() != nil:
		return game.Location{}, ctx.Err()
	case len(fs.Error) != 0:
		return game.Location{}, errors.New(fs.Error)
	case len(fs.Results) == 0:
		return game.Location{}, fmt.Errorf("no places found for %q", query)
	}
	if !a.flow.SelectLocation(ctx, fs.Results[0]) {
		return game.Location{}, errors.New(a.flow.State().Error)
	}
	location, ok := a.flow.Location()
	if !ok {
		return game.Location{}, fmt.Errorf("no boundaries for %v", fs.Results[0].Title)
	}
	return location, nil
}

// watch prints changes to the game until the context is done or the connection is lost.
func (a *app) watch(ctx context.Context, out io.Writer) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	games := a.state.SubscribeGame(ctx)
	players := a.state.SubscribePlayers(ctx)
	errs := a.state.SubscribeError(ctx)
	connected := a.state.SubscribeConnected(ctx)
	for { // BLOCKING
		select {
		case <-ctx.Done():
			return nil
		case g, ok := <-games:
			switch {
			case !ok:
				return nil
			case g != nil:
				fmt.Fprintf(out, "game %v in %v is %v\n", g.Code, g.Location.Name, g.Status)
			}
		case p, ok := <-players:
			if !ok {
				return nil
			}
			fmt.Fprintf(out, "players: %v\n", a.playerNames(p))
		case msg, ok := <-errs:
			switch {
			case !ok:
				return nil
			case len(msg) != 0:
				fmt.Fprintf(out, "error: %v\n", msg)
				a.service.ClearError()
			}
		case c, ok := <-connected:
			if !ok {
				return nil
			}
			if !c {
				fmt.Fprintln(out, "disconnected")
				return nil
			}
		}
	}
}

// playerNames lists the players, marking the creator and the current player.
func (a *app) playerNames(players []game.Player) string {
	currentPlayerID := a.state.CurrentPlayerID()
	names := make([]string, len(players))
	for i, p := range players {
		name := p.Name
		if p.IsCreator {
			name += " (creator)"
		}
		if p.ID == currentPlayerID {
			name += " (you)"
		}
		names[i] = name
	}
	return strings.Join(names, ", ")
}

// stateError removes the error from the state and returns it, if any.
func (a *app) stateError() error {
	msg := a.state.Err()
	if len(msg) == 0 {
		return nil
	}
	a.service.ClearError()
	return errors.New(msg)
}
