package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jacobpatterson1549/hide-and-seek/api"
	"github.com/jacobpatterson1549/hide-and-seek/config"
	"github.com/jacobpatterson1549/hide-and-seek/db"
	"github.com/jacobpatterson1549/hide-and-seek/game/state"
	"github.com/jacobpatterson1549/hide-and-seek/search"
	"github.com/jacobpatterson1549/hide-and-seek/session"
	"github.com/jacobpatterson1549/hide-and-seek/socket"
	"github.com/jacobpatterson1549/hide-and-seek/socket/gorilla"
)

// app is the client application with all of its parts connected.
type app struct {
	log        *log.Logger
	state      *state.State
	conn       *session.Dispatcher
	service    *session.Service
	flow       *search.Flow
	store      db.Store
	closeStore func() error
}

// newApp creates the application from the config.
func newApp(ctx context.Context, cfg config.Config, log *log.Logger) (*app, error) {
	apiClientCfg := apiClientConfig(cfg, log)
	apiClient, err := apiClientCfg.NewClient()
	if err != nil {
		return nil, err
	}
	socketCfg := socketConfig(cfg, log)
	s, err := socketCfg.NewSocket()
	if err != nil {
		return nil, err
	}
	st := state.New()
	dispatcherCfg := dispatcherConfig(cfg, log)
	d, err := dispatcherCfg.NewDispatcher(s, st)
	if err != nil {
		return nil, err
	}
	flowCfg := flowConfig(cfg, log)
	flow, err := flowCfg.NewFlow(apiClient)
	if err != nil {
		return nil, err
	}
	store, closeStore, err := cfg.NewStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating credential store: %w", err)
	}
	serviceCfg := serviceConfig(cfg, log)
	service, err := serviceCfg.NewService(apiClient, d, st, store)
	if err != nil {
		closeStore()
		return nil, err
	}
	a := app{
		log:        log,
		state:      st,
		conn:       d,
		service:    service,
		flow:       flow,
		store:      store,
		closeStore: closeStore,
	}
	return &a, nil
}

// apiClientConfig creates the configuration of requests to the game server.
func apiClientConfig(cfg config.Config, log *log.Logger) api.Config {
	c := api.Config{
		BaseURL:        cfg.APIBaseURL(),
		Log:            log,
		Debug:          cfg.Debug,
		ConnectTimeout: cfg.ConnectTimeout,
		RequestTimeout: cfg.RequestTimeout,
		IdleTimeout:    cfg.IdleTimeout,
	}
	return c
}

// socketConfig creates the configuration of the game socket.
func socketConfig(cfg config.Config, log *log.Logger) socket.Config {
	c := socket.Config{
		Log:       log,
		Dialer:    gorilla.NewDialer(cfg.ConnectTimeout),
		WriteWait: cfg.WriteWait,
		Debug:     cfg.Debug,
	}
	return c
}

// dispatcherConfig creates the configuration that applies game messages to the state.
func dispatcherConfig(cfg config.Config, log *log.Logger) session.DispatcherConfig {
	c := session.DispatcherConfig{
		Log:        log,
		PingPeriod: cfg.PingPeriod,
	}
	return c
}

// serviceConfig creates the configuration of joining, leaving, and restoring games.
func serviceConfig(cfg config.Config, log *log.Logger) session.ServiceConfig {
	c := session.ServiceConfig{
		Log:          log,
		WebSocketURL: cfg.WebSocketURL,
		TimeFunc:     time.Now,
	}
	return c
}

// flowConfig creates the configuration of searching for the location of a new game.
func flowConfig(cfg config.Config, log *log.Logger) search.FlowConfig {
	c := search.FlowConfig{
		Log:      log,
		Debounce: cfg.SearchDebounce,
		Limit:    cfg.SearchLimit,
	}
	return c
}

// close disconnects from the game, keeping the saved credentials so the connection can be restored later.
func (a *app) close() error {
	a.flow.Close()
	var errs []error
	if err := a.conn.Disconnect(); err != nil {
		errs = append(errs, err)
	}
	if err := a.closeStore(); err != nil {
		errs = append(errs, fmt.Errorf("closing credential store: %w", err))
	}
	return errors.Join(errs...)
}
