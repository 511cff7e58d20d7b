// Package config reads the settings of the application from the environment.
package config

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jacobpatterson1549/hide-and-seek/db"
	"github.com/jacobpatterson1549/hide-and-seek/db/firestore"
	"github.com/jacobpatterson1549/hide-and-seek/db/mongo"
	"github.com/jacobpatterson1549/hide-and-seek/db/sql/postgres"
	"github.com/jacobpatterson1549/hide-and-seek/db/sql/sqlite"
)

// Config is the configuration of the client application.
type Config struct {
	// Environment is "development" or "production".
	Environment string `env:"HIDE_AND_SEEK_ENVIRONMENT" envDefault:"development"`
	// APIURL overrides the base url of the game server that is selected by the environment.
	APIURL string `env:"HIDE_AND_SEEK_API_URL"`
	// MapAPIKey is the key of the map tile provider.
	MapAPIKey string `env:"MAPTILER_API_KEY"`
	// Debug logs the type of each message sent and received on the game socket.
	Debug bool `env:"HIDE_AND_SEEK_DEBUG"`

	ConnectTimeout time.Duration `env:"HIDE_AND_SEEK_CONNECT_TIMEOUT" envDefault:"15s"`
	RequestTimeout time.Duration `env:"HIDE_AND_SEEK_REQUEST_TIMEOUT" envDefault:"30s"`
	IdleTimeout    time.Duration `env:"HIDE_AND_SEEK_IDLE_TIMEOUT"    envDefault:"15s"`
	PingPeriod     time.Duration `env:"HIDE_AND_SEEK_PING_PERIOD"     envDefault:"30s"`
	WriteWait      time.Duration `env:"HIDE_AND_SEEK_WRITE_WAIT"      envDefault:"10s"`
	SearchDebounce time.Duration `env:"HIDE_AND_SEEK_SEARCH_DEBOUNCE" envDefault:"300ms"`
	SearchLimit    int           `env:"HIDE_AND_SEEK_SEARCH_LIMIT"    envDefault:"10"`

	// Store is the kind of store the reconnection credentials are kept in.
	Store string `env:"HIDE_AND_SEEK_STORE" envDefault:"sqlite"`
	// StoreURL is the file path or database url of the store.
	StoreURL string `env:"HIDE_AND_SEEK_STORE_URL" envDefault:"hide_and_seek.db"`
	// StoreKey is the hex-encoded 32 byte key used to seal the file store.  The file is not sealed if the key is empty.
	StoreKey string `env:"HIDE_AND_SEEK_STORE_KEY"`
	// Namespace is the key the credentials are stored under.
	Namespace string `env:"HIDE_AND_SEEK_NAMESPACE" envDefault:"hide_and_seek_game_state"`
	// QueryPeriod limits how long remote store requests take.
	QueryPeriod time.Duration `env:"HIDE_AND_SEEK_QUERY_PERIOD" envDefault:"5s"`
	// GoogleCloudProject is the project of the firestore store.
	GoogleCloudProject string `env:"GOOGLE_CLOUD_PROJECT"`
}

const (
	// Development is the environment of a locally running game server.
	Development = "development"
	// Production is the environment of the public game server.
	Production = "production"

	developmentURL = "http://localhost:4000"
	productionURL  = "https://hide-and-seek.restifo.dev"
	styleURLFormat = "https://api.maptiler.com/maps/streets/style.json?key=%s"
)

// Store kinds.
const (
	MemoryStore    = "memory"
	FileStore      = "file"
	SQLiteStore    = "sqlite"
	PostgresStore  = "postgres"
	MongoStore     = "mongo"
	FirestoreStore = "firestore"
)

// Parse reads the config from the environment, which is the process environment if nil.
func Parse(environment map[string]string) (*Config, error) {
	opts := env.Options{
		Environment: environment,
	}
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// Validate ensures the configuration has no errors.
func (cfg Config) Validate() error {
	switch {
	case cfg.Environment != Development && cfg.Environment != Production:
		return fmt.Errorf("unknown environment %q", cfg.Environment)
	case cfg.ConnectTimeout <= 0, cfg.RequestTimeout <= 0, cfg.IdleTimeout <= 0:
		return fmt.Errorf("positive http timeouts required")
	case cfg.PingPeriod <= 0:
		return fmt.Errorf("positive ping period required")
	case cfg.WriteWait <= 0:
		return fmt.Errorf("positive write wait required")
	case cfg.SearchDebounce < 0:
		return fmt.Errorf("non-negative search debounce required")
	case cfg.SearchLimit <= 0:
		return fmt.Errorf("positive search limit required")
	case cfg.QueryPeriod <= 0:
		return fmt.Errorf("positive query period required")
	case len(cfg.Namespace) == 0:
		return fmt.Errorf("namespace required")
	}
	if _, err := cfg.apiURL(); err != nil {
		return err
	}
	if _, err := cfg.storeKey(); err != nil {
		return err
	}
	switch cfg.Store {
	case MemoryStore:
		// NOOP
	case FileStore, SQLiteStore, PostgresStore, MongoStore:
		if len(cfg.StoreURL) == 0 {
			return fmt.Errorf("%v store url required", cfg.Store)
		}
	case FirestoreStore:
		if len(cfg.GoogleCloudProject) == 0 {
			return fmt.Errorf("google cloud project required for firestore store")
		}
	default:
		return fmt.Errorf("unknown store %q", cfg.Store)
	}
	return nil
}

// IsDevelopment determines if the application talks to a locally running game server.
func (cfg Config) IsDevelopment() bool {
	return cfg.Environment == Development
}

// APIBaseURL is the base url of the game server.
func (cfg Config) APIBaseURL() string {
	u, err := cfg.apiURL()
	if err != nil {
		return ""
	}
	return u.String()
}

// WebSocketURL is the url of the socket of the game with the id, used when the server did not provide one.
func (cfg Config) WebSocketURL(gameID string) string {
	u, err := cfg.apiURL()
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.JoinPath("api", "games", gameID, "ws").String()
}

// StyleURL is the url of the map style, including the api key.
func (cfg Config) StyleURL() string {
	return fmt.Sprintf(styleURLFormat, url.QueryEscape(cfg.MapAPIKey))
}

// apiURL parses the base url of the game server.
func (cfg Config) apiURL() (*url.URL, error) {
	s := cfg.APIURL
	if len(s) == 0 {
		s = developmentURL
		if cfg.Environment == Production {
			s = productionURL
		}
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("parsing api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url must be http or https, got %q", s)
	}
	return u, nil
}

// storeKey decodes the key of the file store.
func (cfg Config) storeKey() ([]byte, error) {
	if len(cfg.StoreKey) == 0 {
		return nil, nil
	}
	key, err := hex.DecodeString(cfg.StoreKey)
	if err != nil {
		return nil, fmt.Errorf("decoding store key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("store key must be 32 bytes, got %v", len(key))
	}
	return key, nil
}

// NewStore creates the store of the reconnection credentials.
// The returned function releases the resources of the store.
func (cfg Config) NewStore(ctx context.Context) (db.Store, func() error, error) {
	noClose := func() error {
		return nil
	}
	dbCfg := db.Config{
		QueryPeriod: cfg.QueryPeriod,
		Namespace:   cfg.Namespace,
	}
	switch cfg.Store {
	case MemoryStore:
		return new(db.MemoryStore), noClose, nil
	case FileStore:
		key, err := cfg.storeKey()
		if err != nil {
			return nil, nil, err
		}
		fileCfg := db.FileStoreConfig{
			Path: cfg.StoreURL,
			Key:  key,
		}
		s, err := fileCfg.NewFileStore()
		if err != nil {
			return nil, nil, err
		}
		return s, noClose, nil
	case SQLiteStore:
		s, err := sqlite.NewStore(ctx, dbCfg, cfg.StoreURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Database.Close, nil
	case PostgresStore:
		s, err := postgres.NewStore(ctx, dbCfg, cfg.StoreURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Database.Close, nil
	case MongoStore:
		s, err := mongo.NewStore(ctx, dbCfg, cfg.StoreURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case FirestoreStore:
		s, err := firestore.NewStore(ctx, dbCfg, cfg.GoogleCloudProject)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
}
