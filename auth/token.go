// Package auth creates and inspects the tokens players use to connect to games.
package auth

import (
	"fmt"
	"io"
	"time"

	jwt "github.com/golang-jwt/jwt/v4"
)

type (
	// Tokenizer creates and reads player tokens.
	Tokenizer struct {
		method jwt.SigningMethod
		key    interface{}
		TokenizerConfig
	}

	// TokenizerConfig contains fields which describe a Tokenizer.
	TokenizerConfig struct {
		// KeyReader is used to generate the signing key.
		KeyReader io.Reader
		// TimeFunc is a function which should supply the current time since the unix epoch.
		// Used to set the the length of time the token is valid.
		TimeFunc func() int64
		// ValidSec is the length of time the token is valid from the issuing time, in seconds.
		ValidSec int64
	}

	// Claims identify the player and the game the player joined.
	// The player id is stored in the Subject ("sub") field.
	Claims struct {
		GameID string `json:"game_id"`
		jwt.RegisteredClaims
	}
)

// NewTokenizer creates a Tokenizer that uses the reader to generate its key.
func (cfg TokenizerConfig) NewTokenizer() (*Tokenizer, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("creating tokenizer: validation: %w", err)
	}
	key := make([]byte, 64)
	if _, err := io.ReadFull(cfg.KeyReader, key); err != nil {
		return nil, fmt.Errorf("generating tokenizer key: %w", err)
	}
	t := Tokenizer{
		method:          jwt.SigningMethodHS256,
		key:             key,
		TokenizerConfig: cfg,
	}
	return &t, nil
}

// validate ensures the configuration has no errors.
func (cfg TokenizerConfig) validate() error {
	switch {
	case cfg.KeyReader == nil:
		return fmt.Errorf("key reader required")
	case cfg.TimeFunc == nil:
		return fmt.Errorf("time func required")
	case cfg.ValidSec <= 0:
		return fmt.Errorf("positive valid seconds required")
	}
	return nil
}

// Create signs a token for the player in the game.
func (t Tokenizer) Create(gameID, playerID string) (string, error) {
	now := t.TimeFunc()
	claims := Claims{
		GameID: gameID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID,
			NotBefore: jwt.NewNumericDate(time.Unix(now, 0)),
			ExpiresAt: jwt.NewNumericDate(time.Unix(now+t.ValidSec, 0)),
		},
	}
	token := jwt.NewWithClaims(t.method, claims)
	return token.SignedString(t.key)
}

// Read verifies the token and returns its claims.
func (t Tokenizer) Read(tokenString string) (*Claims, error) {
	var claims Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{t.method.Alg()}))
	if _, err := parser.ParseWithClaims(tokenString, &claims, t.keyFunc); err != nil {
		return nil, err
	}
	return &claims, nil
}

// keyFunc ensures the key type (method) of the token is correct before returning the key.
func (t Tokenizer) keyFunc(token *jwt.Token) (interface{}, error) {
	if token.Method != t.method {
		return nil, fmt.Errorf("incorrect authorization signing method")
	}
	return t.key, nil
}

// ExpiresAt reads the expiration time of the token without verifying it.
// False is returned if the token is not a jwt or it has no expiration time.
func ExpiresAt(tokenString string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := new(jwt.Parser).ParseUnverified(tokenString, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired determines if the token is a jwt that expired before the time.
// Tokens that are not jwts never expire.
func Expired(tokenString string, now time.Time) bool {
	expiresAt, ok := ExpiresAt(tokenString)
	return ok && !now.Before(expiresAt)
}
