package db

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/nacl/secretbox"
)

type (
	// FileStore keeps credentials in a json file, optionally sealed with a secret key.
	FileStore struct {
		key *[keyLength]byte
		FileStoreConfig
	}

	// FileStoreConfig contains fields which describe a FileStore.
	FileStoreConfig struct {
		// Path is the name of the file.
		Path string
		// Key, if not empty, is the 32 byte key used to seal the file.
		Key []byte
		// Rand is used to create nonces when sealing.  Defaults to crypto/rand.
		Rand io.Reader
	}
)

const (
	keyLength   = 32
	nonceLength = 24
)

var _ Store = (*FileStore)(nil)

var errUnsealing = errors.New("unsealing credentials: wrong key or corrupt file")

// NewFileStore creates a FileStore from the config.
func (cfg FileStoreConfig) NewFileStore() (*FileStore, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("creating file store: validation: %w", err)
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.Reader
	}
	s := FileStore{
		FileStoreConfig: cfg,
	}
	if len(cfg.Key) != 0 {
		s.key = new([keyLength]byte)
		copy(s.key[:], cfg.Key)
	}
	return &s, nil
}

// validate ensures the configuration has no errors.
func (cfg FileStoreConfig) validate() error {
	switch {
	case len(cfg.Path) == 0:
		return fmt.Errorf("path required")
	case len(cfg.Key) != 0 && len(cfg.Key) != keyLength:
		return fmt.Errorf("key must be %v bytes, got %v", keyLength, len(cfg.Key))
	}
	return nil
}

// Save writes the credentials to a temporary file that replaces the file.
func (s *FileStore) Save(ctx context.Context, c Credentials) error {
	if err := s.save(c); err != nil {
		return NewSaveError(err)
	}
	return nil
}

func (s *FileStore) save(c Credentials) error {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding: %w", err)
	}
	if s.key != nil {
		if b, err = s.seal(b); err != nil {
			return err
		}
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	f, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	tmpName := f.Name()
	defer os.Remove(tmpName) // no-op after rename
	if _, err := f.Write(b); err != nil {
		f.Close()
		return fmt.Errorf("writing temporary file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temporary file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return fmt.Errorf("replacing file: %w", err)
	}
	return nil
}

// Load reads the credentials from the file, returning nil if the file does not exist.
func (s *FileStore) Load(ctx context.Context) (*Credentials, error) {
	b, err := os.ReadFile(s.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, NewLoadError(err)
	}
	if s.key != nil {
		if b, err = s.open(b); err != nil {
			return nil, NewLoadError(err)
		}
	}
	var c Credentials
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, NewLoadError(fmt.Errorf("decoding: %w", err))
	}
	return Loaded(c), nil
}

// Clear removes the file.
func (s *FileStore) Clear(ctx context.Context) error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return NewClearError(err)
	}
	return nil
}

// seal encrypts the message, prefixing it with the random nonce.
func (s *FileStore) seal(message []byte) ([]byte, error) {
	var nonce [nonceLength]byte
	if _, err := io.ReadFull(s.Rand, nonce[:]); err != nil {
		return nil, fmt.Errorf("creating nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], message, &nonce, s.key), nil
}

// open decrypts a message created by seal.
func (s *FileStore) open(box []byte) ([]byte, error) {
	if len(box) < nonceLength {
		return nil, errUnsealing
	}
	var nonce [nonceLength]byte
	copy(nonce[:], box[:nonceLength])
	message, ok := secretbox.Open(nil, box[nonceLength:], &nonce, s.key)
	if !ok {
		return nil, errUnsealing
	}
	return message, nil
}
