// ABOUTME: Byte key/value backends that hold the saved visit collection
// ABOUTME: Badger is the default; sqlite and charm are selectable from config
package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"

	"github.com/harperreed/onsite/charm"
)

// ErrKeyNotFound is returned by every backend for a missing key.
var ErrKeyNotFound = errors.New("key not found")

// Backend is the minimal storage surface the visit store needs.
type Backend interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Close() error
}

const (
	KindBadger = "badger"
	KindSQLite = "sqlite"
	KindCharm  = "charm"
)

// Open returns the backend named by kind rooted at path.
func Open(kind, path string) (Backend, error) {
	switch kind {
	case "", KindBadger:
		return OpenBadger(path)
	case KindSQLite:
		return OpenSQLite(path)
	case KindCharm:
		c, err := charm.GetClient()
		if err != nil {
			return nil, err
		}
		return NewCharmBackend(c), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", kind)
}

type BadgerBackend struct {
	db *badger.DB
}

func OpenBadger(dir string) (*BadgerBackend, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %s: %w", dir, err)
	}
	return &BadgerBackend{db: db}, nil
}

func (b *BadgerBackend) Get(key []byte) ([]byte, error) {
	var result []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		result, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrKeyNotFound
	}
	return result, err
}

func (b *BadgerBackend) Set(key, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (b *BadgerBackend) Delete(key []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (b *BadgerBackend) Close() error {
	return b.db.Close()
}

// CharmBackend stores visits in the charm KV so they follow the user across devices.
type CharmBackend struct {
	client *charm.Client
}

func NewCharmBackend(c *charm.Client) *CharmBackend {
	return &CharmBackend{client: c}
}

func (c *CharmBackend) Get(key []byte) ([]byte, error) {
	v, err := c.client.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrKeyNotFound
	}
	return v, err
}

func (c *CharmBackend) Set(key, value []byte) error {
	return c.client.Set(key, value)
}

func (c *CharmBackend) Delete(key []byte) error {
	return c.client.Delete(key)
}

func (c *CharmBackend) Close() error {
	return c.client.Close()
}

// DefaultPath returns the on-disk location for a backend kind under dataDir.
func DefaultPath(dataDir, kind string) string {
	if kind == KindSQLite {
		return filepath.Join(dataDir, "onsite.db")
	}
	return filepath.Join(dataDir, "visits")
}
