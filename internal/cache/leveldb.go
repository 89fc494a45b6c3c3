package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
)

// LevelDB is a file-backed Store. LevelDB is single-writer at the
// process level, which is fine here: one benchmark process owns the
// cache file.
type LevelDB struct {
	db *leveldb.DB
}

// OpenLevelDB opens (or creates) the cache database at path.
func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	return &LevelDB{db: db}, nil
}

// Get returns the cached response for key, or (nil, nil) on a miss.
func (c *LevelDB) Get(_ context.Context, key string) ([]byte, error) {
	data, err := c.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	return data, nil
}

// Put stores a response under key, overwriting any previous value.
func (c *LevelDB) Put(_ context.Context, key string, value []byte) error {
	if err := c.db.Put([]byte(key), value, nil); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (c *LevelDB) Close() error {
	return c.db.Close()
}
