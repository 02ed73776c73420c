// Package slots caches the values an externally-loaded slot resolves to, so
// a server restart or a grammar reload doesn't require re-invoking whatever
// out-of-process loader program supplied them. The loading itself stays
// external: this package never shells out to anything, it only wraps a
// caller-supplied loader function with a cache.
package slots

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// Loader resolves a slot's values by name, e.g. by shelling out to an
// external program. It is the same shape as voxgraph.SlotLoader.
type Loader func(name string) ([]string, error)

// Cache is a SQLite-backed cache in front of a Loader. A zero Cache is not
// usable; construct one with Open.
type Cache struct {
	db     *sql.DB
	loader Loader
}

// Open opens (creating if necessary) the SQLite cache at path and wraps
// loader with it. Passing path as ":memory:" gives a cache with no
// persistence across process restarts, useful for tests.
func Open(path string, loader Loader) (*Cache, error) {
	if loader == nil {
		return nil, errors.New("slots: loader must not be nil")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("slots: open db: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS slot_values (
		name TEXT PRIMARY KEY,
		payload TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("slots: init schema: %w", err)
	}

	return &Cache{db: db, loader: loader}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached values for name if present, otherwise calls the
// wrapped loader, stores its result, and returns that.
func (c *Cache) Get(name string) ([]string, error) {
	values, ok, err := c.lookup(name)
	if err != nil {
		return nil, err
	}
	if ok {
		return values, nil
	}
	return c.Refresh(name)
}

// Refresh unconditionally calls the wrapped loader for name, overwrites the
// cached entry with its result, and returns the fresh values.
func (c *Cache) Refresh(name string) ([]string, error) {
	values, err := c.loader(name)
	if err != nil {
		return nil, fmt.Errorf("slots: load %q: %w", name, err)
	}

	payload, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("slots: encode %q: %w", name, err)
	}

	_, err = c.db.Exec(
		`INSERT INTO slot_values (name, payload) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET payload = excluded.payload`,
		name, string(payload),
	)
	if err != nil {
		return nil, fmt.Errorf("slots: store %q: %w", name, err)
	}

	return values, nil
}

func (c *Cache) lookup(name string) ([]string, bool, error) {
	var payload string
	err := c.db.QueryRow(`SELECT payload FROM slot_values WHERE name = ?`, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("slots: lookup %q: %w", name, err)
	}

	var values []string
	if err := json.Unmarshal([]byte(payload), &values); err != nil {
		return nil, false, fmt.Errorf("slots: decode cached %q: %w", name, err)
	}
	return values, true, nil
}

// AsLoader adapts the Cache into a Loader, for direct use as
// voxgraph.Options.SlotLoader.
func (c *Cache) AsLoader() Loader {
	return c.Get
}
