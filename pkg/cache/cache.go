// Package cache stores raw catalog documents between runs.
//
// Entries carry the time they were fetched. Freshness is decided by the
// reader ([Entry.Fresh]) rather than by the store, so an expired document
// stays readable: the catalog refuses to use it automatically but callers
// may opt in to a stale copy when the network is unavailable.
//
// Three backends are provided:
//   - [FileCache]: one JSON file per key under a directory (the default)
//   - [RedisCache]: a shared Redis instance, for CI fleets that install
//     the same editor versions on many machines
//   - [NullCache]: stores nothing
//
// Writes are never partially visible: [FileCache] writes to a temporary
// file and renames it into place.
package cache

import (
	"context"
	"time"
)

// Entry is one cached document.
type Entry struct {
	Data      []byte            `json:"data"`
	FetchedAt time.Time         `json:"fetched_at"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// Fresh reports whether the entry is younger than ttl at now.
// A ttl of zero or less means entries never expire.
func (e Entry) Fresh(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return true
	}
	return now.Sub(e.FetchedAt) < ttl
}

// Age returns how long ago the entry was fetched.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// Cache is a key/value store for catalog documents.
//
// Get returns (entry, true, nil) on a hit regardless of age, and
// (Entry{}, false, nil) on a miss. Errors are reserved for backend
// failures; callers usually treat them as misses.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, entry Entry) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by backends that can drop every entry.
type Clearer interface {
	Clear(ctx context.Context) error
}
