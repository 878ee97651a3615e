// Package store defines the pluggable key-value byte-string backend that
// the chunked-array engine is built on. Concrete backends — an in-memory
// map, a gocloud.dev/blob bucket, or anything else that can satisfy the
// interface — are external to the engine; the engine only ever talks to
// the Store contract below.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a key has no value. Callers use
// errors.Is(err, ErrNotFound) to distinguish a miss (which is never an
// error to the chunked-array engine — it denotes a fill-value region or an
// absent metadata document) from a genuine backend failure.
var ErrNotFound = errors.New("store: key not found")

// Store is a mapping from string keys to opaque byte strings. Keys are
// ASCII slash-delimited paths. Every method is individually atomic at the
// single-key level; no multi-key transactions are assumed, and a Store
// must accept arbitrary byte strings as values, including empty ones.
//
// Implementations must be safe for concurrent use by multiple goroutines
// operating on disjoint keys. Serialisation of concurrent operations on
// the *same* key is the Synchroniser's job, layered above the Store.
type Store interface {
	// Get returns the bytes stored at key, or an error wrapping
	// ErrNotFound if no value is present.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value at key, replacing any existing value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Has reports whether key is present.
	Has(ctx context.Context, key string) (bool, error)

	// Keys returns every key with the given prefix, in no particular
	// order. An empty prefix lists every key in the store.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Len returns the total number of keys in the store.
	Len(ctx context.Context) (int, error)
}

// Sizer is implemented by stores that can cheaply report the total number
// of bytes they hold across all keys. It is optional: the engine falls
// back to -1 ("unknown") when a Store does not implement it.
type Sizer interface {
	Size(ctx context.Context) (int64, error)
}

// Size returns store.Size(ctx) if store implements Sizer, else -1.
func Size(ctx context.Context, s Store) (int64, error) {
	if sz, ok := s.(Sizer); ok {
		return sz.Size(ctx)
	}
	return -1, nil
}
