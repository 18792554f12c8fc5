// Package store provides durable key-value persistence for the session
// collection.
//
// The hub treats storage as a namespaced key holding an opaque
// serialized blob: read once at startup, written through after every
// mutating session operation. Two implementations exist:
//   - SQLite: durable single-file store (modernc.org/sqlite, cgo-free)
//   - Memory: volatile store for tests
package store

import "context"

// Store is the persistence boundary. An absent key is not an error;
// Get reports it with ok=false.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
