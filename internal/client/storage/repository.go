// Package storage implements the client's persistent key/value backends.
//
// All backends live in one local SQLite database:
//
//   - local_storage: the web local-storage equivalent (plain values);
//   - async_storage: general client storage (plain values);
//   - secure_store:  OS secure-store equivalent, values sealed with AES-GCM.
//
// TokenStorage picks the backend that holds the session token based on the
// platform.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by SecureStore.Delete when the key is absent.
var ErrNotFound = errors.New("storage: key not found")

// Table names a key/value table. Only the constants below are valid; the
// value is interpolated into SQL.
type Table string

const (
	TableLocalStorage Table = "local_storage"
	TableAsyncStorage Table = "async_storage"
	TableSecureStore  Table = "secure_store"
)

// Repository is a byte-oriented key/value store.
//
// Get returns (nil, nil) for a missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
