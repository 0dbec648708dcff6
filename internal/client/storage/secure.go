package storage

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/nutrikeeper/internal/cryptox"
)

// secureStoreSalt is fixed; the per-device secret provides the entropy.
var secureStoreSalt = []byte("nutrikeeper/secure-store/v1")

// SecureStore is the OS-keychain stand-in: values are sealed with a key
// derived from the device secret before they reach the secure_store table.
type SecureStore struct {
	repo *SQLiteRepository
	key  []byte
}

func NewSecureStore(db Querier, deviceSecret []byte) *SecureStore {
	return &SecureStore{
		repo: NewSQLiteRepository(db, TableSecureStore),
		key:  cryptox.DeriveKey(deviceSecret, secureStoreSalt),
	}
}

func (s *SecureStore) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.repo.Get(ctx, key)
	if err != nil || sealed == nil {
		return nil, err
	}
	value, err := cryptox.Open(s.key, sealed)
	if err != nil {
		return nil, fmt.Errorf("secure_store[%s]: %w", key, err)
	}
	return value, nil
}

func (s *SecureStore) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := cryptox.Seal(s.key, value)
	if err != nil {
		return fmt.Errorf("secure_store[%s]: %w", key, err)
	}
	return s.repo.Set(ctx, key, sealed)
}

// Delete removes key. Unlike the plain tables it reports ErrNotFound for a
// missing key, the way native secure stores do.
func (s *SecureStore) Delete(ctx context.Context, key string) error {
	existed, err := s.repo.remove(ctx, key)
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("secure_store[%s]: %w", key, ErrNotFound)
	}
	return nil
}

func (s *SecureStore) List(ctx context.Context) (map[string][]byte, error) {
	sealed, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(sealed))
	for k, v := range sealed {
		plain, err := cryptox.Open(s.key, v)
		if err != nil {
			return nil, fmt.Errorf("secure_store[%s]: %w", k, err)
		}
		out[k] = plain
	}
	return out, nil
}

func (s *SecureStore) Clear(ctx context.Context) error {
	return s.repo.Clear(ctx)
}
