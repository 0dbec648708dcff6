package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/nutrikeeper/internal/client/platform"
)

const (
	// KeyAuthToken is the legacy web local-storage key.
	KeyAuthToken = "auth_token"
	// KeyAuthTokenSecure holds the token in the secure store on native
	// platforms, and in local storage on the web.
	KeyAuthTokenSecure = "auth_token_secure"
)

// TokenStorage persists the session token in exactly one backend: local
// storage on the web, the secure store on native platforms. It keeps no
// in-memory copy, so every Get reads the backend.
type TokenStorage struct {
	platform platform.Platform
	backends *Backends
}

func NewTokenStorage(b *Backends, p platform.Platform) *TokenStorage {
	return &TokenStorage{platform: p, backends: b}
}

// Get returns the stored token or "" when there is none.
func (t *TokenStorage) Get(ctx context.Context) (string, error) {
	if !t.platform.IsWeb() {
		v, err := t.backends.Secure.Get(ctx, KeyAuthTokenSecure)
		if err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return string(v), nil
	}

	for _, key := range []string{KeyAuthTokenSecure, KeyAuthToken} {
		v, err := t.backends.Local.Get(ctx, key)
		if err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		if len(v) > 0 {
			return string(v), nil
		}
	}
	return "", nil
}

func (t *TokenStorage) Set(ctx context.Context, token string) error {
	if !t.platform.IsWeb() {
		if err := t.backends.Secure.Set(ctx, KeyAuthTokenSecure, []byte(token)); err != nil {
			return fmt.Errorf("write token: %w", err)
		}
		return nil
	}

	err := inTx(ctx, t.backends.db, func(tx Querier) error {
		local := NewSQLiteRepository(tx, TableLocalStorage)
		if err := local.Set(ctx, KeyAuthTokenSecure, []byte(token)); err != nil {
			return err
		}
		return local.Delete(ctx, KeyAuthToken)
	})
	if err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// Delete erases the token. A missing token is not an error.
func (t *TokenStorage) Delete(ctx context.Context) error {
	if !t.platform.IsWeb() {
		err := t.backends.Secure.Delete(ctx, KeyAuthTokenSecure)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("delete token: %w", err)
		}
		return nil
	}

	err := inTx(ctx, t.backends.db, func(tx Querier) error {
		local := NewSQLiteRepository(tx, TableLocalStorage)
		if err := local.Delete(ctx, KeyAuthTokenSecure); err != nil {
			return err
		}
		return local.Delete(ctx, KeyAuthToken)
	})
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
