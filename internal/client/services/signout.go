package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/dmitrijs2005/nutrikeeper/internal/client/metrics"
	"github.com/dmitrijs2005/nutrikeeper/internal/client/platform"
	"github.com/dmitrijs2005/nutrikeeper/internal/client/storage"
	"github.com/dmitrijs2005/nutrikeeper/internal/logging"
)

// SecureKeys are removed one by one from the secure store on sign-out.
var SecureKeys = []string{
	storage.KeyAuthTokenSecure,
	storage.KeyAuthToken,
	"user_profile",
	"onboarding_state",
}

type (
	cacheClearer interface{ Clear() }
	storeClearer interface {
		Clear(ctx context.Context) error
	}
	keyDeleter interface {
		Delete(ctx context.Context, key string) error
	}
	tokenReader interface {
		Get(ctx context.Context) (string, error)
	}
	sessionCloser interface {
		SignOut(ctx context.Context, token string) error
	}
)

// Cleanup lists what sign-out has to wipe. Nil fields are skipped.
//
// Tokens is read once before anything is wiped; Remote is then given that
// token to close the server session.
type Cleanup struct {
	Platform platform.Platform
	Cache    cacheClearer
	Async    storeClearer
	Secure   keyDeleter
	Local    storeClearer
	Tokens   tokenReader
	Remote   sessionCloser

	Log     logging.Logger
	Metrics *metrics.Collector
}

type stepKind int

const (
	kindCache stepKind = iota
	kindStorage
	kindRemote
	kindHint
)

type step struct {
	name string
	kind stepKind
	run  func(ctx context.Context) error
}

// steps is the one ordered list of cleanup actions for the platform.
func (c *Cleanup) steps(token string) []step {
	var s []step
	if c.Cache != nil {
		s = append(s, step{"cache", kindCache, func(context.Context) error {
			c.Cache.Clear()
			return nil
		}})
	}
	if c.Async != nil {
		s = append(s, step{"async_storage", kindStorage, c.Async.Clear})
	}
	if c.Secure != nil && c.Platform.IsNative() {
		s = append(s, step{"secure_store", kindStorage, c.clearSecure})
	}
	if c.Local != nil && c.Platform.IsWeb() {
		s = append(s, step{"local_storage", kindStorage, c.Local.Clear})
	}
	if c.Remote != nil {
		s = append(s, step{"remote_session", kindRemote, func(ctx context.Context) error {
			if token == "" {
				return nil
			}
			return c.Remote.SignOut(ctx, token)
		}})
	}
	s = append(s, step{"gc", kindHint, func(context.Context) error {
		runtime.GC()
		return nil
	}})
	return s
}

func (c *Cleanup) clearSecure(ctx context.Context) error {
	var errs []error
	for _, k := range SecureKeys {
		if err := c.Secure.Delete(ctx, k); err != nil && !errors.Is(err, storage.ErrNotFound) {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

// retryOrder is the abbreviated second pass: storage first, then cache,
// then the server session.
var retryOrder = []stepKind{kindStorage, kindCache, kindRemote}

// Run executes every step, continuing past failures. If anything failed it
// runs the storage, cache and remote steps once more and returns all
// failures joined.
func (c *Cleanup) Run(ctx context.Context) error {
	log := c.Log
	if log == nil {
		log = logging.Nop()
	}

	steps := c.steps(c.sessionToken(ctx, log))
	var errs []error
	for _, st := range steps {
		if err := c.runStep(ctx, log, st, 1); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}

	log.Warn(ctx, "sign-out cleanup incomplete, retrying", "failed", len(errs))
	for _, kind := range retryOrder {
		for _, st := range steps {
			if st.kind != kind {
				continue
			}
			if err := c.runStep(ctx, log, st, 2); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (c *Cleanup) sessionToken(ctx context.Context, log logging.Logger) string {
	if c.Tokens == nil {
		return ""
	}
	token, err := c.Tokens.Get(ctx)
	if err != nil {
		log.Warn(ctx, "could not read session token, skipping remote sign-out", "error", err)
		return ""
	}
	return token
}

func (c *Cleanup) runStep(ctx context.Context, log logging.Logger, st step, pass int) error {
	if err := st.run(ctx); err != nil {
		c.Metrics.SignOutStepFailed(st.name)
		log.Warn(ctx, "sign-out step failed", "step", st.name, "pass", pass, "error", err)
		return fmt.Errorf("%s: %w", st.name, err)
	}
	return nil
}
