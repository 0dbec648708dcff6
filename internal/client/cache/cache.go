// Package cache is the client-side query/result cache.
//
// Read endpoints store decoded results here keyed by request path; write
// endpoints invalidate by key prefix, and sign-out flushes everything.
package cache

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

type QueryCache struct {
	c  *gocache.Cache
	sf singleflight.Group

	// gen moves on every Clear and Invalidate. A load that started under an
	// older generation returns its value but does not store it.
	mu  sync.Mutex
	gen uint64
}

func New(defaultTTL time.Duration) *QueryCache {
	return &QueryCache{c: gocache.New(defaultTTL, 2*defaultTTL)}
}

func (q *QueryCache) Get(key string) (any, bool) {
	return q.c.Get(key)
}

func (q *QueryCache) Set(key string, v any) {
	q.c.SetDefault(key, v)
}

// Fetch returns the cached value for key or calls load, caching its result
// on success. Concurrent Fetch calls for the same key share one load.
func (q *QueryCache) Fetch(ctx context.Context, key string, load func(ctx context.Context) (any, error)) (any, error) {
	if v, ok := q.c.Get(key); ok {
		return v, nil
	}

	gen := q.generation()
	v, err, _ := q.sf.Do(strconv.FormatUint(gen, 10)+":"+key, func() (any, error) {
		if v, ok := q.c.Get(key); ok {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		q.mu.Lock()
		if q.gen == gen {
			q.c.SetDefault(key, v)
		}
		q.mu.Unlock()
		return v, nil
	})
	return v, err
}

func (q *QueryCache) generation() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.gen
}

// Invalidate drops every key that starts with one of the prefixes.
func (q *QueryCache) Invalidate(prefixes ...string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.gen++
	for key := range q.c.Items() {
		for _, p := range prefixes {
			if strings.HasPrefix(key, p) {
				q.c.Delete(key)
				break
			}
		}
	}
}

// Clear empties the cache.
func (q *QueryCache) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.gen++
	q.c.Flush()
}

func (q *QueryCache) Len() int {
	return q.c.ItemCount()
}
