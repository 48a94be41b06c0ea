// Package cache stores rule service responses and computed layouts.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: JSON entry files under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for `ruleviz serve` replicas
//   - [NullCache]: stores nothing, for --no-cache and tests
//
// Keys come from a [Keyer] so every backend agrees on the key space:
//
//	k := cache.NewDefaultKeyer()
//	data, ok, err := c.Get(ctx, k.ASTKey(rule))
//
// Wrap a backend with [Instrument] to report hits and misses through
// observability.Cache().
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/ruleviz/pkg/observability"
)

// Cache is a byte-oriented key-value store with per-entry TTL.
// A zero TTL stores the entry without expiration.
type Cache interface {
	// Get returns the entry for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop all of their entries.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Instrument wraps c so that every Get and Set emits cache hooks. The key
// type reported to the hooks is the key segment before the hash ("ast",
// "layout").
func Instrument(c Cache) Cache {
	if c == nil {
		return nil
	}
	return &instrumented{Cache: c}
}

type instrumented struct {
	Cache
}

func (c *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.Cache.Get(ctx, key)
	if err == nil {
		if ok {
			observability.Cache().OnCacheHit(ctx, keyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, ok, err
}

func (c *instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	return nil
}

// Clear forwards to the wrapped cache when it supports clearing.
func (c *instrumented) Clear(ctx context.Context) error {
	if cl, ok := c.Cache.(Clearer); ok {
		return cl.Clear(ctx)
	}
	return nil
}

func keyType(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) < 2 {
		return "unknown"
	}
	return parts[len(parts)-2]
}
