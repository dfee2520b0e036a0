// Package cache stores search outcomes by normalized query for a bounded time.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ps-vitor/car-comparator/internal/domain"
)

const (
	DefaultTTL        = 30 * time.Minute
	DefaultFailureTTL = 2 * time.Minute
)

// Backend is a key/value store with per-entry expiry. Get reports a miss for
// absent and for expired keys alike.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Payload is what gets cached for a query: either listings or, when failure
// caching is on, the error text of a failed fetch.
type Payload struct {
	Listings []domain.Listing `json:"listings"`
	Error    string           `json:"error,omitempty"`
}

// Failed reports whether the payload records a failure.
func (p Payload) Failed() bool { return p.Error != "" }

// Cache encodes payloads over a Backend. A disabled cache always misses and
// drops writes.
type Cache struct {
	backend Backend
	enabled bool
}

func New(backend Backend, enabled bool) *Cache {
	return &Cache{backend: backend, enabled: enabled && backend != nil}
}

func (c *Cache) Enabled() bool { return c.enabled }

func (c *Cache) Get(ctx context.Context, key string) (Payload, bool, error) {
	if !c.enabled {
		return Payload{}, false, nil
	}
	raw, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		return Payload{}, false, domain.InternalStoreError("cache get", err)
	}
	if !ok {
		return Payload{}, false, nil
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, false, domain.InternalStoreError("cache decode", err)
	}
	return p, true, nil
}

// Set upserts the payload under key.
func (c *Cache) Set(ctx context.Context, key string, p Payload, ttl time.Duration) error {
	if !c.enabled {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return domain.InternalStoreError("cache encode", err)
	}
	if err := c.backend.Set(ctx, key, raw, ttl); err != nil {
		return domain.InternalStoreError("cache set", err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.enabled {
		return nil
	}
	if err := c.backend.Delete(ctx, key); err != nil {
		return domain.InternalStoreError("cache delete", err)
	}
	return nil
}

// Key derives the cache key of q. Brand and model compare case-insensitively;
// the source id is already lower case.
func Key(q domain.Query) string {
	raw := fmt.Sprintf("%s_%s_%s_%s", q.SourceID, strings.ToLower(q.Brand), strings.ToLower(q.Model), q.MaxPriceParam())
	sum := md5.Sum([]byte(raw))
	return "search_" + hex.EncodeToString(sum[:])
}
