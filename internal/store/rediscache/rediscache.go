// Package rediscache caches encoded postings records in Redis in front of a
// slower store. Concurrent misses for the same term share a single load.
package rediscache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/postings-codec/internal/store"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/redis"
)

const keyPrefix = "postings:"

// LoadFunc fetches a record on a cache miss.
type LoadFunc func(ctx context.Context, term string) (store.Record, error)

type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: slog.Default().With("component", "postings-cache"),
	}
}

func key(term string) string {
	return keyPrefix + term
}

// Get returns the cached record for term. The boolean is false on a miss. An
// unparseable value is deleted and reported as a miss.
func (c *Cache) Get(ctx context.Context, term string) (store.Record, bool, error) {
	raw, err := c.client.GetBytes(ctx, key(term))
	if redis.IsNilError(err) {
		return store.Record{}, false, nil
	}
	if err != nil {
		return store.Record{}, false, fmt.Errorf("reading cache for %q: %w", term, err)
	}
	rec := store.Record{Term: term}
	if err := rec.UnmarshalBinary(raw); err != nil {
		c.logger.Warn("dropping corrupt cache entry", "term", term, "error", err)
		if delErr := c.client.Del(ctx, key(term)); delErr != nil {
			c.logger.Error("deleting corrupt cache entry", "term", term, "error", delErr)
		}
		return store.Record{}, false, nil
	}
	return rec, true, nil
}

// Set caches rec under its term for the configured TTL.
func (c *Cache) Set(ctx context.Context, rec store.Record) error {
	value, err := rec.MarshalBinary()
	if err != nil {
		return err
	}
	if err := c.client.SetBytes(ctx, key(rec.Term), value, c.ttl); err != nil {
		return fmt.Errorf("writing cache for %q: %w", rec.Term, err)
	}
	return nil
}

// GetOrLoad returns the cached record or calls load and caches its result.
// A failing cache write is logged; the loaded record is still returned.
func (c *Cache) GetOrLoad(ctx context.Context, term string, load LoadFunc) (store.Record, error) {
	if rec, ok, err := c.Get(ctx, term); err != nil {
		c.logger.Warn("cache read failed, loading from store", "term", term, "error", err)
	} else if ok {
		return rec, nil
	}

	v, err, shared := c.group.Do(term, func() (interface{}, error) {
		rec, err := load(ctx, term)
		if err != nil {
			return store.Record{}, err
		}
		if err := c.Set(ctx, rec); err != nil {
			c.logger.Warn("cache write failed", "term", term, "error", err)
		}
		return rec, nil
	})
	if err != nil {
		return store.Record{}, err
	}
	c.logger.Debug("postings loaded", "term", term, "shared", shared)
	return v.(store.Record), nil
}

// Invalidate removes every cached postings record and returns how many were
// deleted.
func (c *Cache) Invalidate(ctx context.Context) (int64, error) {
	n, err := c.client.DeletePrefix(ctx, keyPrefix)
	if err != nil {
		return n, fmt.Errorf("invalidating postings cache: %w", err)
	}
	c.logger.Info("postings cache invalidated", "keys", n)
	return n, nil
}
