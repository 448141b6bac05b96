// Package redis is the byte-oriented go-redis/v9 client behind the postings
// cache.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/config"
)

// scanBatch is the COUNT hint for SCAN and the number of keys unlinked per
// round trip in DeletePrefix.
const scanBatch = 100

type Client struct {
	rdb *redis.Client
}

// NewClient connects using cfg and fails if the server does not answer a PING
// within five seconds.
func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}
	return &Client{rdb: rdb}, nil
}

// Wrap adopts an existing go-redis client.
func Wrap(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// GetBytes returns the value at key. A missing key yields an error for which
// IsNilError is true.
func (c *Client) GetBytes(ctx context.Context, key string) ([]byte, error) {
	return c.rdb.Get(ctx, key).Bytes()
}

// SetBytes stores value at key, expiring after ttl. A zero ttl keeps the key
// until it is deleted.
func (c *Client) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

func (c *Client) Del(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// DeletePrefix unlinks every key starting with prefix and returns how many
// were removed. Keys are collected one SCAN page at a time.
func (c *Client) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	var removed int64
	iter := c.rdb.Scan(ctx, 0, prefix+"*", scanBatch).Iterator()
	page := make([]string, 0, scanBatch)
	unlink := func() error {
		if len(page) == 0 {
			return nil
		}
		n, err := c.rdb.Unlink(ctx, page...).Result()
		if err != nil {
			return fmt.Errorf("unlinking %d keys under %q: %w", len(page), prefix, err)
		}
		removed += n
		page = page[:0]
		return nil
	}
	for iter.Next(ctx) {
		page = append(page, iter.Val())
		if len(page) == scanBatch {
			if err := unlink(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("scanning keys under %q: %w", prefix, err)
	}
	return removed, unlink()
}

// IsNilError reports whether err means the key does not exist.
func IsNilError(err error) bool {
	return errors.Is(err, redis.Nil)
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
