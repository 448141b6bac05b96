package rediscache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/postings-codec/internal/store"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/codec"
	apperrors "github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/redis"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { client.Close() })
	return New(client, time.Minute), mr
}

func gammaRecord(t *testing.T, term string, postings ...uint64) store.Record {
	t.Helper()
	rec, err := store.NewRecord(term, codec.Gamma{}, postings)
	require.NoError(t, err)
	return rec
}

func TestSetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "search")
	require.NoError(t, err)
	assert.False(t, ok)

	rec := gammaRecord(t, "search", 1, 2, 7)
	require.NoError(t, c.Set(ctx, rec))
	assert.Equal(t, time.Minute, mr.TTL("postings:search"))

	raw, err := mr.Get("postings:search")
	require.NoError(t, err)
	assert.Equal(t, append([]byte{byte(codec.TypeGamma), 0x83}, rec.Data...), []byte(raw))

	got, ok, err := c.Get(ctx, "search")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec, got)
}

func TestCorruptEntryIsMiss(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("postings:bad", "\x01"))

	_, ok, err := c.Get(context.Background(), "bad")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("postings:bad"))
}

func TestGetOrLoad(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	rec := gammaRecord(t, "search", 34, 67, 89)

	var loads atomic.Int32
	load := func(context.Context, string) (store.Record, error) {
		loads.Add(1)
		return rec, nil
	}

	got, err := c.GetOrLoad(ctx, "search", load)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	got, err = c.GetOrLoad(ctx, "search", load)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	assert.Equal(t, int32(1), loads.Load())

	_, err = c.GetOrLoad(ctx, "missing", func(context.Context, string) (store.Record, error) {
		return store.Record{}, apperrors.New(apperrors.ErrTermNotFound, "", "missing")
	})
	assert.ErrorIs(t, err, apperrors.ErrTermNotFound)
}

func TestGetOrLoadConcurrentMisses(t *testing.T) {
	c, _ := newTestCache(t)
	rec := gammaRecord(t, "hot", 5)
	release := make(chan struct{})
	var loads atomic.Int32
	load := func(context.Context, string) (store.Record, error) {
		loads.Add(1)
		<-release
		return rec, nil
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.GetOrLoad(context.Background(), "hot", load)
			if err == nil && got.Count != 1 {
				err = errors.New("wrong record")
			}
			errs <- err
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.GreaterOrEqual(t, loads.Load(), int32(1))
}

func TestInvalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, gammaRecord(t, "a", 1)))
	require.NoError(t, c.Set(ctx, gammaRecord(t, "b", 2)))
	require.NoError(t, mr.Set("other", "keep"))

	n, err := c.Invalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.True(t, mr.Exists("other"))
}
