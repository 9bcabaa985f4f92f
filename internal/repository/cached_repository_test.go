package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Kosench/go-url-shortener/internal/cache"
	apperrors "github.com/Kosench/go-url-shortener/internal/errors"
	"github.com/Kosench/go-url-shortener/internal/model"
)

// fakeCache keeps JSON values in a map, like Redis would.
type fakeCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	gets    int
	hits    int
	failGet bool
	failSet bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failSet {
		return cache.NewCacheError("set", key, errors.New("connection refused"))
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = data
	return nil
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.gets++
	if f.failGet {
		return cache.NewCacheError("get", key, errors.New("connection refused"))
	}

	data, ok := f.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	f.hits++
	return json.Unmarshal(data, dest)
}

// countingRepository counts FindByCode calls that reach the store.
type countingRepository struct {
	URLRepository
	finds int
}

func (c *countingRepository) FindByCode(ctx context.Context, shortCode string) (*model.URLRecord, error) {
	c.finds++
	return c.URLRepository.FindByCode(ctx, shortCode)
}

func TestCachedURLRepository_FindByCode(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	base := &countingRepository{URLRepository: NewMemoryURLRepository()}
	require.NoError(t, base.Insert(ctx, newRecord("abc123", now, 30*time.Minute)))

	fc := newFakeCache()
	repo := NewCachedURLRepository(base, fc, cache.NewKeyBuilder("test"), zap.NewNop())

	first, err := repo.FindByCode(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, 1, base.finds)
	assert.Contains(t, fc.data, "test:url:abc123")

	second, err := repo.FindByCode(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, 1, base.finds, "second lookup must be served from cache")
	assert.Equal(t, 1, fc.hits)
	assert.Equal(t, first.OriginalURL, second.OriginalURL)
	assert.True(t, first.ExpiresAt.Equal(second.ExpiresAt))

	t.Run("not found is not cached", func(t *testing.T) {
		_, err := repo.FindByCode(ctx, "missing")
		assert.ErrorIs(t, err, apperrors.ErrURLNotFound)
		assert.NotContains(t, fc.data, "test:url:missing")
	})
}

func TestCachedURLRepository_InsertPopulatesCache(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	base := &countingRepository{URLRepository: NewMemoryURLRepository()}
	fc := newFakeCache()
	repo := NewCachedURLRepository(base, fc, nil, nil)

	require.NoError(t, repo.Insert(ctx, newRecord("fresh", now, time.Minute)))
	assert.Contains(t, fc.data, "url:fresh")

	_, err := repo.FindByCode(ctx, "fresh")
	require.NoError(t, err)
	assert.Zero(t, base.finds)

	t.Run("conflict leaves cache untouched", func(t *testing.T) {
		before := fc.data["url:fresh"]

		other := newRecord("fresh", now, time.Hour)
		other.OriginalURL = "https://other.example"
		err := repo.Insert(ctx, other)
		assert.ErrorIs(t, err, apperrors.ErrShortCodeExists)
		assert.Equal(t, before, fc.data["url:fresh"])
	})
}

func TestCachedURLRepository_CacheFailuresAreIgnored(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	fc := newFakeCache()
	fc.failGet = true
	fc.failSet = true
	repo := NewCachedURLRepository(NewMemoryURLRepository(), fc, nil, zap.NewNop())

	require.NoError(t, repo.Insert(ctx, newRecord("flaky", now, time.Minute)))

	record, err := repo.FindByCode(ctx, "flaky")
	require.NoError(t, err)
	assert.Equal(t, "flaky", record.ShortCode)
}

func TestCachedURLRepository_ClicksBypassCache(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	fc := newFakeCache()
	repo := NewCachedURLRepository(NewMemoryURLRepository(), fc, nil, nil)
	require.NoError(t, repo.Insert(ctx, newRecord("clk", now, time.Minute)))

	total, err := repo.AppendClick(ctx, "clk", model.ClickEvent{Timestamp: now, Referrer: model.DefaultReferrer})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	clicks, err := repo.ListClicks(ctx, "clk")
	require.NoError(t, err)
	assert.Len(t, clicks, 1)
	assert.Zero(t, fc.gets)
}

func TestCachedURLRepository_WarmupCache(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	base := NewMemoryURLRepository()
	require.NoError(t, base.Insert(ctx, newRecord("expired", now.Add(-2*time.Hour), time.Hour)))
	require.NoError(t, base.Insert(ctx, newRecord("older", now.Add(-2*time.Minute), time.Hour)))
	require.NoError(t, base.Insert(ctx, newRecord("newer", now.Add(-1*time.Minute), time.Hour)))

	fc := newFakeCache()
	repo := NewCachedURLRepository(base, fc, nil, zap.NewNop())

	count, err := repo.WarmupCache(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Contains(t, fc.data, "url:older")
	assert.Contains(t, fc.data, "url:newer")
	assert.NotContains(t, fc.data, "url:expired")

	t.Run("store without listing", func(t *testing.T) {
		repo := NewCachedURLRepository(&countingRepository{URLRepository: base}, newFakeCache(), nil, nil)
		count, err := repo.WarmupCache(ctx, 10)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}
