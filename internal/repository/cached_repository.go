package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Kosench/go-url-shortener/internal/cache"
	"github.com/Kosench/go-url-shortener/internal/model"
)

var _ URLRepository = (*CachedURLRepository)(nil)

// CachedURLRepository puts a cache in front of another repository.
//
// Only record headers are cached. They never change after Insert, so cached
// entries cannot go stale and no invalidation is needed. Click logs always go
// to the underlying store.
type CachedURLRepository struct {
	next   URLRepository
	cache  cache.Cache
	keys   *cache.KeyBuilder
	logger *zap.Logger
	now    func() time.Time
}

func NewCachedURLRepository(next URLRepository, c cache.Cache, keys *cache.KeyBuilder, logger *zap.Logger) *CachedURLRepository {
	if keys == nil {
		keys = cache.NewKeyBuilder("")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CachedURLRepository{
		next:   next,
		cache:  c,
		keys:   keys,
		logger: logger.Named("cached_repository"),
		now:    time.Now,
	}
}

func (r *CachedURLRepository) Insert(ctx context.Context, record *model.URLRecord) error {
	if err := r.next.Insert(ctx, record); err != nil {
		return err
	}

	r.store(ctx, record)

	return nil
}

func (r *CachedURLRepository) FindByCode(ctx context.Context, shortCode string) (*model.URLRecord, error) {
	key := r.keys.URL(shortCode)

	var cached model.URLRecord
	err := r.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}

	if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
	}

	record, err := r.next.FindByCode(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	r.store(ctx, record)

	return record, nil
}

func (r *CachedURLRepository) ListClicks(ctx context.Context, shortCode string) ([]model.ClickEvent, error) {
	return r.next.ListClicks(ctx, shortCode)
}

func (r *CachedURLRepository) AppendClick(ctx context.Context, shortCode string, event model.ClickEvent) (int64, error) {
	return r.next.AppendClick(ctx, shortCode, event)
}

// WarmupCache preloads up to limit of the newest still valid records. It is a
// no-op when the underlying store cannot list records.
func (r *CachedURLRepository) WarmupCache(ctx context.Context, limit int) (int, error) {
	lister, ok := r.next.(ActiveLister)
	if !ok {
		r.logger.Debug("underlying repository cannot list records, skipping warmup")
		return 0, nil
	}

	records, err := lister.ListActive(ctx, r.now(), limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list active URLs: %w", err)
	}

	count := 0
	for _, record := range records {
		if r.store(ctx, record) {
			count++
		}
	}

	r.logger.Info("cache warmed up", zap.Int("records", count))

	return count, nil
}

func (r *CachedURLRepository) store(ctx context.Context, record *model.URLRecord) bool {
	key := r.keys.URL(record.ShortCode)
	if err := r.cache.Set(ctx, key, record); err != nil {
		r.logger.Warn("failed to cache URL", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}
