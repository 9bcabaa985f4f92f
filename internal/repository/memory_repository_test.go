package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Kosench/go-url-shortener/internal/errors"
	"github.com/Kosench/go-url-shortener/internal/model"
)

func newRecord(code string, createdAt time.Time, validity time.Duration) *model.URLRecord {
	return &model.URLRecord{
		OriginalURL: "https://example.com/" + code,
		ShortCode:   code,
		CreatedAt:   createdAt,
		ExpiresAt:   createdAt.Add(validity),
	}
}

func TestMemoryURLRepository_InsertAndFind(t *testing.T) {
	repo := NewMemoryURLRepository()
	ctx := context.Background()
	now := time.Now()

	record := newRecord("abc123", now, 30*time.Minute)
	require.NoError(t, repo.Insert(ctx, record))
	assert.Equal(t, int64(1), record.ID)

	found, err := repo.FindByCode(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, *record, *found)

	t.Run("returned record is a copy", func(t *testing.T) {
		found.OriginalURL = "https://evil.example"

		again, err := repo.FindByCode(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/abc123", again.OriginalURL)
	})

	t.Run("codes are case-sensitive", func(t *testing.T) {
		_, err := repo.FindByCode(ctx, "ABC123")
		assert.ErrorIs(t, err, apperrors.ErrURLNotFound)
	})
}

func TestMemoryURLRepository_InsertDuplicate(t *testing.T) {
	repo := NewMemoryURLRepository()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Insert(ctx, newRecord("dup", now, time.Minute)))

	other := newRecord("dup", now, time.Hour)
	other.OriginalURL = "https://other.example"
	err := repo.Insert(ctx, other)
	assert.ErrorIs(t, err, apperrors.ErrShortCodeExists)

	found, err := repo.FindByCode(ctx, "dup")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/dup", found.OriginalURL, "existing record must not be overwritten")
}

func TestMemoryURLRepository_ConcurrentInsertSameCode(t *testing.T) {
	repo := NewMemoryURLRepository()
	ctx := context.Background()
	now := time.Now()

	const workers = 50
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int64
		conflicts atomic.Int64
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Insert(ctx, newRecord("race", now, time.Minute))
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, apperrors.ErrShortCodeExists):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), succeeded.Load())
	assert.Equal(t, int64(workers-1), conflicts.Load())
}

func TestMemoryURLRepository_AppendClick(t *testing.T) {
	repo := NewMemoryURLRepository()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Insert(ctx, newRecord("clk", now, time.Minute)))

	clicks, err := repo.ListClicks(ctx, "clk")
	require.NoError(t, err)
	assert.Empty(t, clicks)

	for i := 1; i <= 3; i++ {
		total, err := repo.AppendClick(ctx, "clk", model.ClickEvent{
			Timestamp: now.Add(time.Duration(i) * time.Second),
			IPAddress: fmt.Sprintf("10.0.0.%d", i),
			Referrer:  model.DefaultReferrer,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(i), total)
	}

	clicks, err = repo.ListClicks(ctx, "clk")
	require.NoError(t, err)
	require.Len(t, clicks, 3)
	for i, click := range clicks {
		assert.Equal(t, fmt.Sprintf("10.0.0.%d", i+1), click.IPAddress, "clicks must keep insertion order")
	}

	t.Run("unknown code", func(t *testing.T) {
		_, err := repo.AppendClick(ctx, "missing", model.ClickEvent{Timestamp: now})
		assert.ErrorIs(t, err, apperrors.ErrURLNotFound)

		_, err = repo.ListClicks(ctx, "missing")
		assert.ErrorIs(t, err, apperrors.ErrURLNotFound)
	})
}

func TestMemoryURLRepository_ConcurrentAppendClick(t *testing.T) {
	repo := NewMemoryURLRepository()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Insert(ctx, newRecord("hot", now, time.Hour)))
	require.NoError(t, repo.Insert(ctx, newRecord("cold", now, time.Hour)))

	const clicks = 500
	var wg sync.WaitGroup
	totals := make([]int64, clicks)

	for i := 0; i < clicks; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			total, err := repo.AppendClick(ctx, "hot", model.ClickEvent{
				Timestamp: time.Now(),
				IPAddress: fmt.Sprintf("ip-%d", i),
				Referrer:  model.DefaultReferrer,
			})
			assert.NoError(t, err)
			totals[i] = total
		}(i)
	}
	wg.Wait()

	recorded, err := repo.ListClicks(ctx, "hot")
	require.NoError(t, err)
	assert.Len(t, recorded, clicks)

	seenIPs := make(map[string]bool, clicks)
	for _, click := range recorded {
		assert.False(t, seenIPs[click.IPAddress], "duplicate click %s", click.IPAddress)
		seenIPs[click.IPAddress] = true
	}

	seenTotals := make(map[int64]bool, clicks)
	for _, total := range totals {
		seenTotals[total] = true
	}
	assert.Len(t, seenTotals, clicks, "every append must observe a distinct total")

	cold, err := repo.ListClicks(ctx, "cold")
	require.NoError(t, err)
	assert.Empty(t, cold)
}

func TestMemoryURLRepository_ListActive(t *testing.T) {
	repo := NewMemoryURLRepository()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Insert(ctx, newRecord("old", now.Add(-2*time.Hour), time.Hour)))
	require.NoError(t, repo.Insert(ctx, newRecord("first", now.Add(-10*time.Minute), time.Hour)))
	require.NoError(t, repo.Insert(ctx, newRecord("second", now.Add(-5*time.Minute), time.Hour)))
	require.NoError(t, repo.Insert(ctx, newRecord("third", now.Add(-1*time.Minute), time.Hour)))

	records, err := repo.ListActive(ctx, now, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "third", records[0].ShortCode)
	assert.Equal(t, "second", records[1].ShortCode)

	all, err := repo.ListActive(ctx, now, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3, "expired records are skipped")
}
