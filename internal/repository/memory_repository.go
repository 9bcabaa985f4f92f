package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	apperrors "github.com/Kosench/go-url-shortener/internal/errors"
	"github.com/Kosench/go-url-shortener/internal/model"
)

var (
	_ URLRepository = (*MemoryURLRepository)(nil)
	_ ActiveLister  = (*MemoryURLRepository)(nil)
)

// MemoryURLRepository keeps records in process memory.
//
// The map lock only guards membership; each entry carries its own lock for
// the click log, so appends on different codes never contend.
type MemoryURLRepository struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	nextID  int64
}

type memoryEntry struct {
	record model.URLRecord

	mu     sync.Mutex
	clicks []model.ClickEvent
}

func NewMemoryURLRepository() *MemoryURLRepository {
	return &MemoryURLRepository{
		entries: make(map[string]*memoryEntry),
	}
}

func (r *MemoryURLRepository) Insert(ctx context.Context, record *model.URLRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[record.ShortCode]; exists {
		return fmt.Errorf("short code '%s': %w", record.ShortCode, apperrors.ErrShortCodeExists)
	}

	r.nextID++
	record.ID = r.nextID
	r.entries[record.ShortCode] = &memoryEntry{record: *record}

	return nil
}

func (r *MemoryURLRepository) FindByCode(ctx context.Context, shortCode string) (*model.URLRecord, error) {
	entry, err := r.entry(shortCode)
	if err != nil {
		return nil, err
	}

	record := entry.record
	return &record, nil
}

func (r *MemoryURLRepository) ListClicks(ctx context.Context, shortCode string) ([]model.ClickEvent, error) {
	entry, err := r.entry(shortCode)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	clicks := make([]model.ClickEvent, len(entry.clicks))
	copy(clicks, entry.clicks)

	return clicks, nil
}

func (r *MemoryURLRepository) AppendClick(ctx context.Context, shortCode string, event model.ClickEvent) (int64, error) {
	entry, err := r.entry(shortCode)
	if err != nil {
		return 0, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.clicks = append(entry.clicks, event)

	return int64(len(entry.clicks)), nil
}

func (r *MemoryURLRepository) ListActive(ctx context.Context, now time.Time, limit int) ([]*model.URLRecord, error) {
	r.mu.RLock()
	records := make([]*model.URLRecord, 0, len(r.entries))
	for _, entry := range r.entries {
		if entry.record.IsExpired(now) {
			continue
		}
		record := entry.record
		records = append(records, &record)
	}
	r.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

func (r *MemoryURLRepository) entry(shortCode string) (*memoryEntry, error) {
	r.mu.RLock()
	entry, exists := r.entries[shortCode]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("URL with short code '%s': %w", shortCode, apperrors.ErrURLNotFound)
	}

	return entry, nil
}
