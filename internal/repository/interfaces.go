package repository

import (
	"context"
	"time"

	"github.com/Kosench/go-url-shortener/internal/model"
)

// URLRepository owns URL records and their click logs.
//
// Insert must be an atomic insert-if-absent: of two concurrent inserts of the
// same short code exactly one succeeds, the other gets ErrShortCodeExists.
// AppendClick must be linearizable per short code.
type URLRepository interface {
	FindByCode(ctx context.Context, shortCode string) (*model.URLRecord, error)
	ListClicks(ctx context.Context, shortCode string) ([]model.ClickEvent, error)
	Insert(ctx context.Context, record *model.URLRecord) error
	AppendClick(ctx context.Context, shortCode string, event model.ClickEvent) (int64, error)
}

// ActiveLister is implemented by repositories able to list records that are
// still valid, newest first. A limit of 0 means no limit. Used for cache
// warmup.
type ActiveLister interface {
	ListActive(ctx context.Context, now time.Time, limit int) ([]*model.URLRecord, error)
}
