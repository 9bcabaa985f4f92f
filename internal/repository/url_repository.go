package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/Kosench/go-url-shortener/internal/errors"
	"github.com/Kosench/go-url-shortener/internal/model"
)

var (
	_ URLRepository = (*PostgresURLRepository)(nil)
	_ ActiveLister  = (*PostgresURLRepository)(nil)
)

type PostgresURLRepository struct {
	db *sql.DB
}

func NewPostgresURLRepository(db *sql.DB) *PostgresURLRepository {
	return &PostgresURLRepository{
		db: db,
	}
}

// Insert relies on the unique index: a concurrent insert of the same code
// makes ON CONFLICT skip the row and RETURNING yields nothing.
func (r *PostgresURLRepository) Insert(ctx context.Context, record *model.URLRecord) error {
	query := `
	INSERT INTO urls (original_url, short_code, created_at, expires_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (short_code) DO NOTHING
	RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		record.OriginalURL,
		record.ShortCode,
		record.CreatedAt,
		record.ExpiresAt,
	).Scan(&record.ID)

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("short code '%s': %w", record.ShortCode, apperrors.ErrShortCodeExists)
	}

	if err != nil {
		return apperrors.NewBusinessError(apperrors.CodeDatabaseError, "failed to create URL", err)
	}

	return nil
}

func (r *PostgresURLRepository) FindByCode(ctx context.Context, shortCode string) (*model.URLRecord, error) {
	query := `
	SELECT id, original_url, short_code, created_at, expires_at
	FROM urls
	WHERE short_code = $1
	`

	record := &model.URLRecord{}
	err := r.db.QueryRowContext(ctx, query, shortCode).Scan(
		&record.ID,
		&record.OriginalURL,
		&record.ShortCode,
		&record.CreatedAt,
		&record.ExpiresAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("URL with short code '%s': %w", shortCode, apperrors.ErrURLNotFound)
	}

	if err != nil {
		return nil, apperrors.NewBusinessError(apperrors.CodeDatabaseError, "failed to get URL", err)
	}

	return record, nil
}

func (r *PostgresURLRepository) ListClicks(ctx context.Context, shortCode string) ([]model.ClickEvent, error) {
	// LEFT JOIN keeps one row for a record without clicks so that an unknown
	// code can be told apart from an empty log.
	query := `
	SELECT c.clicked_at, c.ip_address, c.referrer
	FROM urls u
	LEFT JOIN clicks c ON c.url_id = u.id
	WHERE u.short_code = $1
	ORDER BY c.seq
	`

	rows, err := r.db.QueryContext(ctx, query, shortCode)
	if err != nil {
		return nil, apperrors.NewBusinessError(apperrors.CodeDatabaseError, "failed to list clicks", err)
	}
	defer rows.Close()

	found := false
	clicks := make([]model.ClickEvent, 0)
	for rows.Next() {
		found = true

		var (
			clickedAt sql.NullTime
			ipAddress sql.NullString
			referrer  sql.NullString
		)
		if err := rows.Scan(&clickedAt, &ipAddress, &referrer); err != nil {
			return nil, apperrors.NewBusinessError(apperrors.CodeDatabaseError, "failed to scan click", err)
		}

		if !clickedAt.Valid {
			continue
		}

		clicks = append(clicks, model.ClickEvent{
			Timestamp: clickedAt.Time,
			IPAddress: ipAddress.String,
			Referrer:  referrer.String,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewBusinessError(apperrors.CodeDatabaseError, "failed to list clicks", err)
	}

	if !found {
		return nil, fmt.Errorf("URL with short code '%s': %w", shortCode, apperrors.ErrURLNotFound)
	}

	return clicks, nil
}

// AppendClick bumps the counter and writes the click row in one statement.
// The row lock taken by the UPDATE serializes appends on the same code.
func (r *PostgresURLRepository) AppendClick(ctx context.Context, shortCode string, event model.ClickEvent) (int64, error) {
	query := `
	WITH counted AS (
		UPDATE urls
		SET click_count = click_count + 1
		WHERE short_code = $1
		RETURNING id, click_count
	)
	INSERT INTO clicks (url_id, seq, clicked_at, ip_address, referrer)
	SELECT id, click_count, $2, $3, $4
	FROM counted
	RETURNING seq
	`

	var total int64
	err := r.db.QueryRowContext(
		ctx,
		query,
		shortCode,
		event.Timestamp,
		event.IPAddress,
		event.Referrer,
	).Scan(&total)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("URL with short code '%s': %w", shortCode, apperrors.ErrURLNotFound)
	}

	if err != nil {
		return 0, apperrors.NewBusinessError(apperrors.CodeDatabaseError, "failed to record click", err)
	}

	return total, nil
}

func (r *PostgresURLRepository) ListActive(ctx context.Context, now time.Time, limit int) ([]*model.URLRecord, error) {
	query := `
	SELECT id, original_url, short_code, created_at, expires_at
	FROM urls
	WHERE expires_at >= $1
	ORDER BY created_at DESC
	LIMIT $2
	`

	// LIMIT NULL means no limit.
	rows, err := r.db.QueryContext(ctx, query, now, sql.NullInt64{Int64: int64(limit), Valid: limit > 0})
	if err != nil {
		return nil, fmt.Errorf("failed to query active URLs: %w", err)
	}
	defer rows.Close()

	var records []*model.URLRecord
	for rows.Next() {
		var record model.URLRecord
		if err := rows.Scan(&record.ID, &record.OriginalURL, &record.ShortCode, &record.CreatedAt, &record.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan URL: %w", err)
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query active URLs: %w", err)
	}

	return records, nil
}
