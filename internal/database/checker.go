package database

import (
	"context"
	"database/sql"
)

// Checker exposes health and version probes of a connection pool.
type Checker struct {
	db *sql.DB
}

func NewChecker(db *sql.DB) *Checker {
	return &Checker{db: db}
}

func (c *Checker) HealthCheck(ctx context.Context) error {
	return HealthCheck(ctx, c.db)
}

func (c *Checker) Version(ctx context.Context) (string, error) {
	return GetVersion(ctx, c.db)
}
