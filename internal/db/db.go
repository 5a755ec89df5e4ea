package db

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
)

type DB struct {
	*sql.DB
}

// Open establishes the process-wide connection pool and verifies it
// with a ping before handing it out.
func Open(ctx context.Context, dsn string) (*DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}

	return &DB{DB: sqlDB}, nil
}
