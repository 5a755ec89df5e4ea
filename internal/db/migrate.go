package db

import (
	"context"
	"database/sql"
)

const accountsMigration = `
CREATE TABLE IF NOT EXISTS accounts (
    id bigint PRIMARY KEY,
    email text NOT NULL UNIQUE,
    password text NOT NULL,
    type text NOT NULL DEFAULT 'USER',
    created_at timestamptz NOT NULL DEFAULT NOW()
);
`

func RunAccountsMigration(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, accountsMigration)
	return err
}
